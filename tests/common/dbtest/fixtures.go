//go:build unit || e2e

package dbtest

import (
	"context"
	"testing"
	"time"

	"coupon-ledger/internal/domain/coupon"

	"github.com/stretchr/testify/require"
)

// empties the ledger and restarts row numbering
func ResetDB(db DBLike) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := db.Exec(ctx, "TRUNCATE coupon_ledger RESTART IDENTITY")
	return err
}

// inserts a ledger row directly, bypassing issuance
func InsertCoupon(t *testing.T, db DBLike, rec *coupon.Record) int64 {
	t.Helper()

	cells := rec.Row()
	var rowNo int64
	err := db.QueryRow(context.Background(), `
		INSERT INTO coupon_ledger
		  (buyer_name, buyer_email, product_description, code, amount, reserved_slot, purchase_date, redeemed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING row_no`,
		cells[0], cells[1], cells[2], cells[3], cells[4], cells[5], cells[6], cells[7],
	).Scan(&rowNo)
	require.NoError(t, err)
	return rowNo
}

// reads the redeemed column straight from the table
func RedeemedFlag(t *testing.T, db DBLike, code string) string {
	t.Helper()

	var flag string
	err := db.QueryRow(context.Background(),
		"SELECT redeemed FROM coupon_ledger WHERE code = $1", code).Scan(&flag)
	require.NoError(t, err)
	return flag
}

func CountCoupons(t *testing.T, db DBLike) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM coupon_ledger").Scan(&n)
	require.NoError(t, err)
	return n
}
