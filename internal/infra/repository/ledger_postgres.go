package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/infra"
	"coupon-ledger/internal/usecase/commands"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema/coupon_ledger.sql
var couponLedgerSchema string

const pgUniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectRecordColumns = `buyer_name, buyer_email, product_description, code, amount, reserved_slot, purchase_date, redeemed`

type PostgresLedger struct {
	db     DBTX
	logger *slog.Logger
}

func NewPostgresLedger(db DBTX, logger *slog.Logger) *PostgresLedger {
	return &PostgresLedger{db: db, logger: logger}
}

// EnsureSchema creates the ledger table and its unique code index if missing.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, couponLedgerSchema); err != nil {
		return infra.WrapRepoErr(l.logger, infra.KindDBFailure, "failed to apply ledger schema", err)
	}
	return nil
}

func (l *PostgresLedger) Append(ctx context.Context, rec *coupon.Record) (commands.RowIndex, error) {
	const q = `INSERT INTO coupon_ledger (` + selectRecordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING row_no`

	args := make([]any, 0, coupon.ColumnCount)
	for _, v := range rec.Row() {
		args = append(args, v)
	}

	var rowNo int64
	if err := l.db.QueryRow(ctx, q, args...).Scan(&rowNo); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, infra.WrapRepoErr(l.logger, infra.KindDuplicateKey, "coupon code already exists", err)
		}
		return 0, infra.WrapRepoErr(l.logger, infra.KindDBFailure, "failed to append coupon", err)
	}
	return commands.RowIndex(rowNo), nil
}

func (l *PostgresLedger) FindByCode(ctx context.Context, code coupon.Code) (commands.RowIndex, error) {
	const q = `SELECT row_no FROM coupon_ledger WHERE code = $1`

	var rowNo int64
	if err := l.db.QueryRow(ctx, q, strings.ToUpper(code.String())).Scan(&rowNo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, infra.WrapRepoErr(l.logger, infra.KindNotFound, "coupon not found", err)
		}
		return 0, infra.WrapRepoErr(l.logger, infra.KindDBFailure, "failed to find coupon by code", err)
	}
	return commands.RowIndex(rowNo), nil
}

func (l *PostgresLedger) Get(ctx context.Context, row commands.RowIndex) (*coupon.Record, error) {
	const q = `SELECT ` + selectRecordColumns + ` FROM coupon_ledger WHERE row_no = $1`

	cells := make([]string, coupon.ColumnCount)
	dest := make([]any, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}
	if err := l.db.QueryRow(ctx, q, int64(row)).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(l.logger, infra.KindNotFound, "ledger row not found", err)
		}
		return nil, infra.WrapRepoErr(l.logger, infra.KindDBFailure, "failed to read ledger row", err)
	}

	rec, err := coupon.RecordFromRow(cells)
	if err != nil {
		return nil, infra.WrapRepoErr(l.logger, infra.KindDBFailure, "stored ledger row is malformed", err)
	}
	return rec, nil
}

func (l *PostgresLedger) ReadField(ctx context.Context, row commands.RowIndex, field coupon.Field) (string, error) {
	if !field.Valid() {
		return "", coupon.ErrUnknownField
	}
	// column names come from the fixed Field table, never from input
	q := fmt.Sprintf(`SELECT %s FROM coupon_ledger WHERE row_no = $1`, field.Column())

	var value string
	if err := l.db.QueryRow(ctx, q, int64(row)).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", infra.WrapRepoErr(l.logger, infra.KindNotFound, "ledger row not found", err)
		}
		return "", infra.WrapRepoErr(l.logger, infra.KindDBFailure, "failed to read ledger field", err)
	}
	return value, nil
}

func (l *PostgresLedger) WriteField(ctx context.Context, row commands.RowIndex, field coupon.Field, value string) error {
	if !field.Valid() {
		return coupon.ErrUnknownField
	}
	q := fmt.Sprintf(`UPDATE coupon_ledger SET %s = $2%s WHERE row_no = $1`, field.Column(), redeemedAtClause(field, "$2"))

	tag, err := l.db.Exec(ctx, q, int64(row), value)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return infra.WrapRepoErr(l.logger, infra.KindDuplicateKey, "coupon code already exists", err)
		}
		return infra.WrapRepoErr(l.logger, infra.KindDBFailure, "failed to write ledger field", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(l.logger, infra.KindNotFound, "ledger row not found", nil)
	}
	return nil
}

// CompareAndSwap is a single conditional UPDATE, so it stays atomic across
// processes without the redemption lock.
func (l *PostgresLedger) CompareAndSwap(ctx context.Context, row commands.RowIndex, field coupon.Field, expected, next string) (bool, error) {
	if !field.Valid() {
		return false, coupon.ErrUnknownField
	}
	q := fmt.Sprintf(`UPDATE coupon_ledger SET %[1]s = $3%[2]s WHERE row_no = $1 AND upper(trim(%[1]s)) = upper(trim($2))`,
		field.Column(), redeemedAtClause(field, "$3"))

	tag, err := l.db.Exec(ctx, q, int64(row), expected, next)
	if err != nil {
		return false, infra.WrapRepoErr(l.logger, infra.KindDBFailure, "failed to swap ledger field", err)
	}
	return tag.RowsAffected() == 1, nil
}

// redeemedAtClause keeps redeemed_at in step with the flag written from param.
func redeemedAtClause(field coupon.Field, param string) string {
	if field == coupon.FieldRedeemed {
		return `, redeemed_at = CASE WHEN upper(` + param + `::text) = 'SI' THEN now() ELSE NULL END`
	}
	return ""
}
