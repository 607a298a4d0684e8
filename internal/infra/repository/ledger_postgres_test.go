//go:build unit

package repository

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/infra"
	"coupon-ledger/internal/usecase/commands"
	"coupon-ledger/tests/common/builder"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDBTX struct {
	mock.Mock
}

func (m *MockDBTX) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgconn.CommandTag), mockArgs.Error(1)
}

func (m *MockDBTX) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgx.Rows), mockArgs.Error(1)
}

func (m *MockDBTX) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgx.Row)
}

// stubRow scans fixed values into the destinations.
type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sqlContains(fragment string) any {
	return mock.MatchedBy(func(q string) bool { return strings.Contains(q, fragment) })
}

func TestPostgresLedgerAppend(t *testing.T) {
	rec := builder.NewCouponBuilder().MustBuildRecord("AB12CD34")

	tests := []struct {
		name     string
		row      stubRow
		wantRow  commands.RowIndex
		wantKind infra.RepositoryErrorKind
	}{
		{
			name:    "success",
			row:     stubRow{values: []any{int64(7)}},
			wantRow: 7,
		},
		{
			name:     "unique violation",
			row:      stubRow{err: &pgconn.PgError{Code: "23505"}},
			wantKind: infra.KindDuplicateKey,
		},
		{
			name:     "database error",
			row:      stubRow{err: assert.AnError},
			wantKind: infra.KindDBFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := new(MockDBTX)
			db.On("QueryRow", mock.Anything, sqlContains("INSERT INTO coupon_ledger"), mock.Anything).Return(tt.row)

			row, err := NewPostgresLedger(db, discardLogger()).Append(context.Background(), rec)

			if tt.wantKind != "" {
				assert.True(t, infra.IsKind(err, tt.wantKind), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRow, row)
			}
			db.AssertExpectations(t)
		})
	}
}

func TestPostgresLedgerAppendPassesRowInColumnOrder(t *testing.T) {
	rec := builder.NewCouponBuilder().MustBuildRecord("AB12CD34")
	db := new(MockDBTX)

	var got []any
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).([]any) }).
		Return(stubRow{values: []any{int64(1)}})

	_, err := NewPostgresLedger(db, discardLogger()).Append(context.Background(), rec)
	require.NoError(t, err)

	require.Len(t, got, coupon.ColumnCount)
	assert.Equal(t, "AB12CD34", got[coupon.FieldCode-1])
	assert.Equal(t, "NO", got[coupon.FieldRedeemed-1])
}

func TestPostgresLedgerFindByCode(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := new(MockDBTX)
		db.On("QueryRow", mock.Anything, sqlContains("WHERE code = $1"), []any{"AB12CD34"}).
			Return(stubRow{values: []any{int64(3)}})

		row, err := NewPostgresLedger(db, discardLogger()).FindByCode(context.Background(), "ab12cd34")
		require.NoError(t, err)
		assert.Equal(t, commands.RowIndex(3), row)
	})

	t.Run("not found", func(t *testing.T) {
		db := new(MockDBTX)
		db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(stubRow{err: pgx.ErrNoRows})

		_, err := NewPostgresLedger(db, discardLogger()).FindByCode(context.Background(), "NOPE")
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})
}

func TestPostgresLedgerCompareAndSwap(t *testing.T) {
	tests := []struct {
		name        string
		tag         string
		execErr     error
		wantSwapped bool
		wantErr     bool
	}{
		{name: "swapped", tag: "UPDATE 1", wantSwapped: true},
		{name: "lost the race", tag: "UPDATE 0", wantSwapped: false},
		{name: "database error", execErr: assert.AnError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := new(MockDBTX)
			db.On("Exec", mock.Anything,
				sqlContains("WHERE row_no = $1 AND upper(trim(redeemed)) = upper(trim($2))"),
				[]any{int64(5), "NO", "SI"},
			).Return(pgconn.NewCommandTag(tt.tag), tt.execErr)

			swapped, err := NewPostgresLedger(db, discardLogger()).
				CompareAndSwap(context.Background(), 5, coupon.FieldRedeemed, "NO", "SI")

			if tt.wantErr {
				assert.True(t, infra.IsKind(err, infra.KindDBFailure))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSwapped, swapped)
			db.AssertExpectations(t)
		})
	}
}

func TestPostgresLedgerWriteField(t *testing.T) {
	t.Run("missing row", func(t *testing.T) {
		db := new(MockDBTX)
		db.On("Exec", mock.Anything, sqlContains("SET amount = $2"), mock.Anything).
			Return(pgconn.NewCommandTag("UPDATE 0"), nil)

		err := NewPostgresLedger(db, discardLogger()).WriteField(context.Background(), 9, coupon.FieldAmount, "1.00")
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})

	t.Run("unknown field never reaches the database", func(t *testing.T) {
		db := new(MockDBTX)
		err := NewPostgresLedger(db, discardLogger()).WriteField(context.Background(), 1, coupon.Field(42), "x")
		assert.ErrorIs(t, err, coupon.ErrUnknownField)
		db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPostgresLedgerGet(t *testing.T) {
	cells := []any{"Ana", "ana@example.com", "Cena 2x1", "AB12CD34", "250.00", "-", "2024-05-01 10:00:00", "SI"}
	db := new(MockDBTX)
	db.On("QueryRow", mock.Anything, sqlContains("FROM coupon_ledger WHERE row_no = $1"), []any{int64(2)}).
		Return(stubRow{values: cells})

	rec, err := NewPostgresLedger(db, discardLogger()).Get(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, rec.IsRedeemed())
	assert.Equal(t, "ana@example.com", rec.BuyerEmail())
}
