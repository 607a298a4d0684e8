//go:build unit

package coupon_test

import (
	"testing"
	"time"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	name   string
	mutate func(*builder.CouponBuilder)
	errIs  error
}

func TestRecord(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		actual, err := builder.NewCouponBuilder().BuildRecord("AB12CD34")
		require.NoError(t, err)
		require.NotNil(t, actual)

		expected := []string{"Ana", "ana@example.com", "Cena 2x1", "AB12CD34", "250.00", "-", "2024-05-01 10:00:00", "NO"}
		if diff := cmp.Diff(expected, actual.Row()); diff != "" {
			t.Errorf("Row mismatch (-want +got):\n%s", diff)
		}
		assert.False(t, actual.IsRedeemed())
		assert.Equal(t, coupon.NotRedeemed, actual.Redeemed())
	})

	t.Run("purchase validation", func(t *testing.T) {
		runCases(t, []testCase{
			{
				name:   "missing email is still recorded",
				mutate: func(b *builder.CouponBuilder) { b.WithEmail("") },
			},
			{
				name:   "whitespace only email is still recorded",
				mutate: func(b *builder.CouponBuilder) { b.WithEmail("   ") },
			},
			{
				name:   "unparseable amount falls back to zero",
				mutate: func(b *builder.CouponBuilder) { b.WithAmount("gratis") },
			},
			{
				name:   "unparseable date is kept",
				mutate: func(b *builder.CouponBuilder) { b.WithDate("primero de mayo") },
			},
		})
	})

	t.Run("amount fallback", func(t *testing.T) {
		rec, err := builder.NewCouponBuilder().WithAmount("TEXT(Valor total)").BuildRecord("AB12CD34")
		require.NoError(t, err)
		assert.Equal(t, "0.00", rec.Amount())
	})

	t.Run("date kept unmodified when not ISO", func(t *testing.T) {
		rec, err := builder.NewCouponBuilder().WithDate("01/05/2024").BuildRecord("AB12CD34")
		require.NoError(t, err)
		assert.Equal(t, "01/05/2024", rec.PurchaseDate())
	})

	t.Run("empty code rejected", func(t *testing.T) {
		_, err := builder.NewCouponBuilder().BuildRecord("")
		assert.ErrorIs(t, err, coupon.ErrEmptyCode)
	})

	t.Run("WithCode keeps the original untouched", func(t *testing.T) {
		rec := builder.NewCouponBuilder().MustBuildRecord("AAAA1111")
		other := rec.WithCode("BBBB2222")

		assert.Equal(t, coupon.Code("AAAA1111"), rec.Code())
		assert.Equal(t, coupon.Code("BBBB2222"), other.Code())
		assert.Equal(t, rec.BuyerEmail(), other.BuyerEmail())
	})
}

func TestRecordFromRow(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		rec := builder.NewCouponBuilder().MustBuildRecord("AB12CD34")

		actual, err := coupon.RecordFromRow(rec.Row())
		require.NoError(t, err)
		assert.Equal(t, rec.Row(), actual.Row())
	})

	t.Run("redeemed flag is case-insensitive", func(t *testing.T) {
		row := []string{"Ana", "ana@example.com", "Cena", "ab12cd34", "1.00", "-", "x", " si "}
		actual, err := coupon.RecordFromRow(row)
		require.NoError(t, err)
		assert.True(t, actual.IsRedeemed())
		assert.Equal(t, coupon.Code("AB12CD34"), actual.Code())
	})

	t.Run("trailing empty cells are padded", func(t *testing.T) {
		actual, err := coupon.RecordFromRow([]string{"Ana", "ana@example.com", "Cena", "AB12CD34"})
		require.NoError(t, err)
		assert.Equal(t, coupon.NotRedeemed, actual.Redeemed())
		assert.Empty(t, actual.PurchaseDate())
	})

	t.Run("empty code cell", func(t *testing.T) {
		_, err := coupon.RecordFromRow([]string{"Ana", "ana@example.com", "Cena", ""})
		assert.ErrorIs(t, err, coupon.ErrMalformedRow)
	})

	t.Run("too many cells", func(t *testing.T) {
		_, err := coupon.RecordFromRow(make([]string, coupon.ColumnCount+1))
		assert.ErrorIs(t, err, coupon.ErrMalformedRow)
	})
}

func TestRecordValue(t *testing.T) {
	rec := builder.NewCouponBuilder().MustBuildRecord("AB12CD34")

	code, err := rec.Value(coupon.FieldCode)
	require.NoError(t, err)
	assert.Equal(t, "AB12CD34", code)

	redeemed, err := rec.Value(coupon.FieldRedeemed)
	require.NoError(t, err)
	assert.Equal(t, "NO", redeemed)

	_, err = rec.Value(coupon.Field(99))
	assert.ErrorIs(t, err, coupon.ErrUnknownField)
}

func TestNormalizePurchaseDate(t *testing.T) {
	now := time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "already formatted", raw: "2024-05-01 10:00:00", want: "2024-05-01 10:00:00"},
		{name: "zulu", raw: "2024-05-01T10:00:00Z", want: "2024-05-01 10:00:00"},
		{name: "fractional zulu", raw: "2024-05-01T10:00:00.123Z", want: "2024-05-01 10:00:00"},
		{name: "offset keeps wall clock", raw: "2024-05-01T10:00:00-06:00", want: "2024-05-01 10:00:00"},
		{name: "no zone", raw: "2024-05-01T10:00:00", want: "2024-05-01 10:00:00"},
		{name: "minutes only zulu", raw: "2024-05-01T10:00Z", want: "2024-05-01 10:00:00"},
		{name: "garbage with T kept", raw: "TEXT(Fecha)", want: "TEXT(Fecha)"},
		{name: "empty uses now", raw: "  ", want: "2024-06-02 08:30:00"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, coupon.NormalizePurchaseDate(c.raw, coupon.DefaultDateLayout, now))
		})
	}
}

func runCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actual, err := builder.NewCouponBuilder().With(c.mutate).BuildRecord("AB12CD34")

			if c.errIs == nil {
				require.NoError(t, err)
				require.NotNil(t, actual)
				assert.Equal(t, coupon.NotRedeemed, actual.Redeemed())
			} else {
				assert.ErrorIs(t, err, c.errIs)
				assert.Nil(t, actual)
			}
		})
	}
}
