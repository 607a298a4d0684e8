//go:build unit

package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/infra"
	"coupon-ledger/internal/usecase/commands"
	"coupon-ledger/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheet serves the subset of the Sheets values API the ledger uses.
type fakeSheet struct {
	mu       sync.Mutex
	rows     [][]string
	failWith int
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != 0 {
		w.WriteHeader(f.failWith)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": f.failWith, "message": "boom"}})
		return
	}

	_, rng, ok := strings.Cut(r.URL.Path, "/values/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":append"):
		var body sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, cells := range body.Values {
			f.rows = append(f.rows, fromCells(cells))
		}
		n := len(f.rows)
		writeJSON(w, map[string]any{
			"updates": map[string]any{"updatedRange": "'Sheet1'!A" + strconv.Itoa(n) + ":H" + strconv.Itoa(n)},
		})
	case r.Method == http.MethodPut:
		var body sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, cell, _ := strings.Cut(rng, "!")
		col, row := parseCell(cell)
		for len(f.rows) < row {
			f.rows = append(f.rows, nil)
		}
		for len(f.rows[row-1]) <= col {
			f.rows[row-1] = append(f.rows[row-1], "")
		}
		f.rows[row-1][col] = body.Values[0][0].(string)
		writeJSON(w, map[string]any{"updatedCells": 1})
	case r.Method == http.MethodGet:
		writeJSON(w, map[string]any{"values": f.read(rng)})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

// read handles "X:X" column ranges, "A5:H5" row ranges and single cells.
func (f *fakeSheet) read(rng string) [][]string {
	_, rng, _ = strings.Cut(rng, "!")
	start, end, isRange := strings.Cut(rng, ":")

	startCol, startRow := parseCell(start)
	if !isRange {
		if startRow > len(f.rows) || startCol >= len(f.rows[startRow-1]) || f.rows[startRow-1][startCol] == "" {
			return [][]string{}
		}
		return [][]string{{f.rows[startRow-1][startCol]}}
	}

	endCol, _ := parseCell(end)
	var out [][]string
	for i, cells := range f.rows {
		if startRow != 0 && i+1 != startRow {
			continue
		}
		var slice []string
		for c := startCol; c <= endCol && c < len(cells); c++ {
			slice = append(slice, cells[c])
		}
		out = append(out, trimTrailingEmpty(slice))
	}
	return out
}

func parseCell(ref string) (col int, row int) {
	letters := strings.TrimRight(ref, "0123456789")
	if len(letters) > 0 {
		col = int(letters[0] - 'A')
	}
	row, _ = strconv.Atoi(ref[len(letters):])
	return col, row
}

func trimTrailingEmpty(cells []string) []string {
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	if cells == nil {
		return []string{}
	}
	return cells
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newSheetsLedgerForTest(t *testing.T, fake *fakeSheet) *SheetsLedger {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return NewSheetsLedger(svc, "sheet-id", "Sheet1", true, discardLogger())
}

func header() []string {
	return []string{"Nombre", "Correo", "Productos", "Codigo", "Total", "-", "Fecha", "Canjeado"}
}

func TestSheetsLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("append returns the spreadsheet row", func(t *testing.T) {
		fake := &fakeSheet{rows: [][]string{header()}}
		l := newSheetsLedgerForTest(t, fake)

		row, err := l.Append(ctx, builder.NewCouponBuilder().MustBuildRecord("AB12CD34"))
		require.NoError(t, err)
		assert.Equal(t, commands.RowIndex(2), row)
		assert.Equal(t, "AB12CD34", fake.rows[1][coupon.FieldCode-1])
		assert.Equal(t, "NO", fake.rows[1][coupon.FieldRedeemed-1])
	})

	t.Run("header is never matched", func(t *testing.T) {
		fake := &fakeSheet{rows: [][]string{header()}}
		l := newSheetsLedgerForTest(t, fake)

		_, err := l.FindByCode(ctx, "CODIGO")
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})

	t.Run("duplicate code", func(t *testing.T) {
		fake := &fakeSheet{rows: [][]string{header()}}
		l := newSheetsLedgerForTest(t, fake)

		_, err := l.Append(ctx, builder.NewCouponBuilder().MustBuildRecord("AB12CD34"))
		require.NoError(t, err)
		_, err = l.Append(ctx, builder.NewCouponBuilder().MustBuildRecord("AB12CD34"))
		assert.True(t, infra.IsKind(err, infra.KindDuplicateKey))
		assert.Len(t, fake.rows, 2)
	})

	t.Run("find, read and swap the redeemed flag", func(t *testing.T) {
		fake := &fakeSheet{rows: [][]string{
			header(),
			{"Luis", "luis@example.com", "Pizza", "ZZZZ9999", "10.00", "-", "x", "NO"},
			{"Ana", "ana@example.com", "Cena 2x1", "AB12CD34", "250.00", "-", "2024-05-01 10:00:00", "NO"},
		}}
		l := newSheetsLedgerForTest(t, fake)

		row, err := l.FindByCode(ctx, "ab12cd34")
		require.NoError(t, err)
		assert.Equal(t, commands.RowIndex(3), row)

		flag, err := l.ReadField(ctx, row, coupon.FieldRedeemed)
		require.NoError(t, err)
		assert.Equal(t, "NO", flag)

		swapped, err := l.CompareAndSwap(ctx, row, coupon.FieldRedeemed, "NO", "SI")
		require.NoError(t, err)
		assert.True(t, swapped)
		assert.Equal(t, "SI", fake.rows[2][coupon.FieldRedeemed-1])
		assert.Equal(t, "NO", fake.rows[1][coupon.FieldRedeemed-1])

		swapped, err = l.CompareAndSwap(ctx, row, coupon.FieldRedeemed, "NO", "SI")
		require.NoError(t, err)
		assert.False(t, swapped)

		rec, err := l.Get(ctx, row)
		require.NoError(t, err)
		assert.True(t, rec.IsRedeemed())
		assert.Equal(t, "Ana", rec.BuyerName())
	})

	t.Run("blank redeemed cell reads as empty", func(t *testing.T) {
		fake := &fakeSheet{rows: [][]string{
			header(),
			{"Ana", "ana@example.com", "Cena", "AB12CD34", "1.00", "-", "x"},
		}}
		l := newSheetsLedgerForTest(t, fake)

		flag, err := l.ReadField(ctx, 2, coupon.FieldRedeemed)
		require.NoError(t, err)
		assert.Equal(t, "", flag)

		rec, err := l.Get(ctx, 2)
		require.NoError(t, err)
		assert.False(t, rec.IsRedeemed())
	})

	t.Run("blank or padded flag swaps against the value read", func(t *testing.T) {
		fake := &fakeSheet{rows: [][]string{
			header(),
			{"Ana", "ana@example.com", "Cena", "AB12CD34", "1.00", "-", "x"},
			{"Luis", "luis@example.com", "Pizza", "ZZZZ9999", "10.00", "-", "x", " no "},
		}}
		l := newSheetsLedgerForTest(t, fake)

		for _, row := range []commands.RowIndex{2, 3} {
			current, err := l.ReadField(ctx, row, coupon.FieldRedeemed)
			require.NoError(t, err)

			swapped, err := l.CompareAndSwap(ctx, row, coupon.FieldRedeemed, current, "SI")
			require.NoError(t, err)
			assert.True(t, swapped, "row %d", row)
			assert.Equal(t, "SI", fake.rows[row-1][coupon.FieldRedeemed-1])

			swapped, err = l.CompareAndSwap(ctx, row, coupon.FieldRedeemed, current, "SI")
			require.NoError(t, err)
			assert.False(t, swapped, "row %d", row)
		}
	})

	t.Run("api errors are upstream failures", func(t *testing.T) {
		fake := &fakeSheet{failWith: http.StatusNotFound}
		l := newSheetsLedgerForTest(t, fake)

		_, err := l.FindByCode(ctx, "AB12CD34")
		assert.True(t, infra.IsKind(err, infra.KindUpstreamFailure))
	})
}

func TestFirstRowOfRange(t *testing.T) {
	row, ok := firstRowOfRange("'Sheet1'!A12:H12")
	assert.True(t, ok)
	assert.Equal(t, 12, row)

	_, ok = firstRowOfRange("'Sheet1'!A:H")
	assert.False(t, ok)
}
