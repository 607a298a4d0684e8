package repository

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/infra"
	"coupon-ledger/internal/usecase/commands"
)

// MemoryLedger keeps rows in process. Row indexes start at 1 to match the
// tabular backends. Contents are lost on restart.
type MemoryLedger struct {
	mu     sync.RWMutex
	rows   [][]string
	byCode map[coupon.Code]int
	logger *slog.Logger
}

func NewMemoryLedger(logger *slog.Logger) *MemoryLedger {
	return &MemoryLedger{
		byCode: make(map[coupon.Code]int),
		logger: logger,
	}
}

func (l *MemoryLedger) Append(_ context.Context, rec *coupon.Record) (commands.RowIndex, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := coupon.Code(strings.ToUpper(rec.Code().String()))
	if _, exists := l.byCode[key]; exists {
		return 0, infra.WrapRepoErr(l.logger, infra.KindDuplicateKey, "coupon code already exists", nil)
	}
	l.rows = append(l.rows, rec.Row())
	idx := len(l.rows)
	l.byCode[key] = idx
	return commands.RowIndex(idx), nil
}

func (l *MemoryLedger) FindByCode(_ context.Context, code coupon.Code) (commands.RowIndex, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.byCode[coupon.Code(strings.ToUpper(code.String()))]
	if !ok {
		return 0, infra.WrapRepoErr(l.logger, infra.KindNotFound, "coupon not found", nil)
	}
	return commands.RowIndex(idx), nil
}

func (l *MemoryLedger) Get(_ context.Context, row commands.RowIndex) (*coupon.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cells, err := l.rowLocked(row)
	if err != nil {
		return nil, err
	}
	return coupon.RecordFromRow(append([]string(nil), cells...))
}

func (l *MemoryLedger) ReadField(_ context.Context, row commands.RowIndex, field coupon.Field) (string, error) {
	if !field.Valid() {
		return "", coupon.ErrUnknownField
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	cells, err := l.rowLocked(row)
	if err != nil {
		return "", err
	}
	return cells[field-1], nil
}

func (l *MemoryLedger) WriteField(_ context.Context, row commands.RowIndex, field coupon.Field, value string) error {
	if !field.Valid() {
		return coupon.ErrUnknownField
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cells, err := l.rowLocked(row)
	if err != nil {
		return err
	}
	if field == coupon.FieldCode {
		return l.rekeyLocked(row, cells, value)
	}
	cells[field-1] = value
	return nil
}

func (l *MemoryLedger) CompareAndSwap(_ context.Context, row commands.RowIndex, field coupon.Field, expected, next string) (bool, error) {
	if !field.Valid() {
		return false, coupon.ErrUnknownField
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cells, err := l.rowLocked(row)
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(strings.TrimSpace(cells[field-1]), strings.TrimSpace(expected)) {
		return false, nil
	}
	if field == coupon.FieldCode {
		if err := l.rekeyLocked(row, cells, next); err != nil {
			return false, err
		}
		return true, nil
	}
	cells[field-1] = next
	return true, nil
}

// Len reports the number of rows.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

func (l *MemoryLedger) rowLocked(row commands.RowIndex) ([]string, error) {
	if row < 1 || int(row) > len(l.rows) {
		return nil, infra.WrapRepoErr(l.logger, infra.KindNotFound, "ledger row not found", nil)
	}
	return l.rows[row-1], nil
}

func (l *MemoryLedger) rekeyLocked(row commands.RowIndex, cells []string, value string) error {
	next := coupon.Code(strings.ToUpper(strings.TrimSpace(value)))
	if idx, exists := l.byCode[next]; exists && idx != int(row) {
		return infra.WrapRepoErr(l.logger, infra.KindDuplicateKey, "coupon code already exists", nil)
	}
	delete(l.byCode, coupon.Code(cells[coupon.FieldCode-1]))
	cells[coupon.FieldCode-1] = next.String()
	l.byCode[next] = int(row)
	return nil
}
