package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/infra"
	"coupon-ledger/internal/usecase/commands"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetsService authenticates with a service account key.
func NewSheetsService(ctx context.Context, credentialsJSON string, opts ...option.ClientOption) (*sheets.Service, error) {
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}
	opts = append([]option.ClientOption{option.WithTokenSource(creds.TokenSource)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return svc, nil
}

// SheetsLedger stores one coupon per spreadsheet row, columns A..H. Row
// indexes are spreadsheet row numbers.
//
// The API has no conditional write, so CompareAndSwap is read-then-write.
// It is atomic within this process; across processes it depends on callers
// holding the redemption lock.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string
	sheet         string
	hasHeader     bool
	logger        *slog.Logger

	mu sync.Mutex
}

func NewSheetsLedger(svc *sheets.Service, spreadsheetID, sheetName string, hasHeader bool, logger *slog.Logger) *SheetsLedger {
	return &SheetsLedger{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         quoteSheetName(sheetName),
		hasHeader:     hasHeader,
		logger:        logger,
	}
}

func (l *SheetsLedger) Append(ctx context.Context, rec *coupon.Record) (commands.RowIndex, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, found, err := l.scanCode(ctx, rec.Code()); err != nil {
		return 0, err
	} else if found {
		return 0, infra.WrapRepoErr(l.logger, infra.KindDuplicateKey, "coupon code already exists", nil)
	}

	vr := &sheets.ValueRange{Values: [][]any{toCells(rec.Row())}}
	resp, err := l.svc.Spreadsheets.Values.
		Append(l.spreadsheetID, l.sheet+"!A:H", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, l.wrapAPIErr("failed to append coupon row", err)
	}

	if resp.Updates != nil {
		if row, ok := firstRowOfRange(resp.Updates.UpdatedRange); ok {
			return commands.RowIndex(row), nil
		}
	}
	row, found, err := l.scanCode(ctx, rec.Code())
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, infra.WrapRepoErr(l.logger, infra.KindUpstreamFailure, "appended row not visible", nil)
	}
	return row, nil
}

func (l *SheetsLedger) FindByCode(ctx context.Context, code coupon.Code) (commands.RowIndex, error) {
	row, found, err := l.scanCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, infra.WrapRepoErr(l.logger, infra.KindNotFound, "coupon not found", nil)
	}
	return row, nil
}

func (l *SheetsLedger) Get(ctx context.Context, row commands.RowIndex) (*coupon.Record, error) {
	rng := fmt.Sprintf("%s!A%d:H%d", l.sheet, row, row)
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, l.wrapAPIErr("failed to read ledger row", err)
	}
	if len(resp.Values) == 0 {
		return nil, infra.WrapRepoErr(l.logger, infra.KindNotFound, "ledger row not found", nil)
	}
	rec, err := coupon.RecordFromRow(fromCells(resp.Values[0]))
	if err != nil {
		return nil, infra.WrapRepoErr(l.logger, infra.KindUpstreamFailure, "stored ledger row is malformed", err)
	}
	return rec, nil
}

func (l *SheetsLedger) ReadField(ctx context.Context, row commands.RowIndex, field coupon.Field) (string, error) {
	if !field.Valid() {
		return "", coupon.ErrUnknownField
	}
	return l.readCell(ctx, row, field)
}

func (l *SheetsLedger) WriteField(ctx context.Context, row commands.RowIndex, field coupon.Field, value string) error {
	if !field.Valid() {
		return coupon.ErrUnknownField
	}
	return l.writeCell(ctx, row, field, value)
}

func (l *SheetsLedger) CompareAndSwap(ctx context.Context, row commands.RowIndex, field coupon.Field, expected, next string) (bool, error) {
	if !field.Valid() {
		return false, coupon.ErrUnknownField
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.readCell(ctx, row, field)
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(strings.TrimSpace(current), strings.TrimSpace(expected)) {
		return false, nil
	}
	if err := l.writeCell(ctx, row, field, next); err != nil {
		return false, err
	}
	return true, nil
}

func (l *SheetsLedger) readCell(ctx context.Context, row commands.RowIndex, field coupon.Field) (string, error) {
	rng := fmt.Sprintf("%s!%s%d", l.sheet, field.Letter(), row)
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", l.wrapAPIErr("failed to read ledger cell", err)
	}
	// empty cells are omitted from the response
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprint(resp.Values[0][0]), nil
}

func (l *SheetsLedger) writeCell(ctx context.Context, row commands.RowIndex, field coupon.Field, value string) error {
	rng := fmt.Sprintf("%s!%s%d", l.sheet, field.Letter(), row)
	vr := &sheets.ValueRange{Values: [][]any{{value}}}
	_, err := l.svc.Spreadsheets.Values.
		Update(l.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return l.wrapAPIErr("failed to write ledger cell", err)
	}
	return nil
}

// scanCode reads the whole code column and returns the first matching row.
func (l *SheetsLedger) scanCode(ctx context.Context, code coupon.Code) (commands.RowIndex, bool, error) {
	rng := fmt.Sprintf("%s!%s:%s", l.sheet, coupon.FieldCode.Letter(), coupon.FieldCode.Letter())
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, false, l.wrapAPIErr("failed to scan code column", err)
	}

	for i, cells := range resp.Values {
		if i == 0 && l.hasHeader {
			continue
		}
		if len(cells) == 0 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(fmt.Sprint(cells[0])), code.String()) {
			return commands.RowIndex(i + 1), true, nil
		}
	}
	return 0, false, nil
}

// wrapAPIErr treats every API error as an upstream failure. A 404 from the
// API means a wrong spreadsheet or sheet name, not a missing coupon.
func (l *SheetsLedger) wrapAPIErr(msg string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg = fmt.Sprintf("%s (%s)", msg, http.StatusText(apiErr.Code))
	}
	return infra.WrapRepoErr(l.logger, infra.KindUpstreamFailure, msg, err)
}

func quoteSheetName(name string) string {
	if name == "" {
		name = "Sheet1"
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// firstRowOfRange extracts 5 from "'Sheet1'!A5:H5".
func firstRowOfRange(rng string) (int, bool) {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	start, _, _ := strings.Cut(rng, ":")
	digits := strings.TrimLeft(start, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

func fromCells(cells []any) []string {
	row := make([]string, len(cells))
	for i, v := range cells {
		row[i] = fmt.Sprint(v)
	}
	return row
}
