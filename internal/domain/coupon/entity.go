package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ReservedSlotPlaceholder fills the sixth column, which nothing reads.
const ReservedSlotPlaceholder = "-"

var ErrMalformedRow = errors.New("ledger row does not have the expected columns")

// Purchase is a normalized purchase notification, before a code is bound to it.
type Purchase struct {
	BuyerName   string
	BuyerEmail  string
	Products    string
	TotalAmount string
	PurchasedAt string
}

// Record is one ledger row. Only the redeemed flag changes after creation.
type Record struct {
	buyerName          string
	buyerEmail         string
	productDescription string
	code               Code
	amount             string
	reservedSlot       string
	purchaseDate       string
	redeemed           RedeemedFlag
}

// NewRecord binds code to purchase. The amount and date are normalized here
// with local fallbacks instead of failing the issuance. A purchase without an
// email is still recorded; it just cannot be delivered.
func NewRecord(code Code, p Purchase, dateLayout string, now time.Time) (*Record, error) {
	if code == "" {
		return nil, ErrEmptyCode
	}

	return &Record{
		buyerName:          strings.TrimSpace(p.BuyerName),
		buyerEmail:         strings.TrimSpace(p.BuyerEmail),
		productDescription: strings.TrimSpace(p.Products),
		code:               code,
		amount:             ParseAmount(p.TotalAmount).Display(),
		reservedSlot:       ReservedSlotPlaceholder,
		purchaseDate:       NormalizePurchaseDate(p.PurchasedAt, dateLayout, now),
		redeemed:           NotRedeemed,
	}, nil
}

// WithCode returns a copy bound to a different code, used when a generated
// code collides and issuance retries.
func (r *Record) WithCode(code Code) *Record {
	cp := *r
	cp.code = code
	return &cp
}

// Row returns the values in ledger column order.
func (r *Record) Row() []string {
	return []string{
		r.buyerName,
		r.buyerEmail,
		r.productDescription,
		r.code.String(),
		r.amount,
		r.reservedSlot,
		r.purchaseDate,
		r.redeemed.String(),
	}
}

// RecordFromRow rebuilds a record from stored cells. Short rows are padded,
// since tabular stores drop trailing empty cells.
func RecordFromRow(row []string) (*Record, error) {
	if len(row) > ColumnCount {
		return nil, fmt.Errorf("%w: got %d cells", ErrMalformedRow, len(row))
	}
	cells := make([]string, ColumnCount)
	copy(cells, row)

	code := Code(strings.ToUpper(strings.TrimSpace(cells[FieldCode-1])))
	if code == "" {
		return nil, fmt.Errorf("%w: empty code cell", ErrMalformedRow)
	}

	return &Record{
		buyerName:          cells[FieldBuyerName-1],
		buyerEmail:         cells[FieldBuyerEmail-1],
		productDescription: cells[FieldProductDescription-1],
		code:               code,
		amount:             cells[FieldAmount-1],
		reservedSlot:       cells[FieldReservedSlot-1],
		purchaseDate:       cells[FieldPurchaseDate-1],
		redeemed:           ParseRedeemedFlag(cells[FieldRedeemed-1]),
	}, nil
}

func (r *Record) Value(f Field) (string, error) {
	if !f.Valid() {
		return "", ErrUnknownField
	}
	return r.Row()[f-1], nil
}

func (r *Record) IsRedeemed() bool { return r.redeemed == Redeemed }

func (r *Record) BuyerName() string { return r.buyerName }
func (r *Record) BuyerEmail() string { return r.buyerEmail }
func (r *Record) ProductDescription() string { return r.productDescription }
func (r *Record) Code() Code { return r.code }
func (r *Record) Amount() string { return r.amount }
func (r *Record) ReservedSlot() string { return r.reservedSlot }
func (r *Record) PurchaseDate() string { return r.purchaseDate }
func (r *Record) Redeemed() RedeemedFlag { return r.redeemed }
