// Package coupon models the coupon ledger row and its normalization rules.
//
// Purchase dates: ISO 8601 timestamps are reformatted to the configured
// layout, any other text is stored exactly as received, and a missing date is
// stamped with the issuance time so every row carries one.
package coupon

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptyCode         = errors.New("coupon code is empty")
	ErrInvalidCouponCode = errors.New("invalid coupon code format")
	ErrUnknownField      = errors.New("unknown ledger field")
)

var couponCodeRegex = regexp.MustCompile(`^[A-Z0-9]{4,32}$`)

type Code string

// NewCode normalizes a code typed or scanned at the point of sale. Only
// emptiness is rejected: a malformed code simply will not be found.
func NewCode(raw string) (Code, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return Code(""), ErrEmptyCode
	}
	return Code(code), nil
}

// ParseCode is the strict variant used for generated codes.
func ParseCode(raw string) (Code, error) {
	code, err := NewCode(raw)
	if err != nil {
		return Code(""), err
	}
	if !couponCodeRegex.MatchString(code.String()) {
		return Code(""), ErrInvalidCouponCode
	}
	return code, nil
}

func (c Code) String() string {
	return string(c)
}

type RedeemedFlag string

const (
	NotRedeemed RedeemedFlag = "NO"
	Redeemed    RedeemedFlag = "SI"
)

// ParseRedeemedFlag is case-insensitive; any value other than SI counts as
// not redeemed, including an empty cell.
func ParseRedeemedFlag(raw string) RedeemedFlag {
	if strings.EqualFold(strings.TrimSpace(raw), string(Redeemed)) {
		return Redeemed
	}
	return NotRedeemed
}

func (f RedeemedFlag) String() string {
	return string(f)
}

// Field identifies a ledger column. Values are the 1-based column positions,
// which the tabular backends address directly.
type Field int

const (
	FieldBuyerName Field = iota + 1
	FieldBuyerEmail
	FieldProductDescription
	FieldCode
	FieldAmount
	FieldReservedSlot
	FieldPurchaseDate
	FieldRedeemed
)

// ColumnCount is the fixed width of a ledger row.
const ColumnCount = int(FieldRedeemed)

var fieldNames = map[Field]string{
	FieldBuyerName:          "buyer_name",
	FieldBuyerEmail:         "buyer_email",
	FieldProductDescription: "product_description",
	FieldCode:               "code",
	FieldAmount:             "amount",
	FieldReservedSlot:       "reserved_slot",
	FieldPurchaseDate:       "purchase_date",
	FieldRedeemed:           "redeemed",
}

func (f Field) Valid() bool {
	_, ok := fieldNames[f]
	return ok
}

// Column returns the column name used by the SQL backend.
func (f Field) Column() string {
	return fieldNames[f]
}

// Letter returns the spreadsheet column letter (A..H).
func (f Field) Letter() string {
	return string(rune('A' + int(f) - 1))
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}
