package coupon

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonAmountChars = regexp.MustCompile(`[^\d.]`)

type Amount struct {
	value decimal.Decimal
}

// ParseAmount accepts currency-formatted input such as "$1,250.00 MXN".
// Anything that does not survive the cleanup falls back to zero.
func ParseAmount(raw string) Amount {
	cleaned := nonAmountChars.ReplaceAllString(raw, "")
	if cleaned == "" {
		return Amount{value: decimal.Zero}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Amount{value: decimal.Zero}
	}
	return Amount{value: d}
}

func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// Display renders two decimals with comma thousands separators: 1,234.50
func (a Amount) Display() string {
	fixed := a.value.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}

	return sign + b.String() + "." + fracPart
}
