package coupon

import (
	"strings"
	"time"
)

const DefaultDateLayout = "2006-01-02 15:04:05"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// NormalizePurchaseDate reformats ISO 8601 timestamps into layout. Strings that
// are not ISO timestamps are kept as they arrived; an empty value is replaced
// by now so the row always carries a date.
func NormalizePurchaseDate(raw, layout string, now time.Time) string {
	if layout == "" {
		layout = DefaultDateLayout
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return now.Format(layout)
	}
	if !strings.Contains(value, "T") {
		return value
	}

	for _, l := range isoLayouts {
		if t, err := time.Parse(l, value); err == nil {
			return t.Format(layout)
		}
	}

	// Zulu suffix without a full RFC3339 shape, e.g. 2024-05-01T10:00Z
	trimmed := strings.TrimSuffix(value, "Z")
	for _, l := range isoLayouts[1:] {
		if t, err := time.Parse(l, trimmed); err == nil {
			return t.Format(layout)
		}
	}

	return value
}
