//go:build unit || e2e

package builder

import (
	"time"

	"coupon-ledger/internal/domain/coupon"
)

var FixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type CouponBuilder struct {
	BuyerName   string
	BuyerEmail  string
	Products    string
	TotalAmount string
	PurchasedAt string
	DateLayout  string
	Now         time.Time
}

func NewCouponBuilder() *CouponBuilder {
	return &CouponBuilder{
		BuyerName:   "Ana",
		BuyerEmail:  "ana@example.com",
		Products:    "Cena 2x1",
		TotalAmount: "250.00",
		PurchasedAt: "2024-05-01 10:00:00",
		DateLayout:  coupon.DefaultDateLayout,
		Now:         FixedNow,
	}
}

func (b *CouponBuilder) With(mutate func(*CouponBuilder)) *CouponBuilder {
	if mutate != nil {
		mutate(b)
	}
	return b
}

func (b *CouponBuilder) WithEmail(email string) *CouponBuilder {
	b.BuyerEmail = email
	return b
}

func (b *CouponBuilder) WithAmount(amount string) *CouponBuilder {
	b.TotalAmount = amount
	return b
}

func (b *CouponBuilder) WithDate(date string) *CouponBuilder {
	b.PurchasedAt = date
	return b
}

// Build methods
func (b *CouponBuilder) BuildPurchase() coupon.Purchase {
	return coupon.Purchase{
		BuyerName:   b.BuyerName,
		BuyerEmail:  b.BuyerEmail,
		Products:    b.Products,
		TotalAmount: b.TotalAmount,
		PurchasedAt: b.PurchasedAt,
	}
}

func (b *CouponBuilder) BuildRecord(code string) (*coupon.Record, error) {
	return coupon.NewRecord(coupon.Code(code), b.BuildPurchase(), b.DateLayout, b.Now)
}

func (b *CouponBuilder) MustBuildRecord(code string) *coupon.Record {
	rec, err := b.BuildRecord(code)
	if err != nil {
		panic(err)
	}
	return rec
}

// BuildWebhookPayload mirrors what the form integration posts.
func (b *CouponBuilder) BuildWebhookPayload() map[string]any {
	return map[string]any{
		"nombre":    b.BuyerName,
		"correo":    b.BuyerEmail,
		"productos": b.Products,
		"total":     b.TotalAmount,
		"fecha":     b.PurchasedAt,
	}
}
