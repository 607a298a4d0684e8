package queries

import (
	"context"

	"coupon-ledger/internal/domain/coupon"
	"coupon-ledger/internal/infra"
	"coupon-ledger/internal/pkg/errs"
	"coupon-ledger/internal/usecase/commands"
)

// CouponView is what anyone holding a code may see, so the email is redacted.
type CouponView struct {
	Code               string `json:"code"`
	BuyerName          string `json:"buyer_name"`
	BuyerEmail         string `json:"buyer_email"`
	ProductDescription string `json:"product_description"`
	Amount             string `json:"amount"`
	PurchaseDate       string `json:"purchase_date"`
	Redeemed           bool   `json:"redeemed"`
	RedemptionURL      string `json:"redemption_url"`
	ImageURL           string `json:"image_url"`
}

// CouponReadStore is the read half of the ledger.
type CouponReadStore interface {
	FindByCode(ctx context.Context, code coupon.Code) (commands.RowIndex, error)
	Get(ctx context.Context, row commands.RowIndex) (*coupon.Record, error)
}

type ImageRenderer interface {
	PNG(content string) ([]byte, error)
}

type CouponQueries interface {
	GetByCode(ctx context.Context, rawCode string) (*CouponView, error)
	// Image renders the scannable image for an issued code. It encodes the
	// redemption URL and is only produced for codes present in the ledger.
	Image(ctx context.Context, rawCode string) ([]byte, error)
}

type couponQueriesImpl struct {
	store    CouponReadStore
	renderer ImageRenderer
	links    coupon.Links
}

func NewCouponQueries(store CouponReadStore, renderer ImageRenderer, links coupon.Links) CouponQueries {
	return &couponQueriesImpl{store: store, renderer: renderer, links: links}
}

func (q *couponQueriesImpl) GetByCode(ctx context.Context, rawCode string) (*CouponView, error) {
	rec, err := q.find(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	return &CouponView{
		Code:               rec.Code().String(),
		BuyerName:          rec.BuyerName(),
		BuyerEmail:         coupon.RedactEmail(rec.BuyerEmail()),
		ProductDescription: rec.ProductDescription(),
		Amount:             rec.Amount(),
		PurchaseDate:       rec.PurchaseDate(),
		Redeemed:           rec.IsRedeemed(),
		RedemptionURL:      q.links.RedemptionURL(rec.Code()),
		ImageURL:           q.links.ImageURL(rec.Code()),
	}, nil
}

func (q *couponQueriesImpl) Image(ctx context.Context, rawCode string) ([]byte, error) {
	rec, err := q.find(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	png, err := q.renderer.PNG(q.links.RedemptionURL(rec.Code()))
	if err != nil {
		return nil, errs.Wrap(err, "render coupon image")
	}
	return png, nil
}

func (q *couponQueriesImpl) find(ctx context.Context, rawCode string) (*coupon.Record, error) {
	code, err := coupon.NewCode(rawCode)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInput)
	}
	row, err := q.store.FindByCode(ctx, code)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrCouponNotFound)
		}
		return nil, errs.Mark(err, errs.ErrUpstreamUnavailable)
	}
	rec, err := q.store.Get(ctx, row)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrUpstreamUnavailable)
	}
	return rec, nil
}
