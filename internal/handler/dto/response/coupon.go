package response

import (
	"coupon-ledger/internal/usecase/queries"
)

// Status values of StatusResponse.
const (
	StatusSuccess = "success"
	StatusValid   = "valid"
	StatusInvalid = "invalid"
	StatusError   = "error"
)

// StatusResponse is the body of the webhook and redemption endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type IssueResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Notified bool   `json:"notified"`
}

type CouponResponse struct {
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

func FromCouponView(v *queries.CouponView) *CouponResponse {
	return &CouponResponse{
		Code:               v.Code,
		BuyerName:          v.BuyerName,
		BuyerEmail:         v.BuyerEmail,
		ProductDescription: v.ProductDescription,
		Amount:             v.Amount,
		PurchaseDate:       v.PurchaseDate,
		Redeemed:           v.Redeemed,
		RedemptionURL:      v.RedemptionURL,
		ImageURL:           v.ImageURL,
	}
}
