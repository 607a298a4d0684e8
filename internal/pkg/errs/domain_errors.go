package errs

import "errors"

// Sentinel errors shared by the issuance and redemption use cases
var (
	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// Coupon errors
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrAlreadyRedeemed = errors.New("coupon already redeemed")
	ErrDuplicateCode   = errors.New("duplicate coupon code")

	// Upstream errors (ledger, lock, mail provider)
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
