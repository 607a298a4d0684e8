package coupon

import (
	"net/url"
	"strings"
)

// Links builds the public URLs tied to a code.
type Links struct {
	baseURL string
}

func NewLinks(baseURL string) Links {
	return Links{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// RedemptionURL is what the coupon image encodes: the validator page with the
// code prefilled.
func (l Links) RedemptionURL(code Code) string {
	return l.baseURL + "/validar?codigo=" + url.QueryEscape(code.String())
}

func (l Links) ImageURL(code Code) string {
	return l.baseURL + "/api/coupons/" + url.PathEscape(code.String()) + "/qr.png"
}
