package request

import "strings"

// RedeemRequest accepts the code under either key; point-of-sale scanners
// post {"codigo": ...}.
type RedeemRequest struct {
	Codigo string `json:"codigo" form:"codigo"`
	Code   string `json:"code" form:"code"`
}

func (r RedeemRequest) RawCode() string {
	if strings.TrimSpace(r.Codigo) != "" {
		return r.Codigo
	}
	return r.Code
}
