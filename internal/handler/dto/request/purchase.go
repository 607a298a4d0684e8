package request

import (
	"fmt"
	"regexp"
	"strings"

	"coupon-ledger/internal/domain/coupon"
)

// PurchasePayload is the webhook body after field cleanup.
type PurchasePayload struct {
	Nombre    string `json:"nombre"`
	Correo    string `json:"correo"`
	Productos string `json:"productos"`
	Total     string `json:"total"`
	Fecha     string `json:"fecha"`
}

func (p PurchasePayload) ToPurchase() coupon.Purchase {
	return coupon.Purchase{
		BuyerName:   p.Nombre,
		BuyerEmail:  p.Correo,
		Products:    p.Productos,
		TotalAmount: p.Total,
		PurchasedAt: p.Fecha,
	}
}

// PayloadNormalizer maps the fields an integration posts onto a
// PurchasePayload.
type PayloadNormalizer interface {
	Normalize(fields map[string]any) PurchasePayload
}

var fieldAliases = map[string][]string{
	"nombre":    {"nombre", "name"},
	"correo":    {"correo", "email"},
	"productos": {"productos", "products"},
	"total":     {"total", "amount"},
	"fecha":     {"fecha", "date"},
}

var (
	wixJoin = regexp.MustCompile(`^JOIN\((.*)\)`)
	wixText = regexp.MustCompile(`^TEXT\((.*)\)`)
)

// WixNormalizer unwraps the JOIN(...) and TEXT(...) expressions Wix
// automations leave in unresolved fields.
type WixNormalizer struct{}

func (WixNormalizer) Normalize(fields map[string]any) PurchasePayload {
	get := func(key string) string {
		for _, alias := range fieldAliases[key] {
			if v, ok := fields[alias]; ok && v != nil {
				return CleanWixValue(fmt.Sprint(v))
			}
		}
		return ""
	}
	return PurchasePayload{
		Nombre:    get("nombre"),
		Correo:    get("correo"),
		Productos: get("productos"),
		Total:     get("total"),
		Fecha:     get("fecha"),
	}
}

func CleanWixValue(value string) string {
	if m := wixJoin.FindStringSubmatch(value); m != nil {
		inner := stripQuotes(m[1])
		inner = strings.ReplaceAll(inner, ",", ", ")
		return strings.TrimSpace(inner)
	}
	if m := wixText.FindStringSubmatch(value); m != nil {
		return strings.TrimSpace(stripQuotes(m[1]))
	}
	return strings.TrimSpace(value)
}

func stripQuotes(s string) string {
	return strings.NewReplacer("'", "", `"`, "").Replace(s)
}

// UnwrapEnvelope returns fields["data"] when the integration nests the
// payload, and fields otherwise.
func UnwrapEnvelope(fields map[string]any) map[string]any {
	if inner, ok := fields["data"].(map[string]any); ok {
		return inner
	}
	return fields
}
