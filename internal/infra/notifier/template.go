package notifier

import (
	"embed"
	"fmt"
	"strings"

	"coupon-ledger/internal/usecase/commands"

	"github.com/osteele/liquid"
)

//go:embed templates/*.liquid
var templateFS embed.FS

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// TemplateRenderer turns an issuance notice into an email. Templates are
// parsed once at construction.
type TemplateRenderer struct {
	brand   string
	subject *liquid.Template
	text    *liquid.Template
	html    *liquid.Template
}

func NewTemplateRenderer(brand string) (*TemplateRenderer, error) {
	engine := liquid.NewEngine()

	parse := func(name string) (*liquid.Template, error) {
		src, err := templateFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		tpl, err := engine.ParseString(string(src))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		return tpl, nil
	}

	r := &TemplateRenderer{brand: brand}
	var err error
	if r.subject, err = parse("subject.liquid"); err != nil {
		return nil, err
	}
	if r.text, err = parse("body.txt.liquid"); err != nil {
		return nil, err
	}
	if r.html, err = parse("body.html.liquid"); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *TemplateRenderer) Render(n commands.Notice) (*Message, error) {
	rec := n.Record
	bindings := liquid.Bindings{
		"brand":          r.brand,
		"name":           rec.BuyerName(),
		"product":        rec.ProductDescription(),
		"amount":         rec.Amount(),
		"date":           rec.PurchaseDate(),
		"code":           rec.Code().String(),
		"redemption_url": n.RedemptionURL,
		"image_url":      n.ImageURL,
	}

	subject, err := r.subject.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	text, err := r.text.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to render text body: %w", err)
	}
	html, err := r.html.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	return &Message{
		To:      rec.BuyerEmail(),
		Subject: strings.TrimSpace(subject),
		Text:    text,
		HTML:    html,
	}, nil
}
