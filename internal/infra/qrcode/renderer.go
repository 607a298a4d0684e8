package qrcode

import (
	"errors"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

const DefaultSize = 256

type Renderer struct {
	size  int
	level qr.RecoveryLevel
}

func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{size: size, level: qr.Medium}
}

// PNG encodes content as a square QR image of the configured size.
func (r *Renderer) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr content is empty")
	}
	png, err := qr.Encode(content, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr: %w", err)
	}
	return png, nil
}
