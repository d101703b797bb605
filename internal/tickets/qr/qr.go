package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 400

// Generator renders ticket numbers as PNG QR codes.
type Generator struct {
	Level qrcode.RecoveryLevel
	Size  int
}

func NewGenerator() *Generator {
	return &Generator{Level: qrcode.High, Size: DefaultSize}
}

// Encode returns a PNG whose payload is exactly content.
func (g *Generator) Encode(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr: empty content")
	}
	png, err := qrcode.Encode(content, g.Level, g.Size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode %s: %w", content, err)
	}
	return png, nil
}
