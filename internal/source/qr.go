package source

import (
	"fmt"
	"image/color"

	"github.com/skip2/go-qrcode"
)

// NewQRSource renders content as a square QR code of size pixels.
func NewQRSource(content string, size int, fg, bg color.RGBA) (*Static, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty qr content", ErrUnavailable)
	}
	if size <= 0 {
		size = 256
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	q.ForegroundColor = fg
	q.BackgroundColor = bg
	return &Static{Image: q.Image(size)}, nil
}
