package service

import (
	"github.com/skip2/go-qrcode"
)

type QRRenderer interface {
	Render(url string) ([]byte, error)
}

// DefaultQRGenerator renders PNG codes that phone cameras read reliably
// from a printed table card.
type DefaultQRGenerator struct {
	Size int
}

func (g DefaultQRGenerator) Render(url string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(url, qrcode.Medium, size)
}
