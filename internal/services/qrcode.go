package services

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRGenerator renders the pickup voucher of an order.
type QRGenerator interface {
	Generate(orderNo string) ([]byte, error)
}

// DefaultQRGenerator encodes a link to the order page as a PNG.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) Generate(orderNo string) ([]byte, error) {
	qrData := fmt.Sprintf("%s/orders/%s", g.BaseURL, orderNo)
	return qrcode.Encode(qrData, qrcode.Medium, 256)
}
