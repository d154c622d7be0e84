package qrcode

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRService renders QR codes for guest-facing links.
type QRService struct {
	baseURL string // e.g. "https://boothpix.co/selections/"
}

func NewQRService(baseURL string) *QRService {
	return &QRService{
		baseURL: baseURL,
	}
}

// GenerateQRCode returns a PNG QR code pointing at baseURL + code.
func (s *QRService) GenerateQRCode(code string, size int) ([]byte, error) {
	fullURL := fmt.Sprintf("%s%s", s.baseURL, code)

	png, err := qrcode.Encode(fullURL, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}

	return png, nil
}
