package qr

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// EncodePNG renders the supplied content as a QR code PNG of the given pixel size.
func EncodePNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

// EncodeBase64 renders the supplied content as a base64 PNG suitable for inline
// email embedding.
func EncodeBase64(content string, size int) (string, error) {
	png, err := EncodePNG(content, size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
