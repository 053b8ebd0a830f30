package render

import (
	"errors"
	"image/color"

	"github.com/skip2/go-qrcode"
)

const defaultQRCodeSizePx = 256

// QRCodePNG encodes payload as a PNG QR code, dark modules in fg on bg.
func QRCodePNG(payload string, sizePx int, fg, bg color.Color) ([]byte, error) {
	if payload == "" {
		return nil, errors.New("empty qr payload")
	}
	if sizePx <= 0 {
		sizePx = defaultQRCodeSizePx
	}

	qrCode, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	if fg != nil {
		qrCode.ForegroundColor = fg
	}
	if bg != nil {
		qrCode.BackgroundColor = bg
	}
	return qrCode.PNG(sizePx)
}
