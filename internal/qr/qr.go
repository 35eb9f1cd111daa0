// Package qr renders text as QR codes.
package qr

import (
	"fmt"
	"strings"

	"github.com/desertthunder/dtx/internal/shared"
	qrcode "github.com/skip2/go-qrcode"
)

// ParseLevel resolves an error-correction level name: low, medium, high or highest.
func ParseLevel(name string) (qrcode.RecoveryLevel, error) {
	level, ok := shared.CanonicalQRLevel(name)
	if !ok {
		return qrcode.Medium, fmt.Errorf("%w: qr level %q", shared.ErrInvalidArgument, name)
	}

	switch level {
	case "low":
		return qrcode.Low, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, nil
	}
}

// EncodePNG renders content as a size×size PNG image.
func EncodePNG(content string, level qrcode.RecoveryLevel, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: nothing to encode", shared.ErrInvalidInput)
	}

	png, err := qrcode.Encode(content, level, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// RenderText renders content with Unicode half blocks, two modules per character row, for display in a terminal.
func RenderText(content string, level qrcode.RecoveryLevel) (string, error) {
	if content == "" {
		return "", fmt.Errorf("%w: nothing to encode", shared.ErrInvalidInput)
	}

	code, err := qrcode.New(content, level)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	bitmap := code.Bitmap()
	var b strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bottom := y+1 < len(bitmap) && bitmap[y+1][x]
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}
