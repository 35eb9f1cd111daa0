package qr

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/desertthunder/dtx/internal/shared"
	qrcode "github.com/skip2/go-qrcode"
)

func TestParseLevel(t *testing.T) {
	tc := []struct {
		in   string
		want qrcode.RecoveryLevel
	}{
		{"low", qrcode.Low},
		{"", qrcode.Medium},
		{"Medium", qrcode.Medium},
		{"high", qrcode.High},
		{"HIGHEST", qrcode.Highest},
	}

	for _, tt := range tc {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("extreme"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestEncodePNG(t *testing.T) {
	t.Run("renders a png of the requested size", func(t *testing.T) {
		data, err := EncodePNG("hello", qrcode.Medium, 128)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("expected valid png, got %v", err)
		}
		if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
			t.Errorf("expected 128x128, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := EncodePNG("", qrcode.Medium, 128); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestRenderText(t *testing.T) {
	out, err := RenderText("hello", qrcode.Low)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("expected a multi-line rendering, got %d lines", len(lines))
	}
	width := len([]rune(lines[0]))
	for i, line := range lines {
		if len([]rune(line)) != width {
			t.Errorf("line %d has width %d, want %d", i, len([]rune(line)), width)
		}
	}
	if !strings.ContainsRune(out, '█') {
		t.Error("expected filled blocks in rendering")
	}
}
