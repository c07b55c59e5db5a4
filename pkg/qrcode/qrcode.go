// Package qrcode renders payment intents as PNG QR codes encoded in data URLs.
package qrcode

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

// Generator turns arbitrary content into a scannable image.
type Generator interface {
	DataURL(ctx context.Context, content string) (string, error)
}

type PNGGenerator struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewPNGGenerator builds a generator producing size x size PNGs. level is one
// of low, medium, high or highest.
func NewPNGGenerator(size int, level string) (*PNGGenerator, error) {
	recovery, err := ParseRecoveryLevel(level)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("qrcode: size must be positive, got %d", size)
	}

	return &PNGGenerator{
		size:  size,
		level: recovery,
	}, nil
}

func (g *PNGGenerator) DataURL(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if content == "" {
		return "", fmt.Errorf("qrcode: empty content")
	}

	code, err := qrcode.New(content, g.level)
	if err != nil {
		return "", fmt.Errorf("qrcode: encode: %w", err)
	}

	png, err := code.PNG(g.size)
	if err != nil {
		return "", fmt.Errorf("qrcode: render png: %w", err)
	}

	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

func ParseRecoveryLevel(level string) (qrcode.RecoveryLevel, error) {
	switch level {
	case "low":
		return qrcode.Low, nil
	case "medium", "":
		return qrcode.Medium, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, fmt.Errorf("qrcode: unknown recovery level %q", level)
	}
}
