// Package symbol turns text into a QR symbol scaled to a pixel grid.
package symbol

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// ErrEncoding is returned when text cannot be encoded at the requested size.
var ErrEncoding = errors.New("symbol: encoding failed")

// Encoder produces a width x height matrix for text. Implementations must be
// deterministic: the same inputs yield the same matrix.
type Encoder interface {
	Encode(text string, width, height int) (*BitMatrix, error)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(text string, width, height int) (*BitMatrix, error)

func (f EncoderFunc) Encode(text string, width, height int) (*BitMatrix, error) {
	return f(text, width, height)
}

// Level is the QR error correction level.
type Level string

const (
	LevelL Level = "L" // ~7% recovery
	LevelM Level = "M" // ~15%
	LevelQ Level = "Q" // ~25%
	LevelH Level = "H" // ~30%
)

// ParseLevel accepts L, M, Q or H in any case.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelL, LevelM, LevelQ, LevelH:
		return l, nil
	}
	return "", fmt.Errorf("symbol: unknown error correction level %q", s)
}

func (l Level) qr() qr.ErrorCorrectionLevel {
	switch l {
	case LevelM:
		return qr.M
	case LevelQ:
		return qr.Q
	case LevelH:
		return qr.H
	default:
		return qr.L
	}
}

// QREncoder encodes with boombuler/barcode. The symbol is scaled by the
// largest integer factor that fits and centered; the margin is light.
type QREncoder struct {
	level Level
}

type Option func(*QREncoder)

func WithLevel(l Level) Option {
	return func(e *QREncoder) { e.level = l }
}

// NewQREncoder defaults to LevelL, the densest level.
func NewQREncoder(opts ...Option) *QREncoder {
	e := &QREncoder{level: LevelL}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *QREncoder) Level() Level { return e.level }

func (e *QREncoder) Encode(text string, width, height int) (*BitMatrix, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrEncoding, width, height)
	}
	code, err := qr.Encode(text, e.level.qr(), qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return fromImage(scaled), nil
}

func fromImage(img image.Image) *BitMatrix {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	cells := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			cells[y*w+x] = (r+g+bl)/3 < 0x8000
		}
	}
	return &BitMatrix{width: w, height: h, cells: cells}
}
