package raster

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrInvalidColor = errors.New("raster: invalid hex color")

// HexColor is an opaque 24-bit RGB color.
type HexColor uint32

const (
	Black HexColor = 0x000000
	White HexColor = 0xFFFFFF
)

// MinContrast is the CIEDE2000 distance below which scanners start to fail.
const MinContrast = 0.25

// ParseHexColor accepts "#RRGGBB" or "RRGGBB", case-insensitive.
func ParseHexColor(s string) (HexColor, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return HexColor(v), nil
}

// String renders "#RRGGBB" in upper case.
func (c HexColor) String() string { return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF) }

// ARGB packs the color with full alpha.
func (c HexColor) ARGB() uint32 { return 0xFF000000 | uint32(c)&0xFFFFFF }

func (c HexColor) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xFF}
}

func (c HexColor) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *HexColor) UnmarshalText(b []byte) error {
	v, err := ParseHexColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Contrast is the CIEDE2000 distance between a and b: 0 for equal colors,
// about 1 for black on white.
func Contrast(a, b HexColor) float64 {
	ca, _ := colorful.MakeColor(a.NRGBA())
	cb, _ := colorful.MakeColor(b.NRGBA())
	return ca.DistanceCIEDE2000(cb)
}
