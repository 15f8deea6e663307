// Package raster paints a symbol.BitMatrix into a PNG.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"

	"github.com/disintegration/imaging"

	"github.com/unkn0wn-root/qrcache/symbol"
)

const MimeType = "image/png"

var (
	ErrInvalidMatrix = errors.New("raster: invalid matrix")
	ErrRasterization = errors.New("raster: rasterization failed")
)

// Rasterizer writes one pixel per matrix cell: dark cells take the
// foreground, light cells the background. Output is always opaque.
type Rasterizer struct {
	compression png.CompressionLevel
}

type Option func(*Rasterizer)

// WithCompression trades encode time for size.
func WithCompression(l png.CompressionLevel) Option {
	return func(r *Rasterizer) { r.compression = l }
}

func New(opts ...Option) *Rasterizer {
	r := &Rasterizer{compression: png.DefaultCompression}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rasterize returns the PNG bytes for m.
func (r *Rasterizer) Rasterize(m *symbol.BitMatrix, fg, bg HexColor) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RasterizeTo(&buf, m, fg, bg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Rasterizer) RasterizeTo(w io.Writer, m *symbol.BitMatrix, fg, bg HexColor) error {
	if m == nil || m.Width() <= 0 || m.Height() <= 0 {
		return ErrInvalidMatrix
	}

	img := imaging.New(m.Width(), m.Height(), bg.NRGBA())
	dark := fg.NRGBA()
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.At(x, y) {
				img.SetNRGBA(x, y, dark)
			}
		}
	}

	if err := imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(r.compression)); err != nil {
		return fmt.Errorf("%w: %w", ErrRasterization, err)
	}
	return nil
}
