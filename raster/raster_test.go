package raster

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/qrcache/symbol"
)

func checker(t *testing.T, w, h int) *symbol.BitMatrix {
	t.Helper()
	cells := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cells[y*w+x] = (x+y)%2 == 0
		}
	}
	m, err := symbol.NewBitMatrix(w, h, cells)
	require.NoError(t, err)
	return m
}

func TestRasterizePaintsCells(t *testing.T) {
	red, err := ParseHexColor("#FF0000")
	require.NoError(t, err)

	out, err := New().Rasterize(checker(t, 4, 3), red, White)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())

	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0, 0, 0xFFFF}, []uint32{r, g, b, a})
	r, g, b, a = img.At(1, 0).RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF}, []uint32{r, g, b, a})
}

func TestRasterizeSameInputSameBytes(t *testing.T) {
	r := New(WithCompression(png.BestSpeed))
	a, err := r.Rasterize(checker(t, 8, 8), Black, White)
	require.NoError(t, err)
	b, err := r.Rasterize(checker(t, 8, 8), Black, White)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, []byte("\x89PNG"), a[:4])
}

func TestRasterizeInvalidMatrix(t *testing.T) {
	empty, err := symbol.NewBitMatrix(0, 0, nil)
	require.NoError(t, err)

	for _, m := range []*symbol.BitMatrix{nil, empty} {
		_, err := New().Rasterize(m, Black, White)
		assert.ErrorIs(t, err, ErrInvalidMatrix)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRasterizeWriteFailure(t *testing.T) {
	err := New().RasterizeTo(failingWriter{}, checker(t, 2, 2), Black, White)
	assert.ErrorIs(t, err, ErrRasterization)
}
