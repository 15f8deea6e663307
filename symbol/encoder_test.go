package symbol

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMatchesRequestedSize(t *testing.T) {
	e := NewQREncoder()
	for _, tc := range []struct{ w, h int }{{350, 350}, {200, 200}, {300, 200}} {
		m, err := e.Encode("https://example.com", tc.w, tc.h)
		require.NoError(t, err)
		assert.Equal(t, tc.w, m.Width())
		assert.Equal(t, tc.h, m.Height())
		assert.Positive(t, m.Dark())
		assert.Less(t, m.Dark(), tc.w*tc.h)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	e := NewQREncoder(WithLevel(LevelM))
	a, err := e.Encode("hello", 200, 200)
	require.NoError(t, err)
	b, err := e.Encode("hello", 200, 200)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := e.Encode("hello!", 200, 200)
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}

func TestEncodeQuietZoneIsLight(t *testing.T) {
	m, err := NewQREncoder().Encode("hello", 200, 200)
	require.NoError(t, err)
	// 21 modules * 9 px = 189, leaving a 5px light border on each side.
	assert.False(t, m.At(0, 0))
	assert.False(t, m.At(199, 199))
	assert.True(t, m.At(5, 5), "finder pattern corner should be dark")
}

func TestEncodeErrors(t *testing.T) {
	e := NewQREncoder()
	cases := map[string]struct {
		text string
		w, h int
	}{
		"zero width":    {"hello", 0, 200},
		"negative":      {"hello", 200, -1},
		"too small":     {"hello", 10, 10},
		"text too long": {strings.Repeat("x", 5000), 350, 350},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Encode(tc.text, tc.w, tc.h)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrEncoding))
		})
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel(" h ")
	require.NoError(t, err)
	assert.Equal(t, LevelH, l)

	_, err = ParseLevel("X")
	assert.Error(t, err)
}

func TestNewBitMatrixValidatesShape(t *testing.T) {
	_, err := NewBitMatrix(2, 2, make([]bool, 3))
	assert.Error(t, err)

	m, err := NewBitMatrix(2, 1, []bool{true, false})
	require.NoError(t, err)
	assert.True(t, m.At(0, 0))
	assert.False(t, m.At(1, 0))
	assert.False(t, m.At(5, 5))
}
