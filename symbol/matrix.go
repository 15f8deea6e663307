package symbol

import "fmt"

// BitMatrix is a width x height grid of cells, dark or light. Row-major.
type BitMatrix struct {
	width, height int
	cells         []bool
}

// NewBitMatrix wraps cells, which must hold exactly width*height values.
func NewBitMatrix(width, height int, cells []bool) (*BitMatrix, error) {
	if width < 0 || height < 0 || len(cells) != width*height {
		return nil, fmt.Errorf("symbol: %d cells do not fit %dx%d", len(cells), width, height)
	}
	return &BitMatrix{width: width, height: height, cells: cells}, nil
}

func (m *BitMatrix) Width() int  { return m.width }
func (m *BitMatrix) Height() int { return m.height }

// At reports whether (x, y) is dark. Out-of-range cells are light.
func (m *BitMatrix) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.cells[y*m.width+x]
}

// Dark counts dark cells.
func (m *BitMatrix) Dark() int {
	n := 0
	for _, c := range m.cells {
		if c {
			n++
		}
	}
	return n
}

// Equal reports whether both matrices have the same shape and cells.
func (m *BitMatrix) Equal(o *BitMatrix) bool {
	if m.width != o.width || m.height != o.height {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}
