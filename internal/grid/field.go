package grid

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Sentinel errors for field construction and arithmetic.
var (
	// ErrEmptyGrid indicates a grid with no rows or no columns.
	ErrEmptyGrid = errors.New("grid: input grid must have at least one row and one column")
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("grid: all rows must have the same length")
	// ErrSizeMismatch indicates two fields of different dimensions.
	ErrSizeMismatch = errors.New("grid: field dimensions differ")
)

// Field is a W×H grid of float64 values stored row-major.
type Field struct {
	Width  int
	Height int
	Values []float64
}

// NewField allocates a zeroed W×H field.
func NewField(width, height int) *Field {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Field{Width: width, Height: height, Values: make([]float64, width*height)}
}

// FromRows builds a field from rows[y][x].
func FromRows(rows [][]float64) (*Field, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	w := len(rows[0])
	f := NewField(w, len(rows))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrNonRectangular, y, len(row), w)
		}
		copy(f.Values[y*w:(y+1)*w], row)
	}
	return f, nil
}

// Filled returns a W×H field with every cell set to v.
func Filled(width, height int, v float64) *Field {
	f := NewField(width, height)
	for i := range f.Values {
		f.Values[i] = v
	}
	return f
}

// Empty reports whether the field has no cells.
func (f *Field) Empty() bool {
	return f == nil || f.Width == 0 || f.Height == 0
}

// Topology returns the field's shape with the given wrap mode.
func (f *Field) Topology(wrap bool) Topology {
	return Topology{Width: f.Width, Height: f.Height, Wrap: wrap}
}

// SameSize reports whether f and o have equal dimensions.
func (f *Field) SameSize(o *Field) bool {
	return o != nil && f.Width == o.Width && f.Height == o.Height
}

// At returns the value at p, or 0 when p is out of bounds.
func (f *Field) At(p Point) float64 {
	if p.X < 0 || p.Y < 0 || p.X >= f.Width || p.Y >= f.Height {
		return 0
	}
	return f.Values[p.Y*f.Width+p.X]
}

// Set stores v at p. Out-of-bounds writes are ignored.
func (f *Field) Set(p Point, v float64) {
	if p.X < 0 || p.Y < 0 || p.X >= f.Width || p.Y >= f.Height {
		return
	}
	f.Values[p.Y*f.Width+p.X] = v
}

// AtIndex returns the value at a row-major cell id.
func (f *Field) AtIndex(id int) float64 {
	return f.Values[id]
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := &Field{Width: f.Width, Height: f.Height, Values: make([]float64, len(f.Values))}
	copy(c.Values, f.Values)
	return c
}

// Sub returns f − o elementwise.
func (f *Field) Sub(o *Field) (*Field, error) {
	if !f.SameSize(o) {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, f.Width, f.Height, o.Width, o.Height)
	}
	d := NewField(f.Width, f.Height)
	floats.SubTo(d.Values, f.Values, o.Values)
	return d, nil
}

// Sum returns the sum of all cells.
func (f *Field) Sum() float64 {
	return floats.Sum(f.Values)
}

// Max returns the largest cell value, or 0 for an empty field.
func (f *Field) Max() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	return floats.Max(f.Values)
}

// Count returns how many cells satisfy pred.
func (f *Field) Count(pred func(float64) bool) int {
	n := 0
	for _, v := range f.Values {
		if pred(v) {
			n++
		}
	}
	return n
}

// Rows returns a copy of the field as rows[y][x].
func (f *Field) Rows() [][]float64 {
	rows := make([][]float64, f.Height)
	for y := range rows {
		rows[y] = make([]float64, f.Width)
		copy(rows[y], f.Values[y*f.Width:(y+1)*f.Width])
	}
	return rows
}

// String returns a summary of the field.
func (f *Field) String() string {
	return fmt.Sprintf("Field(%dx%d)", f.Width, f.Height)
}
