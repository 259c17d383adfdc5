package sheet

import (
	"fmt"
	"image"
	"math"

	"github.com/ivlev/frames2sprite/internal/frames"
)

// Layout is the grid geometry of a sprite sheet: a near-square grid of
// equally sized cells filled row by row.
type Layout struct {
	Frames     int
	Columns    int
	Rows       int
	CellWidth  int
	CellHeight int
}

// NewLayout computes the grid for n frames of the given cell size.
func NewLayout(n, cellW, cellH int) (Layout, error) {
	if n <= 0 {
		return Layout{}, frames.ErrEmptyInput
	}
	if cellW <= 0 || cellH <= 0 {
		return Layout{}, fmt.Errorf("invalid cell size %dx%d", cellW, cellH)
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	return Layout{
		Frames:     n,
		Columns:    cols,
		Rows:       rows,
		CellWidth:  cellW,
		CellHeight: cellH,
	}, nil
}

// Size returns the pixel dimensions of the whole sheet.
func (l Layout) Size() image.Point {
	return image.Pt(l.Columns*l.CellWidth, l.Rows*l.CellHeight)
}

// Cell returns the top-left origin of frame i's cell.
func (l Layout) Cell(i int) image.Point {
	return image.Pt(i%l.Columns*l.CellWidth, i/l.Columns*l.CellHeight)
}

// Bounds returns the rectangle of frame i's cell.
func (l Layout) Bounds(i int) image.Rectangle {
	min := l.Cell(i)
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(l.CellWidth, l.CellHeight))}
}
