package sheet

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/ivlev/frames2sprite/internal/frames"
)

// Placed records where a frame landed on the sheet.
type Placed struct {
	Index  int
	Name   string
	Rect   image.Rectangle // native-size rectangle, may extend past its cell
	Source image.Point
}

// Sheet is a packed sprite sheet.
type Sheet struct {
	Layout Layout
	Image  *image.RGBA
	Placed []Placed
}

// Plan computes the grid for snap without drawing it. The cell size is taken
// from frame 0, or from the first resolved frame when frame 0 did not decode.
func Plan(snap frames.Snapshot) (Layout, error) {
	n := snap.Len()
	if n == 0 {
		return Layout{}, frames.ErrEmptyInput
	}
	ref, ok := snap.Frame(0)
	if !ok {
		if ref, ok = snap.First(); !ok {
			return Layout{}, frames.ErrEmptyInput
		}
	}
	return NewLayout(n, ref.Width, ref.Height)
}

// Pack composites every resolved frame of snap into one grid image laid out by
// Plan. Frames are drawn at native size anchored to the top-left of their
// cell, so frames larger than the cell overlap their neighbours or are
// clipped at the sheet edge. Unresolved frames leave their cell empty.
func Pack(snap frames.Snapshot) (*Sheet, error) {
	layout, err := Plan(snap)
	if err != nil {
		return nil, err
	}
	n := snap.Len()

	size := layout.Size()
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	s := &Sheet{Layout: layout, Image: dst}

	for i := 0; i < n; i++ {
		f, ok := snap.Frame(i)
		if !ok {
			continue
		}
		b := f.Image.Bounds()
		r := image.Rectangle{Min: layout.Cell(i), Max: layout.Cell(i).Add(b.Size())}
		draw.Draw(dst, r, f.Image, b.Min, draw.Over)
		s.Placed = append(s.Placed, Placed{
			Index:  i,
			Name:   f.Name,
			Rect:   r,
			Source: b.Size(),
		})
	}
	return s, nil
}
