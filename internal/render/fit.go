package render

import (
	"image"
	"math"
)

// Placement is the scaled, centered draw rectangle of an image on a square canvas.
type Placement struct {
	Width  float64
	Height float64
	X      float64
	Y      float64
}

// Fit scales an image of natural size w×h into a square canvas of side canvas,
// preserving aspect ratio. The longer side is clamped to min(canvas, side), the
// other follows proportionally, and the result is centered. Images smaller than
// the canvas are never upscaled.
func Fit(w, h, canvas int) Placement {
	if w <= 0 || h <= 0 || canvas <= 0 {
		return Placement{}
	}
	aspect := float64(w) / float64(h)
	c := float64(canvas)

	var p Placement
	if aspect >= 1 {
		p.Width = math.Min(c, float64(w))
		p.Height = p.Width / aspect
	} else {
		p.Height = math.Min(c, float64(h))
		p.Width = p.Height * aspect
	}
	p.X = (c - p.Width) / 2
	p.Y = (c - p.Height) / 2
	return p
}

// Rect rounds the placement to integer pixel bounds.
func (p Placement) Rect() image.Rectangle {
	x0 := int(math.Round(p.X))
	y0 := int(math.Round(p.Y))
	x1 := int(math.Round(p.X + p.Width))
	y1 := int(math.Round(p.Y + p.Height))
	return image.Rect(x0, y0, x1, y1)
}

// Present clears the surface and draws img fitted and centered. A nil image
// leaves the surface blank.
func Present(s Surface, img image.Image) Placement {
	s.Clear()
	if img == nil {
		return Placement{}
	}
	b := img.Bounds()
	p := Fit(b.Dx(), b.Dy(), s.Size())
	s.Draw(img, p.Rect())
	return p
}
