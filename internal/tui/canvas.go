package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	upperHalf = "▀"
	lowerHalf = "▄"
)

// renderCanvas draws img with one terminal cell per column and two pixel rows
// per line, using half-block glyphs. Fully transparent pixels stay blank.
func renderCanvas(img *image.RGBA) string {
	b := img.Bounds()
	if b.Empty() {
		return ""
	}
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.RGBAAt(x, y)
			var bottom color.RGBA
			if y+1 < b.Max.Y {
				bottom = img.RGBAAt(x, y+1)
			}
			sb.WriteString(cell(top, bottom))
		}
		if y+2 < b.Max.Y {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func cell(top, bottom color.RGBA) string {
	switch {
	case top.A == 0 && bottom.A == 0:
		return " "
	case bottom.A == 0:
		return lipgloss.NewStyle().Foreground(hex(top)).Render(upperHalf)
	case top.A == 0:
		return lipgloss.NewStyle().Foreground(hex(bottom)).Render(lowerHalf)
	default:
		return lipgloss.NewStyle().Foreground(hex(top)).Background(hex(bottom)).Render(upperHalf)
	}
}

// hex flattens a premultiplied pixel onto black.
func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// canvasLines is the number of terminal lines a canvas of size pixels uses.
func canvasLines(size int) int {
	return (size + 1) / 2
}
