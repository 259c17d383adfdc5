package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"golang.org/x/image/draw"
)

// Surface is the square drawable region the preview renders onto.
type Surface interface {
	Size() int
	Resize(size int)
	Clear()
	Draw(img image.Image, r image.Rectangle)
	Export() ([]byte, error)
}

// ParseScaler maps a config name to an interpolator.
func ParseScaler(name string) (draw.Scaler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest":
		return draw.NearestNeighbor, nil
	case "approx-bilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "catmull-rom", "":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown scaler %q", name)
	}
}

// Raster is an in-memory RGBA Surface.
type Raster struct {
	mu     sync.Mutex
	img    *image.RGBA
	scaler draw.Scaler
}

// NewRaster creates a transparent square raster. A nil scaler uses CatmullRom.
func NewRaster(size int, scaler draw.Scaler) *Raster {
	if scaler == nil {
		scaler = draw.CatmullRom
	}
	if size < 0 {
		size = 0
	}
	return &Raster{
		img:    image.NewRGBA(image.Rect(0, 0, size, size)),
		scaler: scaler,
	}
}

func (r *Raster) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.img.Rect.Dx()
}

// Resize discards the current contents and allocates a new square of the given size.
func (r *Raster) Resize(size int) {
	if size < 0 {
		size = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.img = image.NewRGBA(image.Rect(0, 0, size, size))
}

func (r *Raster) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.img.Pix)
}

func (r *Raster) Draw(img image.Image, dr image.Rectangle) {
	if img == nil || dr.Empty() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if dr.Size() == img.Bounds().Size() {
		draw.Draw(r.img, dr, img, img.Bounds().Min, draw.Over)
		return
	}
	r.scaler.Scale(r.img, dr, img, img.Bounds(), draw.Over, nil)
}

// Export encodes the current contents as PNG.
func (r *Raster) Export() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.img); err != nil {
		return nil, fmt.Errorf("encode surface: %w", err)
	}
	return buf.Bytes(), nil
}

// Image returns a copy of the current contents.
func (r *Raster) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := image.NewRGBA(r.img.Rect)
	copy(cp.Pix, r.img.Pix)
	return cp
}
