package system

import (
	"image"
	"image/draw"
	"sync"
)

// ImagePool recycles *image.RGBA buffers by size. Frame export converts every
// frame to RGBA before PNG encoding; same-sized frames reuse one allocation.
type ImagePool struct {
	mu    sync.RWMutex
	pools map[image.Point]*sync.Pool
}

var globalPool = NewImagePool()

// NewImagePool returns an empty pool.
func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Point]*sync.Pool)}
}

// GetImage takes a buffer with the given bounds from the shared pool.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage returns a buffer to the shared pool.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

// Get returns a zeroed RGBA image with bounds rect.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	size := rect.Size()
	p.mu.RLock()
	pool, ok := p.pools[size]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		pool, ok = p.pools[size]
		if !ok {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(image.Rectangle{Max: size})
				},
			}
			p.pools[size] = pool
		}
		p.mu.Unlock()
	}

	img := pool.Get().(*image.RGBA)
	clear(img.Pix)
	img.Rect = rect
	return img
}

// Put hands img back for reuse. Images of sizes never requested are dropped.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[img.Rect.Size()]
	p.mu.RUnlock()
	if ok {
		pool.Put(img)
	}
}

// ToRGBA copies src into a pooled RGBA buffer. The caller releases it with
// PutImage once done.
func ToRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := GetImage(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}
