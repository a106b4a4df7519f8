package system

import (
	"image"
	"sync"
)

// CanvasPool recycles full-size canvases between compositing steps so that
// long animations do not allocate one canvas per frame.
type CanvasPool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = &CanvasPool{
	pools: make(map[image.Point]*sync.Pool),
}

// GetCanvas returns a canvas of the given size anchored at the origin. Its
// contents are undefined.
func GetCanvas(size image.Point) *image.NRGBA {
	return globalPool.Get(size)
}

// PutCanvas hands img back for reuse. The caller must not touch it again.
func PutCanvas(img *image.NRGBA) {
	globalPool.Put(img)
}

func (p *CanvasPool) Get(size image.Point) *image.NRGBA {
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		pool, exists = p.pools[size]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return image.NewNRGBA(image.Rectangle{Max: size})
				},
			}
			p.pools[size] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.NRGBA)
}

func (p *CanvasPool) Put(img *image.NRGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) || img.Stride != 4*img.Rect.Dx() {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect.Max]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
