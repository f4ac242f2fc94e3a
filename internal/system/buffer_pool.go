package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// ImagePool recycles *image.RGBA buffers by size. The compositor takes a
// canvas and a scaling scratch buffer per frame; export sessions return the
// canvas once the sink has consumed it.
type ImagePool struct {
	pools     sync.Map // image.Point -> *sync.Pool
	allocated atomic.Int64
	gets      atomic.Int64
}

// PoolStats counts buffer requests and fresh allocations.
type PoolStats struct {
	Gets      int64
	Allocated int64
}

// Reused is the number of requests served from the pool.
func (s PoolStats) Reused() int64 { return s.Gets - s.Allocated }

var globalPool = &ImagePool{}

// GetImage returns an image with the given bounds. Its pixels are not
// cleared.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage hands img back for reuse. The caller must not touch it afterwards.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

// BufferStats reports the shared pool's counters.
func BufferStats() PoolStats {
	return globalPool.Stats()
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	p.gets.Add(1)
	size := rect.Size()
	v, _ := p.pools.LoadOrStore(size, &sync.Pool{})
	if img, ok := v.(*sync.Pool).Get().(*image.RGBA); ok {
		// same size means same stride, so only the origin can differ
		img.Rect = rect
		return img
	}
	p.allocated.Add(1)
	return image.NewRGBA(rect)
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Empty() {
		return
	}
	if v, ok := p.pools.Load(img.Rect.Size()); ok {
		v.(*sync.Pool).Put(img)
	}
}

func (p *ImagePool) Stats() PoolStats {
	return PoolStats{Gets: p.gets.Load(), Allocated: p.allocated.Load()}
}
