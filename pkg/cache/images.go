package cache

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Images caches decoded pixel buffers keyed by media id.
//
// Get returns an independent clone: assets mutate their buffers during
// compositing, and a shared buffer would corrupt every other asset holding
// the same media. The cached original is never handed out directly.
type Images struct {
	mu      sync.RWMutex
	entries map[string]image.Image
}

// NewImages creates an empty image cache.
func NewImages() *Images {
	return &Images{entries: make(map[string]image.Image)}
}

// Get returns a clone of the cached image for key, or false on a miss.
func (c *Images) Get(key string) (*image.NRGBA, bool) {
	c.mu.RLock()
	img, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return imaging.Clone(img), true
}

// Set stores a decoded image. The caller must not mutate img afterwards;
// attach a clone to the asset instead.
func (c *Images) Set(key string, img image.Image) {
	c.mu.Lock()
	c.entries[key] = img
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *Images) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
