package media

import (
	"context"
	"image"
	"log"
	"sync"
)

// FragmentCache holds decoded full-resolution source images keyed by server
// image id so each is downloaded at most once per process. Failed loads are
// cached as nil to avoid hammering the backend with repeated downloads that
// will not succeed. The lock is held across the check-load-store window, so
// concurrent callers for the same id share one download.
type FragmentCache struct {
	mu      sync.Mutex
	loader  *Loader
	entries map[int]image.Image
}

func NewFragmentCache(loader *Loader) *FragmentCache {
	return &FragmentCache{
		loader:  loader,
		entries: make(map[int]image.Image),
	}
}

// Get returns the cached image for id, loading and caching it (nil result
// included) on first use.
func (fc *FragmentCache) Get(ctx context.Context, id int, url string) image.Image {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if img, ok := fc.entries[id]; ok {
		log.Printf("media: using cached source image for id %d", id)
		return img
	}

	img := fc.loader.LoadFull(ctx, url)
	fc.entries[id] = img
	return img
}

// Len reports how many entries (including negative ones) are cached.
func (fc *FragmentCache) Len() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.entries)
}

// Clear releases all cached images.
func (fc *FragmentCache) Clear() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.entries = make(map[int]image.Image)
	log.Println("media: fragment cache cleared")
}
