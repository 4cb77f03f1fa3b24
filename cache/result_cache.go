// Package cache holds the process-wide result cache for the backend's image
// list. UI surfaces share one instance, injected through constructors.
package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/arborlens/treehealth/models"
)

// DefaultTTL is the validity window for a cached image list.
const DefaultTTL = 5 * time.Minute

// ListFetcher fetches the full image list from the backend.
type ListFetcher func(ctx context.Context) ([]models.ImageRecord, error)

// ResultCache keeps the last successfully fetched image list for a fixed
// validity window. The mutex is held across the whole check-fetch-store
// sequence, so at most one fetch is in flight at a time and concurrent
// callers wait for and share its outcome instead of issuing duplicates.
type ResultCache struct {
	mu        sync.Mutex
	fetch     ListFetcher
	ttl       time.Duration
	images    []models.ImageRecord
	fetchedAt time.Time

	now func() time.Time // overridable for tests
}

// NewResultCache creates a cache around fetch. A non-positive ttl falls back
// to DefaultTTL.
func NewResultCache(fetch ListFetcher, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		fetch: fetch,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the image list. With forceRefresh false and a cached entry
// younger than the validity window, the stored list is returned unchanged
// with no network call. Otherwise one fetch runs; success replaces the list
// atomically and resets the age timer, failure leaves the previous entry
// untouched and returns the error.
func (c *ResultCache) Get(ctx context.Context, forceRefresh bool) ([]models.ImageRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh && c.images != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		log.Printf("cache: serving %d cached image records", len(c.images))
		return c.images, nil
	}

	log.Printf("cache: fetching image list from backend (force=%t)", forceRefresh)
	images, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []models.ImageRecord{}
	}

	c.images = images
	c.fetchedAt = c.now()
	log.Printf("cache: stored %d image records", len(images))
	return images, nil
}

// Peek returns whatever is cached, with no freshness check and no fetch.
// Returns nil if nothing was ever cached.
func (c *ResultCache) Peek() []models.ImageRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.images
}

// Invalidate drops the cached list and resets the age timer to infinitely
// stale.
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = nil
	c.fetchedAt = time.Time{}
	log.Println("cache: invalidated")
}
