// Package cache provides listing snapshot caches. The products synchronizer
// stores the fetched identifier list here so that a retry after a transient
// disconnect does not re-crawl the listing pages.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shoesync/backend/internal/domain"
)

// MemoryListingCache is a thread-safe in-process listing snapshot with TTL.
type MemoryListingCache struct {
	mutex      sync.RWMutex
	urls       []string
	expiration time.Time
	ttl        time.Duration
}

// NewMemoryListingCache creates a memory-backed listing cache.
func NewMemoryListingCache(ttl time.Duration) *MemoryListingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryListingCache{ttl: ttl}
}

// Get returns the cached identifier list, or domain.ErrCacheMiss when
// nothing is cached or the snapshot expired.
func (c *MemoryListingCache) Get(ctx context.Context) ([]string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.urls == nil || time.Now().After(c.expiration) {
		return nil, domain.ErrCacheMiss
	}

	out := make([]string, len(c.urls))
	copy(out, c.urls)
	return out, nil
}

// Set replaces the cached identifier list.
func (c *MemoryListingCache) Set(ctx context.Context, urls []string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.urls = make([]string, len(urls))
	copy(c.urls, urls)
	c.expiration = time.Now().Add(c.ttl)
	return nil
}

// Clear drops the cached snapshot.
func (c *MemoryListingCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.urls = nil
	return nil
}

// Size returns the number of cached identifiers (for debugging/monitoring).
func (c *MemoryListingCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.urls)
}
