package featureflag

import (
	"context"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// DefaultMemoryCacheSize bounds a MemoryCache created with a non-positive size.
const DefaultMemoryCacheSize = 1024

// MemoryCache is an in-process Cache backed by an LRU with per-entry TTL.
// It never returns errors.
type MemoryCache struct {
	lru *cache.LRUCache[string, *feature.Flag]
}

// NewMemoryCache creates a cache holding up to size flags.
func NewMemoryCache(size int, opts ...cache.Option) *MemoryCache {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	return &MemoryCache{lru: cache.NewLRUCache[string, *feature.Flag](size, opts...)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*feature.Flag, bool, error) {
	flag, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return flag.Clone(), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, flag *feature.Flag, ttl time.Duration) error {
	c.lru.PutWithTTL(key, flag.Clone(), ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *MemoryCache) Clear(context.Context) error {
	c.lru.Clear()
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}
