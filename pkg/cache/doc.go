// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiry.
//
// The cache evicts the least recently used entry once it grows past its
// capacity. Entries stored with PutWithTTL expire after the given duration and
// are dropped the next time they are read.
//
//	c := cache.NewLRUCache[string, *feature.Flag](1024)
//	c.PutWithTTL("BETA", flag, time.Hour)
//
//	if f, ok := c.Get("BETA"); ok {
//		// use f
//	}
//
// Get, Put, PutWithTTL and Remove are O(1). All methods are safe for
// concurrent use.
package cache
