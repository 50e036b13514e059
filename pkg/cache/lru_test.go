package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLRUCache_Basic(t *testing.T) {
	t.Run("put and get", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)
		c.Put("a", 1)
		c.Put("b", 2)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("get missing", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)
		v, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Zero(t, v)
	})

	t.Run("update existing", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](3)
		c.Put("a", 1)
		c.Put("a", 10)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 10, v)
		assert.Equal(t, 1, c.Len())
	})
}

func TestLRUCache_Eviction(t *testing.T) {
	t.Run("evicts least recently used", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Put("c", 3)

		_, ok := c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("get refreshes recency", func(t *testing.T) {
		c := cache.NewLRUCache[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Get("a")
		c.Put("c", 3)

		_, ok := c.Get("a")
		assert.True(t, ok)
		_, ok = c.Get("b")
		assert.False(t, ok)
	})
}

func TestLRUCache_TTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.NewLRUCache[string, string](10, cache.WithClock(clock.Now))

	c.PutWithTTL("short", "v", time.Minute)
	c.Put("forever", "v")

	clock.Advance(59 * time.Second)
	_, ok := c.Get("short")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("short")
	assert.False(t, ok, "entry must expire exactly at its deadline")
	assert.Equal(t, 1, c.Len(), "expired entry is dropped on access")

	clock.Advance(24 * time.Hour)
	_, ok = c.Get("forever")
	assert.True(t, ok)

	t.Run("overwrite resets expiry", func(t *testing.T) {
		c.PutWithTTL("k", "v1", time.Minute)
		clock.Advance(30 * time.Second)
		c.PutWithTTL("k", "v2", time.Minute)
		clock.Advance(45 * time.Second)

		v, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v2", v)
	})
}

func TestLRUCache_RemoveAndClear(t *testing.T) {
	c := cache.NewLRUCache[string, int](5)
	c.Put("a", 1)
	c.Put("b", 2)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok)
}

func TestLRUCache_InvalidCapacity(t *testing.T) {
	assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	assert.Panics(t, func() { cache.NewLRUCache[string, int](-1) })
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := cache.NewLRUCache[string, int](100)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n%20)
			c.PutWithTTL(key, n, time.Minute)
			c.Get(key)
			if n%7 == 0 {
				c.Remove(key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 20)
}
