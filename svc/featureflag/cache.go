package featureflag

import (
	"context"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// Cache holds flags keyed by code.
type Cache interface {
	// Get returns the cached flag and true on a hit.
	Get(ctx context.Context, key string) (*feature.Flag, bool, error)

	// Set stores flag under key for ttl. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, flag *feature.Flag, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Clear drops every cached flag.
	Clear(ctx context.Context) error
}

// NoOpCache disables caching, useful for testing or when caching is unwanted.
type NoOpCache struct{}

func (NoOpCache) Get(context.Context, string) (*feature.Flag, bool, error) { return nil, false, nil }

func (NoOpCache) Set(context.Context, string, *feature.Flag, time.Duration) error { return nil }

func (NoOpCache) Delete(context.Context, string) error { return nil }

func (NoOpCache) Clear(context.Context) error { return nil }
