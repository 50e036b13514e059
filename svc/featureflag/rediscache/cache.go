// Package rediscache implements featureflag.Cache on Redis.
//
// Flags are stored as JSON under "<keyspace>:<code>" with a per-entry TTL,
// so several replicas of the service share one cache.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// DefaultKeyspace prefixes every key written by the cache.
const DefaultKeyspace = "feature_flags"

const scanBatch = 500

// Cache is a featureflag.Cache backed by a redis.UniversalClient.
type Cache struct {
	client   redis.UniversalClient
	keyspace string
}

// New creates a Cache. An empty keyspace falls back to DefaultKeyspace.
func New(client redis.UniversalClient, keyspace string) *Cache {
	if keyspace == "" {
		keyspace = DefaultKeyspace
	}
	return &Cache{client: client, keyspace: keyspace}
}

func (c *Cache) Get(ctx context.Context, key string) (*feature.Flag, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var flag feature.Flag
	if err := json.Unmarshal(data, &flag); err != nil {
		return nil, false, fmt.Errorf("decode cached flag %q: %w", key, err)
	}
	return &flag, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, flag *feature.Flag, ttl time.Duration) error {
	data, err := json.Marshal(flag)
	if err != nil {
		return fmt.Errorf("encode flag %q: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Clear removes every key in the keyspace. On a cluster each master is
// scanned separately.
func (c *Cache) Clear(ctx context.Context) error {
	if cluster, ok := c.client.(*redis.ClusterClient); ok {
		return cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return c.clear(ctx, node)
		})
	}
	return c.clear(ctx, c.client)
}

func (c *Cache) clear(ctx context.Context, client redis.Cmdable) error {
	pattern := c.keyspace + ":*"
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %q: %w", pattern, err)
		}
		// Keys may hash to different slots; delete one by one in a pipeline.
		if len(keys) > 0 {
			pipe := client.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *Cache) key(code string) string {
	return c.keyspace + ":" + code
}
