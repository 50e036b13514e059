package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrEmptyURL   = errors.New("redis: connection url is empty")
	ErrInvalidURL = errors.New("redis: invalid connection url")
	ErrNotReady   = errors.New("redis: server did not answer ping in time")
	ErrUnhealthy  = errors.New("redis: ping failed")
)

// Healthcheck pings client. The returned func fits readiness probes.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrUnhealthy, err)
		}
		return nil
	}
}

// Connect creates a Redis client and waits until it answers PING.
//
// With cfg.ClusterAddrs set it returns a *redis.ClusterClient, otherwise a
// *redis.Client built from cfg.ConnectionURL. It gives up after
// cfg.RetryAttempts failed pings or when cfg.ConnectTimeout elapses.
func Connect(ctx context.Context, cfg Config) (redis.UniversalClient, error) {
	newClient, err := clientFactory(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	for range max(cfg.RetryAttempts, 1) {
		client := newClient()
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrNotReady
}

func clientFactory(cfg Config) (func() redis.UniversalClient, error) {
	if len(cfg.ClusterAddrs) > 0 {
		opts := &redis.ClusterOptions{Addrs: cfg.ClusterAddrs, Password: cfg.ClusterPass}
		return func() redis.UniversalClient { return redis.NewClusterClient(opts) }, nil
	}
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyURL
	}
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	return func() redis.UniversalClient { return redis.NewClient(opts) }, nil
}
