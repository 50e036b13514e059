// Package redis connects to Redis with go-redis/v9.
//
// Connect returns a redis.UniversalClient: a cluster client when
// REDIS_CLUSTER_ADDRS is set, a single-node client otherwise. Healthcheck
// adapts the client to a func(context.Context) error probe.
package redis
