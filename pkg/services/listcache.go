package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListCache memoizes fully materialized list results per (principal,
// query-shape, page). Implementations must tolerate backend unavailability:
// a failing cache reports an error and the caller treats it as a miss, it
// never blocks or fails the request. There is no write invalidation;
// staleness is bounded by the TTL alone.
type ListCache interface {
	// Get unmarshals the cached value for key into dest, reporting whether
	// the key was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type redisListCache struct {
	client *redis.Client
}

// NewRedisListCache creates a list cache backed by Redis. A nil client
// (Redis not configured) yields a cache that always misses.
func NewRedisListCache(client *redis.Client) ListCache {
	return &redisListCache{client: client}
}

func (c *redisListCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c.client == nil {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// A corrupt entry is as good as a miss.
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *redisListCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

var _ ListCache = (*redisListCache)(nil)
