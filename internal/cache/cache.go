// Package cache wraps Redis for JSON read-through caching and for the
// idempotency markers of the stock reconciliation worker.
//
// A nil *Cache, or one built without a client, is a valid no-op cache: reads
// miss and writes succeed.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront-api/internal/metrics"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) disabled() bool { return c == nil || c.client == nil }

func ProductKey(id string) string { return "product:" + id }

// GetJSON decodes the cached value at key into dst and reports whether it
// was present.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c.disabled() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheMisses.Inc()
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	metrics.CacheHits.Inc()
	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c.disabled() {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c.disabled() || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Seen reports whether an idempotency marker exists for key.
func (c *Cache) Seen(ctx context.Context, key string) (bool, error) {
	if c.disabled() {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check idempotency key: %w", err)
	}
	return n > 0, nil
}

func (c *Cache) Mark(ctx context.Context, key string, ttl time.Duration) error {
	if c.disabled() {
		return nil
	}
	if err := c.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("set idempotency key: %w", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if c.disabled() {
		return errors.New("redis not configured")
	}
	return c.client.Ping(ctx).Err()
}
