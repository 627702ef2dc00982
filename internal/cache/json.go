package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/aigov-api/internal/resilience"
)

// JSON wraps Redis helpers for JSON payloads. A nil JSON, a nil client or a
// non-positive TTL turns every call into a miss.
type JSON struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewJSON constructs a cache helper whose keys are namespaced by prefix.
func NewJSON(client *redis.Client, prefix string, ttl time.Duration) *JSON {
	return &JSON{client: client, prefix: strings.TrimSuffix(prefix, ":"), ttl: ttl}
}

// WithBreaker guards every Redis round trip with b. While the breaker is
// open reads are misses and writes are dropped.
func (c *JSON) WithBreaker(b *resilience.Breaker) *JSON {
	c.breaker = b
	return c
}

func (c *JSON) do(ctx context.Context, fn func(context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Do(ctx, fn)
}

// Key joins parts into a colon separated cache key.
func Key(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

func (c *JSON) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *JSON) fullKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *JSON) Get(ctx context.Context, key string, dst any) (bool, error) {
	if !c.enabled() || key == "" {
		return false, nil
	}
	var data []byte
	err := c.do(ctx, func(ctx context.Context) error {
		var getErr error
		data, getErr = c.client.Get(ctx, c.fullKey(key)).Bytes()
		if errors.Is(getErr, redis.Nil) {
			return nil
		}
		return getErr
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set serialises v as JSON and stores it with the configured TTL.
func (c *JSON) Set(ctx context.Context, key string, v any) error {
	if !c.enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	err = c.do(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, c.fullKey(key), data, c.ttl).Err()
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return nil
	}
	return err
}

// Delete evicts a key.
func (c *JSON) Delete(ctx context.Context, key string) error {
	if !c.enabled() || key == "" {
		return nil
	}
	err := c.do(ctx, func(ctx context.Context) error {
		return c.client.Del(ctx, c.fullKey(key)).Err()
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return nil
	}
	return err
}
