package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache stores rendered reports in Redis. Keys are scoped to one inventory
// source and one process, because each process renders its own in-memory
// ledger. Every ledger mutation bumps the version embedded in the key. A nil
// client disables caching.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	scope   string
	version atomic.Int64
	group   singleflight.Group
}

// NewCache instantiates the cache helper for the ledger loaded from source.
func NewCache(client *redis.Client, ttl time.Duration, source string) *Cache {
	c := &Cache{
		client: client,
		ttl:    ttl,
		scope:  source + ":" + uuid.NewString(),
	}
	c.version.Store(1)
	return c
}

// Enabled reports whether a Redis client backs the cache.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Scope identifies the ledger whose reports this cache holds.
func (c *Cache) Scope() string {
	if c == nil {
		return ""
	}
	return c.scope
}

// Version returns the current ledger version.
func (c *Cache) Version(context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	return c.version.Load(), nil
}

// BuildKey composes the cache key from the scope and the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	if !c.Enabled() {
		return strings.Join(append([]string{"report"}, parts...), ":"), nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	joined := strings.Join(append([]string{"report", c.scope}, parts...), ":")
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchText returns the cached text for kind or renders it with loader.
// Concurrent misses on one key share a single loader call.
func (c *Cache) FetchText(ctx context.Context, kind Kind, loader func(context.Context) (string, error)) (string, error) {
	if loader == nil {
		return "", errors.New("cache: loader required")
	}
	if !c.Enabled() {
		return loader(ctx)
	}
	key, err := c.BuildKey(ctx, string(kind))
	if err != nil {
		return "", err
	}
	text, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return text, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", err
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		text, err := loader(ctx)
		if err != nil {
			return "", err
		}
		if err := c.client.Set(ctx, key, text, c.ttl).Err(); err != nil {
			return "", err
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Bump invalidates cached reports by moving to the next version. Entries of
// older versions expire with their TTL.
func (c *Cache) Bump(context.Context) error {
	if !c.Enabled() {
		return nil
	}
	c.version.Add(1)
	return nil
}
