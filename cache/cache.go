// Package cache provides keyed, time-expiring memoization with single-flight
// semantics: concurrent misses on the same key run the producer exactly once
// and share its outcome. Failed productions are shared but never stored.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/matchops/arena-api/monitor"
)

// Cache is a named TTL cache. Values are stored untyped; use the generic
// GetOrCompute for typed access. Entries are invalidated by wall-clock
// expiry only; no size bound is applied.
type Cache struct {
	name       string
	defaultTTL time.Duration
	store      *gocache.Cache
	group      singleflight.Group
}

// New builds a cache with the given default TTL. The name labels metrics.
func New(name string, defaultTTL time.Duration) *Cache {
	return &Cache{
		name:       name,
		defaultTTL: defaultTTL,
		store:      gocache.New(defaultTTL, 10*time.Minute),
	}
}

// GetOrCompute returns the cached value for key, or runs producer under
// single-flight and memoizes a successful result for ttl (the cache default
// when ttl is zero). Late arrivals during an in-flight production block on
// its completion and observe the same result, successful or failed.
func GetOrCompute[V any](ctx context.Context, c *Cache, key string, ttl time.Duration, producer func(context.Context) (V, error)) (V, error) {
	if v, ok := c.store.Get(key); ok {
		monitor.CacheRequests.WithLabelValues(c.name, "hit").Inc()
		return v.(V), nil
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A losing racer may arrive after the winner stored the value;
		// re-check under the flight so it is not recomputed.
		if v, ok := c.store.Get(key); ok {
			monitor.CacheRequests.WithLabelValues(c.name, "hit").Inc()
			return v, nil
		}
		monitor.CacheRequests.WithLabelValues(c.name, "miss").Inc()

		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Forget drops a key so the next lookup recomputes.
func (c *Cache) Forget(key string) {
	c.store.Delete(key)
}
