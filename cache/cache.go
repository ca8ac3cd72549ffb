// Package cache memoizes expensive aggregate and correlation results.
// It is the only mutable shared state in the engine core.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a single-flight, read-through result cache. Entries are
// stamped with the data generation they were computed from; an entry
// whose stamp no longer matches is recomputed, never served.
type Cache struct {
	ttl time.Duration

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry

	// nextSweep is the entry count that triggers the next expiry
	// sweep, doubled after each sweep so the amortized cost per store
	// stays constant.
	nextSweep int
}

// sweepFloor is the smallest population a sweep is scheduled at.
const sweepFloor = 256

type entry struct {
	value      any
	generation int64
	storedAt   time.Time
}

// New returns a cache whose entries additionally expire after ttl.
// ttl <= 0 disables time-based expiry; generation mismatch still
// invalidates.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:       ttl,
		entries:   make(map[string]entry),
		nextSweep: sweepFloor,
	}
}

// Do returns the cached value for key at the given generation, or runs
// compute exactly once per (key, generation) while concurrent callers
// for the same key wait and share the result. Failed computations are
// not stored.
func (c *Cache) Do(ctx context.Context, key string, generation int64, compute func(context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(key, generation); ok {
		return v, nil
	}

	flightKey := key + "@" + strconv.FormatInt(generation, 10)
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		// A previous flight may have stored the entry between our
		// lookup and joining the group.
		if v, ok := c.lookup(key, generation); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, generation, v)
		return v, nil
	})
	return v, err
}

func (c *Cache) lookup(key string, generation int64) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.generation != generation {
		return nil, false
	}
	if c.ttl > 0 && time.Since(e.storedAt) > c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, generation int64, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.entries[key] = entry{value: v, generation: generation, storedAt: now}
	if c.ttl > 0 && len(c.entries) >= c.nextSweep {
		c.sweepLocked(now)
	}
}

// sweepLocked drops expired entries so distinct cache keys (per ticker,
// period and until date) cannot grow the map without bound.
func (c *Cache) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, k)
		}
	}
	c.nextSweep = 2 * len(c.entries)
	if c.nextSweep < sweepFloor {
		c.nextSweep = sweepFloor
	}
}

// Len reports the number of resident entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops every resident entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
