// Package cache provides a small TTL cache keyed by string, used for both
// assembled wildfire contexts and raw provider responses. Entries are
// immutable once written: Get hands back a copy produced by the configured
// clone function, so readers never observe shared mutable state.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a thread-safe expiring cache. Writers for the same key converge to
// last-write-wins; a zero-value TTL is not usable, construct with New.
type TTL[V any] struct {
	clock clockwork.Clock
	ttl   time.Duration
	clone func(V) V

	mu      sync.Mutex
	entries map[string]entry[V]
}

// New creates a TTL cache. clone is applied on every read (and on write) so
// cached values stay isolated from callers; pass an identity function for
// value types that are safe to share.
func New[V any](clock clockwork.Clock, ttl time.Duration, clone func(V) V) *TTL[V] {
	return &TTL[V]{
		clock:   clock,
		ttl:     ttl,
		clone:   clone,
		entries: make(map[string]entry[V]),
	}
}

// Get returns a copy of the unexpired value for key, its expiry time, and
// whether it was present. Expired entries are removed on access.
func (c *TTL[V]) Get(key string) (V, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, time.Time{}, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, time.Time{}, false
	}
	return c.clone(e.value), e.expiresAt, true
}

// Put stores a copy of value under key with the cache's TTL and returns the
// entry's expiry time. The value must be fully assembled before Put; no
// partial writes are ever visible to readers.
func (c *TTL[V]) Put(key string, value V) time.Time {
	expiresAt := c.clock.Now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: c.clone(value), expiresAt: expiresAt}
	return expiresAt
}

// Len reports the number of stored entries, expired or not.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
