// Package cache provides an in-memory docview.DocumentCache backed by a
// size-bounded LRU with per-entry expiry.
package cache

import (
	"time"

	"github.com/fwojciec/docview"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Ensure Cache implements docview.DocumentCache at compile time.
var _ docview.DocumentCache = (*Cache)(nil)

// Cache is a least-recently-used document cache. Entries older than the TTL
// are treated as misses and removed opportunistically.
type Cache struct {
	lru *lru.Cache[string, *docview.CacheEntry]
	max int
	ttl time.Duration
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry lifetime. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		c.ttl = d
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a Cache holding at most maxEntries entries.
func New(maxEntries int, opts ...Option) (*Cache, error) {
	l, err := lru.New[string, *docview.CacheEntry](maxEntries)
	if err != nil {
		return nil, docview.WrapError(docview.EINVALID, err, "invalid cache size %d", maxEntries)
	}
	c := &Cache{
		lru: l,
		max: maxEntries,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the entry for id and marks it as recently used.
func (c *Cache) Get(id string) (*docview.CacheEntry, bool) {
	entry, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	if entry.Expired(c.now()) {
		c.lru.Remove(id)
		return nil, false
	}
	return entry, true
}

// Put stores a copy of entry. When the cache is full, expired entries are
// swept first so that a live entry is only evicted when nothing has expired.
func (c *Cache) Put(entry *docview.CacheEntry) {
	now := c.now()
	stored := *entry
	stored.InsertedAt = now
	stored.ExpiresAt = time.Time{}
	if c.ttl > 0 {
		stored.ExpiresAt = now.Add(c.ttl)
	}

	if !c.lru.Contains(stored.ID) && c.lru.Len() >= c.max {
		c.EvictExpired()
	}
	c.lru.Add(stored.ID, &stored)
}

// Invalidate removes the entry for id.
func (c *Cache) Invalidate(id string) bool {
	return c.lru.Remove(id)
}

// EvictExpired removes every expired entry.
func (c *Cache) EvictExpired() int {
	now := c.now()
	removed := 0
	for _, id := range c.lru.Keys() {
		entry, ok := c.lru.Peek(id)
		if ok && entry.Expired(now) {
			c.lru.Remove(id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including expired ones not yet
// swept.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Keys returns the stored ids from least to most recently used.
func (c *Cache) Keys() []string {
	return c.lru.Keys()
}
