package conn

import (
	"slices"
	"sync"
	"time"
)

// cacheEntry stores one rendered statement.
type cacheEntry struct {
	sql       string
	args      []any
	expiresAt time.Time // zero means no expiry
}

// StatementCache maps statement IDs onto rendered SQL and arguments.
// It is safe for concurrent use from multiple goroutines.
//
// IDs include the statement's values, so a hit never returns arguments of
// another statement. The cache grows unbounded within its TTL window.
type StatementCache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	ttl   time.Duration // 0 means no expiry
}

// CacheOption configures a StatementCache.
type CacheOption func(*StatementCache)

// WithTTL sets the time-to-live for cache entries.
// A TTL of 0 (default) means entries never expire.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *StatementCache) {
		c.ttl = ttl
	}
}

// NewStatementCache creates an empty cache.
func NewStatementCache(opts ...CacheOption) *StatementCache {
	c := &StatementCache{
		items: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the rendering cached for id.
func (c *StatementCache) Get(id string) (string, []any, bool) {
	c.mu.RLock()
	entry, ok := c.items[id]
	c.mu.RUnlock()

	if !ok {
		return "", nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, id)
		c.mu.Unlock()
		return "", nil, false
	}

	return entry.sql, slices.Clone(entry.args), true
}

// Set stores the rendering of id.
func (c *StatementCache) Set(id, sql string, args []any) {
	entry := cacheEntry{
		sql:  sql,
		args: slices.Clone(args),
	}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[id] = entry
	c.mu.Unlock()
}

// Size returns the number of entries in the cache.
func (c *StatementCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries, e.g. after the schema changed.
func (c *StatementCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]cacheEntry)
	c.mu.Unlock()
}
