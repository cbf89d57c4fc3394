package search

import (
	"errors"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrCacheMiss is returned when no live entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// DefaultCacheTTL is how long a cached response stays valid.
const DefaultCacheTTL = 10 * time.Minute

// DefaultCacheMaxEntries bounds the cache beyond the TTL so unbounded
// distinct-query growth over a long session cannot leak memory.
const DefaultCacheMaxEntries = 512

// cacheEntry is one cached, merged result list.
type cacheEntry struct {
	Results   []ScoredItem
	Category  string
	CreatedAt time.Time
}

// ResponseCache stores merged result lists keyed by normalized query
// text and active category. Entries expire after the TTL; the
// underlying store sweeps expired entries periodically and evicts
// least-recently-used entries past the capacity bound. Safe for
// concurrent use; writes are last-writer-wins per key.
type ResponseCache struct {
	store   *lru.LRU[string, cacheEntry]
	metrics *Metrics
}

// NewResponseCache creates a response cache. Non-positive maxEntries
// or ttl fall back to the defaults.
func NewResponseCache(maxEntries int, ttl time.Duration, metrics *Metrics) *ResponseCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{
		store:   lru.NewLRU[string, cacheEntry](maxEntries, nil, ttl),
		metrics: metrics,
	}
}

// cacheKey normalizes the serialized query text and combines it with
// the active category.
func cacheKey(query, category string) string {
	return strings.ToLower(strings.TrimSpace(query)) + "|" + category
}

// Get returns the cached results for a query and category, or
// ErrCacheMiss. A live entry whose stored category does not match the
// requested one is treated as a miss. The returned slice is a copy;
// callers may mutate it without disturbing the cached entry.
func (c *ResponseCache) Get(query, category string) ([]ScoredItem, error) {
	entry, ok := c.store.Get(cacheKey(query, category))
	if !ok || entry.Category != category {
		c.metrics.recordCacheMiss()
		return nil, ErrCacheMiss
	}

	c.metrics.recordCacheHit()
	results := make([]ScoredItem, len(entry.Results))
	copy(results, entry.Results)
	return results, nil
}

// Set stores merged results for a query and category with the current
// timestamp.
func (c *ResponseCache) Set(query, category string, results []ScoredItem) {
	c.store.Add(cacheKey(query, category), cacheEntry{
		Results:   results,
		Category:  category,
		CreatedAt: time.Now(),
	})
}

// Len returns the number of live entries.
func (c *ResponseCache) Len() int {
	return c.store.Len()
}

// Purge drops every entry.
func (c *ResponseCache) Purge() {
	c.store.Purge()
}
