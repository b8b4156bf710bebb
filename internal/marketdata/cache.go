package marketdata

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// cacheEntry holds one fetched batch payload with its fetch time
type cacheEntry struct {
	payload   map[string]Series
	fetchedAt time.Time
}

// ResponseCache maps a request fingerprint to a previously fetched
// multi-symbol dataset with a TTL. Entries are overwritten unconditionally
// on refetch and removed only by Clear.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	hits    int64
	misses  int64

	now func() time.Time // overridable in tests
}

// NewResponseCache creates a cache with the specified TTL
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the stored payload for fingerprint if it has not expired
func (c *ResponseCache) Get(fingerprint string) (map[string]Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.payload, true
}

// Put stores a payload under fingerprint, replacing any previous entry
func (c *ResponseCache) Put(fingerprint string, payload map[string]Series) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fingerprint] = cacheEntry{
		payload:   payload,
		fetchedAt: c.now(),
	}
}

// Clear removes all entries and returns how many were removed. Hit/miss
// counters are preserved.
func (c *ResponseCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return removed
}

// Len returns the number of stored entries, expired or not
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit/miss counters and the derived hit rate
func (c *ResponseCache) Stats() (hits, misses int64, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits = c.hits
	misses = c.misses
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return
}

// Fingerprint builds the normalized cache key for a batch request.
// Symbols are sorted so that logically identical requests collapse to
// one cache slot regardless of input ordering.
func Fingerprint(endpoint string, symbols []string, interval, dateFrom, dateTo string, limit int) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	return fmt.Sprintf("%s_%s_%s_%s_%s_%d",
		endpoint, strings.Join(sorted, ","), interval, dateFrom, dateTo, limit)
}
