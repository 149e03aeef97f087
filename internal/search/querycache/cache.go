// Package querycache provides a keyed LRU+TTL cache for search results
// that deduplicates concurrent identical requests.
package querycache

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/docdex/internal/core/domain"
)

// DefaultSize is the default maximum number of cached entries.
const DefaultSize = 1000

// DefaultTTL is the default per-entry lifetime.
const DefaultTTL = 5 * time.Minute

// Stats reports cache effectiveness.
type Stats struct {
	// Hits is the number of lookups served from the cache.
	Hits int64

	// Misses is the number of lookups that executed the fetch.
	Misses int64

	// InflightHits is the number of lookups that joined an already
	// running identical fetch.
	InflightHits int64
}

// HitRate returns the fraction of lookups that avoided a fetch.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses + s.InflightHits
	if total == 0 {
		return 0
	}
	return float64(s.Hits+s.InflightHits) / float64(total)
}

// Cache is a bounded LRU with per-entry TTL and singleflight
// deduplication of concurrent identical fetches.
type Cache struct {
	lru    *expirable.LRU[string, []domain.SectionHit]
	flight singleflight.Group

	mu    sync.Mutex
	stats Stats
}

// Option configures the cache.
type Option func(*options)

type options struct {
	size int
	ttl  time.Duration
}

// WithSize bounds the number of cached entries.
func WithSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.size = n
		}
	}
}

// WithTTL sets the per-entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// New creates a query cache.
func New(opts ...Option) *Cache {
	o := options{size: DefaultSize, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache{
		lru: expirable.NewLRU[string, []domain.SectionHit](o.size, nil, o.ttl),
	}
}

// Key serializes a query identity: fingerprint, lowercased query and
// every set filter, in fixed order. Absent fields are omitted so the
// same request always yields the same key.
func Key(fingerprint, query string, filters domain.SearchFilters, maxResults int) string {
	parts := []string{fingerprint, strings.ToLower(query)}
	if filters.Release != "" {
		parts = append(parts, "r:"+filters.Release)
	}
	if filters.Service != "" {
		parts = append(parts, "s:"+filters.Service)
	}
	if len(filters.DocTypes) > 0 {
		sorted := append([]string(nil), filters.DocTypes...)
		sort.Strings(sorted)
		parts = append(parts, "dt:"+strings.Join(sorted, ","))
	}
	if maxResults > 0 {
		parts = append(parts, "max:"+strconv.Itoa(maxResults))
	}
	return strings.Join(parts, "|")
}

// Get returns the cached hits for key, or runs fetch exactly once for
// all concurrent callers with the same key. Failed fetches are not
// cached; every waiter observes the error.
func (c *Cache) Get(key string, fetch func() ([]domain.SectionHit, error)) ([]domain.SectionHit, error) {
	if hits, ok := c.lru.Get(key); ok {
		c.count(func(s *Stats) { s.Hits++ })
		return hits, nil
	}

	executed := false
	v, err, _ := c.flight.Do(key, func() (any, error) {
		executed = true
		hits, err := fetch()
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, hits)
		return hits, nil
	})
	if executed {
		c.count(func(s *Stats) { s.Misses++ })
	} else {
		c.count(func(s *Stats) { s.InflightHits++ })
	}
	if err != nil {
		return nil, err
	}
	return v.([]domain.SectionHit), nil
}

// InvalidateFingerprint removes every entry whose key was built from
// the given corpus fingerprint.
func (c *Cache) InvalidateFingerprint(fingerprint string) {
	prefix := fingerprint + "|"
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func (c *Cache) count(f func(*Stats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}
