package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/fi-advisor/fi/pkg/metrics"
)

// Standard lifetimes for memoised upstream responses.
const (
	SearchTTL = 3600 * time.Second
	NewsTTL   = 1800 * time.Second
	QuoteTTL  = 60 * time.Second
)

// Sweeper is implemented by caches whose expired entries can be dropped in bulk.
type Sweeper interface {
	Name() string
	PurgeExpired() int
}

// Option customises a TTL cache.
type Option func(*options)

type options struct {
	maxEntries int
	now        func() time.Time
}

// WithMaxEntries bounds the cache size. When a new key would exceed the bound the
// least recently used entry is evicted. Zero or negative keeps the cache unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

type ttlEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// TTL is an in-process key/value cache with per-entry expiry. Expired entries are
// never returned and are removed lazily on lookup or by PurgeExpired.
type TTL[V any] struct {
	name       string
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
	now        func() time.Time
}

// NewTTL constructs an empty cache. The name labels the cache metrics.
func NewTTL[V any](name string, opts ...Option) *TTL[V] {
	cfg := options{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TTL[V]{
		name:       name,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: cfg.maxEntries,
		now:        cfg.now,
	}
}

// Get returns the value stored under key when it has not expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	value, _, ok := c.GetWithTTL(key)
	return value, ok
}

// GetWithTTL is Get that also reports how long the entry has left to live.
func (c *TTL[V]) GetWithTTL(key string) (V, time.Duration, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.record("miss")
		return zero, 0, false
	}

	entry := elem.Value.(*ttlEntry[V])
	now := c.now()
	if now.After(entry.expiresAt) {
		c.removeElement(elem)
		c.record("miss")
		return zero, 0, false
	}

	c.order.MoveToFront(elem)
	c.record("hit")
	return entry.value, entry.expiresAt.Sub(now), true
}

// Set stores value under key for ttl, replacing any previous entry.
func (c *TTL[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*ttlEntry[V])
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&ttlEntry[V]{key: key, value: value, expiresAt: expiresAt})
	c.entries[key] = elem

	if c.maxEntries > 0 {
		for c.order.Len() > c.maxEntries {
			c.removeElement(c.order.Back())
		}
	}
}

// Delete removes key if present.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}
}

// Len reports the number of stored entries, including expired ones not yet swept.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// PurgeExpired sweeps expired entries and returns how many were removed.
func (c *TTL[V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*ttlEntry[V]).expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}

	if c.name != "" {
		metrics.CacheEntries.WithLabelValues(c.name).Set(float64(c.order.Len()))
	}
	return removed
}

// Name returns the metrics label of the cache.
func (c *TTL[V]) Name() string {
	return c.name
}

func (c *TTL[V]) removeElement(elem *list.Element) {
	entry := c.order.Remove(elem).(*ttlEntry[V])
	delete(c.entries, entry.key)
}

func (c *TTL[V]) record(result string) {
	if c.name == "" {
		return
	}
	metrics.CacheLookups.WithLabelValues(c.name, result).Inc()
}
