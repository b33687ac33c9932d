package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore adapts a TTL cache to the Store interface for single instance deployments.
type MemoryStore struct {
	mu    sync.Mutex
	cache *TTL[[]byte]
	now   func() time.Time
}

// NewMemoryStore constructs a process-local Store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := options{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{
		cache: NewTTL[[]byte]("shared", opts...),
		now:   cfg.now,
	}
}

// IncrementWithTTL increments a counter; the window starts with the first increment.
func (s *MemoryStore) IncrementWithTTL(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	counterKey := "counter:" + key
	expiryKey := "counter_expiry:" + key

	raw, ok := s.cache.Get(counterKey)
	rawExpiry, hasExpiry := s.cache.Get(expiryKey)
	if !ok || !hasExpiry {
		expiresAt := s.now().Add(window)
		s.cache.Set(counterKey, []byte("1"), window)
		s.cache.Set(expiryKey, []byte(strconv.FormatInt(expiresAt.UnixNano(), 10)), window)
		return 1, window, nil
	}

	count, _ := strconv.ParseInt(string(raw), 10, 64)
	count++
	expiryNanos, _ := strconv.ParseInt(string(rawExpiry), 10, 64)
	remaining := time.Unix(0, expiryNanos).Sub(s.now())
	if remaining < 0 {
		remaining = 0
	}
	s.cache.Set(counterKey, []byte(strconv.FormatInt(count, 10)), remaining)
	return count, remaining, nil
}

// Set stores value for ttl; ttl <= 0 keeps the value for a year.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	cpy := append([]byte(nil), value...)
	s.cache.Set(key, cpy, ttl)
	return nil
}

// Get retrieves value for key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.cache.Get(key)
	return value, ok, nil
}

// GetWithTTL retrieves value for key with its remaining lifetime.
func (s *MemoryStore) GetWithTTL(_ context.Context, key string) ([]byte, time.Duration, bool, error) {
	value, ttl, ok := s.cache.GetWithTTL(key)
	return value, ttl, ok, nil
}

// Delete removes keys.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.cache.Delete(key)
	}
	return nil
}

// PurgeExpired sweeps the underlying cache.
func (s *MemoryStore) PurgeExpired() int {
	return s.cache.PurgeExpired()
}

// Name returns the metrics label of the underlying cache.
func (s *MemoryStore) Name() string {
	return s.cache.Name()
}
