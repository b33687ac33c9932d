package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store represents a shared byte-oriented cache used for inbound rate limiting and
// for sharing upstream responses across instances.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// GetWithTTL also returns the time the value has left; zero means no expiry.
	GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON loads and decodes a JSON value stored under key.
func GetJSON[T any](ctx context.Context, store Store, key string) (T, bool, error) {
	var out T
	if store == nil {
		return out, false, nil
	}
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("cache: decode %q: %w", key, err)
	}
	return out, true, nil
}

// GetJSONWithTTL is GetJSON that also returns the remaining lifetime of the value.
func GetJSONWithTTL[T any](ctx context.Context, store Store, key string) (T, time.Duration, bool, error) {
	var out T
	if store == nil {
		return out, 0, false, nil
	}
	raw, ttl, ok, err := store.GetWithTTL(ctx, key)
	if err != nil || !ok {
		return out, 0, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, 0, false, fmt.Errorf("cache: decode %q: %w", key, err)
	}
	return out, ttl, true, nil
}

// SetJSON encodes value as JSON and stores it under key.
func SetJSON[T any](ctx context.Context, store Store, key string, value T, ttl time.Duration) error {
	if store == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	return store.Set(ctx, key, raw, ttl)
}
