package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fi-advisor/fi/internal/cache"
	"github.com/fi-advisor/fi/internal/models"
)

const sessionKeyPrefix = "auth:refresh:"

// NewSessionCache keeps refresh sessions in the shared cache store so token
// rotation skips the database on the hot path. A nil store disables caching.
func NewSessionCache(store cache.Store) SessionCache {
	if store == nil {
		return nil
	}
	return storeSessionCache{store: store}
}

type storeSessionCache struct {
	store cache.Store
}

func sessionKey(refreshHash string) (string, bool) {
	hash := strings.TrimSpace(refreshHash)
	if hash == "" {
		return "", false
	}
	return sessionKeyPrefix + hash, true
}

func (c storeSessionCache) Get(ctx context.Context, refreshHash string) (*models.Session, error) {
	key, ok := sessionKey(refreshHash)
	if !ok {
		return nil, errSessionCacheMiss
	}

	raw, found, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		return nil, err
	case !found:
		return nil, errSessionCacheMiss
	}

	session := new(models.Session)
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, fmt.Errorf("session cache: decode: %w", err)
	}
	return session, nil
}

func (c storeSessionCache) Set(ctx context.Context, session *models.Session, ttl time.Duration) error {
	if session == nil {
		return errors.New("session cache: nil session")
	}
	key, ok := sessionKey(session.RefreshHash)
	if !ok {
		return errors.New("session cache: session has no refresh hash")
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session cache: encode: %w", err)
	}
	return c.store.Set(ctx, key, raw, max(ttl, time.Second))
}

func (c storeSessionCache) Delete(ctx context.Context, refreshHash string) error {
	if key, ok := sessionKey(refreshHash); ok {
		return c.store.Delete(ctx, key)
	}
	return nil
}
