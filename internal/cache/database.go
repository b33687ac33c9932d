package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fi-advisor/fi/internal/models"
)

var errDatabaseStoreNil = errors.New("cache: database store not initialised")

// DatabaseStore implements Store using the primary SQL database. It is the shared
// cache when Redis is not configured.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB, opts ...Option) *DatabaseStore {
	if db == nil {
		return nil
	}
	cfg := options{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &DatabaseStore{db: db, now: cfg.now}
}

// IncrementWithTTL increments a counter under a row lock. An expired counter restarts at one.
func (s *DatabaseStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s == nil {
		return 0, 0, errDatabaseStoreNil
	}
	ctx = ensureContext(ctx)
	if window <= 0 {
		window = time.Minute
	}

	now := s.now()
	var (
		count     int64
		expiresAt time.Time
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.CacheEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&entry, "cache_key = ?", key).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			count, expiresAt = 1, now.Add(window)
			return tx.Create(&models.CacheEntry{
				Key:       key,
				Value:     []byte("1"),
				ExpiresAt: expiresAt,
			}).Error
		case err != nil:
			return err
		}

		if entry.Expired(now) {
			count, expiresAt = 1, now.Add(window)
		} else {
			current, _ := strconv.ParseInt(string(entry.Value), 10, 64)
			count, expiresAt = current+1, entry.ExpiresAt
		}
		entry.Value = []byte(strconv.FormatInt(count, 10))
		entry.ExpiresAt = expiresAt
		return tx.Save(&entry).Error
	})
	if err != nil {
		return 0, 0, err
	}

	return count, expiresAt.Sub(now), nil
}

// Set upserts the value for key. A non-positive ttl stores the value without expiry.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil {
		return errDatabaseStoreNil
	}

	entry := models.CacheEntry{Key: key, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}

	return s.db.WithContext(ensureContext(ctx)).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&entry).Error
}

// Get retrieves a value by key; expired rows are deleted and reported as missing.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, _, ok, err := s.GetWithTTL(ctx, key)
	return value, ok, err
}

// GetWithTTL retrieves a value with the time left before expires_at. Rows
// without an expiry report zero.
func (s *DatabaseStore) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	if s == nil {
		return nil, 0, false, errDatabaseStoreNil
	}
	ctx = ensureContext(ctx)

	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Take(&entry, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}

	now := s.now()
	if entry.Expired(now) {
		_ = s.Delete(ctx, key)
		return nil, 0, false, nil
	}
	var ttl time.Duration
	if !entry.ExpiresAt.IsZero() {
		ttl = entry.ExpiresAt.Sub(now)
	}
	return entry.Value, ttl, true, nil
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil {
		return errDatabaseStoreNil
	}
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ensureContext(ctx)).Where("cache_key IN ?", keys).Delete(&models.CacheEntry{}).Error
}

// PurgeExpired removes every expired row and returns the number deleted.
func (s *DatabaseStore) PurgeExpired(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, errDatabaseStoreNil
	}
	result := s.db.WithContext(ensureContext(ctx)).
		Where("expires_at > ? AND expires_at < ?", time.Time{}, s.now()).
		Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
