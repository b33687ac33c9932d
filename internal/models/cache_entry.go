package models

import "time"

// CacheEntry is one row of the SQL-backed cache used when Redis is absent.
// The key column avoids the name "key", which MySQL reserves. A zero
// ExpiresAt never expires.
type CacheEntry struct {
	Key       string `gorm:"column:cache_key;primaryKey;size:256"`
	Value     []byte
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CacheEntry) TableName() string { return "cache_entries" }

func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
