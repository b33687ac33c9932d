package models

import (
	"time"

	"gorm.io/gorm"
)

// Session is a refresh-token session. Access tokens carry its id so that
// logout can revoke the session they were issued for. Only the SHA-256 of
// the refresh token is stored.
type Session struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	RefreshHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Provider    string     `gorm:"size:16" json:"provider,omitempty"`
	IPAddress   string     `gorm:"size:64" json:"ip_address"`
	UserAgent   string     `json:"user_agent"`
	DeviceName  string     `json:"device_name"`
	ExpiresAt   time.Time  `gorm:"index" json:"expires_at"`
	LastUsedAt  time.Time  `json:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at"`
	RevokedAt   *time.Time `gorm:"index" json:"revoked_at"`
}

// Active reports whether the session can still be refreshed at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}
