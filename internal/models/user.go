package models

import (
	"time"

	"gorm.io/datatypes"
)

// Auth provider identifiers stored on User.AuthProvider.
const (
	AuthProviderLocal  = "local"
	AuthProviderGoogle = "google"
)

// User is an account holder. Password is empty for accounts created through Google sign-in.
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Name         string `json:"name"`
	Password     string `json:"-"`
	AuthProvider string `gorm:"default:local" json:"auth_provider"`
	GoogleID     string `gorm:"index" json:"-"`
	PhotoURL     string `json:"photo_url,omitempty"`

	Preferences datatypes.JSON `json:"preferences,omitempty"`

	FinancialProfile *FinancialProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"financial_profile,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}
