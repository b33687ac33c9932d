package database

import (
	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.FinancialProfile{},
		&models.Document{},
		&models.DocumentAnalysis{},
		&models.Recommendation{},
		&models.Session{},
		&models.CacheEntry{},
	)
}
