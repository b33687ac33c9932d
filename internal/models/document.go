package models

import "time"

// Document is an uploaded financial document. The file body lives in blob storage under StorageKey.
type Document struct {
	BaseModel
	UserID      string `gorm:"type:uuid;index;not null" json:"user_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `gorm:"index;default:other" json:"category"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"size"`
	StorageKey  string `json:"-"`
	FileURL     string `json:"file_url,omitempty"`
	TextContent string `gorm:"type:text" json:"-"`

	UploadDate time.Time  `gorm:"index" json:"upload_date"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`
}
