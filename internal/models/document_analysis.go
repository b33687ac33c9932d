package models

import "gorm.io/datatypes"

// DocumentAnalysis stores the structured result of analysing a document.
type DocumentAnalysis struct {
	BaseModel
	DocumentID   string         `gorm:"type:uuid;index;not null" json:"document_id"`
	UserID       string         `gorm:"type:uuid;index;not null" json:"user_id"`
	DocumentType string         `json:"document_type,omitempty"`
	Source       string         `gorm:"default:nlp" json:"source"`
	Payload      datatypes.JSON `json:"payload"`
	KeyPoints    datatypes.JSON `json:"key_points,omitempty"`
}
