package models

import "gorm.io/datatypes"

// Recommendation kinds.
const (
	RecommendationPortfolio = "portfolio"
	RecommendationRisk      = "risk"
	RecommendationSWOT      = "swot"
	RecommendationProfile   = "profile"
)

// Recommendation keeps the history of generated advice.
type Recommendation struct {
	BaseModel
	UserID   string         `gorm:"type:uuid;index;not null" json:"user_id"`
	Kind     string         `gorm:"index;not null" json:"kind"`
	Payload  datatypes.JSON `json:"payload"`
	Fallback bool           `json:"fallback"`
}
