package models

import (
	"time"

	"gorm.io/datatypes"
)

// FinancialProfile holds questionnaire answers and the latest risk assessment for a user.
type FinancialProfile struct {
	BaseModel
	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Responses datatypes.JSON `json:"responses,omitempty"`

	RiskScore   int    `json:"risk_score"`
	RiskProfile string `json:"risk_profile"`

	// MonthlyInvestable is a decimal string in Currency units.
	MonthlyInvestable string `gorm:"size:32" json:"monthly_investable,omitempty"`
	Currency          string `gorm:"size:3;default:INR" json:"currency"`

	AssessedAt *time.Time `json:"assessed_at,omitempty"`
}

// HasQuestionnaire reports whether any questionnaire answers were stored.
func (p *FinancialProfile) HasQuestionnaire() bool {
	if p == nil {
		return false
	}
	raw := string(p.Responses)
	return raw != "" && raw != "null" && raw != "{}"
}
