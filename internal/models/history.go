package models

import (
	"time"

	"gorm.io/gorm"
)

// AnalysisRecord is one entry of a user's append-only analysis history.
type AnalysisRecord struct {
	gorm.Model
	UserID     string    `gorm:"not null;index" json:"userId"`
	Mode       string    `gorm:"not null" json:"mode"`
	Language   string    `json:"language"`
	Code       string    `gorm:"type:text" json:"code"`
	Result     string    `gorm:"type:text" json:"result"`
	Source     string    `json:"source"`
	RequestID  string    `gorm:"index" json:"requestId"`
	AnalyzedAt time.Time `gorm:"not null;index" json:"analyzedAt"`
}
