package models

import (
	"time"

	"evalia/internal/shared/constants"
)

// UsageControlModel represents the database persistence model for per-subject balances.
// This is the anti-corruption layer between domain and database.
// One active row per subject; rows are deactivated, never deleted.
type UsageControlModel struct {
	ID            uint   `gorm:"primarykey"`
	SubjectID     string `gorm:"not null;size:64;uniqueIndex:idx_usage_controls_subject"`
	TotalGranted  uint   `gorm:"not null;default:0"`
	TotalConsumed uint   `gorm:"not null;default:0"`
	IsUnlimited   bool   `gorm:"not null;default:false"`
	PlanType      string `gorm:"not null;size:20;default:none"`
	Active        bool   `gorm:"not null;default:true;index:idx_usage_controls_active"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (UsageControlModel) TableName() string {
	return constants.TableUsageControls
}
