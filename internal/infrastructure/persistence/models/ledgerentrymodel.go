package models

import (
	"time"

	"gorm.io/datatypes"

	"evalia/internal/shared/constants"
)

// LedgerEntryModel represents the database persistence model for ledger
// entries. Rows are append-only: no update or delete path exists outside
// the administrative reconciliation flow.
type LedgerEntryModel struct {
	ID         uint           `gorm:"primarykey"`
	SubjectID  string         `gorm:"not null;size:64;index:idx_ledger_subject_created,priority:1"`
	Delta      int            `gorm:"not null"`
	Kind       string         `gorm:"not null;size:20;index:idx_ledger_kind"`
	Reason     string         `gorm:"size:255"`
	PatientRef string         `gorm:"size:64"`
	SessionRef string         `gorm:"size:64"`
	ReportRef  string         `gorm:"size:64"`
	Metadata   datatypes.JSON `gorm:"type:json"`
	CreatedAt  time.Time      `gorm:"index:idx_ledger_subject_created,priority:2"`
}

// TableName specifies the table name for GORM
func (LedgerEntryModel) TableName() string {
	return constants.TableLedgerEntries
}
