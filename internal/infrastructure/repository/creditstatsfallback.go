package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"evalia/internal/domain/credit"
	"evalia/internal/infrastructure/persistence/models"
	"evalia/internal/shared/logger"
)

// creditStatsFallback recomputes the balance summary from the base tables
// when the optimized view is unavailable. It runs exactly two grouped
// queries regardless of subject count: one over usage_controls and one
// over ledger_entries. Per-subject loops would turn the admin dashboard
// into N+1 queries on large installations.
type creditStatsFallback struct {
	db     *gorm.DB
	logger logger.Interface
}

func newCreditStatsFallback(db *gorm.DB, logger logger.Interface) *creditStatsFallback {
	return &creditStatsFallback{db: db, logger: logger}
}

type ledgerActivityRow struct {
	SubjectID      string
	EntryCount     int64
	LastActivityAt *time.Time
}

func (f *creditStatsFallback) compute(ctx context.Context) ([]credit.SubjectStats, error) {
	var controls []models.UsageControlModel
	err := f.db.WithContext(ctx).
		Where("active = ?", true).
		Order("subject_id ASC").
		Find(&controls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load usage controls: %w", err)
	}
	if len(controls) == 0 {
		return []credit.SubjectStats{}, nil
	}

	subjectIDs := make([]string, len(controls))
	for i := range controls {
		subjectIDs[i] = controls[i].SubjectID
	}

	var activity []ledgerActivityRow
	err = f.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("subject_id, COUNT(*) AS entry_count, MAX(created_at) AS last_activity_at").
		Where("subject_id IN ?", subjectIDs).
		Group("subject_id").
		Scan(&activity).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger activity: %w", err)
	}

	activityBySubject := make(map[string]ledgerActivityRow, len(activity))
	for _, row := range activity {
		activityBySubject[row.SubjectID] = row
	}

	stats := make([]credit.SubjectStats, 0, len(controls))
	for i := range controls {
		control := &controls[i]
		row := balanceSummaryRow{
			SubjectID:     control.SubjectID,
			TotalGranted:  control.TotalGranted,
			TotalConsumed: control.TotalConsumed,
			IsUnlimited:   control.IsUnlimited,
			PlanType:      control.PlanType,
		}
		if act, ok := activityBySubject[control.SubjectID]; ok {
			row.EntryCount = act.EntryCount
			row.LastActivityAt = act.LastActivityAt
		}
		stats = append(stats, toSubjectStats(row))
	}
	return stats, nil
}
