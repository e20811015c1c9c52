package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"evalia/internal/domain/credit"
	"evalia/internal/shared/constants"
	"evalia/internal/shared/logger"
)

// balanceSummaryRow mirrors one row of the credit_balance_summaries view.
type balanceSummaryRow struct {
	SubjectID      string
	TotalGranted   uint
	TotalConsumed  uint
	IsUnlimited    bool
	PlanType       string
	EntryCount     int64
	LastActivityAt *time.Time
}

// CreditStatsRepositoryImpl implements the credit.StatsRepository interface.
// The primary path reads the credit_balance_summaries view created by the
// migrations; when the view is missing or unreadable in a deployment the
// repository falls back once to a batched recomputation over the base
// tables. Both paths produce the exact same row shape and ordering.
type CreditStatsRepositoryImpl struct {
	db       *gorm.DB
	fallback *creditStatsFallback
	logger   logger.Interface
}

// NewCreditStatsRepository creates a new credit stats repository instance
func NewCreditStatsRepository(db *gorm.DB, logger logger.Interface) credit.StatsRepository {
	return &CreditStatsRepositoryImpl{
		db:       db,
		fallback: newCreditStatsFallback(db, logger),
		logger:   logger,
	}
}

// GetSubjectStats returns one summary row per active subject, ordered by
// subject ID
func (r *CreditStatsRepositoryImpl) GetSubjectStats(ctx context.Context) ([]credit.SubjectStats, error) {
	stats, err := r.queryView(ctx)
	if err == nil {
		return stats, nil
	}

	if !IsFallbackEligible(err) {
		r.logger.Errorw("failed to query balance summaries", "error", err)
		return nil, fmt.Errorf("failed to query balance summaries: %w", err)
	}

	r.logger.Warnw("balance summary view unavailable, recomputing from base tables", "error", err)
	stats, ferr := r.fallback.compute(ctx)
	if ferr != nil {
		r.logger.Errorw("fallback balance recomputation failed",
			"primary_error", err,
			"error", ferr)
		return nil, fmt.Errorf("balance summary query failed (%v); fallback recomputation failed: %w", err, ferr)
	}
	return stats, nil
}

func (r *CreditStatsRepositoryImpl) queryView(ctx context.Context) ([]credit.SubjectStats, error) {
	var rows []balanceSummaryRow
	err := r.db.WithContext(ctx).
		Table(constants.ViewCreditBalanceSummaries).
		Order("subject_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make([]credit.SubjectStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, toSubjectStats(row))
	}
	return stats, nil
}

func toSubjectStats(row balanceSummaryRow) credit.SubjectStats {
	s := credit.SubjectStats{
		SubjectID:      row.SubjectID,
		TotalGranted:   row.TotalGranted,
		TotalConsumed:  row.TotalConsumed,
		IsUnlimited:    row.IsUnlimited,
		PlanType:       credit.PlanType(row.PlanType),
		EntryCount:     row.EntryCount,
		LastActivityAt: row.LastActivityAt,
	}
	if !row.IsUnlimited {
		var remaining uint
		if row.TotalGranted > row.TotalConsumed {
			remaining = row.TotalGranted - row.TotalConsumed
		}
		s.Remaining = &remaining
	}
	return s
}
