package usecases

import (
	"context"
	"fmt"

	"evalia/internal/application/credit/dto"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/shared/logger"
)

// GetCreditStatsUseCase returns the cross-subject balance summary for the
// admin dashboard. Fallback behavior lives in the stats repository; this
// use case only classifies each row.
type GetCreditStatsUseCase struct {
	stats        creditdomain.StatsRepository
	lowThreshold uint
	logger       logger.Interface
}

// NewGetCreditStatsUseCase creates a new get credit stats use case
func NewGetCreditStatsUseCase(stats creditdomain.StatsRepository, lowThreshold uint, logger logger.Interface) *GetCreditStatsUseCase {
	return &GetCreditStatsUseCase{
		stats:        stats,
		lowThreshold: lowThreshold,
		logger:       logger,
	}
}

// Execute executes the get credit stats use case
func (uc *GetCreditStatsUseCase) Execute(ctx context.Context) (*dto.CreditStatsResponse, error) {
	rows, err := uc.stats.GetSubjectStats(ctx)
	if err != nil {
		uc.logger.Errorw("failed to get credit stats", "error", err)
		return nil, fmt.Errorf("failed to get credit stats: %w", err)
	}

	resp := &dto.CreditStatsResponse{
		Subjects: make([]dto.SubjectStatsResponse, 0, len(rows)),
	}
	for _, row := range rows {
		var remaining uint
		if row.Remaining != nil {
			remaining = *row.Remaining
		}
		resp.Subjects = append(resp.Subjects, dto.SubjectStatsResponse{
			SubjectID:      row.SubjectID,
			TotalGranted:   row.TotalGranted,
			TotalConsumed:  row.TotalConsumed,
			Remaining:      row.Remaining,
			IsUnlimited:    row.IsUnlimited,
			PlanType:       row.PlanType.String(),
			Status:         creditdomain.ClassifyStatus(row.IsUnlimited, row.TotalGranted, remaining, uc.lowThreshold).String(),
			EntryCount:     row.EntryCount,
			LastActivityAt: row.LastActivityAt,
		})
	}
	resp.Total = len(resp.Subjects)
	return resp, nil
}
