package usecases

import (
	"context"
	"fmt"

	"evalia/internal/application/credit/dto"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/shared/constants"
	"evalia/internal/shared/logger"
)

// GetLedgerHistoryUseCase returns a window of the transaction history,
// most recent first, either for one subject or across all of them.
type GetLedgerHistoryUseCase struct {
	ledger creditdomain.LedgerEntryRepository
	logger logger.Interface
}

// NewGetLedgerHistoryUseCase creates a new get ledger history use case
func NewGetLedgerHistoryUseCase(ledger creditdomain.LedgerEntryRepository, logger logger.Interface) *GetLedgerHistoryUseCase {
	return &GetLedgerHistoryUseCase{
		ledger: ledger,
		logger: logger,
	}
}

// Execute executes the get ledger history use case
func (uc *GetLedgerHistoryUseCase) Execute(ctx context.Context, subjectID string, limit int) (*dto.LedgerHistoryResponse, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	if limit > constants.MaxHistoryLimit {
		limit = constants.MaxHistoryLimit
	}

	var entries []*creditdomain.LedgerEntry
	var err error
	if subjectID != "" {
		entries, err = uc.ledger.ListBySubject(ctx, subjectID, limit)
	} else {
		entries, err = uc.ledger.ListRecent(ctx, limit)
	}
	if err != nil {
		uc.logger.Errorw("failed to list ledger history", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to list ledger history: %w", err)
	}

	resp := &dto.LedgerHistoryResponse{
		SubjectID: subjectID,
		Entries:   make([]*dto.LedgerEntryResponse, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, toLedgerEntryResponse(entry))
	}
	resp.Count = len(resp.Entries)
	return resp, nil
}
