// Package credit wires the credit engine's use cases behind one facade.
package credit

import (
	"context"

	"evalia/internal/application/credit/dto"
)

// GrantCreditsExecutor grants credits to a subject
type GrantCreditsExecutor interface {
	Execute(ctx context.Context, request dto.GrantCreditsRequest) (*dto.BalanceResponse, error)
}

// ConsumeCreditExecutor spends one credit on a gated action
type ConsumeCreditExecutor interface {
	Execute(ctx context.Context, request dto.ConsumeCreditRequest) (*dto.ConsumeCreditResponse, error)
}

// RemoveCreditsExecutor removes credits from a subject
type RemoveCreditsExecutor interface {
	Execute(ctx context.Context, request dto.RemoveCreditsRequest) (*dto.RemoveCreditsResponse, error)
}

// BulkRemoveCreditsExecutor removes the balance from several subjects
type BulkRemoveCreditsExecutor interface {
	Execute(ctx context.Context, request dto.BulkRemoveCreditsRequest) (*dto.BulkRemoveCreditsResponse, error)
}

// CheckAvailabilityExecutor runs the read-only consume pre-check
type CheckAvailabilityExecutor interface {
	Execute(ctx context.Context, subjectID string) (*dto.AvailabilityResponse, error)
}

// GetLedgerHistoryExecutor reads the transaction history
type GetLedgerHistoryExecutor interface {
	Execute(ctx context.Context, subjectID string, limit int) (*dto.LedgerHistoryResponse, error)
}

// GetCreditStatsExecutor reads the cross-subject balance summary
type GetCreditStatsExecutor interface {
	Execute(ctx context.Context) (*dto.CreditStatsResponse, error)
}

// RecomputeBalanceExecutor rebuilds counters from the ledger
type RecomputeBalanceExecutor interface {
	Execute(ctx context.Context, request dto.RecomputeBalanceRequest) (*dto.RecomputeBalanceResponse, error)
}

// DeleteSubjectLedgerExecutor purges a subject's history
type DeleteSubjectLedgerExecutor interface {
	Execute(ctx context.Context, subjectID string) (*dto.DeleteLedgerResponse, error)
}

// Service is the credit engine facade handed to the interface layers. It
// is constructed once at process start; there is no package-level
// singleton.
type Service struct {
	grant        GrantCreditsExecutor
	consume      ConsumeCreditExecutor
	remove       RemoveCreditsExecutor
	bulkRemove   BulkRemoveCreditsExecutor
	availability CheckAvailabilityExecutor
	history      GetLedgerHistoryExecutor
	stats        GetCreditStatsExecutor
	recompute    RecomputeBalanceExecutor
	deleteLedger DeleteSubjectLedgerExecutor
}

// NewService creates the credit service facade
func NewService(
	grant GrantCreditsExecutor,
	consume ConsumeCreditExecutor,
	remove RemoveCreditsExecutor,
	bulkRemove BulkRemoveCreditsExecutor,
	availability CheckAvailabilityExecutor,
	history GetLedgerHistoryExecutor,
	stats GetCreditStatsExecutor,
	recompute RecomputeBalanceExecutor,
	deleteLedger DeleteSubjectLedgerExecutor,
) *Service {
	return &Service{
		grant:        grant,
		consume:      consume,
		remove:       remove,
		bulkRemove:   bulkRemove,
		availability: availability,
		history:      history,
		stats:        stats,
		recompute:    recompute,
		deleteLedger: deleteLedger,
	}
}

// GrantCredits adds credits to a subject's balance
func (s *Service) GrantCredits(ctx context.Context, request dto.GrantCreditsRequest) (*dto.BalanceResponse, error) {
	return s.grant.Execute(ctx, request)
}

// ConsumeCredit spends one credit on a gated action
func (s *Service) ConsumeCredit(ctx context.Context, request dto.ConsumeCreditRequest) (*dto.ConsumeCreditResponse, error) {
	return s.consume.Execute(ctx, request)
}

// RemoveCredits removes credits from a subject's balance
func (s *Service) RemoveCredits(ctx context.Context, request dto.RemoveCreditsRequest) (*dto.RemoveCreditsResponse, error) {
	return s.remove.Execute(ctx, request)
}

// BulkRemoveCredits removes the entire balance from several subjects
func (s *Service) BulkRemoveCredits(ctx context.Context, request dto.BulkRemoveCreditsRequest) (*dto.BulkRemoveCreditsResponse, error) {
	return s.bulkRemove.Execute(ctx, request)
}

// CheckAvailability runs the read-only consume pre-check
func (s *Service) CheckAvailability(ctx context.Context, subjectID string) (*dto.AvailabilityResponse, error) {
	return s.availability.Execute(ctx, subjectID)
}

// GetLedgerHistory reads the transaction history
func (s *Service) GetLedgerHistory(ctx context.Context, subjectID string, limit int) (*dto.LedgerHistoryResponse, error) {
	return s.history.Execute(ctx, subjectID, limit)
}

// GetCreditStats reads the cross-subject balance summary
func (s *Service) GetCreditStats(ctx context.Context) (*dto.CreditStatsResponse, error) {
	return s.stats.Execute(ctx)
}

// RecomputeBalance rebuilds a subject's counters from the ledger
func (s *Service) RecomputeBalance(ctx context.Context, request dto.RecomputeBalanceRequest) (*dto.RecomputeBalanceResponse, error) {
	return s.recompute.Execute(ctx, request)
}

// DeleteSubjectLedger purges a subject's transaction history
func (s *Service) DeleteSubjectLedger(ctx context.Context, subjectID string) (*dto.DeleteLedgerResponse, error) {
	return s.deleteLedger.Execute(ctx, subjectID)
}
