package usecases

import (
	"context"
	"fmt"

	appcredit "evalia/internal/application/credit"
	"evalia/internal/application/credit/dto"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

// ConsumeCreditUseCase spends one credit on a gated action. The decision is
// made by the storage layer in a single conditional UPDATE; this use case
// never checks-then-acts across round trips, so concurrent consumers of
// the last credit cannot both win.
type ConsumeCreditUseCase struct {
	controls creditdomain.UsageControlRepository
	ledger   creditdomain.LedgerEntryRepository
	txMgr    TxManager
	alerts   *appcredit.AlertPublisher
	logger   logger.Interface
}

// NewConsumeCreditUseCase creates a new consume credit use case
func NewConsumeCreditUseCase(
	controls creditdomain.UsageControlRepository,
	ledger creditdomain.LedgerEntryRepository,
	txMgr TxManager,
	alerts *appcredit.AlertPublisher,
	logger logger.Interface,
) *ConsumeCreditUseCase {
	return &ConsumeCreditUseCase{
		controls: controls,
		ledger:   ledger,
		txMgr:    txMgr,
		alerts:   alerts,
		logger:   logger,
	}
}

// Execute executes the consume credit use case
func (uc *ConsumeCreditUseCase) Execute(ctx context.Context, request dto.ConsumeCreditRequest) (*dto.ConsumeCreditResponse, error) {
	if request.SubjectID == "" {
		return nil, errors.NewValidationError("subject ID is required")
	}

	uc.logger.Infow("executing consume credit use case",
		"subject_id", request.SubjectID,
		"operation", request.Operation)

	var result *creditdomain.ConsumeResult
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		result, txErr = uc.controls.ConsumeOne(txCtx, request.SubjectID)
		if txErr != nil {
			return txErr
		}

		entry, txErr := uc.buildEntry(request, result)
		if txErr != nil {
			return txErr
		}
		return uc.ledger.Append(txCtx, entry)
	})
	if err != nil {
		switch {
		case err == creditdomain.ErrControlNotFound:
			uc.logger.Warnw("consume on unknown subject", "subject_id", request.SubjectID)
			return nil, errors.NewSubjectNotFoundError(request.SubjectID)
		case err == creditdomain.ErrBalanceConflict:
			uc.logger.Warnw("consume blocked on exhausted balance",
				"subject_id", request.SubjectID,
				"operation", request.Operation)
			uc.alerts.ConsumeBlocked(request.SubjectID, request.Operation)
			return nil, errors.NewNoCreditsAvailableError(request.SubjectID)
		default:
			uc.logger.Errorw("failed to consume credit",
				"subject_id", request.SubjectID,
				"error", err)
			return nil, fmt.Errorf("failed to consume credit: %w", err)
		}
	}

	uc.alerts.ConsumeSucceeded(request.SubjectID, request.Operation, result.Remaining)

	uc.logger.Infow("credit consumed",
		"subject_id", request.SubjectID,
		"operation", request.Operation,
		"is_unlimited", result.Control.IsUnlimited())

	return &dto.ConsumeCreditResponse{
		SubjectID:   request.SubjectID,
		Consumed:    true,
		Remaining:   result.Remaining,
		IsUnlimited: result.Control.IsUnlimited(),
		Status:      creditdomain.ClassifyControl(result.Control, uc.alerts.LowThreshold()).String(),
	}, nil
}

func (uc *ConsumeCreditUseCase) buildEntry(request dto.ConsumeCreditRequest, result *creditdomain.ConsumeResult) (*creditdomain.LedgerEntry, error) {
	// unlimited consumes audit with delta 0
	delta := -1
	if result.Control.IsUnlimited() {
		delta = 0
	}

	entry, err := creditdomain.NewLedgerEntry(request.SubjectID, delta, creditdomain.EntryKindConsume,
		reasonOrDefault(request.Reason, "credit consumed"), toCorrelation(request.Correlation))
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger entry: %w", err)
	}
	if request.Operation != "" {
		if merr := entry.SetMetadata("operation", request.Operation); merr != nil {
			return nil, merr
		}
	}
	return entry, nil
}
