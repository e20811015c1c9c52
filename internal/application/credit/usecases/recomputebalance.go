package usecases

import (
	"context"
	"fmt"

	"evalia/internal/application/credit/dto"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

// RecomputeBalanceUseCase rebuilds a subject's denormalized counters from
// the ledger. Administrative reconciliation path, also invoked after a
// ledger purge.
type RecomputeBalanceUseCase struct {
	controls     creditdomain.UsageControlRepository
	ledger       creditdomain.LedgerEntryRepository
	txMgr        TxManager
	lowThreshold uint
	logger       logger.Interface
}

// NewRecomputeBalanceUseCase creates a new recompute balance use case
func NewRecomputeBalanceUseCase(
	controls creditdomain.UsageControlRepository,
	ledger creditdomain.LedgerEntryRepository,
	txMgr TxManager,
	lowThreshold uint,
	logger logger.Interface,
) *RecomputeBalanceUseCase {
	return &RecomputeBalanceUseCase{
		controls:     controls,
		ledger:       ledger,
		txMgr:        txMgr,
		lowThreshold: lowThreshold,
		logger:       logger,
	}
}

// Execute executes the recompute balance use case
func (uc *RecomputeBalanceUseCase) Execute(ctx context.Context, request dto.RecomputeBalanceRequest) (*dto.RecomputeBalanceResponse, error) {
	if request.SubjectID == "" {
		return nil, errors.NewValidationError("subject ID is required")
	}

	var control *creditdomain.UsageControl
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		control, txErr = uc.controls.GetBySubjectIncludingInactive(txCtx, request.SubjectID)
		if txErr != nil {
			return txErr
		}
		if control.IsUnlimited() {
			// unlimited counters carry no balance meaning
			return nil
		}

		totals, txErr := uc.ledger.SumBySubject(txCtx, request.SubjectID)
		if txErr != nil {
			return txErr
		}
		if txErr = control.ApplyRecomputedTotals(totals.Granted, totals.Consumed); txErr != nil {
			return errors.NewConflictError(txErr.Error())
		}
		return uc.controls.Save(txCtx, control)
	})
	if err != nil {
		if err == creditdomain.ErrControlNotFound {
			return nil, errors.NewSubjectNotFoundError(request.SubjectID)
		}
		if appErr := errors.GetAppError(err); appErr != nil {
			return nil, appErr
		}
		uc.logger.Errorw("failed to recompute balance",
			"subject_id", request.SubjectID,
			"error", err)
		return nil, fmt.Errorf("failed to recompute balance: %w", err)
	}

	uc.logger.Infow("balance recomputed",
		"subject_id", request.SubjectID,
		"total_granted", control.TotalGranted(),
		"total_consumed", control.TotalConsumed())

	return &dto.RecomputeBalanceResponse{
		SubjectID:     request.SubjectID,
		TotalGranted:  control.TotalGranted(),
		TotalConsumed: control.TotalConsumed(),
		Remaining:     control.Remaining(),
		Status:        creditdomain.ClassifyControl(control, uc.lowThreshold).String(),
	}, nil
}
