package usecases

import (
	"context"
	"fmt"

	"evalia/internal/application/credit/dto"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

// DeleteSubjectLedgerUseCase purges a subject's transaction history. This
// is the only delete path into the ledger; the subject's counters are
// rebuilt from the now-empty ledger in the same transaction so the
// invariant between counters and history survives the purge.
type DeleteSubjectLedgerUseCase struct {
	controls creditdomain.UsageControlRepository
	ledger   creditdomain.LedgerEntryRepository
	txMgr    TxManager
	logger   logger.Interface
}

// NewDeleteSubjectLedgerUseCase creates a new delete subject ledger use case
func NewDeleteSubjectLedgerUseCase(
	controls creditdomain.UsageControlRepository,
	ledger creditdomain.LedgerEntryRepository,
	txMgr TxManager,
	logger logger.Interface,
) *DeleteSubjectLedgerUseCase {
	return &DeleteSubjectLedgerUseCase{
		controls: controls,
		ledger:   ledger,
		txMgr:    txMgr,
		logger:   logger,
	}
}

// Execute executes the delete subject ledger use case
func (uc *DeleteSubjectLedgerUseCase) Execute(ctx context.Context, subjectID string) (*dto.DeleteLedgerResponse, error) {
	if subjectID == "" {
		return nil, errors.NewValidationError("subject ID is required")
	}

	var control *creditdomain.UsageControl
	var deleted int64
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		control, txErr = uc.controls.GetBySubjectIncludingInactive(txCtx, subjectID)
		if txErr != nil {
			return txErr
		}

		deleted, txErr = uc.ledger.DeleteBySubject(txCtx, subjectID)
		if txErr != nil {
			return txErr
		}

		if control.IsUnlimited() {
			return nil
		}
		totals, txErr := uc.ledger.SumBySubject(txCtx, subjectID)
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
			return nil, errors.NewSubjectNotFoundError(subjectID)
		}
		if appErr := errors.GetAppError(err); appErr != nil {
			return nil, appErr
		}
		uc.logger.Errorw("failed to delete subject ledger",
			"subject_id", subjectID,
			"error", err)
		return nil, fmt.Errorf("failed to delete subject ledger: %w", err)
	}

	uc.logger.Infow("subject ledger deleted",
		"subject_id", subjectID,
		"deleted_entries", deleted)

	return &dto.DeleteLedgerResponse{
		SubjectID:      subjectID,
		DeletedEntries: deleted,
		TotalGranted:   control.TotalGranted(),
		TotalConsumed:  control.TotalConsumed(),
	}, nil
}
