package usecases

import (
	"context"
	"fmt"

	"evalia/internal/application/credit/dto"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

// RemoveCreditsUseCase removes credits from a subject. A partial removal
// is bounded by the remaining balance; ALL deactivates the control while
// retaining the ledger history.
type RemoveCreditsUseCase struct {
	controls     creditdomain.UsageControlRepository
	ledger       creditdomain.LedgerEntryRepository
	txMgr        TxManager
	lowThreshold uint
	logger       logger.Interface
}

// NewRemoveCreditsUseCase creates a new remove credits use case
func NewRemoveCreditsUseCase(
	controls creditdomain.UsageControlRepository,
	ledger creditdomain.LedgerEntryRepository,
	txMgr TxManager,
	lowThreshold uint,
	logger logger.Interface,
) *RemoveCreditsUseCase {
	return &RemoveCreditsUseCase{
		controls:     controls,
		ledger:       ledger,
		txMgr:        txMgr,
		lowThreshold: lowThreshold,
		logger:       logger,
	}
}

// Execute executes the remove credits use case
func (uc *RemoveCreditsUseCase) Execute(ctx context.Context, request dto.RemoveCreditsRequest) (*dto.RemoveCreditsResponse, error) {
	if request.SubjectID == "" {
		return nil, errors.NewValidationError("subject ID is required")
	}

	amount, all, err := parseRemovalAmount(request.Amount)
	if err != nil {
		uc.logger.Warnw("invalid removal amount", "subject_id", request.SubjectID, "amount", request.Amount)
		return nil, err
	}

	uc.logger.Infow("executing remove credits use case",
		"subject_id", request.SubjectID,
		"amount", request.Amount)

	var control *creditdomain.UsageControl
	var removed uint
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		control, txErr = uc.controls.GetBySubject(txCtx, request.SubjectID)
		if txErr != nil {
			return txErr
		}

		if all {
			removed, txErr = uc.removeAll(txCtx, control, request.Reason)
		} else {
			removed, txErr = uc.removePartial(txCtx, control, amount, request.Reason)
		}
		if txErr != nil {
			return txErr
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
		uc.logger.Errorw("failed to remove credits",
			"subject_id", request.SubjectID,
			"error", err)
		return nil, fmt.Errorf("failed to remove credits: %w", err)
	}

	uc.logger.Infow("credits removed",
		"subject_id", request.SubjectID,
		"removed_amount", removed,
		"full_reset", all)

	resp := &dto.RemoveCreditsResponse{
		SubjectID:     request.SubjectID,
		RemovedAmount: removed,
		FullReset:     all,
		Status:        creditdomain.ClassifyControl(control, uc.lowThreshold).String(),
	}
	if control.IsActive() {
		resp.Remaining = control.Remaining()
	}
	return resp, nil
}

func (uc *RemoveCreditsUseCase) removeAll(ctx context.Context, control *creditdomain.UsageControl, reason string) (uint, error) {
	var removed uint
	if remaining := control.Remaining(); remaining != nil {
		removed = *remaining
	}
	control.Deactivate()

	var entry *creditdomain.LedgerEntry
	var err error
	if removed > 0 {
		entry, err = creditdomain.NewLedgerEntry(control.SubjectID(), -int(removed), creditdomain.EntryKindRemoval,
			reasonOrDefault(reason, "all credits removed"), creditdomain.Correlation{})
	} else {
		// unlimited or already-empty balance: audit the reset without a delta
		entry, err = creditdomain.NewLedgerEntry(control.SubjectID(), 0, creditdomain.EntryKindAdjustment,
			reasonOrDefault(reason, "balance reset"), creditdomain.Correlation{})
	}
	if err != nil {
		return 0, fmt.Errorf("failed to build ledger entry: %w", err)
	}
	return removed, uc.ledger.Append(ctx, entry)
}

func (uc *RemoveCreditsUseCase) removePartial(ctx context.Context, control *creditdomain.UsageControl, amount uint, reason string) (uint, error) {
	if control.IsUnlimited() {
		return 0, errors.NewValidationError("cannot partially remove credits from an unlimited subject")
	}

	remaining := control.Remaining()
	if remaining == nil || amount > *remaining {
		var rem uint
		if remaining != nil {
			rem = *remaining
		}
		return 0, errors.NewInsufficientBalanceError(control.SubjectID(), amount, rem)
	}
	if err := control.RemovePartial(amount); err != nil {
		return 0, errors.NewValidationError(err.Error())
	}

	entry, err := creditdomain.NewLedgerEntry(control.SubjectID(), -int(amount), creditdomain.EntryKindRemoval,
		reasonOrDefault(reason, "credits removed"), creditdomain.Correlation{})
	if err != nil {
		return 0, fmt.Errorf("failed to build ledger entry: %w", err)
	}
	return amount, uc.ledger.Append(ctx, entry)
}
