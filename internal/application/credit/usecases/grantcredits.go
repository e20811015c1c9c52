package usecases

import (
	"context"
	"fmt"

	"evalia/internal/application/credit/dto"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

// TxManager runs a function inside a database transaction. The transaction
// travels in the returned context so repositories join it transparently.
type TxManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// GrantCreditsUseCase adds credits to a subject's balance. The usage
// control row is created lazily on the first grant and reactivated if a
// previous removal deactivated it.
type GrantCreditsUseCase struct {
	controls     creditdomain.UsageControlRepository
	ledger       creditdomain.LedgerEntryRepository
	txMgr        TxManager
	lowThreshold uint
	logger       logger.Interface
}

// NewGrantCreditsUseCase creates a new grant credits use case
func NewGrantCreditsUseCase(
	controls creditdomain.UsageControlRepository,
	ledger creditdomain.LedgerEntryRepository,
	txMgr TxManager,
	lowThreshold uint,
	logger logger.Interface,
) *GrantCreditsUseCase {
	return &GrantCreditsUseCase{
		controls:     controls,
		ledger:       ledger,
		txMgr:        txMgr,
		lowThreshold: lowThreshold,
		logger:       logger,
	}
}

// Execute executes the grant credits use case
func (uc *GrantCreditsUseCase) Execute(ctx context.Context, request dto.GrantCreditsRequest) (*dto.BalanceResponse, error) {
	if request.SubjectID == "" {
		return nil, errors.NewValidationError("subject ID is required")
	}

	amount, unlimited, err := parseGrantAmount(request.Amount)
	if err != nil {
		uc.logger.Warnw("invalid grant amount", "subject_id", request.SubjectID, "amount", request.Amount)
		return nil, err
	}

	planType := creditdomain.PlanTypeAssigned
	if unlimited {
		planType = creditdomain.PlanTypeUnlimited
	}
	if request.PlanType != "" {
		planType = creditdomain.PlanType(request.PlanType)
		if !planType.IsValid() || planType == creditdomain.PlanTypeNone {
			uc.logger.Warnw("invalid plan type", "plan_type", request.PlanType)
			return nil, errors.NewValidationError(fmt.Sprintf("invalid plan type: %s", request.PlanType))
		}
	}
	if unlimited && planType != creditdomain.PlanTypeUnlimited {
		return nil, errors.NewValidationError("plan type must be unlimited for an UNLIMITED grant")
	}

	uc.logger.Infow("executing grant credits use case",
		"subject_id", request.SubjectID,
		"amount", request.Amount,
		"plan_type", planType)

	var control *creditdomain.UsageControl
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		control, txErr = uc.controls.GetBySubjectIncludingInactive(txCtx, request.SubjectID)
		if txErr != nil {
			if txErr != creditdomain.ErrControlNotFound {
				return fmt.Errorf("failed to load usage control: %w", txErr)
			}
			control, txErr = creditdomain.NewUsageControl(request.SubjectID, planType)
			if txErr != nil {
				return errors.NewValidationError(txErr.Error())
			}
		}

		if unlimited {
			control.MarkUnlimited()
		} else if txErr = control.ApplyGrant(amount, planType); txErr != nil {
			return errors.NewValidationError(txErr.Error())
		}

		if txErr = uc.controls.Save(txCtx, control); txErr != nil {
			return txErr
		}

		entry, txErr := uc.buildEntry(request, amount, unlimited)
		if txErr != nil {
			return txErr
		}
		return uc.ledger.Append(txCtx, entry)
	})
	if err != nil {
		if appErr := errors.GetAppError(err); appErr != nil {
			return nil, appErr
		}
		uc.logger.Errorw("failed to grant credits",
			"subject_id", request.SubjectID,
			"error", err)
		return nil, fmt.Errorf("failed to grant credits: %w", err)
	}

	uc.logger.Infow("credits granted",
		"subject_id", request.SubjectID,
		"total_granted", control.TotalGranted(),
		"is_unlimited", control.IsUnlimited())

	return toBalanceResponse(control, uc.lowThreshold), nil
}

func (uc *GrantCreditsUseCase) buildEntry(request dto.GrantCreditsRequest, amount uint, unlimited bool) (*creditdomain.LedgerEntry, error) {
	var entry *creditdomain.LedgerEntry
	var err error

	if unlimited {
		// unlimited provisioning moves no concrete credits
		entry, err = creditdomain.NewLedgerEntry(request.SubjectID, 0, creditdomain.EntryKindAdjustment,
			reasonOrDefault(request.Reason, "unlimited plan enabled"), creditdomain.Correlation{})
	} else {
		entry, err = creditdomain.NewLedgerEntry(request.SubjectID, int(amount), creditdomain.EntryKindGrant,
			reasonOrDefault(request.Reason, "credits granted"), creditdomain.Correlation{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger entry: %w", err)
	}

	for key, value := range request.Metadata {
		if merr := entry.SetMetadata(key, value); merr != nil {
			return nil, merr
		}
	}
	return entry, nil
}

func reasonOrDefault(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}
