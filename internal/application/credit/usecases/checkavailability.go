package usecases

import (
	"context"
	"fmt"

	"evalia/internal/application/credit/dto"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

// CheckAvailabilityUseCase is the read-only consume pre-check. The
// authoritative decision still happens in the consume transaction; callers
// use this to disable gated actions in the UI. It reads through the
// configured balance strategy.
type CheckAvailabilityUseCase struct {
	reader       creditdomain.BalanceReader
	lowThreshold uint
	logger       logger.Interface
}

// NewCheckAvailabilityUseCase creates a new check availability use case
func NewCheckAvailabilityUseCase(reader creditdomain.BalanceReader, lowThreshold uint, logger logger.Interface) *CheckAvailabilityUseCase {
	return &CheckAvailabilityUseCase{
		reader:       reader,
		lowThreshold: lowThreshold,
		logger:       logger,
	}
}

// Execute executes the check availability use case. Unknown subjects are
// not an error: they report can_consume false with status no_pins.
func (uc *CheckAvailabilityUseCase) Execute(ctx context.Context, subjectID string) (*dto.AvailabilityResponse, error) {
	if subjectID == "" {
		return nil, errors.NewValidationError("subject ID is required")
	}

	control, err := uc.reader.Snapshot(ctx, subjectID)
	if err != nil {
		if err == creditdomain.ErrControlNotFound {
			return &dto.AvailabilityResponse{
				SubjectID:  subjectID,
				CanConsume: false,
				Status:     creditdomain.StatusNoPins.String(),
				Reason:     "no credits provisioned for subject",
			}, nil
		}
		uc.logger.Errorw("failed to check availability", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	resp := &dto.AvailabilityResponse{
		SubjectID:   subjectID,
		CanConsume:  control.CanConsume(),
		Remaining:   control.Remaining(),
		IsUnlimited: control.IsUnlimited(),
		Status:      creditdomain.ClassifyControl(control, uc.lowThreshold).String(),
	}
	if !resp.CanConsume {
		resp.Reason = "no credits remaining"
	}
	return resp, nil
}
