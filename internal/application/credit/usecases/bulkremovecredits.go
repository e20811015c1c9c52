package usecases

import (
	"context"

	"evalia/internal/application/credit/dto"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

// BulkRemoveCreditsUseCase removes the entire balance from several
// subjects. One subject's failure never aborts the rest of the batch.
type BulkRemoveCreditsUseCase struct {
	remove *RemoveCreditsUseCase
	logger logger.Interface
}

// NewBulkRemoveCreditsUseCase creates a new bulk remove credits use case
func NewBulkRemoveCreditsUseCase(remove *RemoveCreditsUseCase, logger logger.Interface) *BulkRemoveCreditsUseCase {
	return &BulkRemoveCreditsUseCase{
		remove: remove,
		logger: logger,
	}
}

// Execute executes the bulk remove credits use case
func (uc *BulkRemoveCreditsUseCase) Execute(ctx context.Context, request dto.BulkRemoveCreditsRequest) (*dto.BulkRemoveCreditsResponse, error) {
	if len(request.SubjectIDs) == 0 {
		return nil, errors.NewValidationError("at least one subject ID is required")
	}

	uc.logger.Infow("executing bulk remove credits use case",
		"subject_count", len(request.SubjectIDs))

	resp := &dto.BulkRemoveCreditsResponse{
		Results: make([]dto.BulkRemoveResultResponse, 0, len(request.SubjectIDs)),
	}

	for _, subjectID := range request.SubjectIDs {
		result := dto.BulkRemoveResultResponse{SubjectID: subjectID}

		removed, err := uc.remove.Execute(ctx, dto.RemoveCreditsRequest{
			SubjectID: subjectID,
			Amount:    dto.AllCredits,
			Reason:    request.Reason,
		})
		if err != nil {
			result.Error = err.Error()
			resp.FailureCount++
		} else {
			result.Success = true
			result.RemovedAmount = removed.RemovedAmount
			resp.SuccessCount++
		}
		resp.Results = append(resp.Results, result)
	}

	uc.logger.Infow("bulk remove credits completed",
		"success_count", resp.SuccessCount,
		"failure_count", resp.FailureCount)

	return resp, nil
}
