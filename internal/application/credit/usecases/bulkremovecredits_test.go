package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalia/internal/application/credit/dto"
	"evalia/internal/domain/credit"
	"evalia/internal/shared/logger"
)

func TestBulkRemoveCreditsUseCase_Execute(t *testing.T) {
	log := logger.NewLogger()

	t.Run("one failure never aborts the batch", func(t *testing.T) {
		controls := &mockUsageControlRepository{
			GetBySubjectFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				if subjectID == "prof-missing" {
					return nil, credit.ErrControlNotFound
				}
				return reconstructControl(t, subjectID, 10, 2, false, true), nil
			},
		}
		remove := NewRemoveCreditsUseCase(controls, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)

		uc := NewBulkRemoveCreditsUseCase(remove, log)
		resp, err := uc.Execute(context.Background(), dto.BulkRemoveCreditsRequest{
			SubjectIDs: []string{"prof-a", "prof-missing", "prof-b"},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, resp.SuccessCount)
		assert.Equal(t, 1, resp.FailureCount)
		require.Len(t, resp.Results, 3)

		assert.True(t, resp.Results[0].Success)
		assert.Equal(t, uint(8), resp.Results[0].RemovedAmount)
		assert.False(t, resp.Results[1].Success)
		assert.NotEmpty(t, resp.Results[1].Error)
		assert.True(t, resp.Results[2].Success)
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		remove := NewRemoveCreditsUseCase(&mockUsageControlRepository{}, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)

		uc := NewBulkRemoveCreditsUseCase(remove, log)
		_, err := uc.Execute(context.Background(), dto.BulkRemoveCreditsRequest{})

		require.Error(t, err)
	})
}
