package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalia/internal/application/credit/dto"
	"evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

func TestRemoveCreditsUseCase_Execute(t *testing.T) {
	log := logger.NewLogger()

	t.Run("partial removal shrinks the balance", func(t *testing.T) {
		existing := reconstructControl(t, "prof-1", 10, 3, false, true)
		var appended *credit.LedgerEntry
		controls := &mockUsageControlRepository{
			GetBySubjectFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return existing, nil
			},
		}
		ledger := &mockLedgerEntryRepository{
			AppendFunc: func(ctx context.Context, entry *credit.LedgerEntry) error {
				appended = entry
				return nil
			},
		}

		uc := NewRemoveCreditsUseCase(controls, ledger, &mockTxManager{}, 5, log)
		resp, err := uc.Execute(context.Background(), dto.RemoveCreditsRequest{
			SubjectID: "prof-1",
			Amount:    "4",
		})

		require.NoError(t, err)
		assert.Equal(t, uint(4), resp.RemovedAmount)
		assert.False(t, resp.FullReset)
		require.NotNil(t, resp.Remaining)
		assert.Equal(t, uint(3), *resp.Remaining)

		require.NotNil(t, appended)
		assert.Equal(t, -4, appended.Delta())
		assert.Equal(t, credit.EntryKindRemoval, appended.Kind())
	})

	t.Run("removal beyond the remaining balance is rejected", func(t *testing.T) {
		existing := reconstructControl(t, "prof-2", 10, 8, false, true)
		controls := &mockUsageControlRepository{
			GetBySubjectFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return existing, nil
			},
		}

		uc := NewRemoveCreditsUseCase(controls, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)
		_, err := uc.Execute(context.Background(), dto.RemoveCreditsRequest{
			SubjectID: "prof-2",
			Amount:    "3",
		})

		require.Error(t, err)
		assert.True(t, errors.IsInsufficientBalanceError(err))
		assert.Equal(t, uint(10), existing.TotalGranted(), "balance untouched")
	})

	t.Run("ALL deactivates the control and records the removal", func(t *testing.T) {
		existing := reconstructControl(t, "prof-3", 10, 4, false, true)
		var appended *credit.LedgerEntry
		controls := &mockUsageControlRepository{
			GetBySubjectFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return existing, nil
			},
		}
		ledger := &mockLedgerEntryRepository{
			AppendFunc: func(ctx context.Context, entry *credit.LedgerEntry) error {
				appended = entry
				return nil
			},
		}

		uc := NewRemoveCreditsUseCase(controls, ledger, &mockTxManager{}, 5, log)
		resp, err := uc.Execute(context.Background(), dto.RemoveCreditsRequest{
			SubjectID: "prof-3",
			Amount:    "all",
		})

		require.NoError(t, err)
		assert.True(t, resp.FullReset)
		assert.Equal(t, uint(6), resp.RemovedAmount)
		assert.Nil(t, resp.Remaining)
		assert.Equal(t, credit.StatusNoPins.String(), resp.Status)
		assert.False(t, existing.IsActive())

		require.NotNil(t, appended)
		assert.Equal(t, -6, appended.Delta())
	})

	t.Run("ALL on an unlimited subject audits with a zero delta", func(t *testing.T) {
		existing := reconstructControl(t, "prof-4", 0, 0, true, true)
		var appended *credit.LedgerEntry
		controls := &mockUsageControlRepository{
			GetBySubjectFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return existing, nil
			},
		}
		ledger := &mockLedgerEntryRepository{
			AppendFunc: func(ctx context.Context, entry *credit.LedgerEntry) error {
				appended = entry
				return nil
			},
		}

		uc := NewRemoveCreditsUseCase(controls, ledger, &mockTxManager{}, 5, log)
		resp, err := uc.Execute(context.Background(), dto.RemoveCreditsRequest{
			SubjectID: "prof-4",
			Amount:    "ALL",
		})

		require.NoError(t, err)
		assert.Equal(t, uint(0), resp.RemovedAmount)
		assert.False(t, existing.IsUnlimited())

		require.NotNil(t, appended)
		assert.Equal(t, 0, appended.Delta())
		assert.Equal(t, credit.EntryKindAdjustment, appended.Kind())
	})

	t.Run("partial removal from an unlimited subject is rejected", func(t *testing.T) {
		existing := reconstructControl(t, "prof-5", 0, 0, true, true)
		controls := &mockUsageControlRepository{
			GetBySubjectFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return existing, nil
			},
		}

		uc := NewRemoveCreditsUseCase(controls, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)
		_, err := uc.Execute(context.Background(), dto.RemoveCreditsRequest{
			SubjectID: "prof-5",
			Amount:    "2",
		})

		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("unknown subject maps to not found", func(t *testing.T) {
		uc := NewRemoveCreditsUseCase(&mockUsageControlRepository{}, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)
		_, err := uc.Execute(context.Background(), dto.RemoveCreditsRequest{
			SubjectID: "prof-6",
			Amount:    "1",
		})

		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	})
}
