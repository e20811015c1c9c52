package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalia/internal/application/credit/dto"
	"evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

func reconstructControl(t *testing.T, subjectID string, granted, consumed uint, unlimited, active bool) *credit.UsageControl {
	t.Helper()
	planType := credit.PlanTypeAssigned
	if unlimited {
		planType = credit.PlanTypeUnlimited
	}
	if !active {
		planType = credit.PlanTypeNone
	}
	control, err := credit.ReconstructUsageControl(1, subjectID, granted, consumed, unlimited, planType, active, time.Now(), time.Now())
	require.NoError(t, err)
	return control
}

func TestGrantCreditsUseCase_Execute(t *testing.T) {
	log := logger.NewLogger()

	t.Run("first grant creates the control", func(t *testing.T) {
		var saved *credit.UsageControl
		var appended *credit.LedgerEntry
		controls := &mockUsageControlRepository{
			SaveFunc: func(ctx context.Context, control *credit.UsageControl) error {
				if control.ID() == 0 {
					require.NoError(t, control.SetID(7))
				}
				saved = control
				return nil
			},
		}
		ledger := &mockLedgerEntryRepository{
			AppendFunc: func(ctx context.Context, entry *credit.LedgerEntry) error {
				appended = entry
				return nil
			},
		}

		uc := NewGrantCreditsUseCase(controls, ledger, &mockTxManager{}, 5, log)
		resp, err := uc.Execute(context.Background(), dto.GrantCreditsRequest{
			SubjectID: "prof-1",
			Amount:    "10",
		})

		require.NoError(t, err)
		assert.Equal(t, uint(10), resp.TotalGranted)
		require.NotNil(t, resp.Remaining)
		assert.Equal(t, uint(10), *resp.Remaining)
		assert.Equal(t, credit.StatusActive.String(), resp.Status)
		assert.Equal(t, credit.PlanTypeAssigned.String(), resp.PlanType)

		require.NotNil(t, saved)
		require.NotNil(t, appended)
		assert.Equal(t, 10, appended.Delta())
		assert.Equal(t, credit.EntryKindGrant, appended.Kind())
	})

	t.Run("grant tops up an existing balance", func(t *testing.T) {
		existing := reconstructControl(t, "prof-2", 10, 8, false, true)
		controls := &mockUsageControlRepository{
			GetBySubjectIncludingInactiveFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return existing, nil
			},
		}

		uc := NewGrantCreditsUseCase(controls, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)
		resp, err := uc.Execute(context.Background(), dto.GrantCreditsRequest{
			SubjectID: "prof-2",
			Amount:    "5",
		})

		require.NoError(t, err)
		assert.Equal(t, uint(15), resp.TotalGranted)
		require.NotNil(t, resp.Remaining)
		assert.Equal(t, uint(7), *resp.Remaining)
	})

	t.Run("grant reactivates a deactivated control", func(t *testing.T) {
		existing := reconstructControl(t, "prof-3", 0, 0, false, false)
		controls := &mockUsageControlRepository{
			GetBySubjectIncludingInactiveFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return existing, nil
			},
		}

		uc := NewGrantCreditsUseCase(controls, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)
		resp, err := uc.Execute(context.Background(), dto.GrantCreditsRequest{
			SubjectID: "prof-3",
			Amount:    "3",
		})

		require.NoError(t, err)
		assert.True(t, resp.Active)
		assert.Equal(t, uint(3), resp.TotalGranted)
	})

	t.Run("unlimited grant exempts the subject", func(t *testing.T) {
		var appended *credit.LedgerEntry
		controls := &mockUsageControlRepository{
			SaveFunc: func(ctx context.Context, control *credit.UsageControl) error {
				if control.ID() == 0 {
					return control.SetID(8)
				}
				return nil
			},
		}
		ledger := &mockLedgerEntryRepository{
			AppendFunc: func(ctx context.Context, entry *credit.LedgerEntry) error {
				appended = entry
				return nil
			},
		}

		uc := NewGrantCreditsUseCase(controls, ledger, &mockTxManager{}, 5, log)
		resp, err := uc.Execute(context.Background(), dto.GrantCreditsRequest{
			SubjectID: "prof-4",
			Amount:    "unlimited",
		})

		require.NoError(t, err)
		assert.True(t, resp.IsUnlimited)
		assert.Nil(t, resp.Remaining)
		assert.Equal(t, credit.StatusUnlimited.String(), resp.Status)

		require.NotNil(t, appended)
		assert.Equal(t, 0, appended.Delta())
		assert.Equal(t, credit.EntryKindAdjustment, appended.Kind())
	})

	t.Run("concrete grant on unlimited subject switches back to metered", func(t *testing.T) {
		existing := reconstructControl(t, "prof-5", 0, 0, true, true)
		controls := &mockUsageControlRepository{
			GetBySubjectIncludingInactiveFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return existing, nil
			},
		}

		uc := NewGrantCreditsUseCase(controls, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)
		resp, err := uc.Execute(context.Background(), dto.GrantCreditsRequest{
			SubjectID: "prof-5",
			Amount:    "20",
		})

		require.NoError(t, err)
		assert.False(t, resp.IsUnlimited)
		require.NotNil(t, resp.Remaining)
		assert.Equal(t, uint(20), *resp.Remaining)
	})

	t.Run("invalid amounts are rejected", func(t *testing.T) {
		uc := NewGrantCreditsUseCase(&mockUsageControlRepository{}, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)

		for _, amount := range []string{"0", "-3", "ten", ""} {
			_, err := uc.Execute(context.Background(), dto.GrantCreditsRequest{
				SubjectID: "prof-6",
				Amount:    amount,
			})
			assert.True(t, errors.IsValidationError(err), "amount %q", amount)
		}
	})

	t.Run("invalid plan type is rejected", func(t *testing.T) {
		uc := NewGrantCreditsUseCase(&mockUsageControlRepository{}, &mockLedgerEntryRepository{}, &mockTxManager{}, 5, log)

		_, err := uc.Execute(context.Background(), dto.GrantCreditsRequest{
			SubjectID: "prof-7",
			Amount:    "5",
			PlanType:  "premium",
		})
		assert.True(t, errors.IsValidationError(err))
	})
}
