package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
	"evalia/internal/shared/logger"
)

func TestCheckAvailabilityUseCase_Execute(t *testing.T) {
	log := logger.NewLogger()

	t.Run("subject with balance can consume", func(t *testing.T) {
		reader := &mockBalanceReader{
			SnapshotFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return reconstructControl(t, subjectID, 10, 2, false, true), nil
			},
		}

		uc := NewCheckAvailabilityUseCase(reader, 5, log)
		resp, err := uc.Execute(context.Background(), "prof-1")

		require.NoError(t, err)
		assert.True(t, resp.CanConsume)
		require.NotNil(t, resp.Remaining)
		assert.Equal(t, uint(8), *resp.Remaining)
		assert.Equal(t, credit.StatusActive.String(), resp.Status)
		assert.Empty(t, resp.Reason)
	})

	t.Run("exhausted subject reports no_pins with a reason", func(t *testing.T) {
		reader := &mockBalanceReader{
			SnapshotFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return reconstructControl(t, subjectID, 4, 4, false, true), nil
			},
		}

		uc := NewCheckAvailabilityUseCase(reader, 5, log)
		resp, err := uc.Execute(context.Background(), "prof-2")

		require.NoError(t, err)
		assert.False(t, resp.CanConsume)
		assert.Equal(t, credit.StatusNoPins.String(), resp.Status)
		assert.Equal(t, "no credits remaining", resp.Reason)
	})

	t.Run("unknown subject is not an error", func(t *testing.T) {
		uc := NewCheckAvailabilityUseCase(&mockBalanceReader{}, 5, log)
		resp, err := uc.Execute(context.Background(), "prof-unknown")

		require.NoError(t, err)
		assert.False(t, resp.CanConsume)
		assert.Nil(t, resp.Remaining)
		assert.Equal(t, credit.StatusNoPins.String(), resp.Status)
		assert.Equal(t, "no credits provisioned for subject", resp.Reason)
	})

	t.Run("check is read-only and repeatable", func(t *testing.T) {
		calls := 0
		reader := &mockBalanceReader{
			SnapshotFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				calls++
				return reconstructControl(t, subjectID, 3, 0, false, true), nil
			},
		}

		uc := NewCheckAvailabilityUseCase(reader, 5, log)
		for i := 0; i < 3; i++ {
			resp, err := uc.Execute(context.Background(), "prof-3")
			require.NoError(t, err)
			require.NotNil(t, resp.Remaining)
			assert.Equal(t, uint(3), *resp.Remaining)
		}
		assert.Equal(t, 3, calls)
	})

	t.Run("unlimited subject always can consume", func(t *testing.T) {
		reader := &mockBalanceReader{
			SnapshotFunc: func(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
				return reconstructControl(t, subjectID, 0, 0, true, true), nil
			},
		}

		uc := NewCheckAvailabilityUseCase(reader, 5, log)
		resp, err := uc.Execute(context.Background(), "prof-4")

		require.NoError(t, err)
		assert.True(t, resp.CanConsume)
		assert.Nil(t, resp.Remaining)
		assert.True(t, resp.IsUnlimited)
		assert.Equal(t, credit.StatusUnlimited.String(), resp.Status)
	})

	t.Run("empty subject ID is rejected", func(t *testing.T) {
		uc := NewCheckAvailabilityUseCase(&mockBalanceReader{}, 5, log)
		_, err := uc.Execute(context.Background(), "")

		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	})
}
