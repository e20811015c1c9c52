package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"evalia/internal/domain/credit"
	"evalia/internal/infrastructure/persistence/models"
	"evalia/internal/shared/db"
	"evalia/internal/shared/logger"
)

const balanceSummaryViewSQL = `
CREATE VIEW credit_balance_summaries AS
SELECT
    u.subject_id,
    u.total_granted,
    u.total_consumed,
    u.is_unlimited,
    u.plan_type,
    COALESCE(l.entry_count, 0) AS entry_count,
    l.last_activity_at
FROM usage_controls u
LEFT JOIN (
    SELECT subject_id, COUNT(*) AS entry_count, MAX(created_at) AS last_activity_at
    FROM ledger_entries
    GROUP BY subject_id
) l ON l.subject_id = u.subject_id
WHERE u.active = 1`

func setupTestDB(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// a shared in-memory sqlite needs a single connection
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = gdb.AutoMigrate(&models.UsageControlModel{}, &models.LedgerEntryModel{})
	require.NoError(t, err)

	return gdb
}

func grantCredits(t *testing.T, repo credit.UsageControlRepository, subjectID string, amount uint) *credit.UsageControl {
	control, err := credit.NewUsageControl(subjectID, credit.PlanTypeAssigned)
	require.NoError(t, err)
	require.NoError(t, control.ApplyGrant(amount, credit.PlanTypeAssigned))
	require.NoError(t, repo.Save(context.Background(), control))
	return control
}

func TestUsageControlRepository_SaveAndGet(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewUsageControlRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	t.Run("save new control and read it back", func(t *testing.T) {
		control := grantCredits(t, repo, "prof-100", 10)
		assert.NotZero(t, control.ID())

		found, err := repo.GetBySubject(ctx, "prof-100")
		require.NoError(t, err)
		assert.Equal(t, uint(10), found.TotalGranted())
		assert.Equal(t, uint(0), found.TotalConsumed())
		assert.Equal(t, credit.PlanTypeAssigned, found.PlanType())
		assert.True(t, found.IsActive())
	})

	t.Run("unknown subject returns not found", func(t *testing.T) {
		_, err := repo.GetBySubject(ctx, "prof-missing")
		assert.ErrorIs(t, err, credit.ErrControlNotFound)
	})

	t.Run("deactivated control invisible to active lookup", func(t *testing.T) {
		control := grantCredits(t, repo, "prof-101", 3)
		control.Deactivate()
		require.NoError(t, repo.Save(ctx, control))

		_, err := repo.GetBySubject(ctx, "prof-101")
		assert.ErrorIs(t, err, credit.ErrControlNotFound)

		found, err := repo.GetBySubjectIncludingInactive(ctx, "prof-101")
		require.NoError(t, err)
		assert.False(t, found.IsActive())
		assert.Equal(t, uint(0), found.TotalGranted())
	})

	t.Run("grant reactivates a deactivated control", func(t *testing.T) {
		control := grantCredits(t, repo, "prof-102", 5)
		control.Deactivate()
		require.NoError(t, repo.Save(ctx, control))

		found, err := repo.GetBySubjectIncludingInactive(ctx, "prof-102")
		require.NoError(t, err)
		require.NoError(t, found.ApplyGrant(7, credit.PlanTypeAssigned))
		require.NoError(t, repo.Save(ctx, found))

		active, err := repo.GetBySubject(ctx, "prof-102")
		require.NoError(t, err)
		assert.Equal(t, uint(7), active.TotalGranted())
		assert.True(t, active.IsActive())
	})
}

func TestUsageControlRepository_ConsumeOne(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewUsageControlRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	t.Run("consume decrements remaining", func(t *testing.T) {
		grantCredits(t, repo, "prof-200", 2)

		result, err := repo.ConsumeOne(ctx, "prof-200")
		require.NoError(t, err)
		require.NotNil(t, result.Remaining)
		assert.Equal(t, uint(1), *result.Remaining)
		assert.Equal(t, uint(1), result.Control.TotalConsumed())
	})

	t.Run("exhausted balance returns conflict", func(t *testing.T) {
		grantCredits(t, repo, "prof-201", 1)

		_, err := repo.ConsumeOne(ctx, "prof-201")
		require.NoError(t, err)

		_, err = repo.ConsumeOne(ctx, "prof-201")
		assert.ErrorIs(t, err, credit.ErrBalanceConflict)
	})

	t.Run("missing subject returns not found", func(t *testing.T) {
		_, err := repo.ConsumeOne(ctx, "prof-absent")
		assert.ErrorIs(t, err, credit.ErrControlNotFound)
	})

	t.Run("unlimited subject consumes without a counter change", func(t *testing.T) {
		control, err := credit.NewUsageControl("prof-202", credit.PlanTypeUnlimited)
		require.NoError(t, err)
		control.MarkUnlimited()
		require.NoError(t, repo.Save(ctx, control))

		result, err := repo.ConsumeOne(ctx, "prof-202")
		require.NoError(t, err)
		assert.Nil(t, result.Remaining)
		assert.Equal(t, uint(0), result.Control.TotalConsumed())
	})
}

func TestUsageControlRepository_ConcurrentConsume(t *testing.T) {
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	controls := NewUsageControlRepository(gdb, log)
	ledger := NewLedgerEntryRepository(gdb, log)
	tm := db.NewTransactionManager(gdb)

	const granted = 5
	const attempts = 20
	grantCredits(t, controls, "prof-race", granted)

	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)
	conflicts := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tm.RunInTransaction(context.Background(), func(ctx context.Context) error {
				if _, cerr := controls.ConsumeOne(ctx, "prof-race"); cerr != nil {
					return cerr
				}
				entry, eerr := credit.NewLedgerEntry("prof-race", -1, credit.EntryKindConsume, "assessment", credit.Correlation{})
				if eerr != nil {
					return eerr
				}
				return ledger.Append(ctx, entry)
			})
			switch {
			case err == nil:
				successes <- struct{}{}
			default:
				conflicts <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)
	close(conflicts)

	assert.Equal(t, granted, len(successes))
	assert.Equal(t, attempts-granted, len(conflicts))

	final, err := controls.GetBySubject(context.Background(), "prof-race")
	require.NoError(t, err)
	assert.Equal(t, uint(granted), final.TotalConsumed())
	require.NotNil(t, final.Remaining())
	assert.Equal(t, uint(0), *final.Remaining())

	totals, err := ledger.SumBySubject(context.Background(), "prof-race")
	require.NoError(t, err)
	assert.Equal(t, uint(granted), totals.Consumed)
}

func TestLedgerEntryRepository(t *testing.T) {
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	repo := NewLedgerEntryRepository(gdb, log)
	ctx := context.Background()

	t.Run("append and list most recent first", func(t *testing.T) {
		grant, err := credit.NewLedgerEntry("prof-300", 10, credit.EntryKindGrant, "initial purchase", credit.Correlation{})
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, grant))

		consume, err := credit.NewLedgerEntry("prof-300", -1, credit.EntryKindConsume, "assessment completed",
			credit.Correlation{PatientRef: "pat-1", SessionRef: "sess-1"})
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, consume))

		entries, err := repo.ListBySubject(ctx, "prof-300", 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, credit.EntryKindConsume, entries[0].Kind())
		assert.Equal(t, "pat-1", entries[0].Correlation().PatientRef)
		assert.Equal(t, credit.EntryKindGrant, entries[1].Kind())
	})

	t.Run("metadata round trip", func(t *testing.T) {
		entry, err := credit.NewLedgerEntry("prof-301", 5, credit.EntryKindGrant, "promo", credit.Correlation{})
		require.NoError(t, err)
		require.NoError(t, entry.SetMetadata("campaign", "spring"))
		require.NoError(t, repo.Append(ctx, entry))

		entries, err := repo.ListBySubject(ctx, "prof-301", 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "spring", entries[0].Metadata()["campaign"])
	})

	t.Run("written entries are immutable", func(t *testing.T) {
		entry, err := credit.NewLedgerEntry("prof-302", 1, credit.EntryKindGrant, "", credit.Correlation{})
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, entry))

		assert.Error(t, entry.SetMetadata("k", "v"))
	})

	t.Run("sum recomputes per-kind totals", func(t *testing.T) {
		for _, delta := range []int{8, -1, -1} {
			kind := credit.EntryKindGrant
			if delta < 0 {
				kind = credit.EntryKindConsume
			}
			entry, err := credit.NewLedgerEntry("prof-303", delta, kind, "", credit.Correlation{})
			require.NoError(t, err)
			require.NoError(t, repo.Append(ctx, entry))
		}
		removal, err := credit.NewLedgerEntry("prof-303", -2, credit.EntryKindRemoval, "admin removal", credit.Correlation{})
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, removal))

		totals, err := repo.SumBySubject(ctx, "prof-303")
		require.NoError(t, err)
		assert.Equal(t, uint(8), totals.Granted)
		assert.Equal(t, uint(4), totals.Consumed)
	})

	t.Run("delete by subject reports removed rows", func(t *testing.T) {
		entry, err := credit.NewLedgerEntry("prof-304", 3, credit.EntryKindGrant, "", credit.Correlation{})
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, entry))

		count, err := repo.DeleteBySubject(ctx, "prof-304")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		entries, err := repo.ListBySubject(ctx, "prof-304", 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestCreditStatsRepository(t *testing.T) {
	seed := func(t *testing.T, gdb *gorm.DB) {
		log := logger.NewLogger()
		controls := NewUsageControlRepository(gdb, log)
		ledger := NewLedgerEntryRepository(gdb, log)
		ctx := context.Background()

		grantCredits(t, controls, "prof-a", 10)
		grant, err := credit.NewLedgerEntry("prof-a", 10, credit.EntryKindGrant, "", credit.Correlation{})
		require.NoError(t, err)
		require.NoError(t, ledger.Append(ctx, grant))

		_, err = controls.ConsumeOne(ctx, "prof-a")
		require.NoError(t, err)
		consume, err := credit.NewLedgerEntry("prof-a", -1, credit.EntryKindConsume, "", credit.Correlation{})
		require.NoError(t, err)
		require.NoError(t, ledger.Append(ctx, consume))

		unlimited, err := credit.NewUsageControl("prof-b", credit.PlanTypeUnlimited)
		require.NoError(t, err)
		unlimited.MarkUnlimited()
		require.NoError(t, controls.Save(ctx, unlimited))
	}

	assertStats := func(t *testing.T, stats []credit.SubjectStats) {
		require.Len(t, stats, 2)
		assert.Equal(t, "prof-a", stats[0].SubjectID)
		assert.Equal(t, uint(10), stats[0].TotalGranted)
		assert.Equal(t, uint(1), stats[0].TotalConsumed)
		require.NotNil(t, stats[0].Remaining)
		assert.Equal(t, uint(9), *stats[0].Remaining)
		assert.Equal(t, int64(2), stats[0].EntryCount)
		assert.NotNil(t, stats[0].LastActivityAt)

		assert.Equal(t, "prof-b", stats[1].SubjectID)
		assert.True(t, stats[1].IsUnlimited)
		assert.Nil(t, stats[1].Remaining)
		assert.Equal(t, int64(0), stats[1].EntryCount)
	}

	t.Run("primary path reads the summary view", func(t *testing.T) {
		gdb := setupTestDB(t)
		require.NoError(t, gdb.Exec(balanceSummaryViewSQL).Error)
		seed(t, gdb)

		stats, err := NewCreditStatsRepository(gdb, logger.NewLogger()).GetSubjectStats(context.Background())
		require.NoError(t, err)
		assertStats(t, stats)
	})

	t.Run("missing view falls back to base tables", func(t *testing.T) {
		gdb := setupTestDB(t)
		seed(t, gdb)

		stats, err := NewCreditStatsRepository(gdb, logger.NewLogger()).GetSubjectStats(context.Background())
		require.NoError(t, err)
		assertStats(t, stats)
	})

	t.Run("both paths produce the same rows", func(t *testing.T) {
		gdb := setupTestDB(t)
		require.NoError(t, gdb.Exec(balanceSummaryViewSQL).Error)
		seed(t, gdb)

		primary, err := NewCreditStatsRepository(gdb, logger.NewLogger()).GetSubjectStats(context.Background())
		require.NoError(t, err)

		fallback, err := newCreditStatsFallback(gdb, logger.NewLogger()).compute(context.Background())
		require.NoError(t, err)

		require.Len(t, fallback, len(primary))
		for i := range primary {
			assert.Equal(t, primary[i].SubjectID, fallback[i].SubjectID)
			assert.Equal(t, primary[i].TotalGranted, fallback[i].TotalGranted)
			assert.Equal(t, primary[i].TotalConsumed, fallback[i].TotalConsumed)
			assert.Equal(t, primary[i].IsUnlimited, fallback[i].IsUnlimited)
			assert.Equal(t, primary[i].PlanType, fallback[i].PlanType)
			assert.Equal(t, primary[i].EntryCount, fallback[i].EntryCount)
		}
	})

	t.Run("failure of both paths reports both causes", func(t *testing.T) {
		gdb := setupTestDB(t)
		require.NoError(t, gdb.Exec("DROP TABLE usage_controls").Error)

		_, err := NewCreditStatsRepository(gdb, logger.NewLogger()).GetSubjectStats(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credit_balance_summaries")
		assert.Contains(t, err.Error(), "usage_controls")
	})
}

func TestBalanceReaders(t *testing.T) {
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	controls := NewUsageControlRepository(gdb, log)
	ledger := NewLedgerEntryRepository(gdb, log)
	ctx := context.Background()

	grantCredits(t, controls, "prof-400", 10)
	grant, err := credit.NewLedgerEntry("prof-400", 10, credit.EntryKindGrant, "", credit.Correlation{})
	require.NoError(t, err)
	require.NoError(t, ledger.Append(ctx, grant))

	t.Run("counter reader returns the stored row", func(t *testing.T) {
		snapshot, err := NewCounterBalanceReader(controls).Snapshot(ctx, "prof-400")
		require.NoError(t, err)
		require.NotNil(t, snapshot.Remaining())
		assert.Equal(t, uint(10), *snapshot.Remaining())
	})

	t.Run("ledger reader recomputes over counter drift", func(t *testing.T) {
		// drift the counter away from the ledger
		drifted, err := controls.GetBySubject(ctx, "prof-400")
		require.NoError(t, err)
		require.NoError(t, drifted.ApplyRecomputedTotals(10, 4))
		require.NoError(t, controls.Save(ctx, drifted))

		snapshot, err := NewLedgerBalanceReader(controls, ledger, log).Snapshot(ctx, "prof-400")
		require.NoError(t, err)
		require.NotNil(t, snapshot.Remaining())
		assert.Equal(t, uint(10), *snapshot.Remaining())
		assert.Equal(t, uint(0), snapshot.TotalConsumed())
	})
}

func TestCreditLifecycleRoundTrip(t *testing.T) {
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	controls := NewUsageControlRepository(gdb, log)
	txMgr := db.NewTransactionManager(gdb)
	ctx := context.Background()

	grantCredits(t, controls, "prof-cycle", 10)

	// drain the balance one credit at a time
	for want := uint(9); ; want-- {
		result, err := controls.ConsumeOne(ctx, "prof-cycle")
		require.NoError(t, err)
		require.NotNil(t, result.Remaining)
		assert.Equal(t, want, *result.Remaining)
		if want == 0 {
			break
		}
	}

	// the drained subject blocks further consumes and classifies empty
	_, err := controls.ConsumeOne(ctx, "prof-cycle")
	assert.ErrorIs(t, err, credit.ErrBalanceConflict)

	drained, err := controls.GetBySubject(ctx, "prof-cycle")
	require.NoError(t, err)
	assert.Equal(t, credit.StatusNoPins, credit.ClassifyControl(drained, 3))

	// a fresh grant through the transactional read-modify-write path
	// restores consumption
	err = txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		control, txErr := controls.GetBySubject(txCtx, "prof-cycle")
		if txErr != nil {
			return txErr
		}
		if txErr = control.ApplyGrant(5, credit.PlanTypeAssigned); txErr != nil {
			return txErr
		}
		return controls.Save(txCtx, control)
	})
	require.NoError(t, err)

	topped, err := controls.GetBySubject(ctx, "prof-cycle")
	require.NoError(t, err)
	assert.Equal(t, credit.StatusActive, credit.ClassifyControl(topped, 3))

	result, err := controls.ConsumeOne(ctx, "prof-cycle")
	require.NoError(t, err)
	require.NotNil(t, result.Remaining)
	assert.Equal(t, uint(4), *result.Remaining)
}
