package repository

import (
	"context"
	"fmt"

	"evalia/internal/domain/credit"
	"evalia/internal/shared/config"
	"evalia/internal/shared/logger"
)

// CounterBalanceReader trusts the denormalized usage control row. This is
// the default strategy: the counters are maintained in the same
// transaction as the ledger, so under normal operation they are exact.
type CounterBalanceReader struct {
	controls credit.UsageControlRepository
}

// NewCounterBalanceReader creates a counter-backed balance reader
func NewCounterBalanceReader(controls credit.UsageControlRepository) credit.BalanceReader {
	return &CounterBalanceReader{controls: controls}
}

// Snapshot returns the denormalized balance row as-is
func (r *CounterBalanceReader) Snapshot(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
	return r.controls.GetBySubject(ctx, subjectID)
}

// LedgerBalanceReader recomputes the balance from the transaction history
// on every read. Slower, but immune to counter drift; installations that
// suspect drift can switch to it without a migration.
type LedgerBalanceReader struct {
	controls credit.UsageControlRepository
	ledger   credit.LedgerEntryRepository
	logger   logger.Interface
}

// NewLedgerBalanceReader creates a ledger-recomputed balance reader
func NewLedgerBalanceReader(controls credit.UsageControlRepository, ledger credit.LedgerEntryRepository, logger logger.Interface) credit.BalanceReader {
	return &LedgerBalanceReader{
		controls: controls,
		ledger:   ledger,
		logger:   logger,
	}
}

// Snapshot loads the control row for its flags and overwrites the counters
// with per-subject sums recomputed from the ledger
func (r *LedgerBalanceReader) Snapshot(ctx context.Context, subjectID string) (*credit.UsageControl, error) {
	control, err := r.controls.GetBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if control.IsUnlimited() {
		return control, nil
	}

	totals, err := r.ledger.SumBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute balance: %w", err)
	}

	if totals.Granted != control.TotalGranted() || totals.Consumed != control.TotalConsumed() {
		r.logger.Warnw("balance counters drifted from ledger",
			"subject_id", subjectID,
			"counter_granted", control.TotalGranted(),
			"counter_consumed", control.TotalConsumed(),
			"ledger_granted", totals.Granted,
			"ledger_consumed", totals.Consumed)
	}

	if err := control.ApplyRecomputedTotals(totals.Granted, totals.Consumed); err != nil {
		return nil, fmt.Errorf("failed to apply recomputed balance: %w", err)
	}
	return control, nil
}

// NewBalanceReader selects the configured read-side strategy
func NewBalanceReader(cfg config.CreditConfig, controls credit.UsageControlRepository, ledger credit.LedgerEntryRepository, logger logger.Interface) credit.BalanceReader {
	if cfg.BalanceStrategy == config.BalanceStrategyLedger {
		logger.Infow("using ledger-recomputed balance strategy")
		return NewLedgerBalanceReader(controls, ledger, logger)
	}
	return NewCounterBalanceReader(controls)
}
