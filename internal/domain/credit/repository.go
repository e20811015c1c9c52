package credit

import (
	"context"
	"time"
)

// ConsumeResult is the outcome of the storage-level atomic consume.
type ConsumeResult struct {
	// Control is the post-consume snapshot
	Control *UsageControl
	// Remaining is the balance after the consume, nil for unlimited
	Remaining *uint
}

// UsageControlRepository persists the denormalized balance rows.
// Implementations must honor the transaction carried in ctx so the
// application layer can combine balance and ledger writes atomically.
type UsageControlRepository interface {
	// GetBySubject returns the active usage control for a subject.
	// Returns ErrControlNotFound when no row exists. Inside a transaction
	// the read must lock the row so a later Save cannot overwrite a
	// concurrently committed consume.
	GetBySubject(ctx context.Context, subjectID string) (*UsageControl, error)

	// GetBySubjectIncludingInactive returns the control row regardless of
	// its active flag, for grant-time reactivation. Same locking contract
	// as GetBySubject.
	GetBySubjectIncludingInactive(ctx context.Context, subjectID string) (*UsageControl, error)

	// Save upserts the usage control row
	Save(ctx context.Context, control *UsageControl) error

	// ConsumeOne performs the atomic check-and-increment: in a single
	// conditional UPDATE it re-verifies remaining > 0 and increments
	// totalConsumed. Returns ErrBalanceConflict when the condition did not
	// hold (exhausted, possibly by a concurrent winner) and
	// ErrControlNotFound when no active row exists.
	ConsumeOne(ctx context.Context, subjectID string) (*ConsumeResult, error)

	// ListActive returns all active controls (admin read path)
	ListActive(ctx context.Context) ([]*UsageControl, error)
}

// LedgerEntryRepository persists the append-only transaction log.
type LedgerEntryRepository interface {
	// Append writes a new immutable entry
	Append(ctx context.Context, entry *LedgerEntry) error

	// ListBySubject returns entries for a subject, most recent first
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]*LedgerEntry, error)

	// ListRecent returns the most recent entries across all subjects
	ListRecent(ctx context.Context, limit int) ([]*LedgerEntry, error)

	// SumBySubject returns the per-kind totals recomputed from the ledger
	SumBySubject(ctx context.Context, subjectID string) (LedgerTotals, error)

	// DeleteBySubject removes all entries for a subject. Administrative
	// operation only; callers must recompute the subject's balance.
	DeleteBySubject(ctx context.Context, subjectID string) (int64, error)
}

// LedgerTotals holds per-subject sums recomputed from ledger entries.
type LedgerTotals struct {
	Granted  uint
	Consumed uint
}

// SubjectStats is one row of the cross-subject balance summary. The
// primary aggregate path and the fallback strategy must both produce
// exactly this shape.
type SubjectStats struct {
	SubjectID      string
	TotalGranted   uint
	TotalConsumed  uint
	Remaining      *uint
	IsUnlimited    bool
	PlanType       PlanType
	EntryCount     int64
	LastActivityAt *time.Time
}

// StatsRepository produces the cross-subject balance summary.
type StatsRepository interface {
	// GetSubjectStats returns one row per active subject, ordered by
	// subject ID. Implementations fall back to a batched recomputation
	// when the optimized aggregate path is unavailable.
	GetSubjectStats(ctx context.Context) ([]SubjectStats, error)
}

// BalanceReader is the pluggable read-side strategy: the counter
// implementation trusts the denormalized row, the ledger implementation
// recomputes from the transaction history.
type BalanceReader interface {
	// Snapshot returns the subject's balance as seen by this strategy.
	// Returns ErrControlNotFound when the subject has no active control.
	Snapshot(ctx context.Context, subjectID string) (*UsageControl, error)
}
