package credit

import (
	"fmt"
	"time"
)

// LedgerEntry is one immutable row of the append-only transaction log.
// The ledger is the audit source of truth: the denormalized UsageControl
// counters must always equal the per-subject sums over these entries.
//
// Positive deltas are grants, negative deltas are consumption or removal.
// An unlimited consume records delta 0 so the action is still audited.
type LedgerEntry struct {
	id          uint
	subjectID   string
	delta       int
	kind        EntryKind
	reason      string
	correlation Correlation
	metadata    map[string]any
	createdAt   time.Time
}

// NewLedgerEntry creates a ledger entry pending persistence
func NewLedgerEntry(subjectID string, delta int, kind EntryKind, reason string, correlation Correlation) (*LedgerEntry, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid entry kind: %s", kind)
	}
	if err := validateDelta(delta, kind); err != nil {
		return nil, err
	}

	return &LedgerEntry{
		subjectID:   subjectID,
		delta:       delta,
		kind:        kind,
		reason:      reason,
		correlation: correlation,
		metadata:    make(map[string]any),
		createdAt:   time.Now(),
	}, nil
}

// ReconstructLedgerEntry reconstructs a ledger entry from persistence
func ReconstructLedgerEntry(
	id uint,
	subjectID string,
	delta int,
	kind EntryKind,
	reason string,
	correlation Correlation,
	metadata map[string]any,
	createdAt time.Time,
) (*LedgerEntry, error) {
	if id == 0 {
		return nil, fmt.Errorf("ledger entry ID cannot be zero")
	}
	if subjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid entry kind: %s", kind)
	}

	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &LedgerEntry{
		id:          id,
		subjectID:   subjectID,
		delta:       delta,
		kind:        kind,
		reason:      reason,
		correlation: correlation,
		metadata:    metadata,
		createdAt:   createdAt,
	}, nil
}

func validateDelta(delta int, kind EntryKind) error {
	switch kind {
	case EntryKindGrant:
		if delta <= 0 {
			return fmt.Errorf("grant entries require a positive delta, got %d", delta)
		}
	case EntryKindConsume:
		// delta 0 is the unlimited consume marker
		if delta > 0 {
			return fmt.Errorf("consume entries require a non-positive delta, got %d", delta)
		}
	case EntryKindRemoval:
		if delta >= 0 {
			return fmt.Errorf("removal entries require a negative delta, got %d", delta)
		}
	case EntryKindAdjustment:
		// adjustments may move the balance in either direction
	}
	return nil
}

// ID returns the ledger entry ID
func (e *LedgerEntry) ID() uint {
	return e.id
}

// SubjectID returns the subject the entry belongs to
func (e *LedgerEntry) SubjectID() string {
	return e.subjectID
}

// Delta returns the signed credit delta
func (e *LedgerEntry) Delta() int {
	return e.delta
}

// Kind returns the entry kind
func (e *LedgerEntry) Kind() EntryKind {
	return e.kind
}

// Reason returns the human-readable reason
func (e *LedgerEntry) Reason() string {
	return e.reason
}

// Correlation returns the external action references
func (e *LedgerEntry) Correlation() Correlation {
	return e.correlation
}

// Metadata returns the entry metadata
func (e *LedgerEntry) Metadata() map[string]any {
	return e.metadata
}

// CreatedAt returns when the entry was written
func (e *LedgerEntry) CreatedAt() time.Time {
	return e.createdAt
}

// SetID sets the ledger entry ID (only for persistence layer use)
func (e *LedgerEntry) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("ledger entry ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("ledger entry ID cannot be zero")
	}
	e.id = id
	return nil
}

// SetMetadata sets a metadata value before the entry is persisted
func (e *LedgerEntry) SetMetadata(key string, value any) error {
	if e.id != 0 {
		return fmt.Errorf("ledger entry %d is immutable once written", e.id)
	}
	if e.metadata == nil {
		e.metadata = make(map[string]any)
	}
	e.metadata[key] = value
	return nil
}
