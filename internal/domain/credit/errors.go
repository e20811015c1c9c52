package credit

import "errors"

// Sentinel errors reported by the storage layer. Repositories translate
// low-level driver failures into these; the application layer maps them
// onto the user-facing error taxonomy.
var (
	// ErrControlNotFound means no active usage control exists for the subject
	ErrControlNotFound = errors.New("usage control not found")

	// ErrBalanceConflict means the atomic check-and-increment matched no row:
	// the balance was already exhausted, possibly by a concurrent winner
	ErrBalanceConflict = errors.New("balance conflict: no credits remaining")

	// ErrLedgerImmutable means a mutation was attempted on a written entry
	ErrLedgerImmutable = errors.New("ledger entries are immutable")
)
