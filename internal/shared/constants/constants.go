package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Default ledger history window
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500

	// Database table names
	TableUsageControls         = "usage_controls"
	TableLedgerEntries         = "ledger_entries"
	ViewCreditBalanceSummaries = "credit_balance_summaries"
)
