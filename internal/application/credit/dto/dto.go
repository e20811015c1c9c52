package dto

import (
	"time"
)

// UnlimitedAmount is the sentinel amount for granting unlimited credits
const UnlimitedAmount = "UNLIMITED"

// AllCredits is the sentinel amount for removing the entire balance
const AllCredits = "ALL"

// GrantCreditsRequest represents the request to grant credits to a subject
type GrantCreditsRequest struct {
	SubjectID string         `json:"subject_id" binding:"required"`
	Amount    string         `json:"amount" binding:"required"` // positive integer or "UNLIMITED"
	PlanType  string         `json:"plan_type,omitempty"`       // "assigned" | "trial", defaults to "assigned"
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ConsumeCreditRequest represents the request to consume one credit
type ConsumeCreditRequest struct {
	SubjectID   string             `json:"subject_id" binding:"required"`
	Operation   string             `json:"operation,omitempty"` // "assessment" | "report"
	Reason      string             `json:"reason,omitempty"`
	Correlation CorrelationRequest `json:"correlation,omitempty"`
}

// CorrelationRequest links the consume to the gated action
type CorrelationRequest struct {
	PatientRef string `json:"patient_ref,omitempty"`
	SessionRef string `json:"session_ref,omitempty"`
	ReportRef  string `json:"report_ref,omitempty"`
}

// RemoveCreditsRequest represents the request to remove credits
type RemoveCreditsRequest struct {
	SubjectID string `json:"subject_id" binding:"required"`
	Amount    string `json:"amount" binding:"required"` // positive integer or "ALL"
	Reason    string `json:"reason,omitempty"`
}

// BulkRemoveCreditsRequest represents the request to remove all credits
// from several subjects at once
type BulkRemoveCreditsRequest struct {
	SubjectIDs []string `json:"subject_ids" binding:"required,min=1"`
	Reason     string   `json:"reason,omitempty"`
}

// RecomputeBalanceRequest represents the administrative request to rebuild
// a subject's counters from the ledger
type RecomputeBalanceRequest struct {
	SubjectID string `json:"subject_id" binding:"required"`
}

// BalanceResponse is a subject's balance snapshot
type BalanceResponse struct {
	SubjectID     string    `json:"subject_id"`
	TotalGranted  uint      `json:"total_granted"`
	TotalConsumed uint      `json:"total_consumed"`
	Remaining     *uint     `json:"remaining"` // null for unlimited subjects
	IsUnlimited   bool      `json:"is_unlimited"`
	PlanType      string    `json:"plan_type"`
	Status        string    `json:"status"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AvailabilityResponse is the read-only consume pre-check
type AvailabilityResponse struct {
	SubjectID   string `json:"subject_id"`
	CanConsume  bool   `json:"can_consume"`
	Remaining   *uint  `json:"remaining"` // null for unlimited subjects
	IsUnlimited bool   `json:"is_unlimited"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"` // set when can_consume is false
}

// ConsumeCreditResponse is the outcome of a successful consume
type ConsumeCreditResponse struct {
	SubjectID   string `json:"subject_id"`
	Consumed    bool   `json:"consumed"`
	Remaining   *uint  `json:"remaining"` // null for unlimited subjects
	IsUnlimited bool   `json:"is_unlimited"`
	Status      string `json:"status"`
}

// RemoveCreditsResponse is the outcome of a removal
type RemoveCreditsResponse struct {
	SubjectID     string `json:"subject_id"`
	RemovedAmount uint   `json:"removed_amount"`
	FullReset     bool   `json:"full_reset"`
	Remaining     *uint  `json:"remaining"`
	Status        string `json:"status"`
}

// BulkRemoveResultResponse is one subject's outcome within a bulk removal
type BulkRemoveResultResponse struct {
	SubjectID     string `json:"subject_id"`
	Success       bool   `json:"success"`
	RemovedAmount uint   `json:"removed_amount,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BulkRemoveCreditsResponse aggregates a bulk removal
type BulkRemoveCreditsResponse struct {
	Results      []BulkRemoveResultResponse `json:"results"`
	SuccessCount int                        `json:"success_count"`
	FailureCount int                        `json:"failure_count"`
}

// LedgerEntryResponse is one row of the transaction history
type LedgerEntryResponse struct {
	ID          uint                `json:"id"`
	SubjectID   string              `json:"subject_id"`
	Delta       int                 `json:"delta"`
	Kind        string              `json:"kind"`
	Reason      string              `json:"reason,omitempty"`
	Correlation *CorrelationRequest `json:"correlation,omitempty"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// LedgerHistoryResponse is a window of the transaction history
type LedgerHistoryResponse struct {
	SubjectID string                 `json:"subject_id,omitempty"` // empty for the cross-subject listing
	Entries   []*LedgerEntryResponse `json:"entries"`
	Count     int                    `json:"count"`
}

// SubjectStatsResponse is one row of the cross-subject balance summary
type SubjectStatsResponse struct {
	SubjectID      string     `json:"subject_id"`
	TotalGranted   uint       `json:"total_granted"`
	TotalConsumed  uint       `json:"total_consumed"`
	Remaining      *uint      `json:"remaining"`
	IsUnlimited    bool       `json:"is_unlimited"`
	PlanType       string     `json:"plan_type"`
	Status         string     `json:"status"`
	EntryCount     int64      `json:"entry_count"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// CreditStatsResponse aggregates the balance summary
type CreditStatsResponse struct {
	Subjects []SubjectStatsResponse `json:"subjects"`
	Total    int                    `json:"total"`
}

// RecomputeBalanceResponse reports a rebuilt balance
type RecomputeBalanceResponse struct {
	SubjectID     string `json:"subject_id"`
	TotalGranted  uint   `json:"total_granted"`
	TotalConsumed uint   `json:"total_consumed"`
	Remaining     *uint  `json:"remaining"`
	Status        string `json:"status"`
}

// DeleteLedgerResponse reports an administrative ledger purge
type DeleteLedgerResponse struct {
	SubjectID      string `json:"subject_id"`
	DeletedEntries int64  `json:"deleted_entries"`
	TotalGranted   uint   `json:"total_granted"`
	TotalConsumed  uint   `json:"total_consumed"`
}
