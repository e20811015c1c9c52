package errors

import (
	"fmt"
	"net/http"
)

// Credit-domain error constructors. Every error carries a stable type,
// an operator-facing message, and the subject that triggered it so the
// HTTP layer and logs stay consistent.

// NewSubjectNotFoundError indicates no active usage control exists for the subject
func NewSubjectNotFoundError(subjectID string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: "no usage control found for subject",
		Code:    http.StatusNotFound,
		Details: "subject_id=" + subjectID,
	}
}

// NewNoCreditsAvailableError indicates the subject's balance is exhausted.
// Raised when the atomic consume primitive reports a conflict, including
// the case where a concurrent consumer spent the last credit first.
func NewNoCreditsAvailableError(subjectID string) *AppError {
	return &AppError{
		Type:    ErrorTypeNoCredits,
		Message: "no credits remaining, contact an administrator",
		Code:    http.StatusConflict,
		Details: "subject_id=" + subjectID,
	}
}

// NewInsufficientBalanceError indicates a removal larger than the remaining balance
func NewInsufficientBalanceError(subjectID string, requested, remaining uint) *AppError {
	return &AppError{
		Type:    ErrorTypeInsufficientBalance,
		Message: "cannot remove more credits than remain on the balance",
		Code:    http.StatusConflict,
		Details: formatBalanceDetail(subjectID, requested, remaining),
	}
}

// NewStorageUnavailableError indicates a transient, fallback-eligible storage failure
func NewStorageUnavailableError(operation string, cause error) *AppError {
	detail := "operation=" + operation
	if cause != nil {
		detail += ": " + cause.Error()
	}
	return &AppError{
		Type:    ErrorTypeStorageUnavailable,
		Message: "credit storage temporarily unavailable",
		Code:    http.StatusServiceUnavailable,
		Details: detail,
	}
}

// IsNoCreditsError checks if the error is a no-credits-available error
func IsNoCreditsError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeNoCredits
}

// IsInsufficientBalanceError checks if the error is an insufficient-balance error
func IsInsufficientBalanceError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeInsufficientBalance
}

// IsStorageUnavailableError checks if the error is a fallback-eligible storage error
func IsStorageUnavailableError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeStorageUnavailable
}

func formatBalanceDetail(subjectID string, requested, remaining uint) string {
	return fmt.Sprintf("subject_id=%s requested=%d remaining=%d", subjectID, requested, remaining)
}
