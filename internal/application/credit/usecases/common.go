// Package usecases contains the credit engine's application use cases.
// Each use case is one operation: constructor wires dependencies, Execute
// runs it. Balance mutations and their ledger entries always share one
// transaction through the TransactionManager carried in context.
package usecases

import (
	"strconv"
	"strings"

	"evalia/internal/application/credit/dto"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/shared/errors"
)

// parseGrantAmount parses a grant amount: a positive integer or the
// UNLIMITED sentinel
func parseGrantAmount(raw string) (amount uint, unlimited bool, err error) {
	if strings.EqualFold(strings.TrimSpace(raw), dto.UnlimitedAmount) {
		return 0, true, nil
	}
	n, perr := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if perr != nil || n == 0 {
		return 0, false, errors.NewValidationError("amount must be a positive integer or UNLIMITED")
	}
	return uint(n), false, nil
}

// parseRemovalAmount parses a removal amount: a positive integer or the
// ALL sentinel
func parseRemovalAmount(raw string) (amount uint, all bool, err error) {
	if strings.EqualFold(strings.TrimSpace(raw), dto.AllCredits) {
		return 0, true, nil
	}
	n, perr := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if perr != nil || n == 0 {
		return 0, false, errors.NewValidationError("amount must be a positive integer or ALL")
	}
	return uint(n), false, nil
}

func toBalanceResponse(control *creditdomain.UsageControl, lowThreshold uint) *dto.BalanceResponse {
	return &dto.BalanceResponse{
		SubjectID:     control.SubjectID(),
		TotalGranted:  control.TotalGranted(),
		TotalConsumed: control.TotalConsumed(),
		Remaining:     control.Remaining(),
		IsUnlimited:   control.IsUnlimited(),
		PlanType:      control.PlanType().String(),
		Status:        creditdomain.ClassifyControl(control, lowThreshold).String(),
		Active:        control.IsActive(),
		UpdatedAt:     control.UpdatedAt(),
	}
}

func toLedgerEntryResponse(entry *creditdomain.LedgerEntry) *dto.LedgerEntryResponse {
	resp := &dto.LedgerEntryResponse{
		ID:        entry.ID(),
		SubjectID: entry.SubjectID(),
		Delta:     entry.Delta(),
		Kind:      entry.Kind().String(),
		Reason:    entry.Reason(),
		CreatedAt: entry.CreatedAt(),
	}
	if correlation := entry.Correlation(); !correlation.IsZero() {
		resp.Correlation = &dto.CorrelationRequest{
			PatientRef: correlation.PatientRef,
			SessionRef: correlation.SessionRef,
			ReportRef:  correlation.ReportRef,
		}
	}
	if metadata := entry.Metadata(); len(metadata) > 0 {
		resp.Metadata = metadata
	}
	return resp
}

func toCorrelation(req dto.CorrelationRequest) creditdomain.Correlation {
	return creditdomain.Correlation{
		PatientRef: req.PatientRef,
		SessionRef: req.SessionRef,
		ReportRef:  req.ReportRef,
	}
}
