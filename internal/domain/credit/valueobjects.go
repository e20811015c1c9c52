// Package credit provides domain models and business logic for the credit
// ledger and balance engine. A credit ("pin") is one unit of gated usage:
// administering an assessment or generating a report costs one pin.
package credit

// PlanType represents how a subject's credits were provisioned
type PlanType string

const (
	// PlanTypeUnlimited exempts the subject from balance checks
	PlanTypeUnlimited PlanType = "unlimited"
	// PlanTypeAssigned represents credits assigned by an administrator
	PlanTypeAssigned PlanType = "assigned"
	// PlanTypeTrial represents trial credits
	PlanTypeTrial PlanType = "trial"
	// PlanTypeNone represents a subject without a provisioned plan
	PlanTypeNone PlanType = "none"
)

// IsValid checks if the plan type is valid
func (pt PlanType) IsValid() bool {
	switch pt {
	case PlanTypeUnlimited, PlanTypeAssigned, PlanTypeTrial, PlanTypeNone:
		return true
	default:
		return false
	}
}

// String returns the string representation of the plan type
func (pt PlanType) String() string {
	return string(pt)
}

// EntryKind represents the kind of ledger entry
type EntryKind string

const (
	// EntryKindGrant records credits added to a subject
	EntryKindGrant EntryKind = "grant"
	// EntryKindConsume records one credit spent on a gated action
	EntryKindConsume EntryKind = "consume"
	// EntryKindRemoval records credits removed by an administrator
	EntryKindRemoval EntryKind = "removal"
	// EntryKindAdjustment records a manual reconciliation correction
	EntryKindAdjustment EntryKind = "adjustment"
)

// IsValid checks if the entry kind is valid
func (ek EntryKind) IsValid() bool {
	switch ek {
	case EntryKindGrant, EntryKindConsume, EntryKindRemoval, EntryKindAdjustment:
		return true
	default:
		return false
	}
}

// String returns the string representation of the entry kind
func (ek EntryKind) String() string {
	return string(ek)
}

// Correlation links a ledger entry to the gated action that produced it.
// All fields are optional references owned by external systems.
type Correlation struct {
	PatientRef string `json:"patient_ref,omitempty"`
	SessionRef string `json:"session_ref,omitempty"`
	ReportRef  string `json:"report_ref,omitempty"`
}

// IsZero reports whether no reference is set
func (c Correlation) IsZero() bool {
	return c.PatientRef == "" && c.SessionRef == "" && c.ReportRef == ""
}

// AlertSeverity represents the severity of a threshold alert
type AlertSeverity string

const (
	// AlertSeverityWarning signals a subject entering the low-balance band
	AlertSeverityWarning AlertSeverity = "warning"
	// AlertSeverityError signals a blocked action on an exhausted balance
	AlertSeverityError AlertSeverity = "error"
)

// String returns the string representation of the alert severity
func (s AlertSeverity) String() string {
	return string(s)
}
