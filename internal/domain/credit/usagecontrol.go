package credit

import (
	"fmt"
	"time"
)

// UsageControl is the materialized per-subject balance aggregate. It is a
// denormalized view over the ledger kept consistent with it inside the
// same transaction: totalGranted/totalConsumed mirror the sum of grant and
// consume entries for the subject.
//
// Invariant: totalConsumed <= totalGranted unless isUnlimited.
type UsageControl struct {
	id            uint
	subjectID     string
	totalGranted  uint
	totalConsumed uint
	isUnlimited   bool
	planType      PlanType
	active        bool
	updatedAt     time.Time
	createdAt     time.Time
}

// NewUsageControl creates a usage control for a subject's first grant
func NewUsageControl(subjectID string, planType PlanType) (*UsageControl, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	if !planType.IsValid() {
		return nil, fmt.Errorf("invalid plan type: %s", planType)
	}

	now := time.Now()
	return &UsageControl{
		subjectID: subjectID,
		planType:  planType,
		active:    true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructUsageControl reconstructs a usage control from persistence
func ReconstructUsageControl(
	id uint,
	subjectID string,
	totalGranted, totalConsumed uint,
	isUnlimited bool,
	planType PlanType,
	active bool,
	createdAt, updatedAt time.Time,
) (*UsageControl, error) {
	if id == 0 {
		return nil, fmt.Errorf("usage control ID cannot be zero")
	}
	if subjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	if !planType.IsValid() {
		return nil, fmt.Errorf("invalid plan type: %s", planType)
	}
	if !isUnlimited && totalConsumed > totalGranted {
		return nil, fmt.Errorf("consumed %d exceeds granted %d for subject %s",
			totalConsumed, totalGranted, subjectID)
	}

	return &UsageControl{
		id:            id,
		subjectID:     subjectID,
		totalGranted:  totalGranted,
		totalConsumed: totalConsumed,
		isUnlimited:   isUnlimited,
		planType:      planType,
		active:        active,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

// ID returns the usage control ID
func (u *UsageControl) ID() uint {
	return u.id
}

// SubjectID returns the metered subject's ID
func (u *UsageControl) SubjectID() string {
	return u.subjectID
}

// TotalGranted returns the lifetime granted credit count
func (u *UsageControl) TotalGranted() uint {
	return u.totalGranted
}

// TotalConsumed returns the lifetime consumed credit count
func (u *UsageControl) TotalConsumed() uint {
	return u.totalConsumed
}

// IsUnlimited reports whether the subject is exempt from balance checks
func (u *UsageControl) IsUnlimited() bool {
	return u.isUnlimited
}

// PlanType returns the provisioning plan type
func (u *UsageControl) PlanType() PlanType {
	return u.planType
}

// IsActive reports whether the control is active
func (u *UsageControl) IsActive() bool {
	return u.active
}

// CreatedAt returns when the control was created
func (u *UsageControl) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the control was last updated
func (u *UsageControl) UpdatedAt() time.Time {
	return u.updatedAt
}

// SetID sets the usage control ID (only for persistence layer use)
func (u *UsageControl) SetID(id uint) error {
	if u.id != 0 {
		return fmt.Errorf("usage control ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("usage control ID cannot be zero")
	}
	u.id = id
	return nil
}

// Remaining returns the remaining balance, or nil for unlimited subjects
func (u *UsageControl) Remaining() *uint {
	if u.isUnlimited {
		return nil
	}
	var remaining uint
	if u.totalGranted > u.totalConsumed {
		remaining = u.totalGranted - u.totalConsumed
	}
	return &remaining
}

// CanConsume reports whether a consume attempt would succeed against this
// snapshot. The authoritative decision happens at the storage transaction;
// this is the read-side check.
func (u *UsageControl) CanConsume() bool {
	if !u.active {
		return false
	}
	if u.isUnlimited {
		return true
	}
	return u.totalGranted > u.totalConsumed
}

// ApplyGrant adds credits to the balance. A concrete grant on an unlimited
// subject explicitly switches it back to metered mode.
func (u *UsageControl) ApplyGrant(amount uint, planType PlanType) error {
	if amount == 0 {
		return fmt.Errorf("grant amount must be positive")
	}
	if !planType.IsValid() {
		return fmt.Errorf("invalid plan type: %s", planType)
	}

	u.totalGranted += amount
	u.isUnlimited = false
	u.planType = planType
	u.active = true
	u.updatedAt = time.Now()
	return nil
}

// MarkUnlimited exempts the subject from balance checks
func (u *UsageControl) MarkUnlimited() {
	u.isUnlimited = true
	u.planType = PlanTypeUnlimited
	u.active = true
	u.updatedAt = time.Now()
}

// RecordConsumption applies one consumed credit to the snapshot. The
// storage layer performs the equivalent mutation atomically; this method
// exists for the ledger-recomputed strategy and for in-memory tests.
func (u *UsageControl) RecordConsumption() error {
	if !u.active {
		return fmt.Errorf("usage control for subject %s is inactive", u.subjectID)
	}
	if u.isUnlimited {
		return nil
	}
	if u.totalConsumed >= u.totalGranted {
		return fmt.Errorf("no credits remaining for subject %s", u.subjectID)
	}
	u.totalConsumed++
	u.updatedAt = time.Now()
	return nil
}

// RemovePartial removes up to the remaining balance from totalGranted
func (u *UsageControl) RemovePartial(amount uint) error {
	if u.isUnlimited {
		return fmt.Errorf("cannot partially remove credits from an unlimited subject")
	}
	if amount == 0 {
		return fmt.Errorf("removal amount must be positive")
	}
	remaining := u.Remaining()
	if remaining == nil || amount > *remaining {
		return fmt.Errorf("removal amount %d exceeds remaining balance", amount)
	}

	u.totalGranted -= amount
	u.updatedAt = time.Now()
	return nil
}

// Deactivate resets and deactivates the control. The ledger history is
// retained; reactivation happens through a subsequent grant.
func (u *UsageControl) Deactivate() {
	u.totalGranted = 0
	u.totalConsumed = 0
	u.isUnlimited = false
	u.planType = PlanTypeNone
	u.active = false
	u.updatedAt = time.Now()
}

// ApplyRecomputedTotals overwrites the denormalized counters with totals
// recomputed from the ledger. Used after administrative entry deletion.
func (u *UsageControl) ApplyRecomputedTotals(granted, consumed uint) error {
	if !u.isUnlimited && consumed > granted {
		return fmt.Errorf("recomputed consumed %d exceeds granted %d", consumed, granted)
	}
	u.totalGranted = granted
	u.totalConsumed = consumed
	u.updatedAt = time.Now()
	return nil
}

// Validate performs domain-level validation
func (u *UsageControl) Validate() error {
	if u.subjectID == "" {
		return fmt.Errorf("subject ID is required")
	}
	if !u.planType.IsValid() {
		return fmt.Errorf("invalid plan type: %s", u.planType)
	}
	if !u.isUnlimited && u.totalConsumed > u.totalGranted {
		return fmt.Errorf("consumed %d exceeds granted %d", u.totalConsumed, u.totalGranted)
	}
	return nil
}
