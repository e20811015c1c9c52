package credit

// CreditStatus is the derived classification of a subject's balance.
// It is never stored: every read computes it from the balance snapshot.
type CreditStatus string

const (
	// StatusUnlimited means the subject is exempt from balance checks
	StatusUnlimited CreditStatus = "unlimited"
	// StatusActive means remaining credits are above the low threshold
	StatusActive CreditStatus = "active"
	// StatusLow means remaining credits are in (0, lowThreshold]
	StatusLow CreditStatus = "low"
	// StatusNoPins means the balance is exhausted or never provisioned
	StatusNoPins CreditStatus = "no_pins"
)

// String returns the string representation of the status
func (s CreditStatus) String() string {
	return string(s)
}

// DefaultLowThreshold is the remaining-credit boundary for the low band
// when no threshold is configured.
const DefaultLowThreshold uint = 5

// ClassifyStatus derives the credit status from a balance snapshot.
// Pure function of its inputs; remaining is ignored for unlimited subjects.
func ClassifyStatus(isUnlimited bool, totalGranted, remaining, lowThreshold uint) CreditStatus {
	if isUnlimited {
		return StatusUnlimited
	}
	if lowThreshold == 0 {
		lowThreshold = DefaultLowThreshold
	}

	switch {
	case remaining == 0:
		return StatusNoPins
	case remaining <= lowThreshold:
		return StatusLow
	default:
		return StatusActive
	}
}

// ClassifyControl classifies a usage control snapshot
func ClassifyControl(control *UsageControl, lowThreshold uint) CreditStatus {
	if control == nil || !control.IsActive() {
		return StatusNoPins
	}
	if control.IsUnlimited() {
		return StatusUnlimited
	}
	remaining := control.Remaining()
	if remaining == nil {
		return StatusUnlimited
	}
	return ClassifyStatus(false, control.TotalGranted(), *remaining, lowThreshold)
}
