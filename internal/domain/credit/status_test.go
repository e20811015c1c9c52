package credit

import "testing"

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name         string
		isUnlimited  bool
		totalGranted uint
		remaining    uint
		lowThreshold uint
		want         CreditStatus
	}{
		{"unlimited", true, 0, 0, 5, StatusUnlimited},
		{"active above threshold", false, 20, 6, 5, StatusActive},
		{"low at threshold boundary", false, 20, 5, 5, StatusLow},
		{"low at one", false, 20, 1, 5, StatusLow},
		{"exhausted", false, 20, 0, 5, StatusNoPins},
		{"never provisioned", false, 0, 0, 5, StatusNoPins},
		{"zero threshold uses default", false, 20, 5, 0, StatusLow},
		{"custom threshold", false, 20, 6, 10, StatusLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyStatus(tt.isUnlimited, tt.totalGranted, tt.remaining, tt.lowThreshold)
			if got != tt.want {
				t.Errorf("ClassifyStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyControl_StateTransitions(t *testing.T) {
	// NoControl -> grant -> Active -> consume down into Low -> Exhausted -> grant -> Active
	if got := ClassifyControl(nil, 5); got != StatusNoPins {
		t.Errorf("nil control = %s, want no_pins", got)
	}

	control, err := NewUsageControl("PSY-010", PlanTypeAssigned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := control.ApplyGrant(7, PlanTypeAssigned); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ClassifyControl(control, 5); got != StatusActive {
		t.Errorf("after grant = %s, want active", got)
	}

	// consume down to the low band
	for i := 0; i < 3; i++ {
		if err := control.RecordConsumption(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := ClassifyControl(control, 5); got != StatusLow {
		t.Errorf("at remaining 4 = %s, want low", got)
	}

	for i := 0; i < 4; i++ {
		if err := control.RecordConsumption(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := ClassifyControl(control, 5); got != StatusNoPins {
		t.Errorf("at remaining 0 = %s, want no_pins", got)
	}

	// a grant always brings the subject back
	if err := control.ApplyGrant(10, PlanTypeAssigned); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ClassifyControl(control, 5); got != StatusActive {
		t.Errorf("after regrant = %s, want active", got)
	}

	control.MarkUnlimited()
	if got := ClassifyControl(control, 5); got != StatusUnlimited {
		t.Errorf("after unlimited grant = %s, want unlimited", got)
	}

	control.Deactivate()
	if got := ClassifyControl(control, 5); got != StatusNoPins {
		t.Errorf("inactive control = %s, want no_pins", got)
	}
}
