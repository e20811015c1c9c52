package credit

import (
	"time"

	"evalia/internal/domain/shared/events"
)

// Event types published by the credit engine
const (
	EventTypeLowBalance = "credit.low_balance"
	EventTypeExhausted  = "credit.exhausted"
)

// Alert is the derived, ephemeral notification payload. Persistence and
// display belong to the notification subsystem, not to this engine.
type Alert struct {
	SubjectID string        `json:"subject_id"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

// LowBalanceEvent signals a subject whose remaining balance landed in the
// low band (0, lowThreshold] after a successful consume.
type LowBalanceEvent struct {
	events.BaseEvent
	Alert     Alert `json:"alert"`
	Remaining uint  `json:"remaining"`
	Threshold uint  `json:"threshold"`
}

// NewLowBalanceEvent creates a low balance event
func NewLowBalanceEvent(subjectID string, remaining, threshold uint) *LowBalanceEvent {
	now := time.Now()
	return &LowBalanceEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: subjectID,
			EventType:   EventTypeLowBalance,
			OccurredAt:  now,
			Version:     1,
		},
		Alert: Alert{
			SubjectID: subjectID,
			Severity:  AlertSeverityWarning,
			Message:   "credit balance is low",
			CreatedAt: now,
		},
		Remaining: remaining,
		Threshold: threshold,
	}
}

// ExhaustedEvent signals a consume attempt blocked on an exhausted balance.
type ExhaustedEvent struct {
	events.BaseEvent
	Alert     Alert  `json:"alert"`
	Operation string `json:"operation"`
}

// NewExhaustedEvent creates an exhausted-balance event
func NewExhaustedEvent(subjectID, operation string) *ExhaustedEvent {
	now := time.Now()
	return &ExhaustedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: subjectID,
			EventType:   EventTypeExhausted,
			OccurredAt:  now,
			Version:     1,
		},
		Alert: Alert{
			SubjectID: subjectID,
			Severity:  AlertSeverityError,
			Message:   "action blocked: no credits remaining",
			CreatedAt: now,
		},
		Operation: operation,
	}
}

// NewBalanceDepletedEvent marks a successful consume that spent the last
// credit. It shares the exhausted event type so subscribers register once
// for both the depletion and blocked-attempt variants.
func NewBalanceDepletedEvent(subjectID, operation string) *ExhaustedEvent {
	now := time.Now()
	return &ExhaustedEvent{
		BaseEvent: events.BaseEvent{
			AggregateID: subjectID,
			EventType:   EventTypeExhausted,
			OccurredAt:  now,
			Version:     1,
		},
		Alert: Alert{
			SubjectID: subjectID,
			Severity:  AlertSeverityError,
			Message:   "credit balance exhausted",
			CreatedAt: now,
		},
		Operation: operation,
	}
}
