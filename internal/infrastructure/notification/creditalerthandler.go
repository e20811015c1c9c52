package notification

import (
	"context"
	"fmt"
	"time"

	"evalia/internal/domain/credit"
	"evalia/internal/domain/shared/events"
	"evalia/internal/infrastructure/cache"
	"evalia/internal/shared/logger"
)

// AlertMailer delivers credit alert emails
type AlertMailer interface {
	SendLowBalanceAlert(to, subjectID string, remaining, threshold uint) error
	SendExhaustedAlert(to, subjectID, operation string) error
}

// CreditAlertHandler turns balance events into administrator emails. Alerts
// are deduplicated per subject and alert type so a burst of consumes in the
// low band produces a single notification per cooldown window.
type CreditAlertHandler struct {
	mailer       AlertMailer
	deduplicator cache.AlertDeduplicator
	adminAddress string
	cooldown     time.Duration
	logger       logger.Interface
}

// NewCreditAlertHandler creates a new credit alert handler
func NewCreditAlertHandler(
	mailer AlertMailer,
	deduplicator cache.AlertDeduplicator,
	adminAddress string,
	cooldown time.Duration,
	log logger.Interface,
) *CreditAlertHandler {
	return &CreditAlertHandler{
		mailer:       mailer,
		deduplicator: deduplicator,
		adminAddress: adminAddress,
		cooldown:     cooldown,
		logger:       log,
	}
}

// CanHandle checks if this handler can handle the given event type
func (h *CreditAlertHandler) CanHandle(eventType string) bool {
	return eventType == credit.EventTypeLowBalance || eventType == credit.EventTypeExhausted
}

// Handle processes a balance event
func (h *CreditAlertHandler) Handle(event events.DomainEvent) error {
	if h.adminAddress == "" {
		h.logger.Debugw("no admin address configured, skipping credit alert",
			"event_type", event.GetEventType())
		return nil
	}

	switch e := event.(type) {
	case *credit.LowBalanceEvent:
		return h.handleLowBalance(e)
	case *credit.ExhaustedEvent:
		return h.handleExhausted(e)
	default:
		return fmt.Errorf("unexpected event type %s", event.GetEventType())
	}
}

func (h *CreditAlertHandler) handleLowBalance(event *credit.LowBalanceEvent) error {
	subjectID := event.GetAggregateID()

	acquired, err := h.deduplicator.TryAcquireAlertLock(context.Background(), cache.AlertTypeLowBalance, subjectID, h.cooldown)
	if err != nil {
		// a dedup failure should not swallow the alert
		h.logger.Warnw("alert deduplication unavailable, sending anyway",
			"subject_id", subjectID, "error", err)
	} else if !acquired {
		h.logger.Debugw("low balance alert suppressed by cooldown", "subject_id", subjectID)
		return nil
	}

	if err := h.mailer.SendLowBalanceAlert(h.adminAddress, subjectID, event.Remaining, event.Threshold); err != nil {
		h.logger.Errorw("failed to send low balance alert",
			"subject_id", subjectID, "error", err)
		return err
	}

	h.logger.Infow("low balance alert sent",
		"subject_id", subjectID,
		"remaining", event.Remaining,
		"threshold", event.Threshold)
	return nil
}

func (h *CreditAlertHandler) handleExhausted(event *credit.ExhaustedEvent) error {
	subjectID := event.GetAggregateID()

	acquired, err := h.deduplicator.TryAcquireAlertLock(context.Background(), cache.AlertTypeExhausted, subjectID, h.cooldown)
	if err != nil {
		h.logger.Warnw("alert deduplication unavailable, sending anyway",
			"subject_id", subjectID, "error", err)
	} else if !acquired {
		h.logger.Debugw("exhausted alert suppressed by cooldown", "subject_id", subjectID)
		return nil
	}

	if err := h.mailer.SendExhaustedAlert(h.adminAddress, subjectID, event.Operation); err != nil {
		h.logger.Errorw("failed to send exhausted alert",
			"subject_id", subjectID, "error", err)
		return err
	}

	h.logger.Infow("exhausted alert sent",
		"subject_id", subjectID,
		"operation", event.Operation)
	return nil
}
