package credit

import (
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/domain/shared/events"
	"evalia/internal/shared/logger"
)

// AlertPublisher raises threshold events after balance mutations. Dispatch
// is best-effort: a full event queue or failing handler must never fail
// the consume that triggered it.
type AlertPublisher struct {
	publisher    events.EventPublisher
	lowThreshold uint
	logger       logger.Interface
}

// NewAlertPublisher creates a new alert publisher
func NewAlertPublisher(publisher events.EventPublisher, lowThreshold uint, log logger.Interface) *AlertPublisher {
	if lowThreshold == 0 {
		lowThreshold = creditdomain.DefaultLowThreshold
	}
	return &AlertPublisher{
		publisher:    publisher,
		lowThreshold: lowThreshold,
		logger:       log,
	}
}

// LowThreshold returns the configured low-balance boundary
func (p *AlertPublisher) LowThreshold() uint {
	return p.lowThreshold
}

// ConsumeSucceeded raises threshold events after a successful consume: a
// low-balance warning for the (0, lowThreshold] band, an exhaustion event
// when the last credit was spent. Unlimited subjects never alert.
func (p *AlertPublisher) ConsumeSucceeded(subjectID, operation string, remaining *uint) {
	if p.publisher == nil || remaining == nil {
		return
	}
	if *remaining == 0 {
		event := creditdomain.NewBalanceDepletedEvent(subjectID, operation)
		if err := p.publisher.Publish(event); err != nil {
			p.logger.Warnw("failed to publish exhausted event",
				"subject_id", subjectID,
				"error", err)
		}
		return
	}
	if *remaining > p.lowThreshold {
		return
	}

	event := creditdomain.NewLowBalanceEvent(subjectID, *remaining, p.lowThreshold)
	if err := p.publisher.Publish(event); err != nil {
		p.logger.Warnw("failed to publish low balance event",
			"subject_id", subjectID,
			"remaining", *remaining,
			"error", err)
	}
}

// ConsumeBlocked raises an error-severity event for a consume attempt
// rejected on an exhausted balance
func (p *AlertPublisher) ConsumeBlocked(subjectID, operation string) {
	if p.publisher == nil {
		return
	}

	event := creditdomain.NewExhaustedEvent(subjectID, operation)
	if err := p.publisher.Publish(event); err != nil {
		p.logger.Warnw("failed to publish exhausted event",
			"subject_id", subjectID,
			"operation", operation,
			"error", err)
	}
}
