package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// alertKeyPrefix is the prefix for all alert deduplication keys
	alertKeyPrefix = "credit_alert:"
	// DefaultAlertCooldownMinutes is the default cooldown period in minutes
	DefaultAlertCooldownMinutes = 30
)

// AlertType represents different alert types for deduplication
type AlertType string

const (
	AlertTypeLowBalance AlertType = "low_balance"
	AlertTypeExhausted  AlertType = "exhausted"
)

// AlertDeduplicator suppresses repeated credit alerts for the same subject.
// Every consume in the low band raises an event; without a cooldown an
// administrator would get one email per assessment.
type AlertDeduplicator interface {
	// TryAcquireAlertLock atomically checks and acquires an alert lock.
	// Returns true if the lock was acquired (alert should be sent), false
	// if already in cooldown.
	TryAcquireAlertLock(ctx context.Context, alertType AlertType, subjectID string, ttl time.Duration) (bool, error)

	// ClearAlert clears the alert cooldown for the given subject
	ClearAlert(ctx context.Context, alertType AlertType, subjectID string) error

	// GetRemainingCooldown returns the remaining cooldown time for an alert
	GetRemainingCooldown(ctx context.Context, alertType AlertType, subjectID string) (time.Duration, error)
}

// RedisAlertDeduplicator provides Redis-based alert deduplication
type RedisAlertDeduplicator struct {
	client *redis.Client
}

// NewRedisAlertDeduplicator creates a new RedisAlertDeduplicator instance
func NewRedisAlertDeduplicator(client *redis.Client) *RedisAlertDeduplicator {
	return &RedisAlertDeduplicator{client: client}
}

// buildKey builds the Redis key for alert deduplication
// Format: credit_alert:{type}:{subject_id}
func (d *RedisAlertDeduplicator) buildKey(alertType AlertType, subjectID string) string {
	return fmt.Sprintf("%s%s:%s", alertKeyPrefix, alertType, subjectID)
}

// TryAcquireAlertLock atomically checks and acquires an alert lock using SetNX.
// SetNX prevents TOCTOU race conditions in multi-instance deployments.
func (d *RedisAlertDeduplicator) TryAcquireAlertLock(ctx context.Context, alertType AlertType, subjectID string, ttl time.Duration) (bool, error) {
	key := d.buildKey(alertType, subjectID)

	acquired, err := d.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire alert lock: %w", err)
	}

	return acquired, nil
}

// ClearAlert clears the alert cooldown for the given subject.
// Used when a grant lifts the subject back out of the low band.
func (d *RedisAlertDeduplicator) ClearAlert(ctx context.Context, alertType AlertType, subjectID string) error {
	key := d.buildKey(alertType, subjectID)

	err := d.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to clear alert: %w", err)
	}

	return nil
}

// GetRemainingCooldown returns the remaining cooldown time for an alert.
// Returns 0 if not in cooldown.
func (d *RedisAlertDeduplicator) GetRemainingCooldown(ctx context.Context, alertType AlertType, subjectID string) (time.Duration, error) {
	key := d.buildKey(alertType, subjectID)

	ttl, err := d.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get cooldown: %w", err)
	}

	// TTL returns -2 if key doesn't exist, -1 if no TTL set
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

// NoopAlertDeduplicator never suppresses alerts. Used when redis is not
// configured and in tests.
type NoopAlertDeduplicator struct{}

// NewNoopAlertDeduplicator creates a deduplicator that never suppresses
func NewNoopAlertDeduplicator() *NoopAlertDeduplicator {
	return &NoopAlertDeduplicator{}
}

func (d *NoopAlertDeduplicator) TryAcquireAlertLock(ctx context.Context, alertType AlertType, subjectID string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (d *NoopAlertDeduplicator) ClearAlert(ctx context.Context, alertType AlertType, subjectID string) error {
	return nil
}

func (d *NoopAlertDeduplicator) GetRemainingCooldown(ctx context.Context, alertType AlertType, subjectID string) (time.Duration, error) {
	return 0, nil
}
