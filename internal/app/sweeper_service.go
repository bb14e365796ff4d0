package app

import (
	"context"
	"fmt"
	"time"

	"medication_reminder_service/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultGracePeriod is how far past its scheduled time a pending
	// reminder must be before the sweep marks it missed.
	DefaultGracePeriod = 2 * time.Hour
	// DefaultRecencyWindow keeps the sweep away from reminders touched
	// recently, so it cannot race a manual update in flight.
	DefaultRecencyWindow = 5 * time.Minute
)

// SweepResult reports one sweep invocation.
type SweepResult struct {
	MissedCount int64
}

// SweeperService demotes stale pending reminders to missed. The whole
// sweep is a single conditional bulk update in the store, so it is
// safe to run concurrently with itself and with user mutations.
type SweeperService struct {
	reminders reminder.Repository
	clock     reminder.Clock
	grace     time.Duration
	recency   time.Duration
	logger    *logrus.Entry
}

func NewSweeperService(
	reminders reminder.Repository,
	clock reminder.Clock,
	grace time.Duration,
	recency time.Duration,
	logger *logrus.Entry,
) *SweeperService {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if recency <= 0 {
		recency = DefaultRecencyWindow
	}
	return &SweeperService{
		reminders: reminders,
		clock:     clock,
		grace:     grace,
		recency:   recency,
		logger:    logger,
	}
}

// Sweep marks missed every pending reminder scheduled more than the
// grace period ago and not updated within the recency window.
// Idempotent: a second immediate sweep finds nothing left to demote.
func (s *SweeperService) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()
	count, err := s.reminders.MarkMissed(ctx, now.Add(-s.grace), now.Add(-s.recency))
	if err != nil {
		return SweepResult{}, fmt.Errorf("overdue sweep failed: %w", err)
	}
	if count > 0 {
		s.logger.WithField("missed_count", count).Info("Overdue reminders marked as missed.")
	}
	return SweepResult{MissedCount: count}, nil
}
