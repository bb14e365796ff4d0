package app

import (
	"context"
	"fmt"
	"time"

	"medication_reminder_service/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// StatusService applies validated status transitions to existing
// reminders. Ownership is always enforced in the store predicate, so a
// caller can never mutate another user's reminder.
type StatusService struct {
	reminders reminder.Repository
	clock     reminder.Clock
	logger    *logrus.Entry
}

func NewStatusService(reminders reminder.Repository, clock reminder.Clock, logger *logrus.Entry) *StatusService {
	return &StatusService{reminders: reminders, clock: clock, logger: logger}
}

// SetStatus applies a single status mutation. A transition to taken
// stamps takenAt with the current time; any other target clears it.
func (s *StatusService) SetStatus(ctx context.Context, req SetStatusRequest) (*reminder.Reminder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	patch := reminder.StatusPatch{
		Status:    req.Status,
		Notes:     req.Notes,
		DoseTaken: req.DoseTaken,
	}
	if req.Status == reminder.StatusTaken {
		now := s.clock.Now()
		patch.TakenAt = &now
	}

	updated, err := s.reminders.UpdateStatusOwned(ctx, req.ReminderID, req.UserID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder %s: %w", req.ReminderID, err)
	}
	s.logger.WithFields(logrus.Fields{"reminder_id": updated.ID, "status": updated.Status}).
		Debug("Reminder status updated.")
	return updated, nil
}

// BulkSetStatus transitions every listed reminder that is currently
// pending and owned by the caller. The returned count is the number of
// reminders actually changed; ids that were not pending or not owned
// are silently left alone, which is a narrower effect, not an error.
func (s *StatusService) BulkSetStatus(ctx context.Context, req BulkStatusRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	var takenAt *time.Time
	if req.Status == reminder.StatusTaken {
		now := s.clock.Now()
		takenAt = &now
	}

	changed, err := s.reminders.BulkMarkPending(ctx, req.IDs, req.UserID, req.Status, takenAt)
	if err != nil {
		return 0, fmt.Errorf("bulk status update failed: %w", err)
	}
	if changed < int64(len(req.IDs)) {
		s.logger.WithFields(logrus.Fields{"requested": len(req.IDs), "changed": changed, "user_id": req.UserID}).
			Debug("Bulk status update affected fewer reminders than requested.")
	}
	return changed, nil
}

// Delete removes a reminder on ownership match alone; status does not
// restrict deletion.
func (s *StatusService) Delete(ctx context.Context, reminderID, userID string) error {
	if reminderID == "" {
		return ErrMissingReminderID
	}
	if userID == "" {
		return ErrMissingUserID
	}
	if err := s.reminders.DeleteOwned(ctx, reminderID, userID); err != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", reminderID, err)
	}
	return nil
}
