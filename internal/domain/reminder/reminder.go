package reminder

import "time"

// Status represents the lifecycle state of a dose reminder.
type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
	StatusSkipped Status = "skipped"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusTaken, StatusMissed, StatusSkipped:
		return true
	}
	return false
}

// IsTerminal reports whether s is terminal under the automatic state
// machine. Only manual edits may leave a terminal status.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// CanTransitionTo reports whether the automatic state machine permits
// moving from s to target. All automatic transitions originate from
// pending; everything else is a manual edit.
func (s Status) CanTransitionTo(target Status) bool {
	if s != StatusPending {
		return false
	}
	switch target {
	case StatusTaken, StatusMissed, StatusSkipped:
		return true
	}
	return false
}

// Reminder is one scheduled dose instance for a medication at a
// specific timestamp.
type Reminder struct {
	ID           string
	UserID       string
	MedicationID string
	// ScheduledTime is immutable once created; only an explicit user
	// edit (outside the automatic lifecycle) may change it.
	ScheduledTime time.Time
	Status        Status
	// TakenAt is set exactly when Status is taken.
	TakenAt   *time.Time
	Notes     string
	DoseTaken string
	CreatedAt time.Time
	// UpdatedAt guards the overdue sweep against racing a concurrent
	// manual update.
	UpdatedAt time.Time
}

// StatusCounts aggregates reminders by status over some window.
type StatusCounts struct {
	Total   int
	Taken   int
	Missed  int
	Skipped int
	Pending int
}
