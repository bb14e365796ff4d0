package reminder

import (
	"context"
	"time"
)

// StatusPatch carries the fields a single status mutation may change.
// Nil pointer fields are left untouched.
type StatusPatch struct {
	Status    Status
	TakenAt   *time.Time
	Notes     *string
	DoseTaken *string
}

// Repository defines the persistence operations for Reminder records.
// All mutating operations are conditional: their predicates live in the
// store itself so concurrent invocations cannot race through a
// read-modify-write window.
type Repository interface {
	// Exists reports whether a reminder already occupies the
	// (userID, medicationID, scheduledTime) dedup key.
	Exists(ctx context.Context, userID, medicationID string, scheduledTime time.Time) (bool, error)

	// InsertMany inserts the batch, silently skipping rows that collide
	// with the dedup key, and returns how many rows were actually
	// inserted.
	InsertMany(ctx context.Context, reminders []*Reminder) (int, error)

	// MarkMissed transitions to missed every pending reminder whose
	// scheduled time is before scheduledBefore and whose last update is
	// before updatedBefore, as one conditional bulk update. Returns the
	// number of rows transitioned.
	MarkMissed(ctx context.Context, scheduledBefore, updatedBefore time.Time) (int64, error)

	// UpdateStatusOwned applies patch to the reminder only if it exists
	// and belongs to userID, returning the updated record.
	UpdateStatusOwned(ctx context.Context, id, userID string, patch StatusPatch) (*Reminder, error)

	// BulkMarkPending transitions to status those of the given ids that
	// are currently pending and owned by userID. Returns the number of
	// rows actually changed, which may be less than len(ids).
	BulkMarkPending(ctx context.Context, ids []string, userID string, status Status, takenAt *time.Time) (int64, error)

	// FindByIDs returns the subset of ids owned by userID.
	FindByIDs(ctx context.Context, ids []string, userID string) ([]*Reminder, error)

	// ListByUserBetween returns the user's reminders with scheduled
	// time in [from, to]; nil bounds are open.
	ListByUserBetween(ctx context.Context, userID string, from, to *time.Time) ([]*Reminder, error)

	// CountByStatus aggregates the user's reminders by status over the
	// same window semantics as ListByUserBetween.
	CountByStatus(ctx context.Context, userID string, from, to *time.Time) (StatusCounts, error)

	// DeleteOwned removes the reminder if it belongs to userID,
	// regardless of status.
	DeleteOwned(ctx context.Context, id, userID string) error
}
