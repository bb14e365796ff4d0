package medication

import "context"

// Catalog is the read-only view of medication definitions the reminder
// engine consumes. The CRUD surface that maintains these records lives
// outside the engine.
type Catalog interface {
	// ListActive returns the user's active medications.
	ListActive(ctx context.Context, userID string) ([]*Medication, error)
	// GetByID returns the medication only if it exists and belongs to
	// userID; otherwise a not-found error.
	GetByID(ctx context.Context, id, userID string) (*Medication, error)
	// ListUserIDsWithActiveMedications returns the distinct users that
	// currently have at least one active medication. Used by the daily
	// generation job to fan out.
	ListUserIDsWithActiveMedications(ctx context.Context) ([]string, error)
}
