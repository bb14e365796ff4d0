// internal/infra/database/postgres_medication_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"medication_reminder_service/internal/domain/medication"

	"github.com/lib/pq" // For pq.StringArray and driver registration
)

// Custom errors specific to medication catalog access
var ErrMedicationNotFound = fmt.Errorf("medication not found")

// PostgresMedicationCatalog is the read-only Catalog over the
// medications table. The engine never writes to it; the CRUD surface
// that maintains medications lives in another service.
type PostgresMedicationCatalog struct {
	db *sql.DB
}

func NewPostgresMedicationCatalog(db *sql.DB) *PostgresMedicationCatalog {
	return &PostgresMedicationCatalog{db: db}
}

const medicationColumns = `id, user_id, name, dosage, frequency, times, start_date, end_date, active, created_at, updated_at`

func scanMedication(row interface{ Scan(...any) error }) (*medication.Medication, error) {
	med := medication.Medication{}
	var times pq.StringArray
	var endDate sql.NullTime
	err := row.Scan(
		&med.ID, &med.UserID, &med.Name, &med.Dosage, &med.Frequency,
		&times, &med.StartDate, &endDate, &med.Active, &med.CreatedAt, &med.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	med.Times = []string(times)
	if endDate.Valid {
		med.EndDate = &endDate.Time
	}
	return &med, nil
}

func (r *PostgresMedicationCatalog) GetByID(ctx context.Context, id, userID string) (*medication.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1 AND user_id = $2`
	med, err := scanMedication(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMedicationNotFound
		}
		return nil, fmt.Errorf("error getting medication by ID: %w", err)
	}
	return med, nil
}

func (r *PostgresMedicationCatalog) ListActive(ctx context.Context, userID string) ([]*medication.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications
               WHERE user_id = $1 AND active = TRUE ORDER BY created_at` // Order for consistent processing
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying active medications: %w", err)
	}
	defer rows.Close()

	meds := make([]*medication.Medication, 0)
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning medication row: %w", err)
		}
		meds = append(meds, med)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating medication rows: %w", err)
	}
	return meds, nil
}

func (r *PostgresMedicationCatalog) ListUserIDsWithActiveMedications(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM medications WHERE active = TRUE ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying users with active medications: %w", err)
	}
	defer rows.Close()

	userIDs := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning user id row: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user id rows: %w", err)
	}
	return userIDs, nil
}
