// internal/infra/database/postgres_reminder_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medication_reminder_service/internal/domain/reminder"

	"github.com/lib/pq" // For pq.Array and driver registration
)

// Custom errors specific to reminder repository
var ErrReminderNotFound = fmt.Errorf("reminder not found")

// reminderDedupConstraint is the unique key over (user_id,
// medication_id, scheduled_time); see migrations/0001_init.sql.
const reminderDedupConstraint = "reminder_user_medication_time_unique"

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

const reminderColumns = `id, user_id, medication_id, scheduled_time, status, taken_at, notes, dose_taken, created_at, updated_at`

func scanReminder(row interface{ Scan(...any) error }) (*reminder.Reminder, error) {
	rem := reminder.Reminder{}
	var takenAt sql.NullTime
	var notes, doseTaken sql.NullString
	err := row.Scan(
		&rem.ID, &rem.UserID, &rem.MedicationID, &rem.ScheduledTime, &rem.Status,
		&takenAt, &notes, &doseTaken, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if takenAt.Valid {
		rem.TakenAt = &takenAt.Time
	}
	rem.Notes = notes.String
	rem.DoseTaken = doseTaken.String
	return &rem, nil
}

func (r *PostgresReminderRepository) Exists(ctx context.Context, userID, medicationID string, scheduledTime time.Time) (bool, error) {
	query := `SELECT EXISTS (
                 SELECT 1 FROM reminders
                 WHERE user_id = $1 AND medication_id = $2 AND scheduled_time = $3
               )`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, medicationID, scheduledTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking reminder existence: %w", err)
	}
	return exists, nil
}

// InsertMany inserts the batch inside one transaction. Rows colliding
// with the dedup key are skipped by ON CONFLICT, so a concurrent
// generator run between our existence check and this insert cannot
// produce duplicates; the returned count is rows actually inserted.
func (r *PostgresReminderRepository) InsertMany(ctx context.Context, reminders []*reminder.Reminder) (int, error) {
	if len(reminders) == 0 {
		return 0, nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for bulk insert: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO reminders (id, user_id, medication_id, scheduled_time, status, created_at, updated_at)
                                         VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
                                         ON CONFLICT ON CONSTRAINT `+reminderDedupConstraint+` DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for bulk insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rem := range reminders {
		res, err := stmt.ExecContext(ctx, rem.ID, rem.UserID, rem.MedicationID, rem.ScheduledTime, rem.Status)
		if err != nil {
			return 0, fmt.Errorf("error inserting reminder (U:%s, M:%s, T:%s): %w", rem.UserID, rem.MedicationID, rem.ScheduledTime.Format(time.RFC3339), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("error reading rows affected for bulk insert: %w", err)
		}
		inserted += int(n)
	}

	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk insert: %w", err)
	}
	return inserted, nil
}

// MarkMissed is the single conditional bulk update behind the overdue
// sweep. The predicate lives entirely in SQL so concurrent sweeps (or
// a simultaneous user action bumping updated_at) can never
// double-transition a row.
func (r *PostgresReminderRepository) MarkMissed(ctx context.Context, scheduledBefore, updatedBefore time.Time) (int64, error) {
	query := `UPDATE reminders
               SET status = $1, taken_at = NULL, updated_at = NOW()
               WHERE status = $2 AND scheduled_time < $3 AND updated_at < $4`
	res, err := r.db.ExecContext(ctx, query, reminder.StatusMissed, reminder.StatusPending, scheduledBefore, updatedBefore)
	if err != nil {
		return 0, fmt.Errorf("error marking overdue reminders missed: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading rows affected for overdue sweep: %w", err)
	}
	return count, nil
}

// UpdateStatusOwned patches one reminder with ownership enforced in
// the WHERE clause. taken_at always takes the patch value (NULL clears
// it); notes and dose_taken keep their old value when the patch field
// is nil.
func (r *PostgresReminderRepository) UpdateStatusOwned(ctx context.Context, id, userID string, patch reminder.StatusPatch) (*reminder.Reminder, error) {
	query := `UPDATE reminders
               SET status = $1,
                   taken_at = $2,
                   notes = COALESCE($3, notes),
                   dose_taken = COALESCE($4, dose_taken),
                   updated_at = NOW()
               WHERE id = $5 AND user_id = $6
               RETURNING ` + reminderColumns
	var takenAt sql.NullTime
	if patch.TakenAt != nil {
		takenAt = sql.NullTime{Time: *patch.TakenAt, Valid: true}
	}
	rem, err := scanReminder(r.db.QueryRowContext(ctx, query, patch.Status, takenAt, patch.Notes, patch.DoseTaken, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("error updating reminder status: %w", err)
	}
	return rem, nil
}

// BulkMarkPending transitions only rows that are pending AND owned by
// userID; everything else in ids is left untouched and simply absent
// from the returned count.
func (r *PostgresReminderRepository) BulkMarkPending(ctx context.Context, ids []string, userID string, status reminder.Status, takenAt *time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE reminders
               SET status = $1, taken_at = $2, updated_at = NOW()
               WHERE id = ANY($3::uuid[]) AND user_id = $4 AND status = $5`
	var stamp sql.NullTime
	if takenAt != nil {
		stamp = sql.NullTime{Time: *takenAt, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, query, status, stamp, pq.Array(ids), userID, reminder.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("error bulk updating reminder statuses: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading rows affected for bulk status update: %w", err)
	}
	return count, nil
}

func (r *PostgresReminderRepository) FindByIDs(ctx context.Context, ids []string, userID string) ([]*reminder.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
               WHERE id = ANY($1::uuid[]) AND user_id = $2 ORDER BY scheduled_time`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids), userID)
	if err != nil {
		return nil, fmt.Errorf("error querying reminders by ids: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *PostgresReminderRepository) ListByUserBetween(ctx context.Context, userID string, from, to *time.Time) ([]*reminder.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders
               WHERE user_id = $1
                 AND ($2::timestamptz IS NULL OR scheduled_time >= $2)
                 AND ($3::timestamptz IS NULL OR scheduled_time <= $3)
               ORDER BY scheduled_time`
	rows, err := r.db.QueryContext(ctx, query, userID, nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("error querying reminders by user and range: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *PostgresReminderRepository) CountByStatus(ctx context.Context, userID string, from, to *time.Time) (reminder.StatusCounts, error) {
	query := `SELECT COUNT(*),
                      COUNT(*) FILTER (WHERE status = 'taken'),
                      COUNT(*) FILTER (WHERE status = 'missed'),
                      COUNT(*) FILTER (WHERE status = 'skipped'),
                      COUNT(*) FILTER (WHERE status = 'pending')
               FROM reminders
               WHERE user_id = $1
                 AND ($2::timestamptz IS NULL OR scheduled_time >= $2)
                 AND ($3::timestamptz IS NULL OR scheduled_time <= $3)`
	counts := reminder.StatusCounts{}
	err := r.db.QueryRowContext(ctx, query, userID, nullTime(from), nullTime(to)).Scan(
		&counts.Total, &counts.Taken, &counts.Missed, &counts.Skipped, &counts.Pending,
	)
	if err != nil {
		// COUNT(*) always returns a row; sql.ErrNoRows here is an unexpected DB error.
		return reminder.StatusCounts{}, fmt.Errorf("error aggregating reminders by status: %w", err)
	}
	return counts, nil
}

func (r *PostgresReminderRepository) DeleteOwned(ctx context.Context, id, userID string) error {
	query := `DELETE FROM reminders WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting reminder: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected for reminder delete: %w", err)
	}
	if count == 0 {
		return ErrReminderNotFound
	}
	return nil
}

// Helper to scan multiple rows
func scanReminders(rows *sql.Rows) ([]*reminder.Reminder, error) {
	reminders := make([]*reminder.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return reminders, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
