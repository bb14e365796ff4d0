package app

import (
	"errors"
	"time"

	"medication_reminder_service/internal/domain/reminder"
)

// Validation errors. These are rejected at the boundary, before any
// store access.
var (
	ErrMissingUserID     = errors.New("user id is required")
	ErrMissingReminderID = errors.New("reminder id is required")
	ErrMissingMedication = errors.New("medication id is required")
	ErrInvalidHorizon    = errors.New("horizon days must be at least 1")
	ErrMissingTimezone   = errors.New("timezone location is required")
	ErrEmptyIDList       = errors.New("reminder id list is empty")
	ErrUnknownStatus     = errors.New("unknown reminder status")
	ErrInvalidBulkStatus = errors.New("bulk status change must target taken, missed or skipped")
	ErrInvalidDateRange  = errors.New("end date must not be before start date")
)

// GenerateMedicationRequest asks for reminder generation for a single
// medication over the given horizon. Location is the timezone the
// HH:MM dose slots are interpreted in; it is always explicit, never
// inferred from the server environment.
type GenerateMedicationRequest struct {
	MedicationID string
	UserID       string
	HorizonDays  int
	Location     *time.Location
}

func (r GenerateMedicationRequest) Validate() error {
	if r.MedicationID == "" {
		return ErrMissingMedication
	}
	if r.UserID == "" {
		return ErrMissingUserID
	}
	if r.HorizonDays < 1 {
		return ErrInvalidHorizon
	}
	if r.Location == nil {
		return ErrMissingTimezone
	}
	return nil
}

// GenerateUserRequest asks for reminder generation across all of the
// user's active medications.
type GenerateUserRequest struct {
	UserID      string
	HorizonDays int
	Location    *time.Location
}

func (r GenerateUserRequest) Validate() error {
	if r.UserID == "" {
		return ErrMissingUserID
	}
	if r.HorizonDays < 1 {
		return ErrInvalidHorizon
	}
	if r.Location == nil {
		return ErrMissingTimezone
	}
	return nil
}

// GenerateResult reports what a generation run did. Failed counts
// medications whose unit of work was aborted by a store failure; the
// rest of the fan-out proceeds regardless.
type GenerateResult struct {
	CreatedCount         int
	MedicationsProcessed int
	MedicationsFailed    int
}

// SetStatusRequest is a single validated status mutation.
type SetStatusRequest struct {
	ReminderID string
	UserID     string
	Status     reminder.Status
	Notes      *string
	DoseTaken  *string
}

func (r SetStatusRequest) Validate() error {
	if r.ReminderID == "" {
		return ErrMissingReminderID
	}
	if r.UserID == "" {
		return ErrMissingUserID
	}
	if !r.Status.IsValid() {
		return ErrUnknownStatus
	}
	return nil
}

// BulkStatusRequest transitions every listed reminder that is still
// pending and owned by UserID.
type BulkStatusRequest struct {
	IDs    []string
	UserID string
	Status reminder.Status
}

func (r BulkStatusRequest) Validate() error {
	if len(r.IDs) == 0 {
		return ErrEmptyIDList
	}
	if r.UserID == "" {
		return ErrMissingUserID
	}
	if !r.Status.IsValid() {
		return ErrUnknownStatus
	}
	if !reminder.StatusPending.CanTransitionTo(r.Status) {
		return ErrInvalidBulkStatus
	}
	return nil
}

// StatsRequest scopes an adherence computation. Nil date bounds are
// open; Location controls day and time-of-day bucketing.
type StatsRequest struct {
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	Location  *time.Location
}

func (r StatsRequest) Validate() error {
	if r.UserID == "" {
		return ErrMissingUserID
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return ErrInvalidDateRange
	}
	if r.Location == nil {
		return ErrMissingTimezone
	}
	return nil
}
