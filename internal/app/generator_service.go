package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medication_reminder_service/internal/domain/medication"
	"medication_reminder_service/internal/domain/reminder"
	idb "medication_reminder_service/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GeneratorService expands medication schedules into concrete pending
// reminders. Generation is idempotent: the (userID, medicationID,
// scheduledTime) key is checked before insert and enforced again by
// the store, so re-running a horizon creates nothing new.
type GeneratorService struct {
	catalog   medication.Catalog
	reminders reminder.Repository
	clock     reminder.Clock
	logger    *logrus.Entry
}

func NewGeneratorService(
	catalog medication.Catalog,
	reminders reminder.Repository,
	clock reminder.Clock,
	logger *logrus.Entry,
) *GeneratorService {
	return &GeneratorService{
		catalog:   catalog,
		reminders: reminders,
		clock:     clock,
		logger:    logger,
	}
}

// GenerateForMedication generates reminders for one medication. A
// medication that is missing, owned by someone else, or inactive
// yields zero reminders, not an error.
func (s *GeneratorService) GenerateForMedication(ctx context.Context, req GenerateMedicationRequest) (GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return GenerateResult{}, err
	}

	med, err := s.catalog.GetByID(ctx, req.MedicationID, req.UserID)
	if err != nil {
		if errors.Is(err, idb.ErrMedicationNotFound) {
			s.logger.WithFields(logrus.Fields{"medication_id": req.MedicationID, "user_id": req.UserID}).
				Debug("Medication not found or not owned by user; nothing to generate.")
			return GenerateResult{}, nil
		}
		return GenerateResult{}, fmt.Errorf("failed to load medication %s: %w", req.MedicationID, err)
	}
	if !med.Active {
		return GenerateResult{}, nil
	}

	created, err := s.generateOne(ctx, med, req.HorizonDays, req.Location)
	if err != nil {
		return GenerateResult{MedicationsFailed: 1}, err
	}
	return GenerateResult{CreatedCount: created, MedicationsProcessed: 1}, nil
}

// GenerateForUser fans out over the user's active medications. Each
// medication is an independent unit of work: a store failure aborts
// that medication's batch and moves on, so the result can report
// partial success. Context cancellation aborts the remaining
// medications without touching anything already inserted.
func (s *GeneratorService) GenerateForUser(ctx context.Context, req GenerateUserRequest) (GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return GenerateResult{}, err
	}

	meds, err := s.catalog.ListActive(ctx, req.UserID)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("failed to list active medications for user %s: %w", req.UserID, err)
	}

	var result GenerateResult
	for _, med := range meds {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		created, err := s.generateOne(ctx, med, req.HorizonDays, req.Location)
		if err != nil {
			result.MedicationsFailed++
			s.logger.WithFields(logrus.Fields{"medication_id": med.ID, "user_id": req.UserID}).
				WithError(err).Error("Reminder generation failed for medication; continuing with the rest.")
			continue
		}
		result.MedicationsProcessed++
		result.CreatedCount += created
	}
	return result, nil
}

// generateOne is the per-medication unit of work: build candidates,
// filter out the past and anything already present, insert the rest as
// one batch.
func (s *GeneratorService) generateOne(ctx context.Context, med *medication.Medication, horizonDays int, loc *time.Location) (int, error) {
	if len(med.Times) == 0 {
		// as_needed medications carry no schedule.
		return 0, nil
	}

	now := s.clock.Now()
	candidates, err := s.candidateTimes(med, now, horizonDays, loc)
	if err != nil {
		return 0, err
	}

	batch := make([]*reminder.Reminder, 0, len(candidates))
	for _, at := range candidates {
		exists, err := s.reminders.Exists(ctx, med.UserID, med.ID, at)
		if err != nil {
			return 0, fmt.Errorf("existence check failed for medication %s at %s: %w", med.ID, at.Format(time.RFC3339), err)
		}
		if exists {
			continue
		}
		batch = append(batch, &reminder.Reminder{
			ID:            uuid.NewString(),
			UserID:        med.UserID,
			MedicationID:  med.ID,
			ScheduledTime: at,
			Status:        reminder.StatusPending,
		})
	}

	if len(batch) == 0 {
		return 0, nil
	}

	inserted, err := s.reminders.InsertMany(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reminder batch for medication %s: %w", med.ID, err)
	}
	s.logger.WithFields(logrus.Fields{"medication_id": med.ID, "user_id": med.UserID, "created": inserted}).
		Debug("Reminder batch inserted.")
	return inserted, nil
}

// candidateTimes expands the schedule over the horizon, keeping only
// strictly-future times within the medication's start/end dates.
func (s *GeneratorService) candidateTimes(med *medication.Medication, now time.Time, horizonDays int, loc *time.Location) ([]time.Time, error) {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var endOfLastDay time.Time
	if med.EndDate != nil {
		e := med.EndDate.In(loc)
		endOfLastDay = time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 0, loc)
	}

	var out []time.Time
	for offset := 0; offset < horizonDays; offset++ {
		day := today.AddDate(0, 0, offset)
		if day.Before(startOfDay(med.StartDate.In(loc))) {
			continue
		}
		if !med.DueOn(day) {
			continue
		}
		for _, hhmm := range med.Times {
			at, err := reminder.DoseTime(day, hhmm, loc)
			if err != nil {
				return nil, fmt.Errorf("medication %s has a malformed dose time: %w", med.ID, err)
			}
			if !at.After(now) {
				continue
			}
			if med.EndDate != nil && at.After(endOfLastDay) {
				continue
			}
			out = append(out, at)
		}
	}
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
