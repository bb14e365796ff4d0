package scheduler

import (
	"context"
	"time"

	"medication_reminder_service/internal/app"
	"medication_reminder_service/internal/domain/medication"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// EngineScheduler owns the periodic triggers: daily reminder
// generation and the overdue sweep. It contains no engine logic; each
// job builds a timeout context and calls the corresponding service.
type EngineScheduler struct {
	cronEngine         *cron.Cron
	generator          *app.GeneratorService
	sweeper            *app.SweeperService
	catalog            medication.Catalog
	logger             *logrus.Entry
	cronSpecGeneration string
	cronSpecSweep      string
	horizonDays        int
	location           *time.Location
}

func NewEngineScheduler(
	generator *app.GeneratorService,
	sweeper *app.SweeperService,
	catalog medication.Catalog,
	logger *logrus.Entry,
	cronSpecGeneration string, // e.g., "0 0 * * *" (midnight daily)
	cronSpecSweep string, // e.g., "*/5 * * * *" (every 5 minutes)
	horizonDays int,
	location *time.Location,
) *EngineScheduler {
	return &EngineScheduler{
		cronEngine:         cron.New(cron.WithLocation(location)),
		generator:          generator,
		sweeper:            sweeper,
		catalog:            catalog,
		logger:             logger,
		cronSpecGeneration: cronSpecGeneration,
		cronSpecSweep:      cronSpecSweep,
		horizonDays:        horizonDays,
		location:           location,
	}
}

func (s *EngineScheduler) Start() error {
	s.logger.Info("Starting engine scheduler...")

	// Daily generation job: fan out over every user that currently has
	// an active medication. Per-user failures are isolated.
	_, err := s.cronEngine.AddFunc(s.cronSpecGeneration, func() {
		s.logger.Info("Cron job triggered for daily reminder generation.")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.runGeneration(ctx)
	})
	if err != nil {
		return err
	}

	// Overdue sweep job.
	_, err = s.cronEngine.AddFunc(s.cronSpecSweep, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if _, err := s.sweeper.Sweep(ctx); err != nil {
			s.logger.WithError(err).Error("Error during overdue sweep.")
		}
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.Info("Engine scheduler started with jobs.")
	return nil
}

func (s *EngineScheduler) runGeneration(ctx context.Context) {
	userIDs, err := s.catalog.ListUserIDsWithActiveMedications(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list users for reminder generation.")
		return
	}

	total := app.GenerateResult{}
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			s.logger.WithError(ctx.Err()).Warn("Generation run aborted before finishing all users.")
			break
		}
		result, err := s.generator.GenerateForUser(ctx, app.GenerateUserRequest{
			UserID:      userID,
			HorizonDays: s.horizonDays,
			Location:    s.location,
		})
		if err != nil {
			s.logger.WithField("user_id", userID).WithError(err).Error("Reminder generation failed for user; continuing.")
			continue
		}
		total.CreatedCount += result.CreatedCount
		total.MedicationsProcessed += result.MedicationsProcessed
		total.MedicationsFailed += result.MedicationsFailed
	}
	s.logger.WithFields(logrus.Fields{
		"users":                 len(userIDs),
		"created":               total.CreatedCount,
		"medications_processed": total.MedicationsProcessed,
		"medications_failed":    total.MedicationsFailed,
	}).Info("Daily reminder generation finished.")
}

func (s *EngineScheduler) Stop() {
	s.logger.Info("Stopping engine scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Engine scheduler gracefully stopped.")
}
