package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"medication_reminder_service/internal/app"
	"medication_reminder_service/internal/domain/reminder"
	"medication_reminder_service/internal/infra/config"
	idb "medication_reminder_service/internal/infra/database"
	"medication_reminder_service/internal/infra/logger"
	"medication_reminder_service/internal/infra/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Timezone: %s", cfg.LogLevel, cfg.Environment, cfg.DefaultTimezone)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	catalog := idb.NewPostgresMedicationCatalog(db)
	reminderRepo := idb.NewPostgresReminderRepository(db)
	mainLogger.Info("Repositories initialized.")

	// Initialize Engine Services
	clock := reminder.SystemClock{}
	generator := app.NewGeneratorService(catalog, reminderRepo, clock, logger.Component("generator"))
	sweeper := app.NewSweeperService(reminderRepo, clock, cfg.GracePeriod, cfg.RecencyWindow, logger.Component("sweeper"))
	mainLogger.Info("Engine services initialized.")

	// Initialize Scheduler
	engineScheduler := scheduler.NewEngineScheduler(
		generator,
		sweeper,
		catalog,
		logger.Component("scheduler"),
		cfg.CronSpecGeneration,
		cfg.CronSpecSweep,
		cfg.GenerationHorizonDays,
		cfg.DefaultTimezone,
	)
	if err := engineScheduler.Start(); err != nil {
		mainLogger.Fatalf("FATAL: Could not start engine scheduler: %v", err)
	}

	mainLogger.Info("Application setup complete. Scheduler is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	engineScheduler.Stop()
	// db.Close() is handled by defer
	mainLogger.Info("Application shut down gracefully.")
}
