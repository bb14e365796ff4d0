package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL           string
	LogLevel              string
	Environment           string
	CronSpecGeneration    string // Daily reminder generation
	CronSpecSweep         string // Overdue sweep, every few minutes
	GenerationHorizonDays int
	GracePeriod           time.Duration
	RecencyWindow         time.Duration
	DefaultTimezone       *time.Location
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecGeneration = os.Getenv("CRON_SPEC_GENERATION")
	if cfg.CronSpecGeneration == "" {
		cfg.CronSpecGeneration = "0 0 * * *" // Default: midnight daily
	}

	cfg.CronSpecSweep = os.Getenv("CRON_SPEC_SWEEP")
	if cfg.CronSpecSweep == "" {
		cfg.CronSpecSweep = "*/5 * * * *" // Default: every 5 minutes
	}

	horizon, err := intEnv("GENERATION_HORIZON_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if horizon < 1 {
		return nil, fmt.Errorf("GENERATION_HORIZON_DAYS must be at least 1, got %d", horizon)
	}
	cfg.GenerationHorizonDays = horizon

	graceMinutes, err := intEnv("GRACE_PERIOD_MINUTES", 120)
	if err != nil {
		return nil, err
	}
	cfg.GracePeriod = time.Duration(graceMinutes) * time.Minute

	recencyMinutes, err := intEnv("RECENCY_WINDOW_MINUTES", 5)
	if err != nil {
		return nil, err
	}
	cfg.RecencyWindow = time.Duration(recencyMinutes) * time.Minute

	tzName := os.Getenv("DEFAULT_TIMEZONE")
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", tzName, err)
	}
	cfg.DefaultTimezone = loc

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
