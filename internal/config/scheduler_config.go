package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// SchedulerConfig holds the settings of the session cleanup scheduler.
// The scheduler talks to the web process over HTTP and needs no database settings.
type SchedulerConfig struct {
	Logging LoggingConfig
	// Schedule is a standard five-field cron expression
	Schedule string
	// CleanupURL is the full URL of the session cleanup endpoint
	CleanupURL string
	APIKey     string
}

const defaultCleanupSchedule = "*/15 * * * *"

// LoadScheduler reads the scheduler configuration from environment variables
func LoadScheduler() (*SchedulerConfig, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &SchedulerConfig{}

	cfg.Logging.Level = os.Getenv("LOG_LEVEL")
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	cfg.Schedule = os.Getenv("CLEANUP_SCHEDULE")
	if cfg.Schedule == "" {
		cfg.Schedule = defaultCleanupSchedule
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_SCHEDULE: %w", err)
	}

	cfg.CleanupURL = os.Getenv("CLEANUP_URL")
	if cfg.CleanupURL == "" {
		port, err := intFromEnv("SERVER_PORT", 3000)
		if err != nil {
			return nil, err
		}
		cfg.CleanupURL = fmt.Sprintf("http://localhost:%d/internal/sessions/cleanup", port)
	}

	cfg.APIKey = os.Getenv("API_KEY")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY is required")
	}

	return cfg, nil
}
