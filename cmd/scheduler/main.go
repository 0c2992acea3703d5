package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/healthtracker/backend/internal/config"
	"github.com/healthtracker/backend/internal/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadScheduler()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Health Tracker session cleanup scheduler", zap.String("schedule", cfg.Schedule))

	scheduler, err := NewScheduler(cfg.Schedule, cfg.CleanupURL, cfg.APIKey, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to create scheduler", zap.Error(err))
	}

	scheduler.Start()
	defer func() {
		logger.Logger.Info("Shutting down scheduler...")
		scheduler.Stop()
		logger.Logger.Info("Scheduler exited")
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
