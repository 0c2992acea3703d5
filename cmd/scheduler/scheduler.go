package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/robfig/cron/v3"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Scheduler triggers the session cleanup endpoint on a cron schedule
type Scheduler struct {
	client     *resty.Client
	schedule   cron.Schedule
	cleanupURL string
	logger     *zap.Logger
	now        func() time.Time
	stopChan   chan struct{}
	done       chan struct{}
}

// NewScheduler creates a new scheduler instance.
// cronExpr is a standard five-field cron expression.
func NewScheduler(cronExpr, cleanupURL, apiKey string, logger *zap.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("X-API-Key", apiKey)

	return &Scheduler{
		client:     client,
		schedule:   schedule,
		cleanupURL: cleanupURL,
		logger:     logger,
		now:        time.Now,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Start starts the scheduler loop
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started", zap.String("cleanup_url", s.cleanupURL))
	go s.run()
}

// Stop stops the scheduler and waits for a running cleanup to finish
func (s *Scheduler) Stop() {
	close(s.stopChan)
	<-s.done
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) run() {
	defer close(s.done)

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		s.logger.Debug("Next session cleanup", zap.Time("at", next))

		select {
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := s.RunCleanup(ctx); err != nil {
				s.logger.Error("Session cleanup failed", zap.Error(err))
			}
			cancel()
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

// RunCleanup calls the cleanup endpoint once and returns the number of purged sessions
func (s *Scheduler) RunCleanup(ctx context.Context) (int, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Post(s.cleanupURL)
	if err != nil {
		return 0, fmt.Errorf("failed to call cleanup endpoint: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("cleanup endpoint returned status %d", resp.StatusCode())
	}

	deleted := gjson.GetBytes(resp.Body(), "deletedCount")
	if !deleted.Exists() {
		return 0, fmt.Errorf("cleanup response has no deletedCount")
	}

	count := int(deleted.Int())
	s.logger.Info("Session cleanup completed", zap.Int("deleted_count", count))
	return count, nil
}
