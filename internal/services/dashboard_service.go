package services

import (
	"context"
	"fmt"
	"time"

	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

// statsWindowDays is the look-back window of the home page and the dashboard
const statsWindowDays = 7

// StatsRepository is the interface that wraps the pre-aggregated queries
type StatsRepository interface {
	// Method WorkoutStatsSince aggregates the workouts of "userID" dated on or after "since".
	WorkoutStatsSince(ctx context.Context, userID int, since time.Time) (*models.WeeklyWorkoutStats, error)
	// Method MetricStatsSince averages the metrics of "userID" dated on or after "since".
	MetricStatsSince(ctx context.Context, userID int, since time.Time) (*models.WeeklyMetricStats, error)
	// Method Totals returns the number of users, workouts and metrics.
	Totals(ctx context.Context) (users, workouts, metrics int, err error)
	// Method TopUsersByWorkouts returns at most "limit" users ordered by workout count.
	TopUsersByWorkouts(ctx context.Context, limit int) ([]models.TopUser, error)
}

type dashboardService struct {
	repo   StatsRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repo StatsRepository, logger *zap.Logger) *dashboardService {
	return &dashboardService{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// windowStart returns the calendar day statsWindowDays before today.
// DATE columns are compared in UTC by the driver, so the local date is carried over as a UTC midnight.
func (s *dashboardService) windowStart() time.Time {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -statsWindowDays)
}

// HomeStats returns the recent workout summary shown on the home page
func (s *dashboardService) HomeStats(ctx context.Context, userID int) (*models.WeeklyWorkoutStats, error) {
	stats, err := s.repo.WorkoutStatsSince(ctx, userID, s.windowStart())
	if err != nil {
		return nil, fmt.Errorf("failed to load home stats: %w", err)
	}
	return stats, nil
}

// Dashboard returns the recent workout and metric aggregates of the owner
func (s *dashboardService) Dashboard(ctx context.Context, userID int) (*models.Dashboard, error) {
	since := s.windowStart()

	workouts, err := s.repo.WorkoutStatsSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load workout stats: %w", err)
	}
	metrics, err := s.repo.MetricStatsSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load metric stats: %w", err)
	}

	return &models.Dashboard{
		Workouts: *workouts,
		Metrics:  *metrics,
	}, nil
}
