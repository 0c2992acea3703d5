package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

// statsRepository runs the pre-aggregated queries behind the home, dashboard and admin pages
type statsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *sql.DB, logger *zap.Logger) *statsRepository {
	return &statsRepository{
		db:     db,
		logger: logger,
	}
}

// WorkoutStatsSince aggregates the owner's workouts dated on or after "since"
func (r *statsRepository) WorkoutStatsSince(ctx context.Context, userID int, since time.Time) (*models.WeeklyWorkoutStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(duration_min), 0),
			COALESCE(AVG(intensity), 0)
		FROM workouts
		WHERE user_id = ? AND date >= ?
	`

	stats := &models.WeeklyWorkoutStats{}
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(
		&stats.WorkoutCount,
		&stats.TotalMinutes,
		&stats.AvgIntensity,
	); err != nil {
		r.logger.Error("failed to aggregate workouts", zap.Error(err), zap.Int("userID", userID))
		return nil, fmt.Errorf("failed to aggregate workouts: %w", err)
	}

	return stats, nil
}

// MetricStatsSince aggregates the owner's metrics dated on or after "since"
func (r *statsRepository) MetricStatsSince(ctx context.Context, userID int, since time.Time) (*models.WeeklyMetricStats, error) {
	query := `
		SELECT
			COALESCE(AVG(weight_kg), 0),
			COALESCE(AVG(steps), 0)
		FROM metrics
		WHERE user_id = ? AND date >= ?
	`

	stats := &models.WeeklyMetricStats{}
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(
		&stats.AvgWeight,
		&stats.AvgSteps,
	); err != nil {
		r.logger.Error("failed to aggregate metrics", zap.Error(err), zap.Int("userID", userID))
		return nil, fmt.Errorf("failed to aggregate metrics: %w", err)
	}

	return stats, nil
}

// Totals returns the number of users, workouts and metrics
func (r *statsRepository) Totals(ctx context.Context) (users, workouts, metrics int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM workouts),
			(SELECT COUNT(*) FROM metrics)
	`

	if err = r.db.QueryRowContext(ctx, query).Scan(&users, &workouts, &metrics); err != nil {
		r.logger.Error("failed to count totals", zap.Error(err))
		return 0, 0, 0, fmt.Errorf("failed to count totals: %w", err)
	}

	return users, workouts, metrics, nil
}

// TopUsersByWorkouts returns the users with the most workouts
func (r *statsRepository) TopUsersByWorkouts(ctx context.Context, limit int) ([]models.TopUser, error) {
	query := `
		SELECT u.username, COUNT(w.id) AS workouts
		FROM users u
		LEFT JOIN workouts w ON u.id = w.user_id
		GROUP BY u.id, u.username
		ORDER BY workouts DESC, u.username
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("failed to query top users", zap.Error(err))
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer rows.Close()

	var users []models.TopUser
	for rows.Next() {
		var u models.TopUser
		if err := rows.Scan(&u.Username, &u.Workouts); err != nil {
			return nil, fmt.Errorf("failed to scan top user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}
