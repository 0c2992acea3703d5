package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

var workoutColumns = []string{"id", "user_id", "date", "type", "duration_min", "intensity", "calories", "notes", "created_at"}

// workoutRepository implements owner-scoped access to the workouts table
type workoutRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkoutRepository creates a new workout repository
func NewWorkoutRepository(db *sql.DB, logger *zap.Logger) *workoutRepository {
	return &workoutRepository{
		db:     db,
		logger: logger,
	}
}

func scanWorkout(row rowScanner) (*models.Workout, error) {
	var (
		w        models.Workout
		calories sql.NullInt64
		notes    sql.NullString
	)
	if err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Date,
		&w.Type,
		&w.DurationMin,
		&w.Intensity,
		&calories,
		&notes,
		&w.CreatedAt,
	); err != nil {
		return nil, err
	}
	if calories.Valid {
		c := int(calories.Int64)
		w.Calories = &c
	}
	w.Notes = notes.String
	return &w, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a workout for workout.UserID
func (r *workoutRepository) Create(ctx context.Context, workout *models.Workout) error {
	query, args, err := squirrel.Insert("workouts").
		Columns("user_id", "date", "type", "duration_min", "intensity", "calories", "notes").
		Values(workout.UserID, workout.Date, workout.Type, workout.DurationMin, workout.Intensity,
			nullableInt(workout.Calories), nullableString(workout.Notes)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to create workout", zap.Error(err), zap.Int("userID", workout.UserID))
		return fmt.Errorf("failed to create workout: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	workout.ID = int(id)

	return nil
}

// GetByID retrieves one workout of the owner
func (r *workoutRepository) GetByID(ctx context.Context, userID, id int) (*models.Workout, error) {
	query, args, err := squirrel.Select(workoutColumns...).
		From("workouts").
		Where(ownedRecord(userID, id)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	workout, err := scanWorkout(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workout %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get workout", zap.Error(err), zap.Int("workoutID", id))
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}

	return workout, nil
}

// Update overwrites one workout of the owner
func (r *workoutRepository) Update(ctx context.Context, userID int, workout *models.Workout) error {
	query, args, err := squirrel.Update("workouts").
		Set("date", workout.Date).
		Set("type", workout.Type).
		Set("duration_min", workout.DurationMin).
		Set("intensity", workout.Intensity).
		Set("calories", nullableInt(workout.Calories)).
		Set("notes", nullableString(workout.Notes)).
		Where(ownedRecord(userID, workout.ID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	return execOwned(ctx, r.db, r.logger, "update workout", query, args)
}

// Delete removes one workout of the owner
func (r *workoutRepository) Delete(ctx context.Context, userID, id int) error {
	query, args, err := squirrel.Delete("workouts").
		Where(ownedRecord(userID, id)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	return execOwned(ctx, r.db, r.logger, "delete workout", query, args)
}

// CountByUser returns the number of workouts of the owner
func (r *workoutRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	query, args, err := squirrel.Select("COUNT(*)").
		From("workouts").
		Where(ownerScope(userID)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("failed to count workouts", zap.Error(err), zap.Int("userID", userID))
		return 0, fmt.Errorf("failed to count workouts: %w", err)
	}

	return count, nil
}

// ListByUser returns one page of the owner's workouts, newest first
func (r *workoutRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]models.Workout, error) {
	qb := squirrel.Select(workoutColumns...).
		From("workouts").
		Where(ownerScope(userID)).
		OrderBy("date DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.query(ctx, qb)
}

// Search returns the owner's workouts matching the filter, newest first
func (r *workoutRepository) Search(ctx context.Context, userID int, filter models.WorkoutFilter) ([]models.Workout, error) {
	qb := squirrel.Select(workoutColumns...).
		From("workouts").
		Where(workoutFilterPredicate(userID, filter)).
		OrderBy("date DESC", "id DESC")

	return r.query(ctx, qb)
}

// workoutFilterPredicate turns a typed filter into a parameterized condition.
// The owner scope is always the first conjunct.
func workoutFilterPredicate(userID int, filter models.WorkoutFilter) squirrel.And {
	pred := squirrel.And{ownerScope(userID)}

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := containsPattern(q)
		pred = append(pred, squirrel.Or{
			squirrel.Like{"type": pattern},
			squirrel.Like{"notes": pattern},
		})
	}
	if filter.DateFrom != nil {
		pred = append(pred, squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		pred = append(pred, squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.MinDuration != nil {
		pred = append(pred, squirrel.GtOrEq{"duration_min": *filter.MinDuration})
	}

	return pred
}

func (r *workoutRepository) query(ctx context.Context, qb squirrel.SelectBuilder) ([]models.Workout, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query workouts", zap.Error(err))
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	defer rows.Close()

	var workouts []models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			r.logger.Error("failed to scan workout", zap.Error(err))
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		workouts = append(workouts, *w)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return workouts, nil
}
