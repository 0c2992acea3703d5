package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

var metricColumns = []string{"id", "user_id", "date", "weight_kg", "steps", "bp_systolic", "bp_diastolic", "notes", "created_at"}

// metricRepository implements owner-scoped access to the metrics table
type metricRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(db *sql.DB, logger *zap.Logger) *metricRepository {
	return &metricRepository{
		db:     db,
		logger: logger,
	}
}

func scanMetric(row rowScanner) (*models.Metric, error) {
	var (
		m                          models.Metric
		weight                     sql.NullFloat64
		steps, systolic, diastolic sql.NullInt64
		notes                      sql.NullString
	)
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Date,
		&weight,
		&steps,
		&systolic,
		&diastolic,
		&notes,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	if weight.Valid {
		w := weight.Float64
		m.WeightKg = &w
	}
	m.Steps = intPtr(steps)
	m.BPSystolic = intPtr(systolic)
	m.BPDiastolic = intPtr(diastolic)
	m.Notes = notes.String
	return &m, nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Create inserts a metric for metric.UserID
func (r *metricRepository) Create(ctx context.Context, metric *models.Metric) error {
	query, args, err := squirrel.Insert("metrics").
		Columns("user_id", "date", "weight_kg", "steps", "bp_systolic", "bp_diastolic", "notes").
		Values(metric.UserID, metric.Date, nullableFloat(metric.WeightKg), nullableInt(metric.Steps),
			nullableInt(metric.BPSystolic), nullableInt(metric.BPDiastolic), nullableString(metric.Notes)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to create metric", zap.Error(err), zap.Int("userID", metric.UserID))
		return fmt.Errorf("failed to create metric: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	metric.ID = int(id)

	return nil
}

// GetByID retrieves one metric of the owner
func (r *metricRepository) GetByID(ctx context.Context, userID, id int) (*models.Metric, error) {
	query, args, err := squirrel.Select(metricColumns...).
		From("metrics").
		Where(ownedRecord(userID, id)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	metric, err := scanMetric(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("metric %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get metric", zap.Error(err), zap.Int("metricID", id))
		return nil, fmt.Errorf("failed to get metric: %w", err)
	}

	return metric, nil
}

// Update overwrites one metric of the owner
func (r *metricRepository) Update(ctx context.Context, userID int, metric *models.Metric) error {
	query, args, err := squirrel.Update("metrics").
		Set("date", metric.Date).
		Set("weight_kg", nullableFloat(metric.WeightKg)).
		Set("steps", nullableInt(metric.Steps)).
		Set("bp_systolic", nullableInt(metric.BPSystolic)).
		Set("bp_diastolic", nullableInt(metric.BPDiastolic)).
		Set("notes", nullableString(metric.Notes)).
		Where(ownedRecord(userID, metric.ID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	return execOwned(ctx, r.db, r.logger, "update metric", query, args)
}

// Delete removes one metric of the owner
func (r *metricRepository) Delete(ctx context.Context, userID, id int) error {
	query, args, err := squirrel.Delete("metrics").
		Where(ownedRecord(userID, id)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	return execOwned(ctx, r.db, r.logger, "delete metric", query, args)
}

// ListByUser returns all of the owner's metrics, newest first
func (r *metricRepository) ListByUser(ctx context.Context, userID int) ([]models.Metric, error) {
	query, args, err := squirrel.Select(metricColumns...).
		From("metrics").
		Where(ownerScope(userID)).
		OrderBy("date DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query metrics", zap.Error(err))
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []models.Metric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			r.logger.Error("failed to scan metric", zap.Error(err))
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, *m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return metrics, nil
}
