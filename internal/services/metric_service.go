package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

// MetricRepository is the interface that wraps methods for Metrics table data access.
//
// Like WorkoutRepository, every method is scoped to one owner.
type MetricRepository interface {
	// Method Create inserts a metric for metric.UserID and sets its ID.
	Create(ctx context.Context, metric *models.Metric) error
	// Method GetByID retrieves one metric of "userID".
	//
	// If there is no such metric for this owner, models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, userID, id int) (*models.Metric, error)
	// Method Update overwrites one metric of "userID".
	Update(ctx context.Context, userID int, metric *models.Metric) error
	// Method Delete removes one metric of "userID".
	Delete(ctx context.Context, userID, id int) error
	// Method ListByUser returns all metrics of "userID", newest first.
	ListByUser(ctx context.Context, userID int) ([]models.Metric, error)
}

type metricService struct {
	repo      MetricRepository
	validator *FormValidator
	logger    *zap.Logger
}

// NewMetricService creates a new metric service
func NewMetricService(repo MetricRepository, validator *FormValidator, logger *zap.Logger) *metricService {
	return &metricService{
		repo:      repo,
		validator: validator,
		logger:    logger,
	}
}

// List returns all metrics of the owner
func (s *metricService) List(ctx context.Context, userID int) ([]models.Metric, error) {
	metrics, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	return metrics, nil
}

// Get returns one metric of the owner
func (s *metricService) Get(ctx context.Context, userID, id int) (*models.Metric, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Create validates the form and stores a new metric for the owner
func (s *metricService) Create(ctx context.Context, userID int, form models.MetricForm) (*models.Metric, error) {
	metric, err := s.parse(form)
	if err != nil {
		return nil, err
	}
	metric.UserID = userID

	if err := s.repo.Create(ctx, metric); err != nil {
		return nil, err
	}

	s.logger.Debug("metric created", zap.Int("userID", userID), zap.Int("metricID", metric.ID))
	return metric, nil
}

// Update validates the form and overwrites one metric of the owner
func (s *metricService) Update(ctx context.Context, userID, id int, form models.MetricForm) (*models.Metric, error) {
	metric, err := s.parse(form)
	if err != nil {
		return nil, err
	}
	metric.ID = id
	metric.UserID = userID

	if err := s.repo.Update(ctx, userID, metric); err != nil {
		return nil, err
	}

	return metric, nil
}

// Delete removes one metric of the owner
func (s *metricService) Delete(ctx context.Context, userID, id int) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *metricService) parse(form models.MetricForm) (*models.Metric, error) {
	errs := models.ValidationErrors{}
	input := &models.MetricInput{
		Date:  strings.TrimSpace(form.Date),
		Notes: strings.TrimSpace(form.Notes),
	}

	var err error
	if input.WeightKg, err = parseOptionalFloat(form.WeightKg); err != nil {
		s.validator.Invalid(errs, input, "WeightKg")
	}
	if input.Steps, err = parseOptionalInt(form.Steps); err != nil {
		s.validator.Invalid(errs, input, "Steps")
	}
	if input.BPSystolic, err = parseOptionalInt(form.BPSystolic); err != nil {
		s.validator.Invalid(errs, input, "BPSystolic")
	}
	if input.BPDiastolic, err = parseOptionalInt(form.BPDiastolic); err != nil {
		s.validator.Invalid(errs, input, "BPDiastolic")
	}

	if err := s.validator.Validate(input, errs); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs
	}

	date, err := time.Parse(models.DateLayout, input.Date)
	if err != nil {
		return nil, models.ValidationErrors{"date": "Date is required (YYYY-MM-DD)."}
	}

	return &models.Metric{
		Date:        date,
		WeightKg:    input.WeightKg,
		Steps:       input.Steps,
		BPSystolic:  input.BPSystolic,
		BPDiastolic: input.BPDiastolic,
		Notes:       input.Notes,
	}, nil
}
