package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

// workoutsPerPage is the page size of the workout list
const workoutsPerPage = 10

// WorkoutRepository is the interface that wraps methods for Workouts table data access.
//
// Every method is scoped to one owner: a workout of another user behaves exactly like a missing one.
type WorkoutRepository interface {
	// Method Create inserts a workout for workout.UserID and sets its ID.
	Create(ctx context.Context, workout *models.Workout) error
	// Method GetByID retrieves one workout of "userID".
	//
	// If there is no such workout for this owner, models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, userID, id int) (*models.Workout, error)
	// Method Update overwrites one workout of "userID".
	//
	// If there is no such workout for this owner, models.ErrNotFound will be returned.
	Update(ctx context.Context, userID int, workout *models.Workout) error
	// Method Delete removes one workout of "userID".
	//
	// If there is no such workout for this owner, models.ErrNotFound will be returned.
	Delete(ctx context.Context, userID, id int) error
	// Method CountByUser returns the number of workouts of "userID".
	CountByUser(ctx context.Context, userID int) (int, error)
	// Method ListByUser returns a page of workouts of "userID", newest first.
	ListByUser(ctx context.Context, userID, limit, offset int) ([]models.Workout, error)
	// Method Search returns the workouts of "userID" matching "filter", newest first.
	Search(ctx context.Context, userID int, filter models.WorkoutFilter) ([]models.Workout, error)
}

type workoutService struct {
	repo      WorkoutRepository
	validator *FormValidator
	logger    *zap.Logger
}

// NewWorkoutService creates a new workout service
func NewWorkoutService(repo WorkoutRepository, validator *FormValidator, logger *zap.Logger) *workoutService {
	return &workoutService{
		repo:      repo,
		validator: validator,
		logger:    logger,
	}
}

// List returns one page of the owner's workouts
func (s *workoutService) List(ctx context.Context, userID, page int) ([]models.Workout, models.Page, error) {
	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("failed to count workouts: %w", err)
	}

	p := models.NewPage(page, workoutsPerPage, total)
	workouts, err := s.repo.ListByUser(ctx, userID, p.Size, p.Offset())
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("failed to list workouts: %w", err)
	}

	return workouts, p, nil
}

// Get returns one workout of the owner
func (s *workoutService) Get(ctx context.Context, userID, id int) (*models.Workout, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Create validates the form and stores a new workout for the owner
func (s *workoutService) Create(ctx context.Context, userID int, form models.WorkoutForm) (*models.Workout, error) {
	workout, err := s.parse(form)
	if err != nil {
		return nil, err
	}
	workout.UserID = userID

	if err := s.repo.Create(ctx, workout); err != nil {
		return nil, err
	}

	s.logger.Debug("workout created", zap.Int("userID", userID), zap.Int("workoutID", workout.ID))
	return workout, nil
}

// Update validates the form and overwrites one workout of the owner
func (s *workoutService) Update(ctx context.Context, userID, id int, form models.WorkoutForm) (*models.Workout, error) {
	workout, err := s.parse(form)
	if err != nil {
		return nil, err
	}
	workout.ID = id
	workout.UserID = userID

	if err := s.repo.Update(ctx, userID, workout); err != nil {
		return nil, err
	}

	return workout, nil
}

// Delete removes one workout of the owner
func (s *workoutService) Delete(ctx context.Context, userID, id int) error {
	return s.repo.Delete(ctx, userID, id)
}

// parse turns the raw form into a workout or models.ValidationErrors
func (s *workoutService) parse(form models.WorkoutForm) (*models.Workout, error) {
	errs := models.ValidationErrors{}
	input := &models.WorkoutInput{
		Date:      strings.TrimSpace(form.Date),
		Type:      strings.TrimSpace(form.Type),
		Intensity: 1,
		Notes:     strings.TrimSpace(form.Notes),
	}

	if raw := strings.TrimSpace(form.DurationMin); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.validator.Invalid(errs, input, "DurationMin")
		}
		input.DurationMin = n
	}
	if raw := strings.TrimSpace(form.Intensity); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.validator.Invalid(errs, input, "Intensity")
		}
		input.Intensity = n
	}
	calories, err := parseOptionalInt(form.Calories)
	if err != nil {
		s.validator.Invalid(errs, input, "Calories")
	}
	input.Calories = calories

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

	return &models.Workout{
		Date:        date,
		Type:        input.Type,
		DurationMin: input.DurationMin,
		Intensity:   input.Intensity,
		Calories:    input.Calories,
		Notes:       input.Notes,
	}, nil
}

// Search parses the search form and returns the owner's matching workouts
func (s *workoutService) Search(ctx context.Context, userID int, form models.WorkoutSearchForm) ([]models.Workout, error) {
	filter, err := s.parseSearch(form)
	if err != nil {
		return nil, err
	}

	workouts, err := s.repo.Search(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search workouts: %w", err)
	}

	return workouts, nil
}

func (s *workoutService) parseSearch(form models.WorkoutSearchForm) (models.WorkoutFilter, error) {
	errs := models.ValidationErrors{}
	input := &models.WorkoutSearchInput{
		DateFrom: strings.TrimSpace(form.DateFrom),
		DateTo:   strings.TrimSpace(form.DateTo),
	}
	minDuration, err := parseOptionalInt(form.MinDuration)
	if err != nil {
		s.validator.Invalid(errs, input, "MinDuration")
	}
	input.MinDuration = minDuration

	if err := s.validator.Validate(input, errs); err != nil {
		return models.WorkoutFilter{}, err
	}
	if len(errs) > 0 {
		return models.WorkoutFilter{}, errs
	}

	filter := models.WorkoutFilter{
		Query:       strings.TrimSpace(form.Query),
		MinDuration: input.MinDuration,
	}
	if input.DateFrom != "" {
		from, _ := time.Parse(models.DateLayout, input.DateFrom)
		filter.DateFrom = &from
	}
	if input.DateTo != "" {
		to, _ := time.Parse(models.DateLayout, input.DateTo)
		filter.DateTo = &to
	}

	return filter, nil
}
