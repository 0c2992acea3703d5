package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthtracker/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockWorkoutRepository is an owner-scoped in-memory implementation of WorkoutRepository
type mockWorkoutRepository struct {
	workouts   map[int]*models.Workout
	nextID     int
	err        error
	lastFilter models.WorkoutFilter
	lastLimit  int
	lastOffset int
}

func newMockWorkoutRepository(workouts ...models.Workout) *mockWorkoutRepository {
	m := &mockWorkoutRepository{workouts: map[int]*models.Workout{}, nextID: 1}
	for i := range workouts {
		w := workouts[i]
		m.workouts[w.ID] = &w
		if w.ID >= m.nextID {
			m.nextID = w.ID + 1
		}
	}
	return m
}

func (m *mockWorkoutRepository) Create(ctx context.Context, workout *models.Workout) error {
	if m.err != nil {
		return m.err
	}
	workout.ID = m.nextID
	m.nextID++
	stored := *workout
	m.workouts[workout.ID] = &stored
	return nil
}

func (m *mockWorkoutRepository) GetByID(ctx context.Context, userID, id int) (*models.Workout, error) {
	if m.err != nil {
		return nil, m.err
	}
	w, ok := m.workouts[id]
	if !ok || w.UserID != userID {
		return nil, models.ErrNotFound
	}
	found := *w
	return &found, nil
}

func (m *mockWorkoutRepository) Update(ctx context.Context, userID int, workout *models.Workout) error {
	if m.err != nil {
		return m.err
	}
	w, ok := m.workouts[workout.ID]
	if !ok || w.UserID != userID {
		return models.ErrNotFound
	}
	stored := *workout
	m.workouts[workout.ID] = &stored
	return nil
}

func (m *mockWorkoutRepository) Delete(ctx context.Context, userID, id int) error {
	if m.err != nil {
		return m.err
	}
	w, ok := m.workouts[id]
	if !ok || w.UserID != userID {
		return models.ErrNotFound
	}
	delete(m.workouts, id)
	return nil
}

func (m *mockWorkoutRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	count := 0
	for _, w := range m.workouts {
		if w.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockWorkoutRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]models.Workout, error) {
	m.lastLimit, m.lastOffset = limit, offset
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Workout
	for _, w := range m.workouts {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (m *mockWorkoutRepository) Search(ctx context.Context, userID int, filter models.WorkoutFilter) ([]models.Workout, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.ListByUser(ctx, userID, 0, 0)
}

func setupWorkoutService(repo *mockWorkoutRepository) *workoutService {
	return NewWorkoutService(repo, NewFormValidator(), zap.NewNop())
}

func TestWorkoutService_Create(t *testing.T) {
	tests := []struct {
		name           string
		form           models.WorkoutForm
		repoErr        error
		expectedFields map[string]string
		expectedError  bool
		check          func(*testing.T, *models.Workout)
	}{
		{
			name: "full form",
			form: models.WorkoutForm{Date: "2024-03-01", Type: " Run ", DurationMin: "30", Intensity: "4", Calories: "300", Notes: " tempo "},
			check: func(t *testing.T, w *models.Workout) {
				assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), w.Date)
				assert.Equal(t, "Run", w.Type)
				assert.Equal(t, 30, w.DurationMin)
				assert.Equal(t, 4, w.Intensity)
				require.NotNil(t, w.Calories)
				assert.Equal(t, 300, *w.Calories)
				assert.Equal(t, "tempo", w.Notes)
				assert.Equal(t, 7, w.UserID)
			},
		},
		{
			name: "intensity defaults to 1 and calories are optional",
			form: models.WorkoutForm{Date: "2024-03-01", Type: "Yoga", DurationMin: "60"},
			check: func(t *testing.T, w *models.Workout) {
				assert.Equal(t, 1, w.Intensity)
				assert.Nil(t, w.Calories)
			},
		},
		{
			name: "missing required fields",
			form: models.WorkoutForm{},
			expectedFields: map[string]string{
				"date":         "Date is required (YYYY-MM-DD).",
				"type":         "Type is required.",
				"duration_min": "Duration must be a positive number of minutes (at most 1440).",
			},
		},
		{
			name: "non-numeric values",
			form: models.WorkoutForm{Date: "2024-03-01", Type: "Run", DurationMin: "half an hour", Intensity: "high", Calories: "lots"},
			expectedFields: map[string]string{
				"duration_min": "Duration must be a positive number of minutes (at most 1440).",
				"intensity":    "Intensity must be between 1 and 5.",
				"calories":     "Calories must be a number.",
			},
		},
		{
			name: "out of range values",
			form: models.WorkoutForm{Date: "01/03/2024", Type: "Run", DurationMin: "-5", Intensity: "9", Calories: "-1"},
			expectedFields: map[string]string{
				"date":         "Date is required (YYYY-MM-DD).",
				"duration_min": "Duration must be a positive number of minutes (at most 1440).",
				"intensity":    "Intensity must be between 1 and 5.",
				"calories":     "Calories must be at least 0.",
			},
		},
		{
			name:          "store failure",
			form:          models.WorkoutForm{Date: "2024-03-01", Type: "Run", DurationMin: "30"},
			repoErr:       errors.New("database error"),
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockWorkoutRepository()
			repo.err = tt.repoErr
			svc := setupWorkoutService(repo)

			workout, err := svc.Create(context.Background(), 7, tt.form)

			switch {
			case tt.expectedFields != nil:
				errs, ok := models.AsValidationErrors(err)
				require.True(t, ok, "expected validation errors, got %v", err)
				assert.Equal(t, models.ValidationErrors(tt.expectedFields), errs)
				assert.Empty(t, repo.workouts)
			case tt.expectedError:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				require.Contains(t, repo.workouts, workout.ID)
				tt.check(t, workout)
			}
		})
	}
}

func TestWorkoutService_OwnerScope(t *testing.T) {
	repo := newMockWorkoutRepository(models.Workout{ID: 5, UserID: 1, Type: "Run", DurationMin: 30, Intensity: 2})
	svc := setupWorkoutService(repo)
	ctx := context.Background()
	form := models.WorkoutForm{Date: "2024-03-01", Type: "Hijack", DurationMin: "1"}

	_, err := svc.Get(ctx, 2, 5)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Update(ctx, 2, 5, form)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = svc.Delete(ctx, 2, 5)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Equal(t, "Run", repo.workouts[5].Type, "row must be unchanged")

	updated, err := svc.Update(ctx, 1, 5, form)
	require.NoError(t, err)
	assert.Equal(t, "Hijack", updated.Type)
	assert.NoError(t, svc.Delete(ctx, 1, 5))
	assert.Empty(t, repo.workouts)
}

func TestWorkoutService_List(t *testing.T) {
	var workouts []models.Workout
	for i := 1; i <= 23; i++ {
		workouts = append(workouts, models.Workout{ID: i, UserID: 1})
	}
	repo := newMockWorkoutRepository(workouts...)
	svc := setupWorkoutService(repo)

	_, page, err := svc.List(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 10, repo.lastLimit)
	assert.Equal(t, 20, repo.lastOffset)

	_, page, err = svc.List(context.Background(), 1, -4)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 0, repo.lastOffset)

	repo.err = errors.New("database error")
	_, _, err = svc.List(context.Background(), 1, 1)
	assert.Error(t, err)
}

func TestWorkoutService_Search(t *testing.T) {
	tests := []struct {
		name           string
		form           models.WorkoutSearchForm
		expectedFilter models.WorkoutFilter
		expectedFields []string
	}{
		{
			name:           "empty form",
			form:           models.WorkoutSearchForm{},
			expectedFilter: models.WorkoutFilter{},
		},
		{
			name: "all criteria",
			form: models.WorkoutSearchForm{Query: " run ", DateFrom: "2024-01-01", DateTo: "2024-01-31", MinDuration: "30"},
			expectedFilter: func() models.WorkoutFilter {
				from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
				to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
				minDuration := 30
				return models.WorkoutFilter{Query: "run", DateFrom: &from, DateTo: &to, MinDuration: &minDuration}
			}(),
		},
		{
			name:           "bad values",
			form:           models.WorkoutSearchForm{DateFrom: "yesterday", MinDuration: "-1"},
			expectedFields: []string{"date_from", "min_duration"},
		},
		{
			name:           "non-numeric duration",
			form:           models.WorkoutSearchForm{MinDuration: "long"},
			expectedFields: []string{"min_duration"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockWorkoutRepository()
			svc := setupWorkoutService(repo)

			_, err := svc.Search(context.Background(), 1, tt.form)

			if tt.expectedFields != nil {
				errs, ok := models.AsValidationErrors(err)
				require.True(t, ok)
				assert.Len(t, errs, len(tt.expectedFields))
				for _, field := range tt.expectedFields {
					assert.Contains(t, errs, field)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedFilter, repo.lastFilter)
		})
	}
}
