package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/healthtracker/backend/internal/models"
)

// mockSessionStore is an in-memory session manager serving both the gate and the handlers
type mockSessionStore struct {
	sessions   map[string]*models.Session
	resolveErr error
	next       int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: map[string]*models.Session{}}
}

func (m *mockSessionStore) create(user *models.UserSnapshot, flash *models.Flash) *models.Session {
	m.next++
	session := &models.Session{
		Token:     fmt.Sprintf("token-%d", m.next),
		User:      user,
		Flash:     flash,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(2 * time.Hour),
	}
	m.sessions[session.Token] = session
	return session
}

func (m *mockSessionStore) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	session, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	// hand out a copy, like a fresh read from the store
	cp := *session
	return &cp, nil
}

func (m *mockSessionStore) SetFlash(ctx context.Context, token string, flash models.Flash) error {
	session, ok := m.sessions[token]
	if !ok {
		return models.ErrNotFound
	}
	session.Flash = &flash
	return nil
}

func (m *mockSessionStore) TakeFlash(ctx context.Context, token string) (*models.Flash, error) {
	session, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	flash := session.Flash
	session.Flash = nil
	return flash, nil
}

func (m *mockSessionStore) AddFlash(ctx context.Context, current *models.Session, flash models.Flash) (*models.Session, bool, error) {
	if current != nil {
		if err := m.SetFlash(ctx, current.Token, flash); err == nil {
			return current, false, nil
		}
	}
	return m.create(nil, &flash), true, nil
}

// mockAuthService is a mock implementation of AuthService
type mockAuthService struct {
	registerErr   error
	loginErr      error
	loginUser     *models.UserSnapshot
	deleteErr     error
	sessions      *mockSessionStore
	loginRequests []*models.LoginRequest
	loginMeta     []models.LoginMeta
	deleted       []int
	loggedOut     []string
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &models.User{ID: 10, Username: req.Username, Email: req.Email, Role: models.RoleUser, IsActive: true}, nil
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest, meta models.LoginMeta, current *models.Session) (*models.Session, error) {
	m.loginRequests = append(m.loginRequests, req)
	m.loginMeta = append(m.loginMeta, meta)
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	if current != nil {
		delete(m.sessions.sessions, current.Token)
	}
	return m.sessions.create(m.loginUser, nil), nil
}

func (m *mockAuthService) Logout(ctx context.Context, current *models.Session) error {
	if current != nil {
		m.loggedOut = append(m.loggedOut, current.Token)
		delete(m.sessions.sessions, current.Token)
	}
	return nil
}

func (m *mockAuthService) DeleteAccount(ctx context.Context, current *models.Session, password string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, current.User.ID)
	delete(m.sessions.sessions, current.Token)
	return nil
}

// mockWorkoutService is an owner-scoped mock of WorkoutService and WorkoutSearcher
type mockWorkoutService struct {
	workouts  map[int]*models.Workout
	formErr   error
	searchErr error
	listErr   error
	created   []models.WorkoutForm
	searched  []models.WorkoutSearchForm
	listPages []int
}

func newMockWorkoutService() *mockWorkoutService {
	return &mockWorkoutService{workouts: map[int]*models.Workout{}}
}

func (m *mockWorkoutService) owned(userID, id int) (*models.Workout, error) {
	w, ok := m.workouts[id]
	if !ok || w.UserID != userID {
		return nil, models.ErrNotFound
	}
	return w, nil
}

func (m *mockWorkoutService) List(ctx context.Context, userID, page int) ([]models.Workout, models.Page, error) {
	m.listPages = append(m.listPages, page)
	if m.listErr != nil {
		return nil, models.Page{}, m.listErr
	}
	var list []models.Workout
	for _, w := range m.workouts {
		if w.UserID == userID {
			list = append(list, *w)
		}
	}
	return list, models.NewPage(page, 10, len(list)), nil
}

func (m *mockWorkoutService) Get(ctx context.Context, userID, id int) (*models.Workout, error) {
	return m.owned(userID, id)
}

func (m *mockWorkoutService) Create(ctx context.Context, userID int, form models.WorkoutForm) (*models.Workout, error) {
	if m.formErr != nil {
		return nil, m.formErr
	}
	m.created = append(m.created, form)
	w := &models.Workout{ID: len(m.workouts) + 100, UserID: userID, Type: form.Type}
	m.workouts[w.ID] = w
	return w, nil
}

func (m *mockWorkoutService) Update(ctx context.Context, userID, id int, form models.WorkoutForm) (*models.Workout, error) {
	if m.formErr != nil {
		return nil, m.formErr
	}
	w, err := m.owned(userID, id)
	if err != nil {
		return nil, err
	}
	w.Type = form.Type
	return w, nil
}

func (m *mockWorkoutService) Delete(ctx context.Context, userID, id int) error {
	if _, err := m.owned(userID, id); err != nil {
		return err
	}
	delete(m.workouts, id)
	return nil
}

func (m *mockWorkoutService) Search(ctx context.Context, userID int, form models.WorkoutSearchForm) ([]models.Workout, error) {
	m.searched = append(m.searched, form)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var list []models.Workout
	for _, w := range m.workouts {
		if w.UserID == userID {
			list = append(list, *w)
		}
	}
	return list, nil
}

// mockMetricService is an owner-scoped mock of MetricService
type mockMetricService struct {
	metrics map[int]*models.Metric
	formErr error
}

func newMockMetricService() *mockMetricService {
	return &mockMetricService{metrics: map[int]*models.Metric{}}
}

func (m *mockMetricService) owned(userID, id int) (*models.Metric, error) {
	metric, ok := m.metrics[id]
	if !ok || metric.UserID != userID {
		return nil, models.ErrNotFound
	}
	return metric, nil
}

func (m *mockMetricService) List(ctx context.Context, userID int) ([]models.Metric, error) {
	var list []models.Metric
	for _, metric := range m.metrics {
		if metric.UserID == userID {
			list = append(list, *metric)
		}
	}
	return list, nil
}

func (m *mockMetricService) Get(ctx context.Context, userID, id int) (*models.Metric, error) {
	return m.owned(userID, id)
}

func (m *mockMetricService) Create(ctx context.Context, userID int, form models.MetricForm) (*models.Metric, error) {
	if m.formErr != nil {
		return nil, m.formErr
	}
	metric := &models.Metric{ID: len(m.metrics) + 100, UserID: userID}
	m.metrics[metric.ID] = metric
	return metric, nil
}

func (m *mockMetricService) Update(ctx context.Context, userID, id int, form models.MetricForm) (*models.Metric, error) {
	if m.formErr != nil {
		return nil, m.formErr
	}
	return m.owned(userID, id)
}

func (m *mockMetricService) Delete(ctx context.Context, userID, id int) error {
	if _, err := m.owned(userID, id); err != nil {
		return err
	}
	delete(m.metrics, id)
	return nil
}

// mockStatsService is a mock implementation of StatsService
type mockStatsService struct {
	home      *models.WeeklyWorkoutStats
	dashboard *models.Dashboard
	err       error
	users     []int
}

func (m *mockStatsService) HomeStats(ctx context.Context, userID int) (*models.WeeklyWorkoutStats, error) {
	m.users = append(m.users, userID)
	return m.home, m.err
}

func (m *mockStatsService) Dashboard(ctx context.Context, userID int) (*models.Dashboard, error) {
	m.users = append(m.users, userID)
	return m.dashboard, m.err
}

// mockAdminService is a mock implementation of AdminService
type mockAdminService struct {
	overview  *models.AdminOverview
	users     map[int]*models.User
	changeErr error
	toggleErr error
}

func (m *mockAdminService) Overview(ctx context.Context) (*models.AdminOverview, error) {
	return m.overview, nil
}

func (m *mockAdminService) ChangeRole(ctx context.Context, actor *models.UserSnapshot, targetID int, rawRole string) (*models.User, error) {
	if m.changeErr != nil {
		return nil, m.changeErr
	}
	user, ok := m.users[targetID]
	if !ok {
		return nil, models.ErrNotFound
	}
	user.Role = models.Role(rawRole)
	return user, nil
}

func (m *mockAdminService) ToggleActive(ctx context.Context, actor *models.UserSnapshot, targetID int) (*models.User, error) {
	if m.toggleErr != nil {
		return nil, m.toggleErr
	}
	user, ok := m.users[targetID]
	if !ok {
		return nil, models.ErrNotFound
	}
	user.IsActive = !user.IsActive
	return user, nil
}

// mockAuditService is a mock implementation of LoginAuditService
type mockAuditService struct {
	attempts []models.LoginAttempt
	pages    []int
}

func (m *mockAuditService) ListRecent(ctx context.Context, page int) ([]models.LoginAttempt, models.Page, error) {
	m.pages = append(m.pages, page)
	return m.attempts, models.NewPage(page, 50, len(m.attempts)), nil
}

// mockWeatherService is a mock implementation of WeatherService
type mockWeatherService struct {
	weather *models.Weather
	err     error
	cities  []string
}

func (m *mockWeatherService) Current(ctx context.Context, city string) (*models.Weather, error) {
	m.cities = append(m.cities, city)
	return m.weather, m.err
}

// mockSessionPurger is a mock implementation of SessionPurger
type mockSessionPurger struct {
	count int
	err   error
	calls int
}

func (m *mockSessionPurger) DeleteExpired(ctx context.Context) (int, error) {
	m.calls++
	return m.count, m.err
}
