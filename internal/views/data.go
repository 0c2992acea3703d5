package views

import "github.com/healthtracker/backend/internal/models"

// HomeData feeds the home page. Stats is nil for anonymous visitors.
type HomeData struct {
	Stats *models.WeeklyWorkoutStats
}

// LoginData echoes the submitted identifier; the password is never echoed
type LoginData struct {
	Identifier string
}

// RegisterData echoes the submitted username and email
type RegisterData struct {
	Username string
	Email    string
}

// WorkoutListData feeds the workout list
type WorkoutListData struct {
	Workouts []models.Workout
	Page     models.Page
}

// WorkoutFormData feeds the add and edit workout forms
type WorkoutFormData struct {
	Action string
	Submit string
	Form   models.WorkoutForm
}

// MetricListData feeds the metric list
type MetricListData struct {
	Metrics []models.Metric
}

// MetricFormData feeds the add and edit metric forms
type MetricFormData struct {
	Action string
	Submit string
	Form   models.MetricForm
}

// SearchData feeds the search form and its results
type SearchData struct {
	Form    models.WorkoutSearchForm
	Results []models.Workout
}

// WeatherData feeds the weather page. Error holds a user facing message.
type WeatherData struct {
	City    string
	Weather *models.Weather
	Error   string
}

// LoginAuditData feeds the login audit page
type LoginAuditData struct {
	Attempts []models.LoginAttempt
	Page     models.Page
}
