package models

// WeeklyWorkoutStats aggregates the last seven days of workouts
type WeeklyWorkoutStats struct {
	WorkoutCount int
	TotalMinutes int
	AvgIntensity float64
}

// WeeklyMetricStats aggregates the last seven days of metrics
type WeeklyMetricStats struct {
	AvgWeight float64
	AvgSteps  float64
}

// Dashboard is the data shown on the dashboard page
type Dashboard struct {
	Workouts WeeklyWorkoutStats
	Metrics  WeeklyMetricStats
}

// TopUser is a user ranked by workout count
type TopUser struct {
	Username string
	Workouts int
}

// AdminOverview is the data shown on the admin page
type AdminOverview struct {
	UserCount    int
	WorkoutCount int
	MetricCount  int
	TopUsers     []TopUser
	Users        []User
}
