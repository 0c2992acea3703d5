package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/healthtracker/backend/internal/metrics"
	"github.com/healthtracker/backend/internal/middleware"
	"github.com/healthtracker/backend/internal/middlewares"
	"github.com/healthtracker/backend/internal/models"
)

// maxRequestSize caps form posts; no page accepts uploads
const maxRequestSize = 1 << 20

// RouterConfig holds everything the HTTP surface is built from
type RouterConfig struct {
	Base     BaseHandler
	Gate     *middleware.Gate
	Auth     AuthService
	Workouts WorkoutService
	Searcher WorkoutSearcher
	Metrics  MetricService
	Stats    StatsService
	Admin    AdminService
	Audit    LoginAuditService
	Weather  WeatherService
	Purger   SessionPurger
	APIKey   string
	// TrustProxyHeaders rewrites the caller address from X-Forwarded-For / X-Real-IP.
	// When false the socket address is used for the login audit and the rate limit.
	TrustProxyHeaders bool
	// AuthRateLimit guards login and registration
	AuthRateLimit func(http.Handler) http.Handler
}

// NewRouter builds the chi router with the shared middleware stack and every route
func NewRouter(cfg RouterConfig) chi.Router {
	base := cfg.Base
	gate := cfg.Gate

	homeHandler := NewHomeHandler(base, cfg.Stats)
	authHandler := NewAuthHandler(base, cfg.Auth)
	workoutHandler := NewWorkoutHandler(base, cfg.Workouts)
	metricHandler := NewMetricHandler(base, cfg.Metrics)
	searchHandler := NewSearchHandler(base, cfg.Searcher)
	adminHandler := NewAdminHandler(base, cfg.Admin, cfg.Audit)
	weatherHandler := NewWeatherHandler(base, cfg.Weather)
	sessionCleaningHandler := NewSessionCleaningHandler(cfg.Purger, base.Logger)

	rateLimit := cfg.AuthRateLimit
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()

	r.Use(middlewares.RequestID(cfg.TrustProxyHeaders))
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middlewares.LoggerMiddleware(base.Logger))
	r.Use(middlewares.RecoveryMiddleware(base.Logger, base.InternalError))
	r.Use(metrics.InstrumentHandler)
	r.Use(middlewares.FormBodyLimitMiddleware(maxRequestSize, base.RequestTooLarge))
	r.Use(gate.LoadSession)

	r.NotFound(base.NotFound)

	homeHandler.RegisterRoutes(r, gate.RequireAuthenticated)
	authHandler.RegisterRoutes(r, gate.RequireAuthenticated, rateLimit)
	weatherHandler.RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuthenticated)
		workoutHandler.RegisterRoutes(r)
		metricHandler.RegisterRoutes(r)
		searchHandler.RegisterRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(gate.RequireRole(models.RoleAdmin))
		adminHandler.RegisterRoutes(r)
	})

	r.Route("/internal", func(r chi.Router) {
		r.Handle("/metrics", metrics.Handler())
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyMiddleware(cfg.APIKey))
			sessionCleaningHandler.RegisterRoutes(r)
		})
	})

	return r
}
