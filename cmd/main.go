package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/healthtracker/backend/internal/config"
	"github.com/healthtracker/backend/internal/handlers"
	"github.com/healthtracker/backend/internal/logger"
	"github.com/healthtracker/backend/internal/middleware"
	"github.com/healthtracker/backend/internal/repositories"
	"github.com/healthtracker/backend/internal/services"
	"github.com/healthtracker/backend/internal/views"
	"github.com/healthtracker/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Health Tracker")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	sessionRepo := repositories.NewSessionRepository(db)
	auditRepo := repositories.NewLoginAuditRepository(db)
	workoutRepo := repositories.NewWorkoutRepository(db, logger.Logger)
	metricRepo := repositories.NewMetricRepository(db, logger.Logger)
	statsRepo := repositories.NewStatsRepository(db, logger.Logger)

	// Initialize services
	validator := services.NewFormValidator()
	passwords := services.NewPasswordHasher(0)
	sessionService := services.NewSessionService(sessionRepo, cfg.Session.TTL, logger.Logger)
	auditService := services.NewAuditService(auditRepo, logger.Logger)
	authService := services.NewAuthService(userRepo, passwords, sessionService, auditService, validator, logger.Logger)
	workoutService := services.NewWorkoutService(workoutRepo, validator, logger.Logger)
	metricService := services.NewMetricService(metricRepo, validator, logger.Logger)
	dashboardService := services.NewDashboardService(statsRepo, logger.Logger)
	adminService := services.NewAdminService(userRepo, statsRepo, sessionService, logger.Logger)
	var weatherService handlers.WeatherService = services.NewWeatherService(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.Timeout, logger.Logger)

	// Connect to Redis when a weather cache is configured
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		weatherService = services.NewCachedWeatherService(weatherService, rdb, cfg.Weather.CacheTTL, logger.Logger)
	}

	if cfg.Admin.Username != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		cancel()
		if err != nil {
			logger.Logger.Fatal("Failed to bootstrap admin account", zap.Error(err))
		}
	}

	// Initialize views
	renderer, err := views.New()
	if err != nil {
		logger.Logger.Fatal("Failed to parse templates", zap.Error(err))
	}

	cookies := middleware.NewSessionCookies(cfg.Session.CookieName, cfg.Session.CookieSecure)
	base := handlers.NewBaseHandler(renderer, sessionService, cookies, logger.Logger)
	gate := middleware.NewGate(sessionService, cookies, &base, logger.Logger)

	// Setup router
	r := handlers.NewRouter(handlers.RouterConfig{
		Base:              base,
		Gate:              gate,
		Auth:              authService,
		Workouts:          workoutService,
		Searcher:          workoutService,
		Metrics:           metricService,
		Stats:             dashboardService,
		Admin:             adminService,
		Audit:             auditService,
		Weather:           weatherService,
		Purger:            sessionService,
		APIKey:            cfg.APIKey,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		AuthRateLimit:     httprate.LimitByIP(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow),
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations applies the embedded migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
