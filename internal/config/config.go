// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Logging   LoggingConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Weather   WeatherConfig
	Admin     AdminConfig
	Redis     RedisConfig
	APIKey    string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
	// TrustProxyHeaders takes the caller address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// SessionConfig holds session cookie settings
type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	TTL          time.Duration
}

// RateLimitConfig holds the limits applied to the /auth routes
type RateLimitConfig struct {
	AuthRequests int
	AuthWindow   time.Duration
}

// WeatherConfig holds OpenWeatherMap settings
type WeatherConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RedisConfig holds the optional Redis connection used as the weather cache.
// When Host is empty the weather lookups are not cached.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AdminConfig holds the optional bootstrap administrator account.
// When Username is empty no account is bootstrapped.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

const (
	defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	defaultCookieName     = "health_app_sid"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPort, err := intFromEnv("SERVER_PORT", 3000)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort
	if cfg.Server.TrustProxyHeaders, err = boolFromEnv("TRUST_PROXY_HEADERS", false); err != nil {
		return nil, err
	}

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// Session configuration
	cfg.Session.CookieName = os.Getenv("SESSION_COOKIE_NAME")
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = defaultCookieName
	}
	if cfg.Session.CookieSecure, err = boolFromEnv("SESSION_COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	// Sessions expire two hours after login, regardless of activity
	if cfg.Session.TTL, err = durationFromEnv("SESSION_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}

	// Rate limit for login and registration (default: 100 requests per 15 minutes per IP)
	if cfg.RateLimit.AuthRequests, err = intFromEnv("AUTH_RATE_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimit.AuthWindow, err = durationFromEnv("AUTH_RATE_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}

	// API Key configuration (optional, protects internal maintenance endpoints)
	cfg.APIKey = os.Getenv("API_KEY")

	// Weather configuration (optional, the page explains a missing key)
	cfg.Weather.APIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.Weather.BaseURL = os.Getenv("WEATHER_BASE_API")
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = defaultWeatherBaseURL
	}
	if cfg.Weather.Timeout, err = durationFromEnv("WEATHER_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Weather.CacheTTL, err = durationFromEnv("WEATHER_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	// Redis configuration (optional)
	cfg.Redis.Host = os.Getenv("REDIS_HOST")
	if cfg.Redis.Port, err = intFromEnv("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = intFromEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// Bootstrap admin (optional)
	cfg.Admin.Username = os.Getenv("ADMIN_USERNAME")
	cfg.Admin.Email = os.Getenv("ADMIN_EMAIL")
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
	if cfg.Admin.Username != "" && (cfg.Admin.Email == "" || cfg.Admin.Password == "") {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required when ADMIN_USERNAME is set")
	}

	return cfg, nil
}

// DSN returns the database connection string.
// clientFoundRows makes UPDATE report matched rows, so an unchanged owned
// record is not mistaken for a missing one.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

func intFromEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func boolFromEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
