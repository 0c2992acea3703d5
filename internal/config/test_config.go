package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration from the .env file or environment variables for integration tests
// If .env file doesn't exist or environment variables are not set, returns a Config with empty database values
// which tells the integration suite to skip
func LoadTestConfig() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{
		Session: SessionConfig{
			CookieName: defaultCookieName,
			TTL:        2 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			AuthRequests: 1000,
			AuthWindow:   time.Minute,
		},
		Weather: WeatherConfig{
			BaseURL: defaultWeatherBaseURL,
			Timeout: time.Second,
		},
		APIKey: os.Getenv("TEST_API_KEY"),
	}

	dbHost := os.Getenv("TEST_DB_HOST")
	if dbHost == "" {
		return cfg, nil
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("TEST_DB_PORT")
	if dbPortStr == "" {
		return cfg, nil
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("TEST_DB_USER")
	if dbUser == "" {
		return cfg, nil
	}
	cfg.Database.User = dbUser

	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")

	dbName := os.Getenv("TEST_DB_NAME")
	if dbName == "" {
		return cfg, nil
	}
	cfg.Database.DBName = dbName

	return cfg, nil
}

// HasDatabase reports whether database settings are present
func (c *Config) HasDatabase() bool {
	return c.Database.Host != "" && c.Database.Port != 0 && c.Database.User != "" && c.Database.DBName != ""
}
