package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

const weatherCachePrefix = "weather:current:"

// WeatherLookup is the interface that wraps the current weather lookup.
type WeatherLookup interface {
	// Method Current returns the current weather of a city.
	//
	// Known failures are returned as *models.WeatherError.
	Current(ctx context.Context, city string) (*models.Weather, error)
}

// RedisCache is the subset of the redis client used by the weather cache
type RedisCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// cachedWeatherService keeps successful lookups in Redis for a short time.
// Failures are never cached, and a broken cache only costs an upstream call.
type cachedWeatherService struct {
	next   WeatherLookup
	client RedisCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedWeatherService wraps a weather lookup with a Redis cache
func NewCachedWeatherService(next WeatherLookup, client RedisCache, ttl time.Duration, logger *zap.Logger) *cachedWeatherService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &cachedWeatherService{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func weatherCacheKey(city string) string {
	return weatherCachePrefix + strings.ToLower(strings.TrimSpace(city))
}

// Current returns the cached weather of a city or asks the wrapped lookup
func (s *cachedWeatherService) Current(ctx context.Context, city string) (*models.Weather, error) {
	key := weatherCacheKey(city)

	cached, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var weather models.Weather
		if err := json.Unmarshal(cached, &weather); err == nil {
			s.logger.Debug("weather cache hit", zap.String("key", key))
			return &weather, nil
		}
		s.logger.Warn("failed to decode cached weather", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("failed to read weather cache", zap.Error(err))
	}

	weather, err := s.next.Current(ctx, city)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(weather)
	if err != nil {
		s.logger.Warn("failed to encode weather for cache", zap.Error(err))
		return weather, nil
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to write weather cache", zap.Error(err))
	}

	return weather, nil
}
