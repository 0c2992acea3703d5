package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/healthtracker/backend/internal/models"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type weatherService struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewWeatherService creates a client of the OpenWeatherMap current weather endpoint.
// An empty apiKey is allowed; every lookup then fails with models.WeatherNoAPIKey.
func NewWeatherService(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *weatherService {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &weatherService{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Current returns the current weather of a city.
// Every failure is a *models.WeatherError carrying its kind.
func (s *weatherService) Current(ctx context.Context, city string) (*models.Weather, error) {
	if s.apiKey == "" {
		return nil, &models.WeatherError{Kind: models.WeatherNoAPIKey}
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     strings.TrimSpace(city),
			"appid": s.apiKey,
			"units": "metric",
		}).
		Get(s.baseURL)
	if err != nil {
		s.logger.Warn("weather request failed", zap.Error(err), zap.String("city", city))
		return nil, &models.WeatherError{Kind: models.WeatherNetwork, Err: err}
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, &models.WeatherError{Kind: models.WeatherCityNotFound}
	}
	if !resp.IsSuccess() {
		s.logger.Warn("weather api error", zap.Int("status", resp.StatusCode()), zap.String("city", city))
		return nil, &models.WeatherError{
			Kind: models.WeatherAPIError,
			Err:  fmt.Errorf("status %d", resp.StatusCode()),
		}
	}

	weather, err := parseWeather(resp.Body())
	if err != nil {
		s.logger.Warn("weather response unreadable", zap.Error(err))
		return nil, &models.WeatherError{Kind: models.WeatherBadResponse, Err: err}
	}

	return weather, nil
}

func parseWeather(body []byte) (*models.Weather, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid json")
	}

	fields := gjson.GetManyBytes(body,
		"name",
		"sys.country",
		"main.temp",
		"main.feels_like",
		"main.humidity",
		"wind.speed",
		"weather.0.description",
	)
	if !fields[0].Exists() || !fields[2].Exists() {
		return nil, fmt.Errorf("missing city name or temperature")
	}

	return &models.Weather{
		CityName:    fields[0].String(),
		Country:     fields[1].String(),
		Temp:        fields[2].Float(),
		FeelsLike:   fields[3].Float(),
		Humidity:    int(fields[4].Int()),
		WindSpeed:   fields[5].Float(),
		Description: fields[6].String(),
	}, nil
}
