package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/healthtracker/backend/internal/models"
	"github.com/healthtracker/backend/internal/views"
	"go.uber.org/zap"
)

// WeatherService is the interface that wraps the current weather lookup.
type WeatherService interface {
	// Method Current returns the current weather of a city.
	//
	// Known failures are returned as *models.WeatherError.
	Current(ctx context.Context, city string) (*models.Weather, error)
}

// WeatherHandler handles the weather page
type WeatherHandler struct {
	BaseHandler
	weatherService WeatherService
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(base BaseHandler, weatherService WeatherService) *WeatherHandler {
	return &WeatherHandler{
		BaseHandler:    base,
		weatherService: weatherService,
	}
}

// RegisterRoutes registers the weather route
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/weather", h.Show)
}

// Show handles GET /weather?city=...
// Upstream failures are shown as a message on the page, the status stays 200.
func (h *WeatherHandler) Show(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	data := views.WeatherData{City: city}

	if city != "" {
		weather, err := h.weatherService.Current(r.Context(), city)
		if err != nil {
			h.Logger.Warn("weather lookup failed", zap.Error(err), zap.String("city", city))
			data.Error = weatherMessage(err, city)
		}
		data.Weather = weather
	}

	h.render(w, r, http.StatusOK, "weather", views.Page{Title: "Weather", Data: data})
}

func weatherMessage(err error, city string) string {
	var werr *models.WeatherError
	if !errors.As(err, &werr) {
		return "Unable to load weather right now. Please try again."
	}

	switch werr.Kind {
	case models.WeatherNoAPIKey:
		return "Weather is not configured (OPENWEATHER_API_KEY is missing). Please add an API key in .env to enable this feature."
	case models.WeatherCityNotFound:
		return fmt.Sprintf("No weather data found for \"%s\". Please check the spelling and try again.", city)
	case models.WeatherNetwork:
		return "Cannot reach the weather service. Please check your connection and try again."
	default:
		return "Unable to load weather right now. Please try again."
	}
}
