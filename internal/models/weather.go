package models

import "fmt"

// Weather is the normalised current weather for a city
type Weather struct {
	CityName    string
	Country     string
	Temp        float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
	Description string
}

// WeatherErrorKind classifies upstream weather failures
type WeatherErrorKind string

// WeatherErrorKind constants
const (
	WeatherNoAPIKey     WeatherErrorKind = "no_api_key"
	WeatherCityNotFound WeatherErrorKind = "city_not_found"
	WeatherNetwork      WeatherErrorKind = "network_error"
	WeatherAPIError     WeatherErrorKind = "api_error"
	WeatherBadResponse  WeatherErrorKind = "bad_response"
)

// WeatherError is returned by the weather service for every known failure
type WeatherError struct {
	Kind WeatherErrorKind
	Err  error
}

func (e *WeatherError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("weather %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("weather %s", e.Kind)
}

func (e *WeatherError) Unwrap() error {
	return e.Err
}
