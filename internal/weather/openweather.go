package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"city-ambience/internal/upstream"
)

const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

type OpenWeatherClient struct {
	apiKey   string
	baseURL  string
	units    string
	language string
	client   *http.Client
}

func NewOpenWeatherClient(apiKey, baseURL, units, language string, timeout time.Duration) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	if units == "" {
		units = "metric"
	}
	if language == "" {
		language = "ru"
	}
	return &OpenWeatherClient{
		apiKey:   apiKey,
		baseURL:  baseURL,
		units:    units,
		language: language,
		client:   upstream.NewHTTPClient(timeout),
	}
}

type openWeatherResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
		Pressure  *float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

func (c *OpenWeatherClient) Get(ctx context.Context, city string) (*Report, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is empty: %w", upstream.ErrUnavailable)
	}

	name := upstream.NormalizeCity(city)
	if name == "" {
		return nil, fmt.Errorf("openweather location is empty: %w", upstream.ErrNotFound)
	}

	query := url.Values{}
	query.Set("q", name)
	query.Set("appid", c.apiKey)
	query.Set("units", c.units)
	query.Set("lang", c.language)

	var payload openWeatherResponse
	if err := upstream.GetJSON(ctx, c.client, "openweather", c.baseURL+"?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	m := payload.Main
	if m.Temp == nil || m.FeelsLike == nil || m.Humidity == nil || m.Pressure == nil {
		return nil, fmt.Errorf("openweather main data missing: %w", upstream.ErrMalformed)
	}
	if len(payload.Weather) == 0 || payload.Wind.Speed == nil {
		return nil, fmt.Errorf("openweather conditions missing: %w", upstream.ErrMalformed)
	}

	return &Report{
		City:        city,
		Temperature: *m.Temp,
		FeelsLike:   *m.FeelsLike,
		Weather:     payload.Weather[0].Description,
		Humidity:    *m.Humidity,
		WindSpeed:   *payload.Wind.Speed,
		Pressure:    HPaToMmHg(*m.Pressure),
	}, nil
}
