package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"city-ambience/internal/upstream"
)

const DefaultOpenMeteoURL = "https://geocoding-api.open-meteo.com/v1/search"

// OpenMeteoSource queries the Open-Meteo geocoding API scoped by country code.
type OpenMeteoSource struct {
	baseURL  string
	language string
	client   *http.Client
}

func NewOpenMeteoSource(baseURL, language string, timeout time.Duration) *OpenMeteoSource {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	if language == "" {
		language = "en"
	}
	return &OpenMeteoSource{
		baseURL:  baseURL,
		language: language,
		client:   upstream.NewHTTPClient(timeout),
	}
}

type openMeteoGeoResponse struct {
	Results []struct {
		Name        string   `json:"name"`
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
		CountryCode string   `json:"country_code"`
	} `json:"results"`
}

func (s *OpenMeteoSource) Lookup(ctx context.Context, name, country string) (Coordinate, error) {
	if strings.TrimSpace(name) == "" {
		return Coordinate{}, fmt.Errorf("open-meteo geocoding location is empty: %w", upstream.ErrNotFound)
	}

	query := url.Values{}
	query.Set("name", name)
	query.Set("count", "1")
	query.Set("language", s.language)
	query.Set("format", "json")
	if strings.TrimSpace(country) != "" {
		query.Set("countryCode", strings.ToUpper(country))
	}

	var payload openMeteoGeoResponse
	if err := upstream.GetJSON(ctx, s.client, "open-meteo geocoding", s.baseURL+"?"+query.Encode(), nil, &payload); err != nil {
		return Coordinate{}, err
	}

	if len(payload.Results) == 0 {
		return Coordinate{}, fmt.Errorf("open-meteo geocoding found no results in %s: %w", country, upstream.ErrNotFound)
	}

	first := payload.Results[0]
	if first.Latitude == nil || first.Longitude == nil {
		return Coordinate{}, fmt.Errorf("open-meteo geocoding coordinates missing: %w", upstream.ErrMalformed)
	}

	return Coordinate{Latitude: *first.Latitude, Longitude: *first.Longitude}, nil
}
