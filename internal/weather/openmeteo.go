package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"city-ambience/internal/geo"
	"city-ambience/internal/upstream"
)

const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// Locator resolves a city to coordinates; *geo.Geocoder satisfies it.
type Locator interface {
	Resolve(ctx context.Context, name, country string) (geo.Coordinate, error)
}

// OpenMeteoClient needs no API key; it geocodes the city first.
type OpenMeteoClient struct {
	locator Locator
	baseURL string
	client  *http.Client
}

func NewOpenMeteoClient(locator Locator, baseURL string, timeout time.Duration) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoClient{
		locator: locator,
		baseURL: baseURL,
		client:  upstream.NewHTTPClient(timeout),
	}
}

type openMeteoResponse struct {
	Current *struct {
		Time                string   `json:"time"`
		Temperature         *float64 `json:"temperature_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		RelativeHumidity    *float64 `json:"relative_humidity_2m"`
		WindSpeed           *float64 `json:"wind_speed_10m"`
		SurfacePressure     *float64 `json:"surface_pressure"`
		WeatherCode         int      `json:"weather_code"`
	} `json:"current"`
}

func (c *OpenMeteoClient) Get(ctx context.Context, city string) (*Report, error) {
	coord, err := c.locator.Resolve(ctx, city, "")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.6f", coord.Latitude))
	query.Set("longitude", fmt.Sprintf("%.6f", coord.Longitude))
	query.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,surface_pressure,weather_code")
	query.Set("wind_speed_unit", "ms")
	query.Set("timezone", "auto")

	var payload openMeteoResponse
	if err := upstream.GetJSON(ctx, c.client, "open-meteo", c.baseURL+"?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	cur := payload.Current
	if cur == nil || cur.Temperature == nil || cur.ApparentTemperature == nil ||
		cur.RelativeHumidity == nil || cur.WindSpeed == nil || cur.SurfacePressure == nil {
		return nil, fmt.Errorf("open-meteo current data missing: %w", upstream.ErrMalformed)
	}

	return &Report{
		City:        city,
		Temperature: *cur.Temperature,
		FeelsLike:   *cur.ApparentTemperature,
		Weather:     describeCode(cur.WeatherCode),
		Humidity:    *cur.RelativeHumidity,
		WindSpeed:   *cur.WindSpeed,
		Pressure:    HPaToMmHg(*cur.SurfacePressure),
	}, nil
}

// describeCode maps WMO weather codes to Russian descriptions, matching
// the language OpenWeatherMap is queried in.
func describeCode(code int) string {
	switch code {
	case 0:
		return "ясно"
	case 1:
		return "преимущественно ясно"
	case 2:
		return "переменная облачность"
	case 3:
		return "пасмурно"
	case 45, 48:
		return "туман"
	case 51, 53, 55, 56, 57:
		return "морось"
	case 61, 63, 65, 66, 67:
		return "дождь"
	case 71, 73, 75, 77:
		return "снег"
	case 80, 81, 82:
		return "ливень"
	case 85, 86:
		return "снегопад"
	case 95:
		return "гроза"
	case 96, 99:
		return "гроза с градом"
	default:
		return "неизвестно"
	}
}
