package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"city-ambience/internal/geo"
	"city-ambience/internal/metrics"
	"city-ambience/internal/upstream"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owmBody = `{
	"weather": [{"main": "Clouds", "description": "облачно"}],
	"main": {"temp": 12.5, "feels_like": 10.1, "humidity": 81, "pressure": 1013},
	"wind": {"speed": 4.2}
}`

func openWeatherServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "ru", q.Get("lang"))
		switch q.Get("q") {
		case "New York":
			_, _ = w.Write([]byte(owmBody))
		case "Partial":
			_, _ = w.Write([]byte(`{"main": {"humidity": 50}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenWeatherClient(t *testing.T) {
	srv := openWeatherServer(t)
	c := NewOpenWeatherClient("key", srv.URL, "", "", 0)

	report, err := c.Get(context.Background(), "New-York")
	require.NoError(t, err)
	assert.Equal(t, "New-York", report.City)
	assert.Equal(t, 12.5, report.Temperature)
	assert.Equal(t, 10.1, report.FeelsLike)
	assert.Equal(t, "облачно", report.Weather)
	assert.Equal(t, 81.0, report.Humidity)
	assert.Equal(t, 4.2, report.WindSpeed)
	assert.Equal(t, 759.81, report.Pressure)
	assert.False(t, report.Mocked)
}

func TestOpenWeatherClientErrors(t *testing.T) {
	srv := openWeatherServer(t)
	ctx := context.Background()

	_, err := NewOpenWeatherClient("", srv.URL, "", "", 0).Get(ctx, "New York")
	assert.True(t, errors.Is(err, upstream.ErrUnavailable))

	c := NewOpenWeatherClient("key", srv.URL, "", "", 0)
	_, err = c.Get(ctx, "Partial")
	assert.True(t, errors.Is(err, upstream.ErrMalformed))

	_, err = c.Get(ctx, "Nowhere123")
	assert.True(t, errors.Is(err, upstream.ErrUnavailable))
}

func TestHPaToMmHg(t *testing.T) {
	assert.Equal(t, 759.81, HPaToMmHg(1013))
	assert.Equal(t, 0.0, HPaToMmHg(0))
}

type stubLocator struct {
	coord geo.Coordinate
	err   error
}

func (s stubLocator) Resolve(context.Context, string, string) (geo.Coordinate, error) {
	return s.coord, s.err
}

func TestOpenMeteoClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "48.853400", r.URL.Query().Get("latitude"))
		assert.Equal(t, "ms", r.URL.Query().Get("wind_speed_unit"))
		_, _ = w.Write([]byte(`{"current":{"time":"2024-07-01T11:30","temperature_2m":24.3,"apparent_temperature":25.0,
			"relative_humidity_2m":40,"wind_speed_10m":2.1,"surface_pressure":1000,"weather_code":2}}`))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(stubLocator{coord: geo.Coordinate{Latitude: 48.8534, Longitude: 2.3488}}, srv.URL, 0)
	report, err := c.Get(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, 24.3, report.Temperature)
	assert.Equal(t, 25.0, report.FeelsLike)
	assert.Equal(t, "переменная облачность", report.Weather)
	assert.Equal(t, 750.06, report.Pressure)
}

func TestOpenMeteoClientGeocodeMiss(t *testing.T) {
	c := NewOpenMeteoClient(stubLocator{err: fmt.Errorf("x: %w", upstream.ErrNotFound)}, "http://127.0.0.1:0", 0)
	_, err := c.Get(context.Background(), "Nowhere123")
	assert.True(t, errors.Is(err, upstream.ErrNotFound))
}

type failingProvider struct{}

func (failingProvider) Get(context.Context, string) (*Report, error) {
	return nil, fmt.Errorf("down: %w", upstream.ErrUnavailable)
}

func TestServiceFallsBackToMock(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	s := NewService(failingProvider{}, "openweather", m)

	got := s.Report(context.Background(), "Nowhere123")
	want := Mock("Nowhere123")
	assert.Equal(t, want, got)
	assert.Equal(t, 20.0, got.Temperature)
	assert.Equal(t, 18.0, got.FeelsLike)
	assert.Equal(t, 65.0, got.Humidity)
	assert.Equal(t, 3.5, got.WindSpeed)
	assert.Equal(t, 760.0, got.Pressure)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues(metrics.StageWeather)))
}

func TestServiceNilProvider(t *testing.T) {
	s := NewService(nil, "none", nil)
	assert.True(t, s.Report(context.Background(), "Paris").Mocked)
}

func TestServicePassesThrough(t *testing.T) {
	srv := openWeatherServer(t)
	s := NewService(NewOpenWeatherClient("key", srv.URL, "", "", 0), "openweather", nil)

	got := s.Report(context.Background(), "New York")
	assert.False(t, got.Mocked)
	assert.Equal(t, 12.5, got.Temperature)
}
