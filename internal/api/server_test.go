package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"city-ambience/internal/citycontext"
	"city-ambience/internal/clock"
	"city-ambience/internal/radio"
	"city-ambience/internal/sounds"
	"city-ambience/internal/storage"
	"city-ambience/internal/weather"
	"city-ambience/internal/webcam"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	tz      string
	located bool
	panics  bool
	queries []citycontext.Query
}

func (f *fakePipeline) Build(_ context.Context, q citycontext.Query) (citycontext.Context, error) {
	f.queries = append(f.queries, q)
	if f.panics {
		panic("boom")
	}
	return citycontext.Context{
		RequestID: "req-1",
		City:      q.Name,
		Weather:   weather.Mock(q.Name),
		Timezone:  f.tz,
		LocalTime: clock.LocalTime{Hour: 22, Formatted: "2024-01-01 22:00:00", Timezone: f.tz},
		Period:    clock.Night,
		Geocoded:  f.located,
		RadioURL:  radio.DefaultStreamURL,
		Webcam:    webcam.Link{URL: "https://example.com/cam"},
		Sounds:    []sounds.Asset{{FileName: "city_night1.mp3", Period: clock.Night}},
	}, nil
}

func (f *fakePipeline) Timezone(_ context.Context, q citycontext.Query) (string, bool) {
	f.queries = append(f.queries, q)
	return f.tz, f.located
}

func (f *fakePipeline) LocalTime(_ context.Context, q citycontext.Query) clock.LocalTime {
	f.queries = append(f.queries, q)
	return clock.LocalTime{Hour: 9, Formatted: "2024-01-01 09:30:00", Timezone: f.tz}
}

type fakeWeather struct{}

func (fakeWeather) Report(_ context.Context, city string) weather.Report {
	return weather.Mock(city)
}

type fakeRadio struct{}

func (fakeRadio) URL(context.Context, string) string { return radio.DefaultStreamURL }

func (fakeRadio) Stations(context.Context, string) []radio.Station {
	return []radio.Station{radio.DefaultStation()}
}

type fakeWebcams struct {
	err error
}

func (f fakeWebcams) Link(_ context.Context, city string) webcam.Link {
	return webcam.Link{URL: "https://example.com/" + city}
}

func (f fakeWebcams) List(_ context.Context, city string) ([]webcam.Webcam, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []webcam.Webcam{{ID: "1", Title: city + " square", Location: city, Player: "https://example.com/player/1"}}, nil
}

type fakeSounds struct{}

func (fakeSounds) PickOne(p clock.Period) string {
	if p == clock.Night {
		return "city_night1.mp3"
	}
	return "city_day1.mp3"
}

type fakeJournal struct {
	saved  []string
	byCity []string
}

func (f *fakeJournal) SaveLookup(c *citycontext.Context) error {
	f.saved = append(f.saved, c.City)
	return nil
}

func (f *fakeJournal) GetLookupsWithLimit(limit int) ([]storage.CityLookup, error) {
	out := make([]storage.CityLookup, 0, len(f.saved))
	for _, city := range f.saved {
		out = append(out, storage.CityLookup{City: city})
	}
	return out, nil
}

func (f *fakeJournal) GetLookupsByCity(city string, limit int) ([]storage.CityLookup, error) {
	f.byCity = append(f.byCity, city)
	var out []storage.CityLookup
	for _, saved := range f.saved {
		if saved == city {
			out = append(out, storage.CityLookup{City: saved})
		}
	}
	return out, nil
}

func (f *fakeJournal) GetStats() (*storage.LookupStats, error) {
	return &storage.LookupStats{Total: int64(len(f.saved)), Night: int64(len(f.saved))}, nil
}

func (f *fakeJournal) GetTopCities(limit int) ([]storage.CityCount, error) {
	return []storage.CityCount{{City: "Paris", Count: int64(len(f.saved))}}, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) Publish(c *citycontext.Context) error {
	f.published = append(f.published, c.City)
	return f.err
}

type fixture struct {
	server    *Server
	pipeline  *fakePipeline
	journal   *fakeJournal
	publisher *fakePublisher
}

func newFixture(t *testing.T, withJournal bool, webcamErr error) *fixture {
	t.Helper()
	f := &fixture{
		pipeline:  &fakePipeline{tz: "Europe/Paris", located: true},
		publisher: &fakePublisher{},
	}
	cfg := ServerConfig{
		Port:       0,
		StaticPath: t.TempDir(),
		Pipeline:   f.pipeline,
		Weather:    fakeWeather{},
		Radio:      fakeRadio{},
		Webcams:    fakeWebcams{err: webcamErr},
		Sounds:     fakeSounds{},
		Publisher:  f.publisher,
		Timeout:    time.Second,
	}
	if withJournal {
		f.journal = &fakeJournal{}
		cfg.Journal = f.journal
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	f.server = srv
	return f
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestMissingCityIsBadRequest(t *testing.T) {
	f := newFixture(t, false, nil)
	for _, path := range []string{
		"/get_timezone_by_city",
		"/get_local_time",
		"/weather",
		"/radio",
		"/radio_stations",
		"/camera",
		"/webcam_url",
		"/weather?city=%20%20",
	} {
		rec := f.get(t, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Contains(t, decode(t, rec), "error", path)
	}
}

func TestTimezoneByCity(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.get(t, "/get_timezone_by_city?city=Paris&country=fr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"timezone": "Europe/Paris"}, decode(t, rec))

	require.Len(t, f.pipeline.queries, 1)
	assert.Equal(t, citycontext.Query{Name: "Paris", CountryHint: "fr"}, f.pipeline.queries[0])
}

func TestLocalTime(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.get(t, "/get_local_time?city=Paris")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "2024-01-01 09:30:00", body["local_time"])
	assert.Equal(t, float64(9), body["hour"])
}

func TestWeather(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.get(t, "/weather?city=Berlin")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Berlin", body["city"])
	assert.Equal(t, float64(20), body["temperature"])
	assert.Equal(t, float64(760), body["pressure"])
	assert.NotContains(t, body, "Mocked")
}

func TestRadio(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.get(t, "/radio?city=Moscow")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"city": "Moscow", "radio_url": radio.DefaultStreamURL}, decode(t, rec))

	rec = f.get(t, "/radio_stations?city=Moscow")
	require.Equal(t, http.StatusOK, rec.Code)
	stations, ok := decode(t, rec)["stations"].([]any)
	require.True(t, ok)
	require.Len(t, stations, 1)
	assert.Equal(t, "Radio Record", stations[0].(map[string]any)["name"])
}

func TestCamera(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.get(t, "/camera?city=Rome")
	require.Equal(t, http.StatusOK, rec.Code)
	webcams, ok := decode(t, rec)["webcams"].([]any)
	require.True(t, ok)
	assert.Len(t, webcams, 1)

	rec = f.get(t, "/webcam_url?city=Rome")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/Rome", decode(t, rec)["webcam_url"])
}

func TestCameraUpstreamFailure(t *testing.T) {
	f := newFixture(t, false, errors.New("windy: 401"))

	rec := f.get(t, "/camera?city=Rome")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Rome", body["city"])
	assert.Equal(t, "windy: 401", body["error"])
}

func TestCitySound(t *testing.T) {
	f := newFixture(t, false, nil)

	tests := []struct {
		query string
		want  string
	}{
		{"?time_of_day=night", "city_night1.mp3"},
		{"?time_of_day=day", "city_day1.mp3"},
		{"?time_of_day=dusk", "city_day1.mp3"},
		{"", "city_day1.mp3"},
	}
	for _, tt := range tests {
		rec := f.get(t, "/city-sound"+tt.query)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.want, decode(t, rec)["sound_url"], tt.query)
	}
}

func TestCityPage(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := f.get(t, "/city?city=Paris")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	page := rec.Body.String()
	assert.Contains(t, page, "Paris")
	assert.Contains(t, page, "https://example.com/cam")
	assert.Contains(t, page, radio.DefaultStreamURL)
	assert.Contains(t, page, "city_night1.mp3")
	assert.Contains(t, page, `class="night"`)

	assert.Equal(t, []string{"Paris"}, f.journal.saved)
	assert.Equal(t, []string{"Paris"}, f.publisher.published)
}

func TestCityPagePublishErrorStillRenders(t *testing.T) {
	f := newFixture(t, false, nil)
	f.publisher.err = errors.New("broker down")

	rec := f.get(t, "/city?city=Paris")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Paris"}, f.publisher.published)
}

func TestCityPageWithoutCity(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := f.get(t, "/city")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error-message")
	assert.Empty(t, f.pipeline.queries)
	assert.Empty(t, f.journal.saved)
}

func TestCityPageRecoversFromPipelinePanic(t *testing.T) {
	f := newFixture(t, true, nil)
	f.pipeline.panics = true

	rec := f.get(t, "/city?city=Paris")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error-message")
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Empty(t, f.journal.saved)
	assert.Empty(t, f.publisher.published)
}

type panickingWeather struct{}

func (panickingWeather) Report(context.Context, string) weather.Report {
	var byCity map[string]weather.Report
	byCity["Paris"] = weather.Report{}
	return byCity["Paris"]
}

func TestCityPageRecoversFromStagePanic(t *testing.T) {
	journal := &fakeJournal{}
	publisher := &fakePublisher{}
	srv, err := NewServer(ServerConfig{
		StaticPath: t.TempDir(),
		Pipeline:   citycontext.New(citycontext.Config{Weather: panickingWeather{}}),
		Weather:    fakeWeather{},
		Radio:      fakeRadio{},
		Webcams:    fakeWebcams{},
		Sounds:     fakeSounds{},
		Journal:    journal,
		Publisher:  publisher,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/city?city=Paris", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error-message")
	assert.NotContains(t, rec.Body.String(), "nil map")
	assert.Empty(t, journal.saved)
	assert.Empty(t, publisher.published)
}

func TestIndexPage(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/city"`)
	assert.NotContains(t, rec.Body.String(), "soundUrls")
}

func TestLookupsRequireJournal(t *testing.T) {
	f := newFixture(t, false, nil)

	assert.Equal(t, http.StatusServiceUnavailable, f.get(t, "/api/v1/lookups").Code)
	assert.Equal(t, http.StatusServiceUnavailable, f.get(t, "/api/v1/lookups/stats").Code)
}

func TestLookups(t *testing.T) {
	f := newFixture(t, true, nil)
	f.get(t, "/city?city=Paris")
	f.get(t, "/city?city=Paris")

	rec := f.get(t, "/api/v1/lookups?limit=abc")
	require.Equal(t, http.StatusOK, rec.Code)
	var lookups []storage.CityLookup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lookups))
	assert.Len(t, lookups, 2)

	f.get(t, "/city?city=Rome")
	rec = f.get(t, "/api/v1/lookups?city=Rome")
	require.Equal(t, http.StatusOK, rec.Code)
	lookups = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lookups))
	require.Len(t, lookups, 1)
	assert.Equal(t, "Rome", lookups[0].City)
	assert.Equal(t, []string{"Rome"}, f.journal.byCity)

	rec = f.get(t, "/api/v1/lookups/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(3), body["night"])
	top, ok := body["top_cities"].([]any)
	require.True(t, ok)
	assert.Equal(t, "Paris", top[0].(map[string]any)["city"])
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
	assert.NotContains(t, decode(t, rec), "janitor")

	rec = f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeSweeper struct {
	last time.Time
}

func (f fakeSweeper) IsRunning() bool      { return true }
func (f fakeSweeper) Sweeps() int          { return 4 }
func (f fakeSweeper) LastSweep() time.Time { return f.last }

func TestHealthReportsJanitor(t *testing.T) {
	last := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	srv, err := NewServer(ServerConfig{
		StaticPath: t.TempDir(),
		Pipeline:   &fakePipeline{tz: "Europe/Paris"},
		Journal:    &fakeJournal{},
		Sweeper:    fakeSweeper{last: last},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["journal"])
	janitor, ok := body["janitor"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, janitor["running"])
	assert.Equal(t, float64(4), janitor["sweeps"])
	assert.Equal(t, "2024-03-01T10:00:00Z", janitor["last_sweep"])
}
