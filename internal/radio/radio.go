package radio

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"city-ambience/internal/metrics"
	"city-ambience/internal/upstream"
)

const (
	DefaultBaseURL   = "https://de1.api.radio-browser.info/json/stations/byname/"
	DefaultStreamURL = "https://online.radiorecord.ru:8102/rr_320"
	maxStations      = 10
)

// Station is the client-facing view of a radio-browser station.
type Station struct {
	Name      string `json:"name"`
	StreamURL string `json:"stream_url"`
	Tags      string `json:"tags"`
	Country   string `json:"country"`
	Language  string `json:"language"`
	Votes     int    `json:"votes"`
	Frequency string `json:"frequency"`
}

// DefaultStation is served when the directory has nothing for a city.
func DefaultStation() Station {
	return Station{
		Name:      "Radio Record",
		StreamURL: DefaultStreamURL,
		Tags:      "dance,electronic",
		Country:   "Russia",
		Language:  "ru",
		Votes:     100,
		Frequency: "320 kbps",
	}
}

type browserStation struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Tags     string `json:"tags"`
	Country  string `json:"country"`
	Language string `json:"language"`
	Votes    int    `json:"votes"`
	Bitrate  int    `json:"bitrate"`
}

// Directory searches radio-browser by station name.
type Directory struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
}

func NewDirectory(baseURL string, timeout time.Duration, m *metrics.Metrics) *Directory {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Directory{
		baseURL: baseURL,
		client:  upstream.NewHTTPClient(timeout),
		metrics: m,
	}
}

// broaderQuery returns the country-level search used when a city query
// yields nothing.
func broaderQuery(city string) string {
	switch {
	case strings.Contains(city, "New-York"), strings.Contains(city, "New York"):
		return "USA"
	case strings.Contains(city, "Moscow"):
		return "Russia"
	default:
		return ""
	}
}

func (d *Directory) search(ctx context.Context, term string) ([]browserStation, error) {
	start := time.Now()
	defer d.metrics.ObserveUpstream("radio-browser", start)

	var stations []browserStation
	endpoint := d.baseURL + url.PathEscape(term)
	if err := upstream.GetJSON(ctx, d.client, "radio-browser", endpoint, nil, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

func (d *Directory) lookup(ctx context.Context, city string) ([]browserStation, error) {
	stations, err := d.search(ctx, upstream.NormalizeCity(city))
	if err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		if broader := broaderQuery(city); broader != "" {
			stations, err = d.search(ctx, broader)
			if err != nil {
				return nil, err
			}
		}
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("radio-browser no stations for %q: %w", city, upstream.ErrNotFound)
	}
	return stations, nil
}

// URL returns the first station's stream for city, or DefaultStreamURL.
func (d *Directory) URL(ctx context.Context, city string) string {
	stations, err := d.lookup(ctx, city)
	if err != nil || strings.TrimSpace(stations[0].URL) == "" {
		log.Printf("Radio lookup failed for %q: %v", city, err)
		d.metrics.IncFallback(metrics.StageRadio)
		return DefaultStreamURL
	}
	return stations[0].URL
}

// Stations returns up to ten stations for city, or the default station.
func (d *Directory) Stations(ctx context.Context, city string) []Station {
	found, err := d.lookup(ctx, city)
	if err != nil {
		log.Printf("Radio stations lookup failed for %q: %v", city, err)
		d.metrics.IncFallback(metrics.StageRadio)
		return []Station{DefaultStation()}
	}

	if len(found) > maxStations {
		found = found[:maxStations]
	}
	out := make([]Station, 0, len(found))
	for _, s := range found {
		name := s.Name
		if strings.TrimSpace(name) == "" {
			name = "Unknown station"
		}
		out = append(out, Station{
			Name:      name,
			StreamURL: s.URL,
			Tags:      s.Tags,
			Country:   s.Country,
			Language:  s.Language,
			Votes:     s.Votes,
			Frequency: fmt.Sprintf("%d kbps", s.Bitrate),
		})
	}
	return out
}
