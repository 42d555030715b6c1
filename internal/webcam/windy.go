package webcam

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"city-ambience/internal/metrics"
	"city-ambience/internal/upstream"
)

const DefaultWindyURL = "https://api.windy.com/api/webcams/v3/webcams"

// Webcam is the client-facing summary used by the /camera endpoint.
type Webcam struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Player   string `json:"player"`
}

// Link is a single playable webcam URL for a city.
type Link struct {
	URL      string `json:"webcam_url"`
	IsImage  bool   `json:"is_image,omitempty"`
	Title    string `json:"title,omitempty"`
	Location string `json:"location,omitempty"`
}

type windyWebcam struct {
	WebcamID any    `json:"webcamId"`
	ID       any    `json:"id"`
	Title    string `json:"title"`
	Location *struct {
		City string `json:"city"`
	} `json:"location"`
	Player *struct {
		Day *struct {
			Embed string `json:"embed"`
		} `json:"day"`
	} `json:"player"`
	Image *struct {
		Current *struct {
			Preview string `json:"preview"`
		} `json:"current"`
	} `json:"image"`
}

// windyResponse accepts both the wrapped {"result":{"webcams":[]}} and the
// flat {"webcams":[]} shapes.
type windyResponse struct {
	Result *struct {
		Webcams []windyWebcam `json:"webcams"`
	} `json:"result"`
	Webcams []windyWebcam `json:"webcams"`
}

func (r windyResponse) list() []windyWebcam {
	if r.Result != nil && len(r.Result.Webcams) > 0 {
		return r.Result.Webcams
	}
	return r.Webcams
}

func (w windyWebcam) id() string {
	for _, v := range []any{w.WebcamID, w.ID} {
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return fmt.Sprintf("%.0f", id)
		}
	}
	return ""
}

func (w windyWebcam) embed() string {
	if w.Player == nil || w.Player.Day == nil {
		return ""
	}
	return strings.TrimSpace(w.Player.Day.Embed)
}

func (w windyWebcam) preview() string {
	if w.Image == nil || w.Image.Current == nil {
		return ""
	}
	return strings.TrimSpace(w.Image.Current.Preview)
}

func (w windyWebcam) city(fallback string) string {
	if w.Location == nil || w.Location.City == "" {
		return fallback
	}
	return w.Location.City
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

type Finder struct {
	apiKey  string
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics

	mu  sync.Mutex
	rnd *rand.Rand
}

type FinderConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Metrics *metrics.Metrics
	// Source seeds the random curated pick; nil uses the current time.
	Source rand.Source
}

func NewFinder(cfg FinderConfig) *Finder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultWindyURL
	}
	src := cfg.Source
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Finder{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  upstream.NewHTTPClient(cfg.Timeout),
		metrics: cfg.Metrics,
		rnd:     rand.New(src),
	}
}

func (f *Finder) fetch(ctx context.Context, city string) ([]windyWebcam, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("windy api key is empty: %w", upstream.ErrUnavailable)
	}

	query := url.Values{}
	query.Set("q", city)
	query.Set("show", "webcams:image,player,location")
	query.Set("include", "images,player,location")
	query.Set("limit", "10")

	header := http.Header{}
	header.Set("X-WINDY-API-KEY", f.apiKey)

	start := time.Now()
	var payload windyResponse
	err := upstream.GetJSON(ctx, f.client, "windy", f.baseURL+"?"+query.Encode(), header, &payload)
	f.metrics.ObserveUpstream("windy", start)
	if err != nil {
		return nil, err
	}

	webcams := payload.list()
	if len(webcams) == 0 {
		return nil, fmt.Errorf("windy no webcams for %q: %w", city, upstream.ErrNotFound)
	}
	return webcams, nil
}

// List returns the webcams the API knows for city.
func (f *Finder) List(ctx context.Context, city string) ([]Webcam, error) {
	name := upstream.NormalizeCity(city)
	webcams, err := f.fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	out := make([]Webcam, 0, len(webcams))
	for _, w := range webcams {
		out = append(out, Webcam{
			ID:       w.id(),
			Title:    orDefault(w.Title, name),
			Location: w.city(name),
			Player:   w.embed(),
		})
	}
	return out, nil
}

// Link picks a live embed, then a still preview, then a curated stream.
func (f *Finder) Link(ctx context.Context, city string) Link {
	name := upstream.NormalizeCity(city)
	webcams, err := f.fetch(ctx, name)
	if err == nil {
		for _, w := range webcams {
			if embed := w.embed(); embed != "" {
				return Link{URL: embed, Title: orDefault(w.Title, city), Location: w.city(city)}
			}
		}
		if preview := webcams[0].preview(); preview != "" {
			return Link{
				URL:      preview,
				IsImage:  true,
				Title:    orDefault(webcams[0].Title, city),
				Location: webcams[0].city(city),
			}
		}
		err = fmt.Errorf("windy webcams for %q have no player or image: %w", name, upstream.ErrMalformed)
	}

	log.Printf("Webcam lookup failed for %q: %v", city, err)
	f.metrics.IncFallback(metrics.StageWebcam)
	return Link{URL: f.Fallback(city)}
}

// Fallback returns the curated stream for city or a random curated one.
func (f *Finder) Fallback(city string) string {
	if u, ok := CuratedURL(city); ok {
		return u
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return curatedURLs[f.rnd.Intn(len(curatedURLs))]
}
