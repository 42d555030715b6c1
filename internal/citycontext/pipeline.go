// Package citycontext builds the aggregate view of a city: weather, local
// time and day period, radio, webcam and ambient sounds.
package citycontext

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"city-ambience/internal/clock"
	"city-ambience/internal/geo"
	"city-ambience/internal/metrics"
	"city-ambience/internal/sounds"
	"city-ambience/internal/weather"
	"city-ambience/internal/webcam"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SoundsPerContext is the length of the ambient playlist.
const SoundsPerContext = 3

// ErrStagePanic is returned by Build when a stage panicked.
var ErrStagePanic = errors.New("city context stage panicked")

type Query struct {
	Name        string
	CountryHint string
}

type Context struct {
	RequestID string          `json:"request_id"`
	City      string          `json:"city"`
	Country   string          `json:"country,omitempty"`
	Weather   weather.Report  `json:"weather"`
	Timezone  string          `json:"timezone"`
	LocalTime clock.LocalTime `json:"local_time"`
	Period    clock.Period    `json:"period"`
	Geocoded  bool            `json:"geocoded"`
	RadioURL  string          `json:"radio_url"`
	Webcam    webcam.Link     `json:"webcam"`
	Sounds    []sounds.Asset  `json:"sounds"`
}

// SoundURLs returns the playlist as paths under /static, substituting the
// placeholder when no sound file is available.
func (c Context) SoundURLs() []string {
	if len(c.Sounds) == 0 {
		return []string{"/static/" + sounds.Placeholder}
	}
	out := make([]string, 0, len(c.Sounds))
	for _, s := range c.Sounds {
		out = append(out, "/static/"+s.FileName)
	}
	return out
}

type Geocoder interface {
	Resolve(ctx context.Context, name, country string) (geo.Coordinate, error)
}

type TimezoneResolver interface {
	Resolve(c geo.Coordinate) (string, error)
}

type WeatherService interface {
	Report(ctx context.Context, city string) weather.Report
}

type RadioDirectory interface {
	URL(ctx context.Context, city string) string
}

type WebcamFinder interface {
	Link(ctx context.Context, city string) webcam.Link
}

type SoundSelector interface {
	Pick(p clock.Period, count int) []sounds.Asset
}

type Pipeline struct {
	geocoder  Geocoder
	timezones TimezoneResolver
	clock     *clock.Service
	weather   WeatherService
	radio     RadioDirectory
	webcams   WebcamFinder
	sounds    SoundSelector
	metrics   *metrics.Metrics
	timeout   time.Duration
}

type Config struct {
	Geocoder  Geocoder
	Timezones TimezoneResolver
	Clock     *clock.Service
	Weather   WeatherService
	Radio     RadioDirectory
	Webcams   WebcamFinder
	Sounds    SoundSelector
	Metrics   *metrics.Metrics
	// Timeout bounds the weather, radio and webcam stages.
	Timeout time.Duration
}

func New(cfg Config) *Pipeline {
	c := cfg.Clock
	if c == nil {
		c = clock.NewService()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Pipeline{
		geocoder:  cfg.Geocoder,
		timezones: cfg.Timezones,
		clock:     c,
		weather:   cfg.Weather,
		radio:     cfg.Radio,
		webcams:   cfg.Webcams,
		sounds:    cfg.Sounds,
		metrics:   cfg.Metrics,
		timeout:   timeout,
	}
}

// Timezone resolves the IANA zone for a city; it never fails and returns
// clock.DefaultTimezone when any step misses. The bool reports whether the
// city was actually located.
func (p *Pipeline) Timezone(ctx context.Context, q Query) (string, bool) {
	if p.geocoder == nil || p.timezones == nil {
		p.metrics.IncFallback(metrics.StageGeocode)
		return clock.DefaultTimezone, false
	}

	// The geocoder bounds each country attempt itself, so a slow scope
	// cannot use up the budget of the ones after it.
	start := time.Now()
	coord, err := p.geocoder.Resolve(ctx, q.Name, q.CountryHint)
	p.metrics.ObserveUpstream("geocoder", start)
	if err != nil {
		log.Printf("Geocoding %q failed, using %s: %v", q.Name, clock.DefaultTimezone, err)
		p.metrics.IncFallback(metrics.StageGeocode)
		return clock.DefaultTimezone, false
	}

	tz, err := p.timezones.Resolve(coord)
	if err != nil {
		log.Printf("Timezone for %q failed, using %s: %v", q.Name, clock.DefaultTimezone, err)
		p.metrics.IncFallback(metrics.StageTimezone)
		return clock.DefaultTimezone, true
	}
	return tz, true
}

// LocalTime resolves the city's zone and returns the current time there.
func (p *Pipeline) LocalTime(ctx context.Context, q Query) clock.LocalTime {
	tz, _ := p.Timezone(ctx, q)
	lt := p.clock.Now(tz)
	if lt.Timezone != tz {
		p.metrics.IncFallback(metrics.StageLocal)
	}
	return lt
}

// Build assembles the full context. Every stage degrades to its default,
// so the Context is always usable; the error is non-nil only when a stage
// panicked, wrapping ErrStagePanic.
func (p *Pipeline) Build(ctx context.Context, q Query) (Context, error) {
	p.metrics.IncContextBuilds()

	out := Context{
		RequestID: uuid.NewString(),
		City:      strings.TrimSpace(q.Name),
		Country:   strings.ToUpper(strings.TrimSpace(q.CountryHint)),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(stage("timezone", func() {
		tz, located := p.Timezone(gctx, q)
		out.Timezone = tz
		out.Geocoded = located
		out.LocalTime = p.clock.Now(tz)
		out.Period = clock.Classify(out.LocalTime.Hour)
		out.Sounds = p.pickSounds(out.Period)
	}))

	g.Go(stage("weather", func() {
		if p.weather == nil {
			out.Weather = weather.Mock(out.City)
			return
		}
		wctx, cancel := context.WithTimeout(gctx, p.timeout)
		defer cancel()
		out.Weather = p.weather.Report(wctx, out.City)
	}))

	g.Go(stage("radio", func() {
		if p.radio == nil {
			return
		}
		rctx, cancel := context.WithTimeout(gctx, p.timeout)
		defer cancel()
		out.RadioURL = p.radio.URL(rctx, out.City)
	}))

	g.Go(stage("webcam", func() {
		if p.webcams == nil {
			return
		}
		cctx, cancel := context.WithTimeout(gctx, p.timeout)
		defer cancel()
		out.Webcam = p.webcams.Link(cctx, out.City)
	}))

	// Stages swallow upstream errors; only a recovered panic reaches Wait.
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// stage adapts fn for errgroup, turning a panic into an error; errgroup
// does not recover panics raised in its goroutines.
func stage(name string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Stage %s panicked: %v", name, r)
				err = fmt.Errorf("%w: %s: %v", ErrStagePanic, name, r)
			}
		}()
		fn()
		return nil
	}
}

func (p *Pipeline) pickSounds(period clock.Period) []sounds.Asset {
	if p.sounds == nil {
		p.metrics.IncFallback(metrics.StageSounds)
		return []sounds.Asset{}
	}
	picked := p.sounds.Pick(period, SoundsPerContext)
	if len(picked) == 0 {
		p.metrics.IncFallback(metrics.StageSounds)
	}
	return picked
}
