package geo

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"city-ambience/internal/upstream"
)

// DefaultCountry is tried first when no country hint is given.
const DefaultCountry = "RU"

// DefaultFallbackChain is the order of country scopes tried before giving up.
var DefaultFallbackChain = []string{"RU", "US", "GB", "FR"}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Source looks a city up within a single country. It returns
// upstream.ErrNotFound when the country has no such city.
type Source interface {
	Lookup(ctx context.Context, name, country string) (Coordinate, error)
}

type Geocoder struct {
	source   Source
	fallback []string
	country  string
	timeout  time.Duration
}

type GeocoderConfig struct {
	Source         Source
	DefaultCountry string
	FallbackChain  []string
	// Timeout bounds each country attempt separately.
	Timeout time.Duration
}

func NewGeocoder(cfg GeocoderConfig) *Geocoder {
	country := strings.ToUpper(strings.TrimSpace(cfg.DefaultCountry))
	if country == "" {
		country = DefaultCountry
	}
	chain := cfg.FallbackChain
	if len(chain) == 0 {
		chain = DefaultFallbackChain
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = upstream.DefaultTimeout
	}
	return &Geocoder{
		source:   cfg.Source,
		fallback: chain,
		country:  country,
		timeout:  timeout,
	}
}

// Countries returns the scopes Resolve walks for a hint, in order: the hint
// itself, then every chain entry after it. A hint outside the chain is
// followed by the whole chain.
func (g *Geocoder) Countries(hint string) []string {
	hint = strings.ToUpper(strings.TrimSpace(hint))
	if hint == "" {
		hint = g.country
	}

	order := []string{hint}
	start := 0
	for i, c := range g.fallback {
		if strings.EqualFold(c, hint) {
			start = i + 1
			break
		}
	}
	for _, c := range g.fallback[start:] {
		c = strings.ToUpper(c)
		if c != hint {
			order = append(order, c)
		}
	}
	return order
}

// Resolve finds coordinates for name, retrying across the country chain.
// Upstream failures for one country are treated like a miss.
func (g *Geocoder) Resolve(ctx context.Context, name, hint string) (Coordinate, error) {
	query := upstream.NormalizeCity(name)
	if query == "" {
		return Coordinate{}, fmt.Errorf("geocode empty city: %w", upstream.ErrNotFound)
	}

	for _, country := range g.Countries(hint) {
		if err := ctx.Err(); err != nil {
			return Coordinate{}, fmt.Errorf("geocode %q: %w: %v", query, upstream.ErrUnavailable, err)
		}
		coord, err := g.lookup(ctx, query, country)
		if err == nil {
			return coord, nil
		}
		log.Printf("Geocode %q in %s: %v", query, country, err)
	}

	return Coordinate{}, fmt.Errorf("geocode %q: %w", query, upstream.ErrNotFound)
}

func (g *Geocoder) lookup(ctx context.Context, name, country string) (Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.source.Lookup(ctx, name, country)
}
