package geo

import (
	"fmt"
	"math"

	"city-ambience/internal/upstream"

	"github.com/ringsaturn/tzf"
)

// Finder is the subset of tzf.F used for lookups.
type Finder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// TimezoneResolver maps coordinates to IANA zone names using bundled
// timezone boundary polygons.
type TimezoneResolver struct {
	finder Finder
}

// NewTimezoneResolver loads tzf's default boundary dataset.
func NewTimezoneResolver() (*TimezoneResolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone boundaries: %w", err)
	}
	return &TimezoneResolver{finder: finder}, nil
}

func NewTimezoneResolverWithFinder(finder Finder) *TimezoneResolver {
	return &TimezoneResolver{finder: finder}
}

func (r *TimezoneResolver) Resolve(c Coordinate) (string, error) {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return "", fmt.Errorf("timezone for %.4f,%.4f: invalid coordinate: %w", c.Latitude, c.Longitude, upstream.ErrNotFound)
	}

	name := r.finder.GetTimezoneName(c.Longitude, c.Latitude)
	if name == "" {
		return "", fmt.Errorf("timezone for %.4f,%.4f: %w", c.Latitude, c.Longitude, upstream.ErrNotFound)
	}
	return name, nil
}
