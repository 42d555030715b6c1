package clock

import (
	"log"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is used whenever a city's zone cannot be determined.
const DefaultTimezone = "Europe/Moscow"

const Layout = "2006-01-02 15:04:05"

type LocalTime struct {
	Time      time.Time `json:"-"`
	Hour      int       `json:"hour"`
	Formatted string    `json:"local_time"`
	Timezone  string    `json:"timezone"`
}

// Service converts timezone ids into the current wall-clock time.
type Service struct {
	now func() time.Time
}

func NewService() *Service {
	return &Service{now: time.Now}
}

// NewServiceWithClock is used by tests to pin "now".
func NewServiceWithClock(now func() time.Time) *Service {
	return &Service{now: now}
}

// Now returns the local time in tz. Empty or unknown ids fall back to
// DefaultTimezone, and if that cannot be loaded either, to the system zone.
func (s *Service) Now(tz string) LocalTime {
	loc, name := s.location(tz)
	t := s.now().In(loc)
	return LocalTime{
		Time:      t,
		Hour:      t.Hour(),
		Formatted: t.Format(Layout),
		Timezone:  name,
	}
}

func (s *Service) location(tz string) (*time.Location, string) {
	tz = strings.TrimSpace(tz)
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc, tz
		}
		log.Printf("Unknown timezone %q, using %s", tz, DefaultTimezone)
	}

	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		log.Printf("Failed to load default timezone: %v", err)
		return time.Local, time.Local.String()
	}
	return loc, DefaultTimezone
}
