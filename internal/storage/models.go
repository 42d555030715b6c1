package storage

import (
	"time"

	"gorm.io/gorm"
)

// CityLookup is one served city context, kept as an audit trail.
type CityLookup struct {
	gorm.Model
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	RequestID string    `gorm:"uniqueIndex" json:"request_id"`

	City      string `gorm:"index" json:"city"`
	Country   string `json:"country"`
	Timezone  string `json:"timezone"`
	LocalTime string `json:"local_time"`
	Hour      int    `json:"hour"`
	Period    string `json:"period"`
	Geocoded  bool   `json:"geocoded"`

	RadioURL      string  `json:"radio_url"`
	WebcamURL     string  `json:"webcam_url"`
	WeatherMocked bool    `json:"weather_mocked"`
	Temperature   float64 `json:"temperature"`
	SoundCount    int     `json:"sound_count"`
}

type LookupStats struct {
	Total    int64 `json:"total"`
	Day      int64 `json:"day"`
	Night    int64 `json:"night"`
	Geocoded int64 `json:"geocoded"`
}

type CityCount struct {
	City  string `json:"city"`
	Count int64  `json:"count"`
}
