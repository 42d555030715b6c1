package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"city-ambience/internal/citycontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&CityLookup{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) SaveLookup(c *citycontext.Context) error {
	lookup := &CityLookup{
		Timestamp:     time.Now(),
		RequestID:     c.RequestID,
		City:          c.City,
		Country:       c.Country,
		Timezone:      c.Timezone,
		LocalTime:     c.LocalTime.Formatted,
		Hour:          c.LocalTime.Hour,
		Period:        c.Period.String(),
		Geocoded:      c.Geocoded,
		RadioURL:      c.RadioURL,
		WebcamURL:     c.Webcam.URL,
		WeatherMocked: c.Weather.Mocked,
		Temperature:   c.Weather.Temperature,
		SoundCount:    len(c.Sounds),
	}
	return d.db.Create(lookup).Error
}

func (d *Database) GetLookupsWithLimit(limit int) ([]CityLookup, error) {
	var lookups []CityLookup
	result := d.db.Order("timestamp desc").Limit(limit).Find(&lookups)
	if result.Error != nil {
		return nil, result.Error
	}
	return lookups, nil
}

func (d *Database) GetLookupsByCity(city string, limit int) ([]CityLookup, error) {
	var lookups []CityLookup
	result := d.db.Where("city = ?", city).
		Order("timestamp desc").
		Limit(limit).
		Find(&lookups)
	if result.Error != nil {
		return nil, result.Error
	}
	return lookups, nil
}

func (d *Database) GetStats() (*LookupStats, error) {
	var stats LookupStats
	counts := []struct {
		name  string
		query *gorm.DB
		out   *int64
	}{
		{"total", d.db.Model(&CityLookup{}), &stats.Total},
		{"day", d.db.Model(&CityLookup{}).Where("period = ?", "day"), &stats.Day},
		{"night", d.db.Model(&CityLookup{}).Where("period = ?", "night"), &stats.Night},
		{"geocoded", d.db.Model(&CityLookup{}).Where("geocoded = ?", true), &stats.Geocoded},
	}
	for _, c := range counts {
		if err := c.query.Count(c.out).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s lookups: %w", c.name, err)
		}
	}
	return &stats, nil
}

// GetTopCities returns the most requested cities, most frequent first.
func (d *Database) GetTopCities(limit int) ([]CityCount, error) {
	var counts []CityCount
	result := d.db.Model(&CityLookup{}).
		Select("city, COUNT(*) AS count").
		Group("city").
		Order("count desc, city asc").
		Limit(limit).
		Scan(&counts)
	if result.Error != nil {
		return nil, result.Error
	}
	return counts, nil
}

func (d *Database) CleanOldLookups(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	return d.db.Where("timestamp < ?", cutoff).Delete(&CityLookup{}).Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
