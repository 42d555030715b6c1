// Package janitor periodically trims the lookup journal to its retention
// window.
package janitor

import (
	"context"
	"log"
	"sync"
	"time"
)

const DefaultInterval = time.Hour

// Cleaner deletes journal rows older than a duration; *storage.Database
// satisfies it.
type Cleaner interface {
	CleanOldLookups(olderThan time.Duration) error
}

type Janitor struct {
	store     Cleaner
	retention time.Duration
	interval  time.Duration
	enabled   bool

	mu        sync.RWMutex
	running   bool
	lastSweep time.Time
	sweeps    int
}

type Config struct {
	Store     Cleaner
	Retention time.Duration
	Interval  time.Duration
	Enabled   bool
}

func New(cfg Config) *Janitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Janitor{
		store:     cfg.Store,
		retention: cfg.Retention,
		interval:  interval,
		enabled:   cfg.Enabled && cfg.Store != nil && cfg.Retention > 0,
	}
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (j *Janitor) Start(ctx context.Context) error {
	if !j.enabled {
		log.Println("Journal janitor is disabled")
		return nil
	}

	j.mu.Lock()
	j.running = true
	j.mu.Unlock()

	log.Printf("Starting journal janitor: retention %s, interval %s", j.retention, j.interval)

	j.Sweep()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Journal janitor stopped")
			j.mu.Lock()
			j.running = false
			j.mu.Unlock()
			return nil
		case <-ticker.C:
			j.Sweep()
		}
	}
}

func (j *Janitor) Sweep() {
	if j.store == nil {
		return
	}
	if err := j.store.CleanOldLookups(j.retention); err != nil {
		log.Printf("Error cleaning old lookups: %v", err)
		return
	}

	j.mu.Lock()
	j.lastSweep = time.Now()
	j.sweeps++
	j.mu.Unlock()
}

func (j *Janitor) IsRunning() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.running
}

func (j *Janitor) Sweeps() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.sweeps
}

func (j *Janitor) LastSweep() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastSweep
}
