package weather

import (
	"context"
	"log"
	"time"

	"city-ambience/internal/metrics"
)

// Service never fails: provider errors yield the Mock report.
type Service struct {
	provider Provider
	name     string
	metrics  *metrics.Metrics
}

func NewService(provider Provider, name string, m *metrics.Metrics) *Service {
	return &Service{provider: provider, name: name, metrics: m}
}

func (s *Service) Report(ctx context.Context, city string) Report {
	if s.provider == nil {
		s.metrics.IncFallback(metrics.StageWeather)
		return Mock(city)
	}

	start := time.Now()
	report, err := s.provider.Get(ctx, city)
	s.metrics.ObserveUpstream(s.name, start)
	if err != nil || report == nil {
		log.Printf("Weather fetch failed for %q: %v", city, err)
		s.metrics.IncFallback(metrics.StageWeather)
		return Mock(city)
	}
	return *report
}
