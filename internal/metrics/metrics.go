package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fallback stages, used as the "stage" label.
const (
	StageGeocode  = "geocode"
	StageTimezone = "timezone"
	StageLocal    = "local_time"
	StageSounds   = "sounds"
	StageWeather  = "weather"
	StageRadio    = "radio"
	StageWebcam   = "webcam"
)

// Metrics holds the Prometheus collectors for the service. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	ContextBuilds    prometheus.Counter
	Fallbacks        *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates and registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ContextBuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "city_ambience_context_builds_total",
			Help: "Total number of city contexts built",
		}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "city_ambience_fallbacks_total",
			Help: "Number of times a stage substituted its default value",
		}, []string{"stage"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "city_ambience_upstream_duration_seconds",
			Help:    "Latency of third-party API calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream"}),
		gatherer: reg,
	}
}

func (m *Metrics) IncContextBuilds() {
	if m == nil {
		return
	}
	m.ContextBuilds.Inc()
}

func (m *Metrics) IncFallback(stage string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(stage).Inc()
}

// ObserveUpstream records the time elapsed since start for the named upstream.
func (m *Metrics) ObserveUpstream(name string, start time.Time) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
