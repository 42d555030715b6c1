package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"city-ambience/internal/citycontext"
	"city-ambience/internal/clock"
	"city-ambience/internal/metrics"
	"city-ambience/internal/radio"
	"city-ambience/internal/storage"
	"city-ambience/internal/weather"
	"city-ambience/internal/webcam"
	"city-ambience/web"

	"github.com/gin-gonic/gin"
)

type Pipeline interface {
	Build(ctx context.Context, q citycontext.Query) (citycontext.Context, error)
	Timezone(ctx context.Context, q citycontext.Query) (string, bool)
	LocalTime(ctx context.Context, q citycontext.Query) clock.LocalTime
}

type WeatherService interface {
	Report(ctx context.Context, city string) weather.Report
}

type RadioDirectory interface {
	URL(ctx context.Context, city string) string
	Stations(ctx context.Context, city string) []radio.Station
}

type WebcamFinder interface {
	Link(ctx context.Context, city string) webcam.Link
	List(ctx context.Context, city string) ([]webcam.Webcam, error)
}

type SoundSelector interface {
	PickOne(p clock.Period) string
}

// Journal records served contexts; *storage.Database satisfies it.
type Journal interface {
	SaveLookup(c *citycontext.Context) error
	GetLookupsWithLimit(limit int) ([]storage.CityLookup, error)
	GetLookupsByCity(city string, limit int) ([]storage.CityLookup, error)
	GetStats() (*storage.LookupStats, error)
	GetTopCities(limit int) ([]storage.CityCount, error)
}

// Sweeper reports the journal retention loop; *janitor.Janitor satisfies it.
type Sweeper interface {
	IsRunning() bool
	Sweeps() int
	LastSweep() time.Time
}

// Publisher broadcasts served contexts; *mqtt.Publisher satisfies it.
type Publisher interface {
	Publish(c *citycontext.Context) error
}

type Server struct {
	router     *gin.Engine
	server     *http.Server
	port       int
	staticPath string

	pipeline  Pipeline
	weather   WeatherService
	radio     RadioDirectory
	webcams   WebcamFinder
	sounds    SoundSelector
	journal   Journal
	sweeper   Sweeper
	publisher Publisher
	metrics   *metrics.Metrics
	timeout   time.Duration
}

type ServerConfig struct {
	Port       int
	StaticPath string
	Pipeline   Pipeline
	Weather    WeatherService
	Radio      RadioDirectory
	Webcams    WebcamFinder
	Sounds     SoundSelector
	// Journal, Sweeper and Publisher are optional.
	Journal   Journal
	Sweeper   Sweeper
	Publisher Publisher
	Metrics   *metrics.Metrics
	Timeout   time.Duration
}

func NewServer(cfg ServerConfig) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	staticPath := cfg.StaticPath
	if staticPath == "" {
		staticPath = "./static"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	s := &Server{
		router:     router,
		port:       cfg.Port,
		staticPath: staticPath,
		pipeline:   cfg.Pipeline,
		weather:    cfg.Weather,
		radio:      cfg.Radio,
		webcams:    cfg.Webcams,
		sounds:     cfg.Sounds,
		journal:    cfg.Journal,
		sweeper:    cfg.Sweeper,
		publisher:  cfg.Publisher,
		metrics:    cfg.Metrics,
		timeout:    timeout,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.router.SetHTMLTemplate(tmpl)

	s.router.Static("/static", s.staticPath)

	// Pages
	s.router.GET("/", s.indexHandler)
	s.router.GET("/city", s.cityPageHandler)

	// City data
	s.router.GET("/get_timezone_by_city", s.timezoneHandler)
	s.router.GET("/get_local_time", s.localTimeHandler)
	s.router.GET("/weather", s.weatherHandler)
	s.router.GET("/radio", s.radioHandler)
	s.router.GET("/radio_stations", s.radioStationsHandler)
	s.router.GET("/camera", s.cameraHandler)
	s.router.GET("/webcam_url", s.webcamURLHandler)
	s.router.GET("/city-sound", s.citySoundHandler)

	s.router.GET("/health", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.router.Group("/api/v1")
	{
		api.GET("/lookups", s.lookupsHandler)
		api.GET("/lookups/stats", s.lookupStatsHandler)
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"journal":   s.journal != nil,
		"timestamp": time.Now(),
	}
	if s.sweeper != nil {
		janitor := gin.H{
			"running": s.sweeper.IsRunning(),
			"sweeps":  s.sweeper.Sweeps(),
		}
		if last := s.sweeper.LastSweep(); !last.IsZero() {
			janitor["last_sweep"] = last
		}
		resp["janitor"] = janitor
	}
	c.JSON(http.StatusOK, resp)
}
