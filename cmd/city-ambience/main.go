package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"city-ambience/config"
	"city-ambience/internal/api"
	"city-ambience/internal/citycontext"
	"city-ambience/internal/clock"
	"city-ambience/internal/geo"
	"city-ambience/internal/janitor"
	"city-ambience/internal/metrics"
	"city-ambience/internal/mqtt"
	"city-ambience/internal/radio"
	"city-ambience/internal/sounds"
	"city-ambience/internal/storage"
	"city-ambience/internal/weather"
	"city-ambience/internal/webcam"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "city-ambience",
		Short: "City ambience web service",
		Long:  "Serves weather, local time, radio, webcams and ambient sounds for a city",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(soundsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// services holds everything the pipeline and the HTTP layer share.
type services struct {
	pipeline *citycontext.Pipeline
	weather  *weather.Service
	radio    *radio.Directory
	webcams  *webcam.Finder
	sounds   *sounds.Selector
	metrics  *metrics.Metrics
}

func buildServices(cfg *config.Config, m *metrics.Metrics) (*services, error) {
	timeout := cfg.Upstream.Timeout

	geocoder := geo.NewGeocoder(geo.GeocoderConfig{
		Source:         geo.NewOpenMeteoSource(cfg.Geocoder.URL, cfg.Geocoder.Language, timeout),
		DefaultCountry: cfg.Geocoder.DefaultCountry,
		FallbackChain:  cfg.Geocoder.FallbackChain,
		Timeout:        timeout,
	})

	timezones, err := geo.NewTimezoneResolver()
	if err != nil {
		return nil, err
	}

	var provider weather.Provider
	switch cfg.Weather.Provider {
	case "openweather":
		if cfg.Weather.APIKey != "" {
			provider = weather.NewOpenWeatherClient(cfg.Weather.APIKey, cfg.Weather.URL, cfg.Weather.Units, cfg.Weather.Language, timeout)
		} else {
			log.Println("Weather API key is not set, serving mock weather")
		}
	case "openmeteo":
		provider = weather.NewOpenMeteoClient(geocoder, "", timeout)
	case "mock":
	default:
		return nil, fmt.Errorf("unknown weather provider %q", cfg.Weather.Provider)
	}
	weatherSvc := weather.NewService(provider, cfg.Weather.Provider, m)

	radioDir := radio.NewDirectory(cfg.Radio.URL, timeout, m)

	if cfg.Webcam.APIKey == "" {
		log.Println("Webcam API key is not set, serving curated webcams")
	}
	webcams := webcam.NewFinder(webcam.FinderConfig{
		APIKey:  cfg.Webcam.APIKey,
		BaseURL: cfg.Webcam.URL,
		Timeout: timeout,
		Metrics: m,
	})

	selector := sounds.NewSelector(cfg.Sounds.Dir)

	pipeline := citycontext.New(citycontext.Config{
		Geocoder:  geocoder,
		Timezones: timezones,
		Clock:     clock.NewService(),
		Weather:   weatherSvc,
		Radio:     radioDir,
		Webcams:   webcams,
		Sounds:    selector,
		Metrics:   m,
		Timeout:   timeout,
	})

	return &services{
		pipeline: pipeline,
		weather:  weatherSvc,
		radio:    radioDir,
		webcams:  webcams,
		sounds:   selector,
		metrics:  m,
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web service",
		Long:  "Start the HTTP server, and the lookup journal and MQTT publisher when enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			m := metrics.New(prometheus.NewRegistry())
			svc, err := buildServices(cfg, m)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			serverCfg := api.ServerConfig{
				Port:       cfg.API.Port,
				StaticPath: cfg.API.StaticPath,
				Pipeline:   svc.pipeline,
				Weather:    svc.weather,
				Radio:      svc.radio,
				Webcams:    svc.webcams,
				Sounds:     svc.sounds,
				Metrics:    m,
				Timeout:    cfg.Upstream.Timeout,
			}

			if cfg.Journal.Enabled {
				db, err := storage.NewDatabase(cfg.Journal.Path)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer db.Close()
				log.Printf("Lookup journal opened at %s", cfg.Journal.Path)
				serverCfg.Journal = db

				sweeper := janitor.New(janitor.Config{
					Store:     db,
					Retention: cfg.Journal.Retention,
					Interval:  cfg.Journal.SweepInterval,
					Enabled:   true,
				})
				serverCfg.Sweeper = sweeper
				go func() {
					if err := sweeper.Start(ctx); err != nil {
						log.Printf("Janitor error: %v", err)
					}
				}()
			}

			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
			} else if cfg.MQTT.Enabled {
				log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
				serverCfg.Publisher = publisher
				defer publisher.Close()
			}

			server, err := api.NewServer(serverCfg)
			if err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
			}()

			log.Println("City ambience started. Press Ctrl+C to stop.")

			select {
			case <-sigChan:
			case err := <-errChan:
				return fmt.Errorf("API server error: %w", err)
			}

			log.Println("Shutting down...")
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return server.Stop(shutdownCtx)
		},
	}
}

func lookupCmd() *cobra.Command {
	var country string

	cmd := &cobra.Command{
		Use:   "lookup <city>",
		Short: "Build the context for a city once",
		Long:  "Run the full city pipeline once and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			svc, err := buildServices(cfg, nil)
			if err != nil {
				return err
			}

			result, err := svc.pipeline.Build(cmd.Context(), citycontext.Query{Name: args[0], CountryHint: country})

			output, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(output))
			return err
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "ISO country hint tried before the fallback chain")
	return cmd
}

func soundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sounds",
		Short: "Check the ambient sound files",
		Long:  "Report which manifest sound files are present in the sounds directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			selector := sounds.NewSelector(cfg.Sounds.Dir)
			fmt.Printf("Sounds directory: %s\n", cfg.Sounds.Dir)

			for _, p := range []clock.Period{clock.Day, clock.Night} {
				available := make(map[string]bool)
				for _, name := range selector.Available(p) {
					available[name] = true
				}

				fmt.Printf("\n%s (%d/%d present):\n", p, len(available), len(sounds.Manifest(p)))
				for _, name := range sounds.Manifest(p) {
					status := "missing"
					if available[name] {
						status = "ok"
					}
					fmt.Printf("  %-20s %s\n", name, status)
				}
			}

			fmt.Printf("\nPlaceholder when nothing is present: %s\n", sounds.Placeholder)
			return nil
		},
	}
}
