package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Geocoder GeocoderConfig `mapstructure:"geocoder"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Radio    RadioConfig    `mapstructure:"radio"`
	Webcam   WebcamConfig   `mapstructure:"webcam"`
	Sounds   SoundsConfig   `mapstructure:"sounds"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Journal  JournalConfig  `mapstructure:"journal"`
}

type APIConfig struct {
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
}

type UpstreamConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type GeocoderConfig struct {
	URL            string   `mapstructure:"url"`
	Language       string   `mapstructure:"language"`
	DefaultCountry string   `mapstructure:"default_country"`
	FallbackChain  []string `mapstructure:"fallback_chain"`
}

type WeatherConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	URL      string `mapstructure:"url"`
	Units    string `mapstructure:"units"`
	Language string `mapstructure:"language"`
}

type RadioConfig struct {
	URL string `mapstructure:"url"`
}

type WebcamConfig struct {
	APIKey string `mapstructure:"api_key"`
	URL    string `mapstructure:"url"`
}

type SoundsConfig struct {
	Dir string `mapstructure:"dir"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type JournalConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"`

	// SweepInterval is how often rows older than Retention are removed.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/city-ambience")
	}

	v.SetDefault("api.port", 8000)
	v.SetDefault("api.static_path", "./static")
	v.SetDefault("upstream.timeout", "5s")
	v.SetDefault("geocoder.url", "https://geocoding-api.open-meteo.com/v1/search")
	v.SetDefault("geocoder.language", "en")
	v.SetDefault("geocoder.default_country", "RU")
	v.SetDefault("geocoder.fallback_chain", []string{"RU", "US", "GB", "FR"})
	v.SetDefault("weather.provider", "openweather")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.url", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("weather.units", "metric")
	v.SetDefault("weather.language", "ru")
	v.SetDefault("radio.url", "https://de1.api.radio-browser.info/json/stations/byname/")
	v.SetDefault("webcam.api_key", "")
	v.SetDefault("webcam.url", "https://api.windy.com/api/webcams/v3/webcams")
	v.SetDefault("sounds.dir", "")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "city-ambience")
	v.SetDefault("mqtt.client_id", "city-ambience")
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", "./city-ambience.db")
	v.SetDefault("journal.retention", "720h")
	v.SetDefault("journal.sweep_interval", "1h")

	v.SetEnvPrefix("CITY_AMBIENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The provider keys keep their historical bare names.
	_ = v.BindEnv("weather.api_key", "CITY_AMBIENCE_WEATHER_API_KEY", "WEATHER_API_KEY")
	_ = v.BindEnv("webcam.api_key", "CITY_AMBIENCE_WEBCAM_API_KEY", "WEB_CAM_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Sounds.Dir == "" {
		cfg.Sounds.Dir = cfg.API.StaticPath
	}

	return &cfg, nil
}
