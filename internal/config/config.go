package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neexbeast/skycast/internal/weather"
)

// Config holds runtime settings for the server and the CLI.
type Config struct {
	Port        string `yaml:"port"`
	APIKey      string `yaml:"api_key"`
	RedisURL    string `yaml:"redis_url"`
	BearerToken string `yaml:"bearer_token"`

	CurrentURL  string `yaml:"current_url"`
	ForecastURL string `yaml:"forecast_url"`
	IconBaseURL string `yaml:"icon_base_url"`
	DefaultCity string `yaml:"default_city"`

	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	DisplayTTL        time.Duration `yaml:"display_ttl"`
}

// ErrMissingAPIKey is returned when no OpenWeatherMap key is configured.
var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is not set")

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:              "8080",
		RedisURL:          "redis://localhost:6379/0",
		CurrentURL:        "https://api.openweathermap.org/data/2.5/weather",
		ForecastURL:       "https://api.openweathermap.org/data/2.5/forecast",
		IconBaseURL:       weather.DefaultIconBaseURL,
		DefaultCity:       "London",
		RequestsPerSecond: 1,
		Burst:             5,
		DisplayTTL:        time.Hour,
	}
}

// Load builds a Config from defaults, then the YAML file at path (if path is
// non-empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.APIKey == "" {
		return Config{}, ErrMissingAPIKey
	}
	if cfg.RequestsPerSecond <= 0 {
		return Config{}, fmt.Errorf("requests per second must be positive, got %v", cfg.RequestsPerSecond)
	}
	if cfg.Burst < 1 {
		return Config{}, fmt.Errorf("burst must be at least 1, got %d", cfg.Burst)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.APIKey, "OPENWEATHER_API_KEY")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.BearerToken, "BEARER_TOKEN")
	setString(&cfg.CurrentURL, "OPENWEATHER_CURRENT_URL")
	setString(&cfg.ForecastURL, "OPENWEATHER_FORECAST_URL")
	setString(&cfg.IconBaseURL, "ICON_BASE_URL")
	setString(&cfg.DefaultCity, "DEFAULT_CITY")

	if v := os.Getenv("WEATHER_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing WEATHER_RPS: %w", err)
		}
		cfg.RequestsPerSecond = f
	}
	if v := os.Getenv("WEATHER_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing WEATHER_BURST: %w", err)
		}
		cfg.Burst = n
	}
	if v := os.Getenv("DISPLAY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing DISPLAY_TTL: %w", err)
		}
		cfg.DisplayTTL = d
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
