package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. PV_FORECAST_BASE_URL.
const envPrefix = "PV"

// Config is the application configuration assembled from configs/config.yml,
// an optional .env file and PV_* environment variables.
type Config struct {
	Port string
	Log  LogConfig
	DB   DBConfig
	Auth AuthConfig

	Forecast ForecastConfig
	Site     SiteConfig
	Geocoder GeocoderConfig
	Events   EventsConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type DBConfig struct {
	Path string
}

type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

// ForecastConfig points at the remote forecast-computation service.
type ForecastConfig struct {
	BaseURL string
	Timeout time.Duration // transport timeout, the only one enforced
}

// SiteConfig holds the default site used until a position is confirmed.
type SiteConfig struct {
	DefaultLat float64
	DefaultLon float64
}

type GeocoderConfig struct {
	Provider     string // "nominatim" or "google"
	BaseURL      string
	CountryCodes string
	UserAgent    string
	Limit        int
	RPS          float64
	GoogleAPIKey string
}

// EventsConfig controls retention of the site gesture log.
type EventsConfig struct {
	Retention  time.Duration
	PruneEvery time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", "1h")
	v.SetDefault("forecast.base_url", "http://localhost:8000")
	v.SetDefault("forecast.timeout", "60s")
	v.SetDefault("site.default_lat", 45.0)
	v.SetDefault("site.default_lon", 9.0)
	v.SetDefault("geocoder.provider", "nominatim")
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocoder.country_codes", "it")
	v.SetDefault("geocoder.user_agent", "PV-App")
	v.SetDefault("geocoder.limit", 5)
	v.SetDefault("geocoder.rps", 1.0)
	v.SetDefault("geocoder.google_api_key", "")
	v.SetDefault("events.retention", "720h")
	v.SetDefault("events.prune_every", "1h")
}

// Load reads configuration from the given directories. A missing config file
// is not an error; defaults and environment still apply.
func Load(paths ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port: v.GetString("port"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		DB: DBConfig{Path: v.GetString("db.path")},
		Auth: AuthConfig{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
		},
		Forecast: ForecastConfig{
			BaseURL: strings.TrimRight(v.GetString("forecast.base_url"), "/"),
			Timeout: v.GetDuration("forecast.timeout"),
		},
		Site: SiteConfig{
			DefaultLat: v.GetFloat64("site.default_lat"),
			DefaultLon: v.GetFloat64("site.default_lon"),
		},
		Geocoder: GeocoderConfig{
			Provider:     strings.ToLower(v.GetString("geocoder.provider")),
			BaseURL:      v.GetString("geocoder.base_url"),
			CountryCodes: v.GetString("geocoder.country_codes"),
			UserAgent:    v.GetString("geocoder.user_agent"),
			Limit:        v.GetInt("geocoder.limit"),
			RPS:          v.GetFloat64("geocoder.rps"),
			GoogleAPIKey: v.GetString("geocoder.google_api_key"),
		},
		Events: EventsConfig{
			Retention:  v.GetDuration("events.retention"),
			PruneEvery: v.GetDuration("events.prune_every"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Forecast.BaseURL == "" {
		return errors.New("forecast.base_url is required")
	}
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required (set PV_AUTH_SIGNING_KEY)")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Geocoder.Provider {
	case "nominatim":
	case "google":
		if c.Geocoder.GoogleAPIKey == "" {
			return errors.New("geocoder.google_api_key is required for the google provider")
		}
	default:
		return fmt.Errorf("unknown geocoder.provider %q", c.Geocoder.Provider)
	}
	if c.Site.DefaultLat < -90 || c.Site.DefaultLat > 90 || c.Site.DefaultLon < -180 || c.Site.DefaultLon > 180 {
		return fmt.Errorf("default site %v,%v out of range", c.Site.DefaultLat, c.Site.DefaultLon)
	}
	return nil
}
