package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/i474232898/solar-data-layers/internal/common"
	"github.com/i474232898/solar-data-layers/internal/log"
	"github.com/i474232898/solar-data-layers/internal/solar"
)

type AppConfig struct {
	// GoogleAPIKey is handed to every Google client at construction.
	GoogleAPIKey string

	Port        string
	HTTPTimeout time.Duration

	Retry RetryConfig

	// Data-layers parameters used for every query.
	Locate solar.LocateDefaults

	StaticMapZoom int
	StaticMapSize string

	// Memo caches.
	CacheBackend    string        // "memory" or "valkey"
	CacheMaxEntries int           // max keys per cache (0 = unlimited)
	CacheMaxAge     time.Duration // max age of an entry (0 = never expires)
	ValkeyAddr      string

	// Rendered layers are kept in process only; decoded rasters are too
	// large to ship to valkey.
	RenderCacheEntries int // 0 disables the cache
	RenderCacheMaxAge  time.Duration

	// Addresses whose lookups are periodically re-warmed.
	WarmAddresses []string
	WarmInterval  time.Duration

	LogLevel  string
	LogFormat string
}

type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Load reads configuration from a .env file, an optional config.yaml and
// environment variables, with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found or error loading it", zap.Error(err))
	}
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("retry_max", 2)
	v.SetDefault("retry_initial_interval", "500ms")
	v.SetDefault("retry_max_interval", "5s")
	v.SetDefault("solar_radius_meters", solar.DefaultLocate.RadiusMeters)
	v.SetDefault("solar_view", solar.DefaultLocate.View)
	v.SetDefault("solar_quality", solar.DefaultLocate.Quality)
	v.SetDefault("solar_pixel_size", solar.DefaultLocate.PixelSizeMeters)
	v.SetDefault("static_map_zoom", 19)
	v.SetDefault("static_map_size", "600x600")
	v.SetDefault("cache_backend", "memory")
	v.SetDefault("cache_max_entries", 0)
	v.SetDefault("cache_max_age", "0s")
	v.SetDefault("valkey_addr", "localhost:6379")
	v.SetDefault("render_cache_entries", 16)
	v.SetDefault("render_cache_max_age", "10m")
	v.SetDefault("warm_addresses", "")
	v.SetDefault("warm_interval", "1h")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("google_api_key", "")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig()

	// Environment variables: SOLAR_VIEW -> solar_view, GOOGLE_API_KEY -> google_api_key
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		GoogleAPIKey: v.GetString("google_api_key"),
		Port:         v.GetString("port"),
		Locate: solar.LocateDefaults{
			RadiusMeters:    v.GetFloat64("solar_radius_meters"),
			View:            v.GetString("solar_view"),
			Quality:         v.GetString("solar_quality"),
			PixelSizeMeters: v.GetFloat64("solar_pixel_size"),
		},
		StaticMapZoom:      v.GetInt("static_map_zoom"),
		StaticMapSize:      v.GetString("static_map_size"),
		CacheBackend:       strings.ToLower(v.GetString("cache_backend")),
		CacheMaxEntries:    v.GetInt("cache_max_entries"),
		ValkeyAddr:         v.GetString("valkey_addr"),
		RenderCacheEntries: v.GetInt("render_cache_entries"),
		WarmAddresses:      common.SplitList(v.GetString("warm_addresses"), ";"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
	}
	cfg.Retry.MaxRetries = v.GetInt("retry_max")

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"http_timeout", &cfg.HTTPTimeout},
		{"retry_initial_interval", &cfg.Retry.InitialInterval},
		{"retry_max_interval", &cfg.Retry.MaxInterval},
		{"cache_max_age", &cfg.CacheMaxAge},
		{"render_cache_max_age", &cfg.RenderCacheMaxAge},
		{"warm_interval", &cfg.WarmInterval},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", strings.ToUpper(d.key), err)
		}
		*d.dst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *AppConfig) Validate() error {
	var errs []string

	if c.GoogleAPIKey == "" {
		errs = append(errs, "GOOGLE_API_KEY is required")
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT must be positive")
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, "RETRY_MAX must not be negative")
	}
	if c.Retry.InitialInterval <= 0 {
		errs = append(errs, "RETRY_INITIAL_INTERVAL must be positive")
	}
	if c.Locate.RadiusMeters <= 0 {
		errs = append(errs, "SOLAR_RADIUS_METERS must be positive")
	}
	if c.Locate.PixelSizeMeters <= 0 {
		errs = append(errs, "SOLAR_PIXEL_SIZE must be positive")
	}
	switch c.CacheBackend {
	case "memory":
	case "valkey":
		if c.ValkeyAddr == "" {
			errs = append(errs, "VALKEY_ADDR is required when CACHE_BACKEND=valkey")
		}
	default:
		errs = append(errs, fmt.Sprintf("CACHE_BACKEND must be memory or valkey, got %q", c.CacheBackend))
	}
	if c.RenderCacheEntries < 0 {
		errs = append(errs, "RENDER_CACHE_ENTRIES must not be negative")
	}
	if len(c.WarmAddresses) > 0 && c.WarmInterval < time.Minute {
		errs = append(errs, "WARM_INTERVAL must be at least 1m")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
