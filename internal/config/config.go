package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	HTTPAddr string

	// Public API the event payloads are read from.
	APIOrigin string
	// Public web origin used for canonical URLs.
	SiteOrigin string
	SiteName   string

	// Native app handoff
	AppScheme    string
	AppStoreURL  string
	PlayStoreURL string

	// Upstream & Caching
	Revalidate      time.Duration
	RedisURL        string // empty: in-process cache
	UpstreamTimeout time.Duration
	DisplayTimezone string
	Location        *time.Location

	// Rate Limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	LogLevel  string
	LogFormat string

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":3000")

	cfg.APIOrigin = getEnv("API_ORIGIN", getEnv("NEXT_PUBLIC_API_URL", "https://api.messnightlife.com"))
	cfg.SiteOrigin = getEnv("SITE_ORIGIN", "https://messnightlife.com")
	cfg.SiteName = getEnv("SITE_NAME", "Mess")

	cfg.AppScheme = getEnv("APP_SCHEME", "nightlife")
	cfg.AppStoreURL = getEnv("APP_STORE_URL", "https://apps.apple.com/app/mess-nightlife")
	cfg.PlayStoreURL = getEnv("PLAY_STORE_URL", "https://play.google.com/store/apps/details?id=com.mess.nightlife")

	cfg.Revalidate = time.Duration(getIntEnv("REVALIDATE_SECONDS", 60)) * time.Second
	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.UpstreamTimeout = getDuration("UPSTREAM_TIMEOUT", 0)
	cfg.DisplayTimezone = getEnv("DISPLAY_TIMEZONE", "UTC")

	// Rate Limiting Defaults: 120 reqs / 1 min
	cfg.RLEnabled = getEnv("RL_ENABLED", "true") == "true"
	cfg.RLLimit = getIntEnv("RL_IP_LIMIT", 120)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.OTelEnabled = getEnv("OTEL_ENABLED", "false") == "true"
	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	cfg.OTelSampleRatio = getFloatEnv("OTEL_SAMPLE_RATIO", 1)

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)

	// validation
	if err := validateOrigin("API_ORIGIN", cfg.APIOrigin); err != nil {
		return nil, err
	}
	if err := validateOrigin("SITE_ORIGIN", cfg.SiteOrigin); err != nil {
		return nil, err
	}
	cfg.APIOrigin = strings.TrimRight(cfg.APIOrigin, "/")
	cfg.SiteOrigin = strings.TrimRight(cfg.SiteOrigin, "/")

	if strings.ContainsAny(cfg.AppScheme, ":/ ") {
		return nil, fmt.Errorf("invalid APP_SCHEME %q", cfg.AppScheme)
	}
	if cfg.Revalidate <= 0 {
		return nil, fmt.Errorf("REVALIDATE_SECONDS must be positive")
	}
	if cfg.RLEnabled {
		if cfg.RLLimit <= 0 {
			return nil, fmt.Errorf("RL_IP_LIMIT must be positive, got %d", cfg.RLLimit)
		}
		if cfg.RLWindow <= 0 {
			return nil, fmt.Errorf("RL_IP_WINDOW must be positive, got %s", cfg.RLWindow)
		}
	}

	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", cfg.DisplayTimezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func validateOrigin(key, v string) error {
	u, err := url.Parse(v)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid %s %q: want an absolute http(s) URL", key, v)
	}
	return nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getFloatEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
