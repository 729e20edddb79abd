package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

// TrendingConfig carries the knobs for the trend feed and the hot-tags
// refresher. The cache TTL must outlive the refresh interval so the cache
// stays warm between refreshes.
type TrendingConfig struct {
	LookbackDays    int
	Gravity         float64
	HotTagsLimit    int
	RefreshInterval time.Duration
	CacheTTL        time.Duration
}

type AppConfig struct {
	ServiceName  string
	LogLevel     string
	HTTP         HTTPConfig
	StoreTimeout time.Duration
	Trending     TrendingConfig
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName:  strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:     strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		StoreTimeout: envDuration("STORE_TIMEOUT", 5*time.Second),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		Trending: TrendingConfig{
			LookbackDays:    envInt("TREND_LOOKBACK_DAYS", 7),
			Gravity:         envFloat("TREND_GRAVITY", 1.8),
			HotTagsLimit:    envInt("HOT_TAGS_LIMIT", 10),
			RefreshInterval: envDuration("HOT_TAGS_REFRESH_INTERVAL", 10*time.Minute),
			CacheTTL:        envDuration("HOT_TAGS_CACHE_TTL", 15*time.Minute),
		},
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "blog-api"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Trending.CacheTTL <= cfg.Trending.RefreshInterval {
		// keep the cache warm across a late refresh
		cfg.Trending.CacheTTL = cfg.Trending.RefreshInterval + 5*time.Minute
	}
	return cfg, nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
