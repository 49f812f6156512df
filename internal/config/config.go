// Package config loads the service configuration from YAML with
// environment overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BuzzScud/ALGO3D-sub004/internal/provider/custom"
)

type Server struct {
	Port              string `yaml:"port"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

type Market struct {
	// Timezone is the IANA zone timestamps are rendered in.
	Timezone string `yaml:"timezone"`
}

type Finnhub struct {
	Enabled            bool   `yaml:"enabled"`
	Token              string `yaml:"token"`
	BaseURL            string `yaml:"base_url"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type Yahoo struct {
	Enabled            bool              `yaml:"enabled"`
	BaseURL            string            `yaml:"base_url"`
	RateLimitPerMinute int               `yaml:"rate_limit_per_minute"`
	SymbolMap          map[string]string `yaml:"symbol_map"`
}

// Custom configures an optional quote-only provider appended to the
// fallback chain.
type Custom struct {
	Enabled            bool            `yaml:"enabled"`
	Name               string          `yaml:"name"`
	BaseURL            string          `yaml:"base_url"`
	AuthType           string          `yaml:"auth_type"`
	AuthKey            string          `yaml:"auth_key"`
	AuthValue          string          `yaml:"auth_value"`
	Fields             custom.FieldMap `yaml:"fields"`
	RateLimitPerMinute int             `yaml:"rate_limit_per_minute"`
}

type Cache struct {
	// Backend is "memory" or "redis".
	Backend     string `yaml:"backend"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
	ChartTTLSec int    `yaml:"chart_ttl_sec"`
	QuoteTTLSec int    `yaml:"quote_ttl_sec"`
}

type Database struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// FlushSchedule is a cron spec for persisting usage snapshots.
	FlushSchedule string `yaml:"flush_schedule"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Market   Market   `yaml:"market"`
	Finnhub  Finnhub  `yaml:"finnhub"`
	Yahoo    Yahoo    `yaml:"yahoo"`
	Custom   Custom   `yaml:"custom"`
	Cache    Cache    `yaml:"cache"`
	Database Database `yaml:"database"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 30},
		Market: Market{Timezone: "America/New_York"},
		Finnhub: Finnhub{
			Enabled:            true,
			RateLimitPerMinute: 60,
		},
		Yahoo: Yahoo{
			Enabled:            true,
			RateLimitPerMinute: 0,
		},
		Custom: Custom{Enabled: false},
		Cache: Cache{
			Backend:     "memory",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "algo3d",
			ChartTTLSec: 30,
			QuoteTTLSec: 60,
		},
		Database: Database{
			Enabled:       true,
			Path:          "usage.db",
			FlushSchedule: "@every 1m",
		},
	}
}

// Load reads YAML config from path. An empty path falls back to
// CONFIG_FILE, then config.yaml; a missing file yields defaults.
// Environment variables override secrets and deployment knobs.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if x, ok := envInt("REQUEST_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Server.RequestTimeoutSec = x
	}
	if v := os.Getenv("MARKET_TIMEZONE"); v != "" {
		cfg.Market.Timezone = v
	}
	if v := os.Getenv("FINNHUB_TOKEN"); v != "" {
		cfg.Finnhub.Token = v
	}
	if x, ok := envInt("FINNHUB_MAX_RPM"); ok && x >= 0 {
		cfg.Finnhub.RateLimitPerMinute = x
	}
	if v, ok := envBool("YAHOO_ENABLED"); ok {
		cfg.Yahoo.Enabled = v
	}
	if v := os.Getenv("CUSTOM_AUTH_VALUE"); v != "" {
		cfg.Custom.AuthValue = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	x, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return x, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	}
	return false, false
}
