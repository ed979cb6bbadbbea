// Package config loads process configuration from an optional YAML file
// overlaid with environment variables. Environment always wins, so a
// deployment can ship a base config file and override per-instance values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL     string `yaml:"database_url"`
	ServerPort      string `yaml:"server_port"`
	FrontendURL     string `yaml:"frontend_url"`
	TokenSecret     string `yaml:"token_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	RedisURL        string `yaml:"redis_url"`
	RateLimit       string `yaml:"rate_limit"`
	EnableHSTS      bool   `yaml:"enable_hsts"`
	ServerDebugMode bool   `yaml:"server_debug_mode"`
	OTELEnabled     bool   `yaml:"otel_enabled"`
	OTELEndpoint    string `yaml:"otel_endpoint"`
}

// Load builds the configuration. If CONFIG_FILE names a YAML file it is
// read first; environment variables then override any file values.
// DATABASE_URL and TOKEN_SECRET are required.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      "8080",
		FrontendURL:     "http://localhost:3000",
		TokenTTLMinutes: 60,
		RedisURL:        "redis://localhost:6379/0",
		RateLimit:       "5-S",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	overlayString(&cfg.DatabaseURL, "DATABASE_URL")
	overlayString(&cfg.ServerPort, "SERVER_PORT")
	overlayString(&cfg.FrontendURL, "FRONTEND_URL")
	overlayString(&cfg.TokenSecret, "TOKEN_SECRET")
	overlayInt(&cfg.TokenTTLMinutes, "TOKEN_TTL_MINUTES")
	overlayString(&cfg.RedisURL, "REDIS_URL")
	overlayString(&cfg.RateLimit, "RATE_LIMIT")
	overlayBool(&cfg.EnableHSTS, "ENABLE_HSTS")
	overlayBool(&cfg.ServerDebugMode, "SERVER_DEBUG_MODE")
	overlayBool(&cfg.OTELEnabled, "OTEL_ENABLED")
	overlayString(&cfg.OTELEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}

	return cfg, nil
}

func overlayString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func overlayBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value == "true" || value == "1" || value == "yes"
	}
}

func overlayInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*dst = parsed
		}
	}
}
