// Package config implements C11: environment-variable configuration with
// an optional YAML overlay file, grounded on the teacher's pkg/config/
// config.go (env vars with defaults) and profile_loader.go (YAML-backed
// config structs via gopkg.in/yaml.v3).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the engine's runtime configuration (spec §4.5/§4.7/§4.9).
type Config struct {
	SigningKeyHex string `yaml:"signing_key_hex"`
	PublicKeyHex  string `yaml:"public_key_hex"`
	LedgerPath    string `yaml:"ledger_path"`
	LedgerDir     string `yaml:"ledger_dir"`

	RotateByTenant bool `yaml:"rotate_by_tenant"`

	TTLMaxAgeSeconds    int `yaml:"ttl_max_age_seconds"`
	ThrottleMaxRequests int `yaml:"throttle_max_requests"`
	ThrottleWindowMs    int `yaml:"throttle_window_ms"`
	BreakerThreshold    int `yaml:"breaker_threshold"`
	BreakerResetSeconds int `yaml:"breaker_reset_seconds"`

	RedisAddr string `yaml:"redis_addr"`

	LogLevel string `yaml:"log_level"`
}

// Load builds a Config from environment variables, then overlays a YAML
// file at yamlPath if non-empty and present, with YAML values taking
// precedence over environment defaults (mirrors the teacher's env-first,
// profile-overlay layering).
func Load(yamlPath string) (*Config, error) {
	cfg := &Config{
		SigningKeyHex:       os.Getenv("SIGNING_KEY_HEX"),
		PublicKeyHex:        os.Getenv("PUBLIC_KEY_HEX"),
		LedgerPath:          envOr("LEDGER_PATH", "ledger.ndjson"),
		LedgerDir:           envOr("LEDGER_DIR", "."),
		RotateByTenant:      os.Getenv("ROTATE_BY_TENANT") == "true",
		TTLMaxAgeSeconds:    envInt("TTL_MAX_AGE_SECONDS", 86400),
		ThrottleMaxRequests: envInt("THROTTLE_MAX_REQUESTS", 20),
		ThrottleWindowMs:    envInt("THROTTLE_WINDOW_MS", 1000),
		BreakerThreshold:    envInt("BREAKER_THRESHOLD", 5),
		BreakerResetSeconds: envInt("BREAKER_RESET_SECONDS", 30),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
	}

	if yamlPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", yamlPath, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", yamlPath, err)
	}
	return cfg, nil
}

// TTLMaxAge returns TTLMaxAgeSeconds as a time.Duration.
func (c *Config) TTLMaxAge() time.Duration {
	return time.Duration(c.TTLMaxAgeSeconds) * time.Second
}

// BreakerResetAfter returns BreakerResetSeconds as a time.Duration.
func (c *Config) BreakerResetAfter() time.Duration {
	return time.Duration(c.BreakerResetSeconds) * time.Second
}

// ThrottleWindow returns ThrottleWindowMs as a time.Duration.
func (c *Config) ThrottleWindow() time.Duration {
	return time.Duration(c.ThrottleWindowMs) * time.Millisecond
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}
