// Package config assembles the immutable process-wide configuration
// from the environment. It is built once in main and passed by
// reference; nothing reads environment variables after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names.
const (
	EnvAddr             = "SDMS_ADDR"
	EnvPostgresDSN      = "SDMS_PG_DSN"
	EnvSigningSecret    = "SDMS_JWT_SECRET"
	EnvSigningAlgorithm = "SDMS_JWT_ALGORITHM"
	EnvAccessTTLMinutes = "SDMS_ACCESS_TTL_MINUTES"
	EnvRefreshTTLDays   = "SDMS_REFRESH_TTL_DAYS"
	EnvRateLimitPerSec  = "SDMS_RATE_LIMIT_PER_SECOND"
	EnvRateLimitBurst   = "SDMS_RATE_LIMIT_BURST"
)

const (
	defaultAddr             = ":8080"
	defaultAlgorithm        = "HS256"
	defaultAccessTTLMinutes = 30
	defaultRefreshTTLDays   = 7
	defaultRatePerSecond    = 20
	defaultRateBurst        = 40
)

// Config is the validated, immutable process configuration.
type Config struct {
	Addr             string
	PostgresDSN      string
	SigningSecret    string
	SigningAlgorithm string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	RatePerSecond    int
	RateBurst        int
}

// FromEnv reads configuration from the environment and validates it.
// Missing required values are an error; the caller is expected to fail
// fast.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:             envOr(EnvAddr, defaultAddr),
		PostgresDSN:      os.Getenv(EnvPostgresDSN),
		SigningSecret:    os.Getenv(EnvSigningSecret),
		SigningAlgorithm: envOr(EnvSigningAlgorithm, defaultAlgorithm),
	}

	accessMinutes, err := envInt(EnvAccessTTLMinutes, defaultAccessTTLMinutes)
	if err != nil {
		return nil, err
	}
	refreshDays, err := envInt(EnvRefreshTTLDays, defaultRefreshTTLDays)
	if err != nil {
		return nil, err
	}
	cfg.AccessTokenTTL = time.Duration(accessMinutes) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(refreshDays) * 24 * time.Hour

	if cfg.RatePerSecond, err = envInt(EnvRateLimitPerSec, defaultRatePerSecond); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = envInt(EnvRateLimitBurst, defaultRateBurst); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.SigningSecret == "" {
		return fmt.Errorf("config: %s is required", EnvSigningSecret)
	}
	switch c.SigningAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("config: unsupported signing algorithm %q", c.SigningAlgorithm)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("config: access token TTL must be positive")
	}
	if c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("config: refresh token TTL must be positive")
	}
	if c.RatePerSecond <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("config: rate limit values must be positive")
	}
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", name, err)
	}
	return v, nil
}
