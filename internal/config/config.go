// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"PMT_DB_PATH" envDefault:"./data/pmt.db"`
	DBDriver      string `env:"PMT_DB_DRIVER" envDefault:"sqlite"` // sqlite (modernc) or sqlite3 (mattn, cgo)
	SessionSecret string `env:"PMT_SESSION_SECRET"`
	ServerHost    string `env:"PMT_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"PMT_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"PMT_ENV" envDefault:"development"`
	LogLevel      string `env:"PMT_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL               string `env:"PMT_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix            string `env:"PMT_CACHE_PREFIX" envDefault:"pmt:"`    // Redis key prefix
	CacheTTL               int    `env:"PMT_CACHE_TTL" envDefault:"10"`         // Aggregation cache TTL in seconds, 0 disables
	CacheMaxSize           int    `env:"PMT_CACHE_MAX_SIZE" envDefault:"1000"`  // Max memory cache entries
	CacheInvalidateOnWrite bool   `env:"PMT_CACHE_INVALIDATE_ON_WRITE" envDefault:"false"`

	// API rate limiting (per client IP)
	APIRateLimit float64 `env:"PMT_API_RATE_LIMIT" envDefault:"20"`
	APIRateBurst int     `env:"PMT_API_RATE_BURST" envDefault:"40"`

	// Seed the default accounts into an empty user directory on start
	Seed bool `env:"PMT_SEED" envDefault:"true"`

	// Event log housekeeping
	EventRetentionDays   int    `env:"PMT_EVENT_RETENTION_DAYS" envDefault:"90"` // 0 keeps events forever
	HousekeepingSchedule string `env:"PMT_HOUSEKEEPING_SCHEDULE" envDefault:"0 3 * * *"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheDuration returns the aggregation cache TTL.
func (c Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// EventRetention returns how long event log rows are kept. Zero keeps them forever.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
// The session secret is not checked here; commands that serve HTTP call
// ValidateSessionSecret.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("PMT_CACHE_TTL must not be negative, got %d", cfg.CacheTTL)
	}
	if cfg.APIRateLimit <= 0 || cfg.APIRateBurst <= 0 {
		return nil, fmt.Errorf("PMT_API_RATE_LIMIT and PMT_API_RATE_BURST must be positive")
	}
	if cfg.EventRetentionDays < 0 {
		return nil, fmt.Errorf("PMT_EVENT_RETENTION_DAYS must not be negative, got %d", cfg.EventRetentionDays)
	}

	return cfg, nil
}

// ValidateSessionSecret checks the secret used for sessions and CSRF tokens.
func (c Config) ValidateSessionSecret() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("PMT_SESSION_SECRET is required; " +
			"generate a secure secret with: openssl rand -base64 32")
	}

	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("PMT_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("PMT_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn("PMT_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
