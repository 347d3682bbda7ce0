package cache

import (
	"fmt"
	"time"
)

// Backend types.
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeNone   = "none"
)

// Config holds configuration for cache creation.
type Config struct {
	// Type is the cache backend type: "memory", "redis" or "none".
	// Empty means redis when RedisURL is set, memory otherwise.
	Type string

	// RedisURL is the Redis connection URL (only for redis type)
	// Example: redis://localhost:6379/0
	RedisURL string

	// Prefix is the key prefix for Redis (only for redis type)
	Prefix string

	// DefaultTTL is the default TTL for cache entries. Zero disables caching.
	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for memory cache (0 = unlimited)
	MaxSize int

	// CleanupInterval is the interval for expired entry cleanup
	CleanupInterval time.Duration
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            TypeMemory,
		Prefix:          "pmt:",
		DefaultTTL:      10 * time.Second,
		MaxSize:         1000,
		CleanupInterval: time.Minute,
	}
}

// Disabled reports whether cfg turns caching off.
func (cfg Config) Disabled() bool {
	return cfg.Type == TypeNone || cfg.DefaultTTL <= 0
}

func (cfg Config) backend() string {
	if cfg.Disabled() {
		return TypeNone
	}
	if cfg.Type != "" {
		return cfg.Type
	}
	if cfg.RedisURL != "" {
		return TypeRedis
	}
	return TypeMemory
}

// NewCache creates a cache based on the provided configuration.
func NewCache(cfg Config) (Cacher, error) {
	switch cfg.backend() {
	case TypeNone:
		return NewNoopCache(), nil
	case TypeRedis:
		c, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return c, nil
	case TypeMemory:
		return NewMemoryCache(MemoryCacheOptions{
			DefaultTTL:      cfg.DefaultTTL,
			MaxSize:         cfg.MaxSize,
			CleanupInterval: cfg.CleanupInterval,
		}), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

// BackendName returns a short label for logs and metrics.
func BackendName(c Cacher) string {
	switch c.(type) {
	case *RedisCache:
		return TypeRedis
	case *MemoryCache:
		return TypeMemory
	default:
		return TypeNone
	}
}
