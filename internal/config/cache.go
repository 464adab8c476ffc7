package config

import (
	"fmt"
	"time"
)

// CacheConfig configures the persistent analysis cache.
type CacheConfig struct {
	// DatabasePath is the SQLite file backing the document store.
	DatabasePath string `yaml:"database_path"`

	// TTL is the cache validity window as a duration string ("24h").
	TTL string `yaml:"ttl"`
}

// DefaultCacheConfig returns sensible defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DatabasePath: ".webnerd/cache.db",
		TTL:          "24h",
	}
}

// TTLDuration parses the TTL string, falling back to 24 hours.
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Validate checks cache settings.
func (c CacheConfig) Validate() error {
	if c.TTL != "" {
		if _, err := time.ParseDuration(c.TTL); err != nil {
			return fmt.Errorf("cache.ttl is not a valid duration: %w", err)
		}
	}
	return nil
}
