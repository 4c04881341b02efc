package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. The timezone is fixed for the
// whole engine: the department does not support per-tenant zones.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// Timezone is the IANA zone all shift boundaries and "today"
	// computations are resolved in.
	Timezone string `yaml:"timezone"`

	// ShiftStartHour / ShiftEndHour define the overnight duty
	// convention: start hour on the roster date, end hour the next day.
	ShiftStartHour int `yaml:"shift_start_hour"`
	ShiftEndHour   int `yaml:"shift_end_hour"`

	// FeedCacheSeconds is the cache lifetime of the department-wide
	// calendar feed. Personal feeds are never cached.
	FeedCacheSeconds int `yaml:"feed_cache_seconds"`

	// DatabaseURL is normally supplied via the DATABASE_URL env var and
	// only read from the file as a fallback.
	DatabaseURL string `yaml:"database_url"`
}

// Default returns the in-memory default configuration.
func Default() *Config {
	return &Config{
		Listen:           ":8080",
		Timezone:         "Asia/Jerusalem",
		ShiftStartHour:   16,
		ShiftEndHour:     8,
		FeedCacheSeconds: 300,
	}
}

// Normalize fills missing or out-of-range values with defaults so
// partially-filled config files still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Jerusalem"
	}
	if c.ShiftStartHour < 0 || c.ShiftStartHour > 23 {
		c.ShiftStartHour = 16
	}
	if c.ShiftEndHour < 0 || c.ShiftEndHour > 23 {
		c.ShiftEndHour = 8
	}
	if c.FeedCacheSeconds <= 0 {
		c.FeedCacheSeconds = 300
	}
}

// Load reads YAML config from path, then applies env overrides. A
// missing file is not an error: defaults apply, overridden by env.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}
	cfg.Normalize()

	if port := os.Getenv("PORT"); port != "" {
		cfg.Listen = ":" + port
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}
	return cfg, nil
}
