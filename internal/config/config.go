package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Backends accepted in Config.Backend.
const (
	BackendBolt     = "bolt"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendDisabled = "disabled"
)

// Config holds startup configuration for a site instance.
type Config struct {
	Backend     string `env:"NVT_BACKEND" envDefault:"bolt"`
	DataDir     string `env:"NVT_DATA_DIR" envDefault:"data"`
	MemoryQuota int    `env:"NVT_MEMORY_QUOTA" envDefault:"0"` // bytes, memory backend only
	RecentMax   int    `env:"NVT_RECENT_MAX" envDefault:"10"`
	ContentDir  string `env:"NVT_CONTENT_DIR"` // empty uses the embedded fixtures
	LogLevel    string `env:"NVT_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"NVT_LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

// Parse reads the process environment without validating, for callers that
// apply overrides (flags) before calling Validate themselves.
func Parse() (Config, error) {
	return parseOnly(env.Options{})
}

func parseOnly(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func parse(opts env.Options) (Config, error) {
	cfg, err := parseOnly(opts)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field combinations env tags cannot express.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendBolt, BackendSQLite:
		if c.DataDir == "" {
			return fmt.Errorf("NVT_DATA_DIR is required for backend %q", c.Backend)
		}
	case BackendMemory, BackendDisabled:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.RecentMax <= 0 {
		return fmt.Errorf("NVT_RECENT_MAX must be positive, got %d", c.RecentMax)
	}
	if c.MemoryQuota < 0 {
		return fmt.Errorf("NVT_MEMORY_QUOTA must not be negative")
	}
	return nil
}
