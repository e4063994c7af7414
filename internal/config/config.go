// Package config loads run configuration from an optional YAML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/tribesim/internal/engine"
)

// Config is the full runtime configuration.
type Config struct {
	Seed         int64  `yaml:"seed"`
	LogLevel     string `yaml:"log_level"`
	JournalDSN   string `yaml:"journal_dsn"`    // sqlite path or postgres:// URL; empty disables
	RandomOrgKey string `yaml:"random_org_key"` // live runs only; breaks reproducibility

	API  APIConfig  `yaml:"api"`
	Live LiveConfig `yaml:"live"`

	Params engine.Params `yaml:"params"`
}

// APIConfig configures the HTTP control plane.
type APIConfig struct {
	Port        int           `yaml:"port"` // 0 disables the server
	AdminKey    string        `yaml:"admin_key"`
	RateLimit   int           `yaml:"rate_limit"` // POST requests per client per window
	RateWindow  time.Duration `yaml:"rate_window"`
	CORSOrigins []string      `yaml:"cors_origins"`
}

// LiveConfig configures real-time advancement.
type LiveConfig struct {
	Interval time.Duration `yaml:"interval"`
	Speed    float64       `yaml:"speed"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Seed:     1,
		LogLevel: "info",
		API: APIConfig{
			RateLimit:  30,
			RateWindow: time.Minute,
		},
		Live: LiveConfig{
			Interval: time.Second,
			Speed:    1.0,
		},
		Params: engine.DefaultParams(),
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Seed = int64(envIntOrDefault("TRIBESIM_SEED", int(c.Seed)))
	c.LogLevel = envOrDefault("TRIBESIM_LOG_LEVEL", c.LogLevel)
	c.JournalDSN = envOrDefault("TRIBESIM_JOURNAL", c.JournalDSN)
	c.RandomOrgKey = envOrDefault("RANDOM_ORG_API_KEY", c.RandomOrgKey)
	c.API.AdminKey = envOrDefault("TRIBESIM_ADMIN_KEY", c.API.AdminKey)
	c.API.Port = envIntOrDefault("TRIBESIM_API_PORT", c.API.Port)
	if origins := envOrDefault("CORS_ORIGINS", ""); origins != "" {
		c.API.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.API.CORSOrigins = append(c.API.CORSOrigins, o)
			}
		}
	}
}

// Validate rejects configurations the program cannot run with.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	if c.API.Port > 0 && (c.API.RateLimit <= 0 || c.API.RateWindow <= 0) {
		errs = append(errs, errors.New("api.rate_limit and api.rate_window must be positive when the API is enabled"))
	}
	if c.Live.Interval <= 0 {
		errs = append(errs, fmt.Errorf("live.interval must be positive, got %s", c.Live.Interval))
	}
	if err := c.Params.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("params: %w", err))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name onto a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
