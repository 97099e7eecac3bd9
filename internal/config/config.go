// Package config loads process configuration for the assessgate binary.
//
// Values are resolved in order: built-in defaults, an optional YAML file,
// then ASSESSGATE_* environment variables. The result is validated once.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lborres/assessgate/pkg/crypto"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ASSESSGATE_"

// Config holds all application configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Console ConsoleConfig `yaml:"console"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig points at the AssessAssist backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig selects where the session is persisted.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// Path is the file for the file and sqlite drivers.
	Path string `yaml:"path"`
	// DSN is the postgres connection string.
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table,omitempty"`
	// URL is the redis connection URL.
	URL    string        `yaml:"url"`
	Prefix string        `yaml:"prefix,omitempty"`
	TTL    time.Duration `yaml:"ttl,omitempty"`
	// Secret, when set, seals persisted entries.
	Secret string `yaml:"secret,omitempty"`
}

type ConsoleConfig struct {
	Addr           string        `yaml:"addr"`
	LoginTimeout   time.Duration `yaml:"login_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Metrics        bool          `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   defaultStorePath(),
		},
		Console: ConsoleConfig{
			Addr:           "127.0.0.1:8080",
			LoginTimeout:   30 * time.Second,
			RequestTimeout: 15 * time.Second,
			Metrics:        true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "assessgate-session.json"
	}
	return filepath.Join(dir, "assessgate", "session.json")
}

// Load resolves the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.API.BaseURL = getEnv("API_URL", c.API.BaseURL)
	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.Path = getEnv("STORE_PATH", c.Store.Path)
	c.Store.DSN = getEnv("STORE_DSN", c.Store.DSN)
	c.Store.Table = getEnv("STORE_TABLE", c.Store.Table)
	c.Store.URL = getEnv("STORE_URL", c.Store.URL)
	c.Store.Prefix = getEnv("STORE_PREFIX", c.Store.Prefix)
	c.Store.Secret = getEnv("SECRET", c.Store.Secret)
	c.Console.Addr = getEnv("CONSOLE_ADDR", c.Console.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	var err error
	if c.API.Timeout, err = getEnvDuration("API_TIMEOUT", c.API.Timeout); err != nil {
		return err
	}
	if c.Store.TTL, err = getEnvDuration("STORE_TTL", c.Store.TTL); err != nil {
		return err
	}
	if c.Console.LoginTimeout, err = getEnvDuration("LOGIN_TIMEOUT", c.Console.LoginTimeout); err != nil {
		return err
	}
	if c.Console.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", c.Console.RequestTimeout); err != nil {
		return err
	}
	if c.Console.Metrics, err = getEnvBool("CONSOLE_METRICS", c.Console.Metrics); err != nil {
		return err
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api timeout must be positive")
	}

	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store path is required for %s store", c.Store.Driver)
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("store dsn is required for postgres store")
		}
	case DriverRedis:
		if c.Store.URL == "" {
			return errors.New("store url is required for redis store")
		}
		if c.Store.TTL < 0 {
			return errors.New("store ttl must not be negative")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid store driver: %s (must be file, sqlite, postgres, redis or memory)", c.Store.Driver)
	}

	if c.Store.Secret != "" && len(c.Store.Secret) < crypto.MinSecretLength {
		return fmt.Errorf("%w - minimum of %d characters", crypto.ErrSecretTooShort, crypto.MinSecretLength)
	}

	if c.Console.LoginTimeout <= 0 || c.Console.RequestTimeout <= 0 {
		return errors.New("console timeouts must be positive")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return b, nil
}
