// Package config loads client configuration from a YAML file, a .env file
// and STOREFRONT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOREFRONT"

// Storage backends.
const (
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config is the client configuration.
type Config struct {
	APIURL   string        `yaml:"apiURL" envconfig:"API_URL"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	LogLevel string        `yaml:"logLevel" envconfig:"LOG_LEVEL"`

	Storage           string `yaml:"storage" envconfig:"STORAGE"`
	StorageDir        string `yaml:"storageDir" envconfig:"STORAGE_DIR"`
	RedisAddr         string `yaml:"redisAddr" envconfig:"REDIS_ADDR"`
	RedisPassword     string `yaml:"redisPassword" envconfig:"REDIS_PASSWORD"`
	RedisPrefix       string `yaml:"redisPrefix" envconfig:"REDIS_PREFIX"`
	PostgresDSN       string `yaml:"postgresDSN" envconfig:"POSTGRES_DSN"`
	PostgresNamespace string `yaml:"postgresNamespace" envconfig:"POSTGRES_NAMESPACE"`

	PaymentReturnAddr string        `yaml:"paymentReturnAddr" envconfig:"PAYMENT_RETURN_ADDR"`
	NotifyCapacity    int           `yaml:"notifyCapacity" envconfig:"NOTIFY_CAPACITY"`
	DebounceDelay     time.Duration `yaml:"debounceDelay" envconfig:"DEBOUNCE_DELAY"`
}

// Dir is the per-user configuration directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "storefront")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "storefront")
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:            "http://localhost:8080/api/",
		Timeout:           30 * time.Second,
		LogLevel:          "warn",
		Storage:           StorageFile,
		StorageDir:        Dir(),
		RedisPrefix:       "storefront:",
		PostgresNamespace: "default",
		PaymentReturnAddr: "127.0.0.1:5173",
		NotifyCapacity:    32,
		DebounceDelay:     500 * time.Millisecond,
	}
}

// Load reads config from path (DefaultPath when empty). A missing default
// file is not an error; a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("env config: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks a configuration assembled outside Load (after flag overrides).
func (c Config) Validate() error { return validateConfig(c) }

func validateConfig(cfg Config) error {
	u, err := url.Parse(strings.TrimSpace(cfg.APIURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: apiURL %q must be an absolute URL", cfg.APIURL)
	}
	if cfg.Timeout <= 0 {
		return errors.New("config: timeout must be > 0")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logLevel %q must be one of debug, info, warn, error", cfg.LogLevel)
	}
	switch cfg.Storage {
	case StorageFile:
		if strings.TrimSpace(cfg.StorageDir) == "" {
			return errors.New("config: storageDir is required for file storage")
		}
	case StorageRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for redis storage (set in config.yaml or STOREFRONT_REDIS_ADDR)")
		}
	case StoragePostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return errors.New("config: postgresDSN is required for postgres storage (set in config.yaml or STOREFRONT_POSTGRES_DSN)")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("config: unknown storage %q", cfg.Storage)
	}
	if cfg.NotifyCapacity <= 0 {
		return errors.New("config: notifyCapacity must be > 0")
	}
	if cfg.DebounceDelay < 0 {
		return errors.New("config: debounceDelay must be >= 0")
	}
	return nil
}
