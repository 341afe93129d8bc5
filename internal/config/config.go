// Package config loads the server configuration: defaults, then an
// optional YAML file named by EXPEDITION_CONFIG, then EXPEDITION_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the full server configuration.
type Config struct {
	Listen         string           `yaml:"listen"`
	Shards         int              `yaml:"shards"` // 0 means one per CPU, at least 3
	QueueSize      int              `yaml:"queue_size"`
	RequestTimeout time.Duration    `yaml:"request_timeout"`
	Storage        StorageConfig    `yaml:"storage"`
	Supervisor     SupervisorConfig `yaml:"supervisor"`
}

// StorageConfig selects the session store.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"` // SQLite database file
}

// SupervisorConfig tunes shard health checks.
type SupervisorConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxFailures int           `yaml:"max_failures"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Listen:         ":8080",
		QueueSize:      256,
		RequestTimeout: 5 * time.Second,
		Storage: StorageConfig{
			Driver: DriverMemory,
			Path:   "expedition.db",
		},
		Supervisor: SupervisorConfig{
			Interval:    5 * time.Second,
			MaxFailures: 3,
		},
	}
}

// Load builds the configuration. getenv is usually os.Getenv.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("EXPEDITION_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("EXPEDITION_LISTEN", &c.Listen)
	num("EXPEDITION_SHARDS", &c.Shards)
	num("EXPEDITION_QUEUE_SIZE", &c.QueueSize)
	dur("EXPEDITION_REQUEST_TIMEOUT", &c.RequestTimeout)
	str("EXPEDITION_STORAGE", &c.Storage.Driver)
	str("EXPEDITION_SQLITE_PATH", &c.Storage.Path)
	dur("EXPEDITION_SUPERVISOR_INTERVAL", &c.Supervisor.Interval)
	num("EXPEDITION_MAX_PING_FAILURES", &c.Supervisor.MaxFailures)

	return errors.Join(errs...)
}

// Validate rejects settings the server can't run with.
func (c Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.Shards < 0 {
		errs = append(errs, fmt.Errorf("shards must not be negative, got %d", c.Shards))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue size must be positive, got %d", c.QueueSize))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %v", c.RequestTimeout))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("sqlite storage needs a path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Supervisor.Interval <= 0 {
		errs = append(errs, fmt.Errorf("supervisor interval must be positive, got %v", c.Supervisor.Interval))
	}
	if c.Supervisor.MaxFailures <= 0 {
		errs = append(errs, fmt.Errorf("max ping failures must be positive, got %d", c.Supervisor.MaxFailures))
	}
	return errors.Join(errs...)
}
