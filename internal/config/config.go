// Package config loads the service configuration from config.toml, an
// optional environment overlay, and CADENCE_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/cadence/pkg/database"
	"github.com/JaimeStill/cadence/pkg/storage"
	"github.com/JaimeStill/cadence/pkg/tracing"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCadenceEnv             = "CADENCE_ENV"
	EnvCadenceShutdownTimeout = "CADENCE_SHUTDOWN_TIMEOUT"
	EnvCadenceVersion         = "CADENCE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "CADENCE_DB_HOST",
	Port:            "CADENCE_DB_PORT",
	Name:            "CADENCE_DB_NAME",
	User:            "CADENCE_DB_USER",
	Password:        "CADENCE_DB_PASSWORD",
	SSLMode:         "CADENCE_DB_SSL_MODE",
	ApplicationName: "CADENCE_DB_APPLICATION_NAME",
	MaxOpenConns:    "CADENCE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CADENCE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CADENCE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CADENCE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Enabled:          "CADENCE_STORAGE_ENABLED",
	ContainerName:    "CADENCE_STORAGE_CONTAINER_NAME",
	ConnectionString: "CADENCE_STORAGE_CONNECTION_STRING",
}

var tracingEnv = &tracing.Env{
	Enabled:     "CADENCE_TRACING_ENABLED",
	ServiceName: "CADENCE_TRACING_SERVICE_NAME",
	Endpoint:    "CADENCE_TRACING_ENDPOINT",
	Insecure:    "CADENCE_TRACING_INSECURE",
	SampleRatio: "CADENCE_TRACING_SAMPLE_RATIO",
}

// Config is the root configuration for the Cadence service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Agent           AgentConfig     `toml:"agent"`
	Grading         GradingConfig   `toml:"grading"`
	Queue           QueueConfig     `toml:"queue"`
	Tracing         tracing.Config  `toml:"tracing"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the CADENCE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCadenceEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Grading.Merge(&overlay.Grading)
	c.Queue.Merge(&overlay.Queue)
	c.Tracing.Merge(&overlay.Tracing)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Agent.Finalize(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Grading.Finalize(); err != nil {
		return fmt.Errorf("grading: %w", err)
	}
	if err := c.Queue.Finalize(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if err := c.Tracing.Finalize(tracingEnv); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCadenceShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCadenceVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvCadenceEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
