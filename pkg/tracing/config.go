package tracing

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls OpenTelemetry trace export. With Endpoint empty and
// tracing enabled, spans are written to stdout.
type Config struct {
	Enabled     bool    `toml:"enabled"`
	ServiceName string  `toml:"service_name"`
	Endpoint    string  `toml:"endpoint"`
	Insecure    bool    `toml:"insecure"`
	SampleRatio float64 `toml:"sample_ratio"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled     string
	ServiceName string
	Endpoint    string
	Insecure    string
	SampleRatio string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Insecure {
		c.Insecure = true
	}
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.SampleRatio != 0 {
		c.SampleRatio = overlay.SampleRatio
	}
}

func (c *Config) loadDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "cadence"
	}
	if c.SampleRatio == 0 {
		c.SampleRatio = 1
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := getenv(env.Enabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := getenv(env.Insecure); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Insecure = b
		}
	}
	if v := getenv(env.ServiceName); v != "" {
		c.ServiceName = v
	}
	if v := getenv(env.Endpoint); v != "" {
		c.Endpoint = v
	}
	if v := getenv(env.SampleRatio); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SampleRatio = f
		}
	}
}

func (c *Config) validate() error {
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("sample_ratio must be within [0,1]: %v", c.SampleRatio)
	}
	return nil
}

func getenv(key string) string {
	if key == "" {
		return ""
	}
	return os.Getenv(key)
}
