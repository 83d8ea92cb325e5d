package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvGradingClarityTemperature = "CADENCE_GRADING_CLARITY_TEMPERATURE"
	EnvGradingContentTemperature = "CADENCE_GRADING_CONTENT_TEMPERATURE"
	EnvGradingCallTimeout        = "CADENCE_GRADING_CALL_TIMEOUT"
	EnvGradingJobTimeout         = "CADENCE_GRADING_JOB_TIMEOUT"
)

// GradingConfig tunes the analyses. A zero temperature selects the default.
type GradingConfig struct {
	ClarityTemperature float64 `toml:"clarity_temperature"`
	ContentTemperature float64 `toml:"content_temperature"`
	CallTimeout        string  `toml:"call_timeout"`
	JobTimeout         string  `toml:"job_timeout"`
}

// CallTimeoutDuration returns CallTimeout as a time.Duration.
func (c *GradingConfig) CallTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CallTimeout)
	return d
}

// JobTimeoutDuration returns JobTimeout as a time.Duration.
func (c *GradingConfig) JobTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.JobTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *GradingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *GradingConfig) Merge(overlay *GradingConfig) {
	if overlay.ClarityTemperature != 0 {
		c.ClarityTemperature = overlay.ClarityTemperature
	}
	if overlay.ContentTemperature != 0 {
		c.ContentTemperature = overlay.ContentTemperature
	}
	if overlay.CallTimeout != "" {
		c.CallTimeout = overlay.CallTimeout
	}
	if overlay.JobTimeout != "" {
		c.JobTimeout = overlay.JobTimeout
	}
}

func (c *GradingConfig) loadDefaults() {
	if c.ClarityTemperature == 0 {
		c.ClarityTemperature = 0.3
	}
	if c.ContentTemperature == 0 {
		c.ContentTemperature = 0.5
	}
	if c.CallTimeout == "" {
		c.CallTimeout = "90s"
	}
	if c.JobTimeout == "" {
		c.JobTimeout = "10m"
	}
}

func (c *GradingConfig) loadEnv() {
	if v := os.Getenv(EnvGradingClarityTemperature); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ClarityTemperature = f
		}
	}
	if v := os.Getenv(EnvGradingContentTemperature); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ContentTemperature = f
		}
	}
	if v := os.Getenv(EnvGradingCallTimeout); v != "" {
		c.CallTimeout = v
	}
	if v := os.Getenv(EnvGradingJobTimeout); v != "" {
		c.JobTimeout = v
	}
}

func (c *GradingConfig) validate() error {
	for name, t := range map[string]float64{
		"clarity_temperature": c.ClarityTemperature,
		"content_temperature": c.ContentTemperature,
	} {
		if t < 0 || t > 2 {
			return fmt.Errorf("%s must be within [0,2]: %v", name, t)
		}
	}
	call, err := time.ParseDuration(c.CallTimeout)
	if err != nil || call <= 0 {
		return fmt.Errorf("invalid call_timeout: %q", c.CallTimeout)
	}
	job, err := time.ParseDuration(c.JobTimeout)
	if err != nil || job <= 0 {
		return fmt.Errorf("invalid job_timeout: %q", c.JobTimeout)
	}
	if job < call {
		return fmt.Errorf("job_timeout %s is shorter than call_timeout %s", job, call)
	}
	return nil
}
