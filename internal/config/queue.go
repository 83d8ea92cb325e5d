package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/cadence/internal/jobs"
)

// Queue backends.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

const (
	EnvQueueBackend           = "CADENCE_QUEUE_BACKEND"
	EnvQueueCapacity          = "CADENCE_QUEUE_CAPACITY"
	EnvQueueWorkers           = "CADENCE_QUEUE_WORKERS"
	EnvQueueRedisAddr         = "CADENCE_QUEUE_REDIS_ADDR"
	EnvQueueRedisPassword     = "CADENCE_QUEUE_REDIS_PASSWORD"
	EnvQueueRedisDB           = "CADENCE_QUEUE_REDIS_DB"
	EnvQueueRedisKey          = "CADENCE_QUEUE_REDIS_KEY"
	EnvQueueRedisBlockTimeout = "CADENCE_QUEUE_REDIS_BLOCK_TIMEOUT"
)

// QueueConfig selects the job queue backend and sizes the worker pool.
type QueueConfig struct {
	Backend  string      `toml:"backend"`
	Capacity int         `toml:"capacity"`
	Workers  int         `toml:"workers"`
	Redis    RedisConfig `toml:"redis"`
}

// RedisConfig holds the connection settings for the redis backend.
type RedisConfig struct {
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	Key          string `toml:"key"`
	BlockTimeout string `toml:"block_timeout"`
}

// Options converts the section into jobs.RedisConfig.
func (c *RedisConfig) Options() jobs.RedisConfig {
	d, _ := time.ParseDuration(c.BlockTimeout)
	return jobs.RedisConfig{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		Key:          c.Key,
		BlockTimeout: d,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *QueueConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *QueueConfig) Merge(overlay *QueueConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Capacity != 0 {
		c.Capacity = overlay.Capacity
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.Redis.Addr != "" {
		c.Redis.Addr = overlay.Redis.Addr
	}
	if overlay.Redis.Password != "" {
		c.Redis.Password = overlay.Redis.Password
	}
	if overlay.Redis.DB != 0 {
		c.Redis.DB = overlay.Redis.DB
	}
	if overlay.Redis.Key != "" {
		c.Redis.Key = overlay.Redis.Key
	}
	if overlay.Redis.BlockTimeout != "" {
		c.Redis.BlockTimeout = overlay.Redis.BlockTimeout
	}
}

func (c *QueueConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = QueueMemory
	}
	if c.Capacity == 0 {
		c.Capacity = 256
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "cadence:gradings"
	}
	if c.Redis.BlockTimeout == "" {
		c.Redis.BlockTimeout = "5s"
	}
}

func (c *QueueConfig) loadEnv() {
	if v := os.Getenv(EnvQueueBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvQueueCapacity); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Capacity = n
		}
	}
	if v := os.Getenv(EnvQueueWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvQueueRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvQueueRedisPassword); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv(EnvQueueRedisDB); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv(EnvQueueRedisKey); v != "" {
		c.Redis.Key = v
	}
	if v := os.Getenv(EnvQueueRedisBlockTimeout); v != "" {
		c.Redis.BlockTimeout = v
	}
}

func (c *QueueConfig) validate() error {
	if c.Backend != QueueMemory && c.Backend != QueueRedis {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be positive: %d", c.Capacity)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if d, err := time.ParseDuration(c.Redis.BlockTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid redis block_timeout: %q", c.Redis.BlockTimeout)
	}
	return nil
}
