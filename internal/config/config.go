package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the streamjsonl CLI.
type Config struct {
	URL         string           `yaml:"url"`
	Output      string           `yaml:"output"`
	Compression string           `yaml:"compression"`
	Progress    bool             `yaml:"progress"`
	Checkpoint  CheckpointConfig `yaml:"checkpoint"`
	Retry       RetryConfig      `yaml:"retry"`
}

// CheckpointConfig defines where and how often resume state is persisted.
type CheckpointConfig struct {
	Bucket   string `yaml:"bucket"`
	Key      string `yaml:"key"`
	Interval int    `yaml:"interval"`
}

// RetryConfig defines retry behavior for transient fetch failures.
type RetryConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	MaxRetryTime time.Duration `yaml:"max_retry_time"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Compression: "auto",
		Checkpoint: CheckpointConfig{
			Interval: 100,
		},
		Retry: RetryConfig{
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			MaxRetryTime: time.Hour,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	URL         string               `yaml:"url"`
	Output      string               `yaml:"output"`
	Compression string               `yaml:"compression"`
	Progress    bool                 `yaml:"progress"`
	Checkpoint  yamlCheckpointConfig `yaml:"checkpoint"`
	Retry       yamlRetryConfig      `yaml:"retry"`
}

type yamlCheckpointConfig struct {
	Bucket   string `yaml:"bucket"`
	Key      string `yaml:"key"`
	Interval int    `yaml:"interval"`
}

type yamlRetryConfig struct {
	InitialDelay string `yaml:"initial_delay"`
	MaxDelay     string `yaml:"max_delay"`
	MaxRetryTime string `yaml:"max_retry_time"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.URL != "" {
		cfg.URL = yc.URL
	}
	if yc.Output != "" {
		cfg.Output = yc.Output
	}
	if yc.Compression != "" {
		cfg.Compression = yc.Compression
	}
	cfg.Progress = yc.Progress
	if yc.Checkpoint.Bucket != "" {
		cfg.Checkpoint.Bucket = yc.Checkpoint.Bucket
	}
	if yc.Checkpoint.Key != "" {
		cfg.Checkpoint.Key = yc.Checkpoint.Key
	}
	if yc.Checkpoint.Interval != 0 {
		cfg.Checkpoint.Interval = yc.Checkpoint.Interval
	}
	if yc.Retry.InitialDelay != "" {
		d, err := time.ParseDuration(yc.Retry.InitialDelay)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.initial_delay: %w", err)
		}
		cfg.Retry.InitialDelay = d
	}
	if yc.Retry.MaxDelay != "" {
		d, err := time.ParseDuration(yc.Retry.MaxDelay)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_delay: %w", err)
		}
		cfg.Retry.MaxDelay = d
	}
	if yc.Retry.MaxRetryTime != "" {
		d, err := time.ParseDuration(yc.Retry.MaxRetryTime)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_retry_time: %w", err)
		}
		cfg.Retry.MaxRetryTime = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the STREAMJSONL_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("STREAMJSONL_URL"); v != "" {
		c.URL = v
	}
	if v := os.Getenv("STREAMJSONL_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("STREAMJSONL_COMPRESSION"); v != "" {
		c.Compression = v
	}
	if v := os.Getenv("STREAMJSONL_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("STREAMJSONL_CHECKPOINT_BUCKET"); v != "" {
		c.Checkpoint.Bucket = v
	}
	if v := os.Getenv("STREAMJSONL_CHECKPOINT_KEY"); v != "" {
		c.Checkpoint.Key = v
	}
	if v := os.Getenv("STREAMJSONL_CHECKPOINT_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse STREAMJSONL_CHECKPOINT_INTERVAL: %w", err)
		}
		c.Checkpoint.Interval = n
	}
	if v := os.Getenv("STREAMJSONL_RETRY_INITIAL_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse STREAMJSONL_RETRY_INITIAL_DELAY: %w", err)
		}
		c.Retry.InitialDelay = d
	}
	if v := os.Getenv("STREAMJSONL_RETRY_MAX_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse STREAMJSONL_RETRY_MAX_DELAY: %w", err)
		}
		c.Retry.MaxDelay = d
	}
	if v := os.Getenv("STREAMJSONL_RETRY_MAX_RETRY_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse STREAMJSONL_RETRY_MAX_RETRY_TIME: %w", err)
		}
		c.Retry.MaxRetryTime = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("config: URL is required")
	}
	switch c.Compression {
	case "auto", "gzip", "none":
	default:
		return fmt.Errorf("config: compression must be auto, gzip, or none, got %q", c.Compression)
	}
	if c.Checkpoint.Bucket != "" && c.Checkpoint.Key == "" {
		return errors.New("config: checkpoint.key is required when checkpoint.bucket is set")
	}
	if c.Checkpoint.Interval <= 0 {
		return errors.New("config: checkpoint.interval must be positive")
	}
	if c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0 || c.Retry.MaxRetryTime < 0 {
		return errors.New("config: retry durations must be non-negative")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.URL != "" {
		c.URL = override.URL
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.Compression != "" {
		c.Compression = override.Compression
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Checkpoint.Bucket != "" {
		c.Checkpoint.Bucket = override.Checkpoint.Bucket
	}
	if override.Checkpoint.Key != "" {
		c.Checkpoint.Key = override.Checkpoint.Key
	}
	if override.Checkpoint.Interval != 0 {
		c.Checkpoint.Interval = override.Checkpoint.Interval
	}
	if override.Retry.InitialDelay != 0 {
		c.Retry.InitialDelay = override.Retry.InitialDelay
	}
	if override.Retry.MaxDelay != 0 {
		c.Retry.MaxDelay = override.Retry.MaxDelay
	}
	if override.Retry.MaxRetryTime != 0 {
		c.Retry.MaxRetryTime = override.Retry.MaxRetryTime
	}
	return c
}
