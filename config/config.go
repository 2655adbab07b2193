// Package config provides configuration loading and management for Contentmind.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Contentmind configuration
type Config struct {
	Router     RouterConfig     `yaml:"router"`
	Components ComponentsConfig `yaml:"components"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	NATS       NATSConfig       `yaml:"nats"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// RouterConfig configures the model router
type RouterConfig struct {
	// GlobalTimeout bounds a single route call end to end
	GlobalTimeout time.Duration `yaml:"global_timeout"`
	// LocalURL is the local LLM endpoint (OpenAI-compatible)
	LocalURL string `yaml:"local_url"`
	// LocalModel is the model served by the local endpoint
	LocalModel string `yaml:"local_model"`
	// LocalTimeout bounds a single local provider call
	LocalTimeout time.Duration `yaml:"local_timeout"`
	// CloudTimeout bounds a single cloud provider call
	CloudTimeout time.Duration `yaml:"cloud_timeout"`
	// PreferredCloud is the cloud provider used for complex tasks
	PreferredCloud string `yaml:"preferred_cloud"`
	// Temperature controls randomness (0.0-1.0)
	Temperature float64 `yaml:"temperature"`
}

// ComponentsConfig configures the prompt component registry
type ComponentsConfig struct {
	// Dir is the directory holding component JSON files
	Dir string `yaml:"dir"`
	// Watch enables hot reload of externally edited component files
	Watch bool `yaml:"watch"`
}

// SchedulerConfig configures the digest scheduler
type SchedulerConfig struct {
	// TickInterval is the loop interval between due-job queries
	TickInterval time.Duration `yaml:"tick_interval"`
	// GracePeriod is how long Stop waits for running callbacks
	GracePeriod time.Duration `yaml:"grace_period"`
	// Bucket is the JetStream KV bucket for durable jobs
	Bucket string `yaml:"bucket"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = NATS disabled, in-memory stores)
	URL string `yaml:"url"`
	// Name is the client connection name
	Name string `yaml:"name"`
	// ReconnectWait is the delay between reconnect attempts
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

// MetricsConfig configures the metrics/health HTTP listener
type MetricsConfig struct {
	// Addr is the listen address (empty = disabled)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Router: RouterConfig{
			GlobalTimeout:  60 * time.Second,
			LocalURL:       "http://localhost:11434/v1",
			LocalModel:     "llama3.2",
			LocalTimeout:   30 * time.Second,
			CloudTimeout:   45 * time.Second,
			PreferredCloud: "anthropic",
			Temperature:    0.2,
		},
		Components: ComponentsConfig{
			Dir:   "components",
			Watch: true,
		},
		Scheduler: SchedulerConfig{
			TickInterval: time.Minute,
			GracePeriod:  2 * time.Second,
			Bucket:       "digest-jobs",
		},
		NATS: NATSConfig{
			URL:           "",
			Name:          "contentmind",
			ReconnectWait: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Router.GlobalTimeout <= 0 {
		return fmt.Errorf("router.global_timeout must be positive")
	}
	if c.Router.Temperature < 0 || c.Router.Temperature > 1 {
		return fmt.Errorf("router.temperature must be between 0 and 1")
	}
	if c.Components.Dir == "" {
		return fmt.Errorf("components.dir is required")
	}
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("scheduler.tick_interval must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
// Environment variable references (${VAR} or $VAR) are expanded before parsing.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Router
	if other.Router.GlobalTimeout != 0 {
		c.Router.GlobalTimeout = other.Router.GlobalTimeout
	}
	if other.Router.LocalURL != "" {
		c.Router.LocalURL = other.Router.LocalURL
	}
	if other.Router.LocalModel != "" {
		c.Router.LocalModel = other.Router.LocalModel
	}
	if other.Router.LocalTimeout != 0 {
		c.Router.LocalTimeout = other.Router.LocalTimeout
	}
	if other.Router.CloudTimeout != 0 {
		c.Router.CloudTimeout = other.Router.CloudTimeout
	}
	if other.Router.PreferredCloud != "" {
		c.Router.PreferredCloud = other.Router.PreferredCloud
	}
	if other.Router.Temperature != 0 {
		c.Router.Temperature = other.Router.Temperature
	}

	// Components
	if other.Components.Dir != "" {
		c.Components.Dir = other.Components.Dir
	}
	if other.Components.Watch {
		c.Components.Watch = true
	}

	// Scheduler
	if other.Scheduler.TickInterval != 0 {
		c.Scheduler.TickInterval = other.Scheduler.TickInterval
	}
	if other.Scheduler.GracePeriod != 0 {
		c.Scheduler.GracePeriod = other.Scheduler.GracePeriod
	}
	if other.Scheduler.Bucket != "" {
		c.Scheduler.Bucket = other.Scheduler.Bucket
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Name != "" {
		c.NATS.Name = other.NATS.Name
	}
	if other.NATS.ReconnectWait != 0 {
		c.NATS.ReconnectWait = other.NATS.ReconnectWait
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
