package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero global timeout", func(c *Config) { c.Router.GlobalTimeout = 0 }},
		{"temperature too high", func(c *Config) { c.Router.Temperature = 1.5 }},
		{"temperature negative", func(c *Config) { c.Router.Temperature = -0.1 }},
		{"no components dir", func(c *Config) { c.Components.Dir = "" }},
		{"zero tick interval", func(c *Config) { c.Scheduler.TickInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLoadFromFileExpandsEnv(t *testing.T) {
	t.Setenv("TEST_NATS_URL", "nats://broker:4222")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
router:
  global_timeout: 30s
  preferred_cloud: openai
nats:
  url: ${TEST_NATS_URL}
scheduler:
  tick_interval: 10s
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Router.GlobalTimeout != 30*time.Second {
		t.Errorf("GlobalTimeout = %v", cfg.Router.GlobalTimeout)
	}
	if cfg.Router.PreferredCloud != "openai" {
		t.Errorf("PreferredCloud = %q", cfg.Router.PreferredCloud)
	}
	if cfg.NATS.URL != "nats://broker:4222" {
		t.Errorf("NATS.URL = %q, env reference not expanded", cfg.NATS.URL)
	}
	if cfg.Scheduler.TickInterval != 10*time.Second {
		t.Errorf("TickInterval = %v", cfg.Scheduler.TickInterval)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Router.LocalURL != DefaultConfig().Router.LocalURL {
		t.Errorf("LocalURL = %q, default lost", cfg.Router.LocalURL)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFromFile() should fail for a missing file")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Metrics.Addr = ":9090"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Metrics.Addr != ":9090" {
		t.Errorf("Metrics.Addr = %q", loaded.Metrics.Addr)
	}
}

func TestMergePrecedence(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Router:    RouterConfig{PreferredCloud: "openai", Temperature: 0.7},
		Scheduler: SchedulerConfig{Bucket: "other-jobs"},
	})

	if base.Router.PreferredCloud != "openai" {
		t.Errorf("PreferredCloud = %q", base.Router.PreferredCloud)
	}
	if base.Router.Temperature != 0.7 {
		t.Errorf("Temperature = %v", base.Router.Temperature)
	}
	if base.Scheduler.Bucket != "other-jobs" {
		t.Errorf("Bucket = %q", base.Scheduler.Bucket)
	}

	// Zero values in the overlay leave the base untouched.
	if base.Router.GlobalTimeout != 60*time.Second {
		t.Errorf("GlobalTimeout = %v", base.Router.GlobalTimeout)
	}
	if base.Components.Dir != "components" {
		t.Errorf("Components.Dir = %q", base.Components.Dir)
	}

	base.Merge(nil) // no-op
	if base.Router.PreferredCloud != "openai" {
		t.Error("Merge(nil) must not reset fields")
	}
}
