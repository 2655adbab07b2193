package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// RegistryConfig represents the JSON configuration structure for the
// model registry, as found under "model_registry" in a service config.
type RegistryConfig struct {
	Tasks     map[string]*TaskConfig     `json:"tasks"`
	Endpoints map[string]*EndpointConfig `json:"endpoints"`
	Defaults  *DefaultsConfig            `json:"defaults,omitempty"`
}

// LoadFromFile loads a registry configuration from a JSON file.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return LoadFromJSON(data)
}

// LoadFromJSON loads a registry from JSON data.
// Accepts either a full config with a "model_registry" key or just the
// registry config.
func LoadFromJSON(data []byte) (*Registry, error) {
	var fullConfig struct {
		ModelRegistry *RegistryConfig `json:"model_registry"`
	}
	if err := json.Unmarshal(data, &fullConfig); err == nil && fullConfig.ModelRegistry != nil {
		return registryFromConfig(fullConfig.ModelRegistry), nil
	}

	var regConfig RegistryConfig
	if err := json.Unmarshal(data, &regConfig); err != nil {
		return nil, fmt.Errorf("parse registry config: %w", err)
	}

	return registryFromConfig(&regConfig), nil
}

// registryFromConfig converts a RegistryConfig to a Registry.
func registryFromConfig(cfg *RegistryConfig) *Registry {
	tasks := make(map[Task]*TaskConfig, len(cfg.Tasks))
	for k, v := range cfg.Tasks {
		t := ParseTask(k)
		if t == "" {
			// Unknown tasks are kept verbatim so custom digest types
			// can carry routing hints.
			t = Task(k)
		}
		tasks[t] = v
	}

	defaults := cfg.Defaults
	if defaults == nil {
		defaults = &DefaultsConfig{}
	}

	return &Registry{
		tasks:     tasks,
		endpoints: cfg.Endpoints,
		defaults:  defaults,
	}
}

// ToConfig converts a Registry to a RegistryConfig for serialization.
func (r *Registry) ToConfig() *RegistryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make(map[string]*TaskConfig, len(r.tasks))
	for k, v := range r.tasks {
		tasks[string(k)] = v
	}

	return &RegistryConfig{
		Tasks:     tasks,
		Endpoints: r.endpoints,
		Defaults:  r.defaults,
	}
}
