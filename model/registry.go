package model

import (
	"encoding/json"
	"sync"
	"time"
)

// Registry manages endpoint selection for router tasks.
// It maps tasks to complexity estimates and provider overrides, and
// endpoint names to provider configurations.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]*EndpointConfig
	tasks     map[Task]*TaskConfig
	defaults  *DefaultsConfig
	health    *healthState
}

// TaskConfig defines routing hints for a task.
type TaskConfig struct {
	// Description explains what this task produces.
	Description string `json:"description"`

	// Complexity is the task's [0,1] complexity estimate.
	// Overrides the built-in estimate when set.
	Complexity *float64 `json:"complexity,omitempty"`

	// PreferProvider names the provider known best for this task.
	// Structured-extraction tasks typically prefer a specific cloud provider.
	PreferProvider string `json:"prefer_provider,omitempty"`
}

// EndpointConfig defines an available model endpoint.
type EndpointConfig struct {
	// Provider is the adapter name (local, anthropic, openai).
	Provider string `json:"provider"`

	// URL is the API endpoint URL (for non-default provider hosts).
	URL string `json:"url,omitempty"`

	// Model is the actual model identifier to send to the provider.
	Model string `json:"model"`

	// MaxTokens is the context window size.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Timeout bounds a single call to this endpoint.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DefaultsConfig names the endpoints used by the routing policy.
type DefaultsConfig struct {
	// Local is the local LLM endpoint name.
	Local string `json:"local"`

	// Cloud is the cloud endpoint used for simple tasks.
	Cloud string `json:"cloud"`

	// Capable is the cloud endpoint used for complex tasks.
	Capable string `json:"capable"`
}

// CapableThreshold is the complexity at which routing prefers the more
// capable cloud endpoint.
const CapableThreshold = 0.6

// NewRegistry creates a new model registry with the given configuration.
func NewRegistry(tasks map[Task]*TaskConfig, endpoints map[string]*EndpointConfig, defaults *DefaultsConfig) *Registry {
	if defaults == nil {
		defaults = &DefaultsConfig{}
	}
	return &Registry{
		endpoints: endpoints,
		tasks:     tasks,
		defaults:  defaults,
	}
}

// NewDefaultRegistry creates a registry with sensible defaults.
// Used when no configuration is provided.
func NewDefaultRegistry() *Registry {
	return &Registry{
		tasks: map[Task]*TaskConfig{
			TaskSummarize: {
				Description: "Condense content text into a short summary",
			},
			TaskExtractEntities: {
				Description:    "Extract named entities as structured JSON",
				PreferProvider: "anthropic",
			},
			TaskTagContent: {
				Description: "Produce topical tags for content text",
			},
			TaskResearch: {
				Description: "Answer a free-form research question",
			},
			TaskDigest: {
				Description: "Assemble a digest narrative from artifacts",
			},
		},
		endpoints: map[string]*EndpointConfig{
			"local": {
				Provider:  "local",
				URL:       "http://localhost:11434/v1",
				Model:     "llama3.2",
				MaxTokens: 128000,
				Timeout:   30 * time.Second,
			},
			"claude-haiku": {
				Provider:  "anthropic",
				Model:     "claude-haiku-3-5-20241022",
				MaxTokens: 200000,
				Timeout:   45 * time.Second,
			},
			"claude-sonnet": {
				Provider:  "anthropic",
				Model:     "claude-sonnet-4-20250514",
				MaxTokens: 200000,
				Timeout:   45 * time.Second,
			},
			"gpt-4o-mini": {
				Provider:  "openai",
				Model:     "gpt-4o-mini",
				MaxTokens: 128000,
				Timeout:   45 * time.Second,
			},
		},
		defaults: &DefaultsConfig{
			Local:   "local",
			Cloud:   "claude-haiku",
			Capable: "claude-sonnet",
		},
	}
}

// Complexity returns the [0,1] complexity estimate for a task.
// Configured overrides win over built-in estimates.
func (r *Registry) Complexity(task Task) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.tasks[task]; ok && cfg.Complexity != nil {
		return *cfg.Complexity
	}
	if c, ok := taskComplexity[task]; ok {
		return c
	}
	return defaultComplexity
}

// PreferredProvider returns the provider override for a task, if any.
func (r *Registry) PreferredProvider(task Task) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.tasks[task]; ok {
		return cfg.PreferProvider
	}
	return ""
}

// GetEndpoint returns the endpoint configuration for an endpoint name.
// Returns nil if the endpoint is not configured.
func (r *Registry) GetEndpoint(name string) *EndpointConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.endpoints[name]
}

// EndpointForProvider returns the first configured endpoint for a provider.
// Defaults-named endpoints are checked first so the policy picks the
// endpoint the operator intended for that provider.
func (r *Registry) EndpointForProvider(provider string) (string, *EndpointConfig) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range []string{r.defaults.Local, r.defaults.Cloud, r.defaults.Capable} {
		if ep, ok := r.endpoints[name]; ok && ep.Provider == provider {
			return name, ep
		}
	}
	for name, ep := range r.endpoints {
		if ep.Provider == provider {
			return name, ep
		}
	}
	return "", nil
}

// LocalEndpoint returns the configured local endpoint name and config.
// Returns empty name and nil if no local endpoint is configured.
func (r *Registry) LocalEndpoint() (string, *EndpointConfig) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaults.Local == "" {
		return "", nil
	}
	ep, ok := r.endpoints[r.defaults.Local]
	if !ok {
		return "", nil
	}
	return r.defaults.Local, ep
}

// CloudEndpoint returns the cloud endpoint for the given task complexity.
// Complexity at or above CapableThreshold prefers the capable endpoint.
func (r *Registry) CloudEndpoint(complexity float64) (string, *EndpointConfig) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := []string{r.defaults.Cloud, r.defaults.Capable}
	if complexity >= CapableThreshold {
		names = []string{r.defaults.Capable, r.defaults.Cloud}
	}

	for _, name := range names {
		if name == "" {
			continue
		}
		if ep, ok := r.endpoints[name]; ok {
			return name, ep
		}
	}
	return "", nil
}

// SetTask updates or adds a task configuration.
func (r *Registry) SetTask(task Task, cfg *TaskConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tasks == nil {
		r.tasks = make(map[Task]*TaskConfig)
	}
	r.tasks[task] = cfg
}

// SetEndpoint updates or adds an endpoint configuration.
func (r *Registry) SetEndpoint(name string, cfg *EndpointConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.endpoints == nil {
		r.endpoints = make(map[string]*EndpointConfig)
	}
	r.endpoints[name] = cfg
}

// SetDefaults replaces the defaults configuration.
func (r *Registry) SetDefaults(d *DefaultsConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d == nil {
		d = &DefaultsConfig{}
	}
	r.defaults = d
}

// ListTasks returns all configured tasks.
func (r *Registry) ListTasks() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]Task, 0, len(r.tasks))
	for t := range r.tasks {
		tasks = append(tasks, t)
	}
	return tasks
}

// ListEndpoints returns all configured endpoint names.
func (r *Registry) ListEndpoints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	return names
}

// MarshalJSON implements json.Marshaler for the registry.
func (r *Registry) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return json.Marshal(struct {
		Tasks     map[Task]*TaskConfig       `json:"tasks"`
		Endpoints map[string]*EndpointConfig `json:"endpoints"`
		Defaults  *DefaultsConfig            `json:"defaults,omitempty"`
	}{
		Tasks:     r.tasks,
		Endpoints: r.endpoints,
		Defaults:  r.defaults,
	})
}

// UnmarshalJSON implements json.Unmarshaler for the registry.
func (r *Registry) UnmarshalJSON(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tmp struct {
		Tasks     map[Task]*TaskConfig       `json:"tasks"`
		Endpoints map[string]*EndpointConfig `json:"endpoints"`
		Defaults  *DefaultsConfig            `json:"defaults,omitempty"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}

	r.tasks = tmp.Tasks
	r.endpoints = tmp.Endpoints
	r.defaults = tmp.Defaults
	if r.defaults == nil {
		r.defaults = &DefaultsConfig{}
	}
	return nil
}
