package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/c360studio/contentmind/delivery"
	"github.com/c360studio/contentmind/router"
)

// Config is per-agent configuration handed to the factory.
type Config map[string]any

// Deps are the shared collaborators injected into agents at creation.
// Wiring happens at the process entry point; agents never construct
// their own routers or stores.
type Deps struct {
	Router     *router.Router
	Artifacts  ArtifactStore
	Deliverers map[string]delivery.Deliverer
	Logger     *slog.Logger
}

// Factory constructs an agent from its dependencies and configuration.
type Factory func(deps Deps, cfg Config) (Agent, error)

// ManifestEntry declares one discoverable agent.
type ManifestEntry struct {
	ID      string
	Factory Factory
}

// Registry maps agent ids to factories, configurations, and live
// instances. The maps are read-mostly; writes occur at registration.
type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	classes   map[string]Factory
	configs   map[string]Config
	instances map[string]Agent
}

// NewRegistry creates an empty agent registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:    logger,
		classes:   make(map[string]Factory),
		configs:   make(map[string]Config),
		instances: make(map[string]Agent),
	}
}

// RegisterClass registers (or replaces) a factory for an agent id.
// Replacing a class does not tear down an existing instance; the
// caller removes it explicitly when that is wanted.
func (r *Registry) RegisterClass(id string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[id] = factory
	r.logger.Debug("Agent class registered", "id", id)
}

// RegisterConfig sets the configuration used when creating an agent.
func (r *Registry) RegisterConfig(id string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[id] = cfg
}

// Discover registers every entry of an explicit agent manifest.
func (r *Registry) Discover(manifest []ManifestEntry) {
	for _, entry := range manifest {
		r.RegisterClass(entry.ID, entry.Factory)
	}
}

// Create instantiates the agent for an id, caching the instance.
// Calling Create twice for the same id returns the cached instance.
func (r *Registry) Create(id string, deps Deps) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if instance, ok := r.instances[id]; ok {
		return instance, nil
	}

	factory, ok := r.classes[id]
	if !ok {
		return nil, fmt.Errorf("agent class %q is not registered", id)
	}

	if deps.Logger == nil {
		deps.Logger = r.logger
	}

	instance, err := factory(deps, r.configs[id])
	if err != nil {
		return nil, fmt.Errorf("create agent %q: %w", id, err)
	}

	r.instances[id] = instance
	r.logger.Info("Agent created", "id", id)
	return instance, nil
}

// Get returns the live instance for an id, if one exists.
func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instance, ok := r.instances[id]
	return instance, ok
}

// Remove drops the live instance for an id, closing it when it
// implements a Close method. The class registration is kept.
func (r *Registry) Remove(ctx context.Context, id string) {
	r.mu.Lock()
	instance, ok := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()

	if ok {
		r.closeInstance(ctx, id, instance)
	}
}

// ListClasses returns all registered agent ids, sorted.
func (r *Registry) ListClasses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.classes))
	for id := range r.classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListInstances returns the ids of all live instances, sorted.
func (r *Registry) ListInstances() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListCapabilities returns the capabilities of every live instance.
func (r *Registry) ListCapabilities() map[string]Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make(map[string]Capabilities, len(r.instances))
	for id, instance := range r.instances {
		caps[id] = instance.Capabilities()
	}
	return caps
}

// Close tears down every live instance. Called on service stop.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	instances := r.instances
	r.instances = make(map[string]Agent)
	r.mu.Unlock()

	for id, instance := range instances {
		r.closeInstance(ctx, id, instance)
	}
}

func (r *Registry) closeInstance(ctx context.Context, id string, instance Agent) {
	type closer interface {
		Close(ctx context.Context) error
	}
	if c, ok := instance.(closer); ok {
		if err := c.Close(ctx); err != nil {
			r.logger.Warn("Agent close failed", "id", id, "error", err)
		}
	}
}
