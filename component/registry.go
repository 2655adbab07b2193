package component

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry owns component records and their version history. Reads are
// concurrent; writes are serialized per component id.
type Registry struct {
	store  Store
	logger *slog.Logger

	mu         sync.RWMutex
	components map[string]*Component // id → current state
	byName     map[string]string     // name → id

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex // per-id write serialization
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry backed by the given store, loading all
// existing components into memory.
func NewRegistry(store Store, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		store:      store,
		logger:     slog.Default(),
		components: make(map[string]*Component),
		byName:     make(map[string]string),
		locks:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}

	all, err := store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load components: %w", err)
	}
	for _, c := range all {
		r.components[c.ID] = c
		r.byName[c.Name] = c.ID
	}

	return r, nil
}

// lockFor returns the write mutex for a component id.
func (r *Registry) lockFor(id string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	if mu, ok := r.locks[id]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	r.locks[id] = mu
	return mu
}

// Create validates the template, derives its inputs, and registers a
// new component at version 1.0.0.
func (r *Registry) Create(name, description, template string, tags []string, metadata map[string]any) (*Component, error) {
	result := Validate(template)
	if !result.Valid {
		return nil, fmt.Errorf("invalid template: %v", result.Errors)
	}
	for _, w := range result.Warnings {
		r.logger.Warn("Template validation warning", "name", name, "warning", w)
	}

	required, optional := DeriveInputs(template)
	now := time.Now().UTC()

	c := &Component{
		ID:             uuid.New().String(),
		Name:           name,
		Description:    description,
		Version:        InitialVersion.String(),
		Template:       template,
		RequiredInputs: required,
		OptionalInputs: optional,
		Tags:           tags,
		Metadata:       metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := r.store.Save(c); err != nil {
		return nil, fmt.Errorf("persist component: %w", err)
	}

	r.mu.Lock()
	r.components[c.ID] = c
	r.byName[c.Name] = c.ID
	r.mu.Unlock()

	r.logger.Info("Component created", "id", c.ID, "name", c.Name)
	return c.Clone(), nil
}

// Changes holds the mutable fields of a component update. Nil fields
// are left untouched.
type Changes struct {
	Name        *string
	Description *string
	Template    *string
	Tags        *[]string
	Outputs     *[]string
	Metadata    *map[string]any
}

// Update applies changes to a component. If any field differs from the
// current state, the current version is snapshotted and the version is
// bumped (patch by default). An update with no effective change is a
// no-op returning the unchanged component.
func (r *Registry) Update(id string, changes Changes, bump Bump) (*Component, error) {
	mu := r.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	r.mu.RLock()
	current, ok := r.components[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	updated := current.Clone()
	changed := false

	if changes.Name != nil && *changes.Name != updated.Name {
		updated.Name = *changes.Name
		changed = true
	}
	if changes.Description != nil && *changes.Description != updated.Description {
		updated.Description = *changes.Description
		changed = true
	}
	if changes.Template != nil && *changes.Template != updated.Template {
		result := Validate(*changes.Template)
		if !result.Valid {
			return nil, fmt.Errorf("invalid template: %v", result.Errors)
		}
		updated.Template = *changes.Template
		updated.RequiredInputs, updated.OptionalInputs = DeriveInputs(*changes.Template)
		changed = true
	}
	if changes.Tags != nil && !reflect.DeepEqual(*changes.Tags, updated.Tags) {
		updated.Tags = append([]string(nil), (*changes.Tags)...)
		changed = true
	}
	if changes.Outputs != nil && !reflect.DeepEqual(*changes.Outputs, updated.Outputs) {
		updated.Outputs = append([]string(nil), (*changes.Outputs)...)
		changed = true
	}
	if changes.Metadata != nil && !reflect.DeepEqual(*changes.Metadata, updated.Metadata) {
		updated.Metadata = *changes.Metadata
		changed = true
	}

	if !changed {
		return current.Clone(), nil
	}

	// Snapshot the prior version before mutating.
	if err := r.snapshot(current); err != nil {
		return nil, err
	}

	v, err := ParseVersion(current.Version)
	if err != nil {
		return nil, fmt.Errorf("current version: %w", err)
	}
	updated.Version = bump.Apply(v).String()
	updated.UpdatedAt = time.Now().UTC()

	if err := r.store.Save(updated); err != nil {
		return nil, fmt.Errorf("persist component: %w", err)
	}

	r.mu.Lock()
	if current.Name != updated.Name {
		delete(r.byName, current.Name)
	}
	r.components[id] = updated
	r.byName[updated.Name] = id
	r.mu.Unlock()

	r.logger.Info("Component updated", "id", id, "version", updated.Version)
	return updated.Clone(), nil
}

// snapshot persists an immutable copy of the component's current state.
func (r *Registry) snapshot(c *Component) error {
	snap := &Snapshot{
		Component:         *c.Clone(),
		SnapshotID:        uuid.New().String(),
		SnapshotTimestamp: time.Now().UTC(),
	}
	if err := r.store.SaveSnapshot(snap); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Get returns a copy of a component by id.
func (r *Registry) Get(id string) (*Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.components[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// GetByName returns a copy of a component by name.
func (r *Registry) GetByName(name string) (*Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	return r.components[id].Clone(), nil
}

// List returns copies of all components sorted by name.
func (r *Registry) List() []*Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Component, 0, len(r.components))
	for _, c := range r.components {
		all = append(all, c.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Render renders a component by id with the given inputs.
func (r *Registry) Render(id string, inputs map[string]any) (string, error) {
	c, err := r.Get(id)
	if err != nil {
		return "", err
	}
	return Render(c, inputs, r.logger)
}

// RenderByName renders a component by name with the given inputs.
// This is the lookup used by the router's prompt assembly.
func (r *Registry) RenderByName(name string, inputs map[string]any) (string, error) {
	c, err := r.GetByName(name)
	if err != nil {
		return "", err
	}
	return Render(c, inputs, r.logger)
}

// Archive soft-deletes a component: its current version is snapshotted,
// then the record is removed. The version history remains readable;
// no restore path is provided.
func (r *Registry) Archive(id string) error {
	mu := r.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	r.mu.RLock()
	current, ok := r.components[id]
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if err := r.snapshot(current); err != nil {
		return err
	}
	if err := r.store.Delete(id); err != nil {
		return fmt.Errorf("delete component: %w", err)
	}

	r.mu.Lock()
	delete(r.byName, current.Name)
	delete(r.components, id)
	r.mu.Unlock()

	r.logger.Info("Component archived", "id", id, "last_version", current.Version)
	return nil
}

// Versions lists all versions of a component, snapshots first (oldest
// to newest) then the current version.
func (r *Registry) Versions(id string) ([]VersionInfo, error) {
	r.mu.RLock()
	current, ok := r.components[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	keys, err := r.store.ListSnapshots(id)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	infos := make([]VersionInfo, 0, len(keys)+1)
	for _, key := range keys {
		snap, err := r.store.LoadSnapshot(id, key)
		if err != nil {
			return nil, fmt.Errorf("load snapshot %s: %w", key, err)
		}
		infos = append(infos, VersionInfo{
			Version:    snap.Version,
			SnapshotID: snap.SnapshotID,
			Timestamp:  snap.SnapshotTimestamp,
		})
	}
	infos = append(infos, VersionInfo{
		Version:   current.Version,
		Timestamp: current.UpdatedAt,
		Current:   true,
	})
	return infos, nil
}

// GetVersion returns a component as it was at a given version. The
// current version is served from memory; prior versions come from
// snapshots.
func (r *Registry) GetVersion(id, version string) (*Component, error) {
	r.mu.RLock()
	current, ok := r.components[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if current.Version == version {
		return current.Clone(), nil
	}

	v, err := ParseVersion(version)
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	snap, err := r.store.LoadSnapshot(id, v.Key())
	if err != nil {
		return nil, err
	}
	c := snap.Component
	return c.Clone(), nil
}

// Compare returns the per-field differences between two versions of a
// component.
func (r *Registry) Compare(id, v1, v2 string) (*Diff, error) {
	from, err := r.GetVersion(id, v1)
	if err != nil {
		return nil, err
	}
	to, err := r.GetVersion(id, v2)
	if err != nil {
		return nil, err
	}
	return CompareComponents(from, to), nil
}

// Export serializes a component to its JSON file format.
func (r *Registry) Export(id string) ([]byte, error) {
	c, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(c, "", "  ")
}

// Import registers a component from exported JSON. When overwrite is
// false and the id already exists, the import fails. Returns the
// component id.
func (r *Registry) Import(data []byte, overwrite bool) (string, error) {
	var c Component
	if err := json.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("parse component JSON: %w", err)
	}
	if c.ID == "" {
		return "", fmt.Errorf("component JSON has no id")
	}
	if c.Version == "" {
		c.Version = InitialVersion.String()
	}
	if _, err := ParseVersion(c.Version); err != nil {
		return "", err
	}

	result := Validate(c.Template)
	if !result.Valid {
		return "", fmt.Errorf("invalid template: %v", result.Errors)
	}

	mu := r.lockFor(c.ID)
	mu.Lock()
	defer mu.Unlock()

	r.mu.RLock()
	_, exists := r.components[c.ID]
	r.mu.RUnlock()
	if exists && !overwrite {
		return "", fmt.Errorf("component %s already exists", c.ID)
	}

	c.UpdatedAt = time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}

	if err := r.store.Save(&c); err != nil {
		return "", fmt.Errorf("persist component: %w", err)
	}

	r.mu.Lock()
	r.components[c.ID] = &c
	r.byName[c.Name] = c.ID
	r.mu.Unlock()

	return c.ID, nil
}

// Duplicate creates a new component from an existing one with a fresh
// id and version reset to 1.0.0. Content is identical except the name
// and timestamps.
func (r *Registry) Duplicate(id, newName string) (*Component, error) {
	src, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	if newName == "" {
		newName = src.Name + " (copy)"
	}

	now := time.Now().UTC()
	copied := src.Clone()
	copied.ID = uuid.New().String()
	copied.Name = newName
	copied.Version = InitialVersion.String()
	copied.CreatedAt = now
	copied.UpdatedAt = now

	if err := r.store.Save(copied); err != nil {
		return nil, fmt.Errorf("persist component: %w", err)
	}

	r.mu.Lock()
	r.components[copied.ID] = copied
	r.byName[copied.Name] = copied.ID
	r.mu.Unlock()

	return copied.Clone(), nil
}

// reload replaces the in-memory state for one component from the store.
// Used by the directory watcher when a file changes externally.
func (r *Registry) reload(id string) error {
	c, err := r.store.Load(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.components[id]; ok && prev.Name != c.Name {
		delete(r.byName, prev.Name)
	}
	r.components[id] = c
	r.byName[c.Name] = id
	return nil
}

// forget drops a component from memory without touching the store.
func (r *Registry) forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.components[id]; ok {
		delete(r.byName, prev.Name)
	}
	delete(r.components, id)
}
