package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/c360studio/contentmind/agent"
)

// ErrNotFound is returned when an artifact id is unknown.
var ErrNotFound = errors.New("artifact not found")

// Memory is an in-memory artifact store for tests and ephemeral runs.
type Memory struct {
	mu        sync.RWMutex
	artifacts map[string]*agent.Artifact
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{artifacts: make(map[string]*agent.Artifact)}
}

// Put stores an artifact, assigning an id when it has none.
func (m *Memory) Put(ctx context.Context, a *agent.Artifact) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	copied := *a
	m.artifacts[a.ID] = &copied
	return a.ID, nil
}

// Get returns an artifact by id.
func (m *Memory) Get(ctx context.Context, id string) (*agent.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.artifacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

// List returns artifacts matching the filter, newest first.
func (m *Memory) List(ctx context.Context, filter agent.ArtifactFilter) ([]*agent.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*agent.Artifact
	for _, a := range m.artifacts {
		if matches(a, filter) {
			copied := *a
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ExtractedAt.After(out[j].ExtractedAt)
	})
	return out, nil
}
