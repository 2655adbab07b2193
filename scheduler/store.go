package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/c360studio/contentmind/errs"
)

// Store persists scheduled jobs. The scheduler is the only writer; its
// job table is the single source of truth for durable job state.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, job *Job) error
	Delete(ctx context.Context, id string) error

	// List returns all jobs, optionally only active ones.
	List(ctx context.Context, activeOnly bool) ([]*Job, error)

	// DueBefore returns active jobs with next_run at or before now.
	DueBefore(ctx context.Context, now time.Time) ([]*Job, error)

	// SetLastRun stamps a job's last_run and next_run after an execution.
	SetLastRun(ctx context.Context, id string, lastRun, nextRun time.Time) error
}

// MemoryStore is an in-memory Store for tests and ephemeral runs.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Create stores a new job.
func (s *MemoryStore) Create(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a job by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", errs.ErrNotFound, id)
	}
	return job.Clone(), nil
}

// Update replaces a job's state.
func (s *MemoryStore) Update(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return fmt.Errorf("%w: job %s", errs.ErrNotFound, job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Delete removes a job.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("%w: job %s", errs.ErrNotFound, id)
	}
	delete(s.jobs, id)
	return nil
}

// List returns jobs sorted by creation time.
func (s *MemoryStore) List(ctx context.Context, activeOnly bool) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Job
	for _, job := range s.jobs {
		if activeOnly && !job.Active {
			continue
		}
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DueBefore returns active jobs due at or before now.
func (s *MemoryStore) DueBefore(ctx context.Context, now time.Time) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*Job
	for _, job := range s.jobs {
		if job.Active && !job.NextRun.After(now) {
			due = append(due, job.Clone())
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextRun.Before(due[j].NextRun) })
	return due, nil
}

// SetLastRun stamps last_run and advances next_run.
func (s *MemoryStore) SetLastRun(ctx context.Context, id string, lastRun, nextRun time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: job %s", errs.ErrNotFound, id)
	}
	lr := lastRun
	job.LastRun = &lr
	job.NextRun = nextRun
	job.UpdatedAt = time.Now().UTC()
	return nil
}
