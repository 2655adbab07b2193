package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/contentmind/errs"
)

// JobBucket is the default JetStream key-value bucket holding job rows.
const JobBucket = "digest-jobs"

// KVStore persists jobs in a JetStream key-value bucket so schedules
// survive process restarts.
type KVStore struct {
	kv     jetstream.KeyValue
	logger *slog.Logger
}

// NewKVStore creates (or binds to) the job bucket. An empty bucket
// name uses JobBucket.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string, logger *slog.Logger) (*KVStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if bucket == "" {
		bucket = JobBucket
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Scheduled digest jobs",
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure job bucket: %w", err)
	}

	return &KVStore{kv: kv, logger: logger}, nil
}

// Create stores a new job row.
func (s *KVStore) Create(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if _, err := s.kv.Create(ctx, job.ID, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("job %s already exists", job.ID)
		}
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

// Get returns a job by id.
func (s *KVStore) Get(ctx context.Context, id string) (*Job, error) {
	entry, err := s.kv.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: job %s", errs.ErrNotFound, id)
		}
		return nil, fmt.Errorf("read job: %w", err)
	}

	var job Job
	if err := json.Unmarshal(entry.Value(), &job); err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}
	return &job, nil
}

// Update replaces a job row.
func (s *KVStore) Update(ctx context.Context, job *Job) error {
	if _, err := s.Get(ctx, job.ID); err != nil {
		return err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if _, err := s.kv.Put(ctx, job.ID, data); err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

// Delete removes a job row.
func (s *KVStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// List returns all jobs, optionally only active ones.
func (s *KVStore) List(ctx context.Context, activeOnly bool) ([]*Job, error) {
	jobs, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	if activeOnly {
		filtered := jobs[:0]
		for _, job := range jobs {
			if job.Active {
				filtered = append(filtered, job)
			}
		}
		jobs = filtered
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs, nil
}

// DueBefore returns active jobs due at or before now.
func (s *KVStore) DueBefore(ctx context.Context, now time.Time) ([]*Job, error) {
	jobs, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	var due []*Job
	for _, job := range jobs {
		if job.Active && !job.NextRun.After(now) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextRun.Before(due[j].NextRun) })
	return due, nil
}

// SetLastRun stamps last_run and advances next_run.
func (s *KVStore) SetLastRun(ctx context.Context, id string, lastRun, nextRun time.Time) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	lr := lastRun
	job.LastRun = &lr
	job.NextRun = nextRun
	job.UpdatedAt = time.Now().UTC()
	return s.Update(ctx, job)
}

// scan reads every job row in the bucket.
func (s *KVStore) scan(ctx context.Context) ([]*Job, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list job keys: %w", err)
	}

	var jobs []*Job
	for key := range lister.Keys() {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var job Job
		if err := json.Unmarshal(entry.Value(), &job); err != nil {
			s.logger.Warn("Skipping unparsable job row", "key", key, "error", err)
			continue
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}
