// Package scheduler is a durable, single-node recurring-job engine for
// periodic digests.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/contentmind/metrics"
)

// Defaults.
const (
	DefaultTickInterval = time.Minute
	DefaultStopGrace    = 2 * time.Second
)

// TaskData is handed to a job's callback on each execution.
type TaskData struct {
	DigestID       string   `json:"digest_id"`
	DigestType     string   `json:"digest_type"`
	Recipient      string   `json:"recipient"`
	DeliveryMethod string   `json:"delivery_method"`
	ContentTypes   []string `json:"content_types,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Callback executes one scheduled task. Errors are logged by the
// scheduler and never deactivate the job.
type Callback func(ctx context.Context, data TaskData) error

// inflightTask tracks one running job execution.
type inflightTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler runs recurring digest jobs. Explicit lifecycle: created at
// startup, Start begins the tick loop, Stop cancels everything.
type Scheduler struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	interval time.Duration
	grace    time.Duration

	mu        sync.Mutex
	callbacks map[string]Callback
	inflight  map[string]*inflightTask

	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval overrides the loop interval (tests use a short one).
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMetrics wires digest-run counters.
func WithMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithStopGrace overrides how long Stop waits for running callbacks.
func WithStopGrace(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.grace = d
	}
}

// New creates a scheduler over a job store.
func New(store Store, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:     store,
		logger:    slog.Default(),
		interval:  DefaultTickInterval,
		grace:     DefaultStopGrace,
		callbacks: make(map[string]Callback),
		inflight:  make(map[string]*inflightTask),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterCallback binds a task type ("digest_<digest_type>") to its
// handler.
func (s *Scheduler) RegisterCallback(taskType string, cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks[taskType] = cb
}

// Schedule validates the spec, computes the first next_run, and stores
// the job.
func (s *Scheduler) Schedule(ctx context.Context, spec JobSpec) (*Job, error) {
	if err := validateSpec(&spec); err != nil {
		return nil, err
	}

	now := time.Now()
	nextRun, err := ComputeNextRun(spec.ScheduleType, spec.Time, now)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:             uuid.New().String(),
		ScheduleType:   spec.ScheduleType,
		Time:           spec.Time,
		Recipient:      spec.Recipient,
		DeliveryMethod: spec.DeliveryMethod,
		DigestType:     spec.DigestType,
		ContentTypes:   spec.ContentTypes,
		Tags:           spec.Tags,
		Active:         true,
		NextRun:        nextRun,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}

	s.logger.Info("Job scheduled",
		"id", job.ID,
		"schedule", job.ScheduleType,
		"time", job.Time,
		"next_run", job.NextRun)
	return job, nil
}

// Update merges non-nil fields into the job. When the schedule or time
// changed and the job is active, next_run is recomputed.
func (s *Scheduler) Update(ctx context.Context, id string, changes Changes) (*Job, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	reschedule := false
	if changes.ScheduleType != nil && *changes.ScheduleType != job.ScheduleType {
		job.ScheduleType = *changes.ScheduleType
		reschedule = true
	}
	if changes.Time != nil && *changes.Time != job.Time {
		job.Time = *changes.Time
		reschedule = true
	}
	if changes.Recipient != nil {
		job.Recipient = *changes.Recipient
	}
	if changes.DeliveryMethod != nil {
		job.DeliveryMethod = *changes.DeliveryMethod
	}
	if changes.DigestType != nil {
		job.DigestType = *changes.DigestType
	}
	if changes.ContentTypes != nil {
		job.ContentTypes = append([]string(nil), (*changes.ContentTypes)...)
	}
	if changes.Tags != nil {
		job.Tags = append([]string(nil), (*changes.Tags)...)
	}
	if changes.Active != nil {
		job.Active = *changes.Active
	}

	spec := JobSpec{
		ScheduleType:   job.ScheduleType,
		Time:           job.Time,
		Recipient:      job.Recipient,
		DeliveryMethod: job.DeliveryMethod,
		DigestType:     job.DigestType,
	}
	if err := validateSpec(&spec); err != nil {
		return nil, err
	}
	job.DeliveryMethod = spec.DeliveryMethod

	if reschedule && job.Active {
		nextRun, err := ComputeNextRun(job.ScheduleType, job.Time, time.Now())
		if err != nil {
			return nil, err
		}
		job.NextRun = nextRun
	}
	job.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}
	return job, nil
}

// Cancel deactivates a job and cancels any in-flight execution.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	job.Active = false
	job.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist job: %w", err)
	}

	s.mu.Lock()
	task := s.inflight[id]
	s.mu.Unlock()
	if task != nil {
		task.cancel()
	}

	s.logger.Info("Job cancelled", "id", id)
	return nil
}

// Delete removes a job, cancelling any in-flight execution first.
func (s *Scheduler) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	task := s.inflight[id]
	s.mu.Unlock()
	if task != nil {
		task.cancel()
	}
	return s.store.Delete(ctx, id)
}

// Get returns a job by id.
func (s *Scheduler) Get(ctx context.Context, id string) (*Job, error) {
	return s.store.Get(ctx, id)
}

// List returns jobs, optionally only active ones.
func (s *Scheduler) List(ctx context.Context, activeOnly bool) ([]*Job, error) {
	return s.store.List(ctx, activeOnly)
}

// Start launches the tick loop. The loop runs until Stop or until the
// parent context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	s.loopCancel = cancel
	s.loopDone = make(chan struct{})

	go s.loop(loopCtx)

	s.logger.Info("Scheduler started", "interval", s.interval)
}

// Stop cancels the loop and every running callback, then awaits each
// with a short grace timeout.
func (s *Scheduler) Stop() {
	if s.loopCancel != nil {
		s.loopCancel()
		<-s.loopDone
	}

	s.mu.Lock()
	tasks := make([]*inflightTask, 0, len(s.inflight))
	for _, task := range s.inflight {
		task.cancel()
		tasks = append(tasks, task)
	}
	s.mu.Unlock()

	deadline := time.After(s.grace)
	for _, task := range tasks {
		select {
		case <-task.done:
		case <-deadline:
			s.logger.Warn("Scheduler stop grace period expired with tasks still running")
			return
		}
	}

	s.logger.Info("Scheduler stopped")
}

// loop fires due jobs every tick.
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.loopDone)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Fire immediately so restarts don't wait a full interval.
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick launches every due job that has no in-flight execution.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()

	due, err := s.store.DueBefore(ctx, now)
	if err != nil {
		s.logger.Error("Due-job query failed", "error", err)
		return
	}

	for _, job := range due {
		s.launch(ctx, job, now)
	}
}

// launch starts one job execution unless one is already running for
// the same id.
func (s *Scheduler) launch(ctx context.Context, job *Job, now time.Time) {
	s.mu.Lock()
	if _, running := s.inflight[job.ID]; running {
		s.mu.Unlock()
		return
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := &inflightTask{cancel: cancel, done: make(chan struct{})}
	s.inflight[job.ID] = task
	s.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			close(task.done)
			s.mu.Lock()
			delete(s.inflight, job.ID)
			s.mu.Unlock()
		}()

		s.execute(taskCtx, job, now)
	}()
}

// execute invokes the job's callback and advances its schedule. A
// callback error keeps the job on schedule; only cancellation leaves
// next_run untouched.
func (s *Scheduler) execute(ctx context.Context, job *Job, startedAt time.Time) {
	taskType := "digest_" + job.DigestType

	s.mu.Lock()
	cb := s.callbacks[taskType]
	s.mu.Unlock()

	outcome := "success"
	if cb == nil {
		s.logger.Error("No callback registered for task type",
			"job", job.ID,
			"task_type", taskType)
		outcome = "no_callback"
	} else {
		err := cb(ctx, TaskData{
			DigestID:       job.ID,
			DigestType:     job.DigestType,
			Recipient:      job.Recipient,
			DeliveryMethod: job.DeliveryMethod,
			ContentTypes:   job.ContentTypes,
			Tags:           job.Tags,
		})
		switch {
		case ctx.Err() != nil:
			// Cancelled: leave last_run/next_run untouched so the job
			// may fire again unless also deactivated.
			s.logger.Info("Job execution cancelled", "job", job.ID)
			s.countRun("cancelled")
			return
		case err != nil:
			s.logger.Error("Job callback failed", "job", job.ID, "error", err)
			outcome = "error"
		}
	}
	s.countRun(outcome)

	nextRun, err := ComputeNextRun(job.ScheduleType, job.Time, time.Now())
	if err != nil {
		s.logger.Error("Next-run computation failed", "job", job.ID, "error", err)
		return
	}

	if err := s.store.SetLastRun(context.WithoutCancel(ctx), job.ID, startedAt, nextRun); err != nil {
		s.logger.Error("Failed to stamp job run", "job", job.ID, "error", err)
		return
	}

	s.logger.Info("Job executed",
		"job", job.ID,
		"outcome", outcome,
		"next_run", nextRun)
}

func (s *Scheduler) countRun(outcome string) {
	if s.metrics != nil {
		s.metrics.DigestRuns.WithLabelValues(outcome).Inc()
	}
}
