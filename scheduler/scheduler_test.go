package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/c360studio/contentmind/errs"
)

func dueJob(id, digestType string) *Job {
	now := time.Now()
	return &Job{
		ID:             id,
		ScheduleType:   ScheduleDaily,
		Time:           "09:00",
		Recipient:      "reader@example.com",
		DeliveryMethod: "email",
		DigestType:     digestType,
		Active:         true,
		NextRun:        now.Add(-time.Minute),
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
}

// waitFor polls until the condition holds or the deadline expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestScheduleCreatesActiveJob(t *testing.T) {
	s := New(NewMemoryStore())

	job, err := s.Schedule(context.Background(), JobSpec{
		ScheduleType: ScheduleDaily,
		Time:         "09:00",
		Recipient:    "reader@example.com",
		DigestType:   "daily",
	})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if job.ID == "" || !job.Active {
		t.Errorf("job = %+v", job)
	}
	if job.DeliveryMethod != "email" {
		t.Errorf("DeliveryMethod = %q, want detected email", job.DeliveryMethod)
	}
	if !job.NextRun.After(time.Now()) {
		t.Errorf("NextRun = %v, should be in the future", job.NextRun)
	}

	got, err := s.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("Get() = %+v", got)
	}
}

func TestScheduleRejectsInvalidSpec(t *testing.T) {
	s := New(NewMemoryStore())

	_, err := s.Schedule(context.Background(), JobSpec{
		ScheduleType: "hourly",
		Time:         "09:00",
		Recipient:    "reader@example.com",
		DigestType:   "daily",
	})
	if !errors.Is(err, errs.ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
}

func TestUpdateReschedulesOnTimeChange(t *testing.T) {
	s := New(NewMemoryStore())

	job, err := s.Schedule(context.Background(), JobSpec{
		ScheduleType: ScheduleDaily,
		Time:         "09:00",
		Recipient:    "reader@example.com",
		DigestType:   "daily",
	})
	if err != nil {
		t.Fatal(err)
	}

	newTime := "10:30"
	updated, err := s.Update(context.Background(), job.ID, Changes{Time: &newTime})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Time != "10:30" {
		t.Errorf("Time = %q", updated.Time)
	}
	if updated.NextRun.Equal(job.NextRun) {
		t.Error("NextRun should be recomputed when the time changes")
	}

	// A recipient-only change keeps the schedule.
	recipient := "other@example.com"
	again, err := s.Update(context.Background(), job.ID, Changes{Recipient: &recipient})
	if err != nil {
		t.Fatal(err)
	}
	if !again.NextRun.Equal(updated.NextRun) {
		t.Error("NextRun should be untouched by a recipient change")
	}
}

func TestCancelDeactivatesJob(t *testing.T) {
	s := New(NewMemoryStore())

	job, err := s.Schedule(context.Background(), JobSpec{
		ScheduleType: ScheduleDaily,
		Time:         "09:00",
		Recipient:    "reader@example.com",
		DigestType:   "daily",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Cancel(context.Background(), job.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	got, err := s.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Active {
		t.Error("cancelled job should be inactive")
	}

	active, err := s.List(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("active jobs = %d, want 0", len(active))
	}
}

func TestSchedulerRunsDueJob(t *testing.T) {
	store := NewMemoryStore()
	job := dueJob("j1", "daily")
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	ran := make(chan TaskData, 1)
	s := New(store, WithTickInterval(10*time.Millisecond))
	s.RegisterCallback("digest_daily", func(ctx context.Context, data TaskData) error {
		ran <- data
		return nil
	})

	s.Start(context.Background())
	defer s.Stop()

	select {
	case data := <-ran:
		if data.DigestID != "j1" || data.Recipient != "reader@example.com" {
			t.Errorf("task data = %+v", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}

	waitFor(t, 2*time.Second, func() bool {
		got, err := store.Get(context.Background(), "j1")
		return err == nil && got.LastRun != nil && got.NextRun.After(time.Now())
	})
}

func TestSchedulerAdvancesScheduleOnCallbackError(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Create(context.Background(), dueJob("j1", "daily")); err != nil {
		t.Fatal(err)
	}

	s := New(store, WithTickInterval(10*time.Millisecond))
	s.RegisterCallback("digest_daily", func(ctx context.Context, data TaskData) error {
		return errors.New("delivery exploded")
	})

	s.Start(context.Background())
	defer s.Stop()

	// A failed run still stamps last_run and moves next_run forward.
	waitFor(t, 2*time.Second, func() bool {
		got, err := store.Get(context.Background(), "j1")
		return err == nil && got.LastRun != nil && got.NextRun.After(time.Now())
	})
}

func TestSchedulerCancelLeavesScheduleUntouched(t *testing.T) {
	store := NewMemoryStore()
	job := dueJob("j1", "daily")
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	finished := make(chan struct{})
	s := New(store, WithTickInterval(10*time.Millisecond), WithStopGrace(time.Second))
	s.RegisterCallback("digest_daily", func(ctx context.Context, data TaskData) error {
		close(started)
		<-ctx.Done()
		close(finished)
		return ctx.Err()
	})

	s.Start(context.Background())
	defer s.Stop()

	<-started
	if err := s.Cancel(context.Background(), "j1"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	<-finished

	waitFor(t, time.Second, func() bool {
		got, err := store.Get(context.Background(), "j1")
		return err == nil && !got.Active
	})

	got, err := store.Get(context.Background(), "j1")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastRun != nil {
		t.Error("cancelled run must not stamp last_run")
	}
	if !got.NextRun.Equal(job.NextRun) {
		t.Errorf("NextRun = %v, want unchanged %v", got.NextRun, job.NextRun)
	}
}

func TestSchedulerSingleInflightPerJob(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Create(context.Background(), dueJob("j1", "daily")); err != nil {
		t.Fatal(err)
	}

	var starts atomic.Int32
	release := make(chan struct{})
	s := New(store, WithTickInterval(5*time.Millisecond), WithStopGrace(time.Second))
	s.RegisterCallback("digest_daily", func(ctx context.Context, data TaskData) error {
		starts.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})

	s.Start(context.Background())

	// Several ticks pass while the first execution is still running.
	waitFor(t, time.Second, func() bool { return starts.Load() >= 1 })
	time.Sleep(50 * time.Millisecond)
	if got := starts.Load(); got != 1 {
		t.Errorf("starts = %d, want 1 while first run is in flight", got)
	}

	close(release)
	s.Stop()
}

func TestStopCancelsRunningCallbacks(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Create(context.Background(), dueJob("j1", "daily")); err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	var sawCancel atomic.Bool
	s := New(store, WithTickInterval(10*time.Millisecond), WithStopGrace(time.Second))
	s.RegisterCallback("digest_daily", func(ctx context.Context, data TaskData) error {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
		return ctx.Err()
	})

	s.Start(context.Background())
	<-started
	s.Stop()

	if !sawCancel.Load() {
		t.Error("Stop should cancel running callbacks")
	}
}
