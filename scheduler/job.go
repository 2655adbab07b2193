package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/c360studio/contentmind/delivery"
	"github.com/c360studio/contentmind/errs"
)

// Schedule types.
const (
	ScheduleDaily   = "daily"
	ScheduleWeekly  = "weekly"
	ScheduleMonthly = "monthly"
)

// monthlyDayClamp avoids month-length edge cases: a monthly job never
// anchors past day 28.
const monthlyDayClamp = 28

// Job is a durable recurring digest job.
type Job struct {
	ID             string     `json:"id"`
	ScheduleType   string     `json:"schedule_type"`
	Time           string     `json:"time"` // HH:MM, local
	Recipient      string     `json:"recipient"`
	DeliveryMethod string     `json:"delivery_method"`
	DigestType     string     `json:"digest_type"`
	ContentTypes   []string   `json:"content_types,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	Active         bool       `json:"active"`
	LastRun        *time.Time `json:"last_run,omitempty"`
	NextRun        time.Time  `json:"next_run"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	copied := *j
	copied.ContentTypes = append([]string(nil), j.ContentTypes...)
	copied.Tags = append([]string(nil), j.Tags...)
	if j.LastRun != nil {
		lr := *j.LastRun
		copied.LastRun = &lr
	}
	return &copied
}

// JobSpec describes a job to schedule. DeliveryMethod may be empty, in
// which case it is detected from the recipient shape.
type JobSpec struct {
	ScheduleType   string   `json:"schedule_type"`
	Time           string   `json:"time"`
	Recipient      string   `json:"recipient"`
	DeliveryMethod string   `json:"delivery_method,omitempty"`
	DigestType     string   `json:"digest_type"`
	ContentTypes   []string `json:"content_types,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Changes holds the mutable fields of a job update. Nil fields are
// left untouched.
type Changes struct {
	ScheduleType   *string
	Time           *string
	Recipient      *string
	DeliveryMethod *string
	DigestType     *string
	ContentTypes   *[]string
	Tags           *[]string
	Active         *bool
}

// validateSpec checks a JobSpec, filling the delivery method when
// absent.
func validateSpec(spec *JobSpec) error {
	switch spec.ScheduleType {
	case ScheduleDaily, ScheduleWeekly, ScheduleMonthly:
	default:
		return fmt.Errorf("%w: unknown schedule type %q", errs.ErrInvalid, spec.ScheduleType)
	}

	if _, _, err := parseClock(spec.Time); err != nil {
		return err
	}

	if strings.TrimSpace(spec.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", errs.ErrInvalid)
	}
	if strings.TrimSpace(spec.DigestType) == "" {
		return fmt.Errorf("%w: digest type is required", errs.ErrInvalid)
	}

	if spec.DeliveryMethod == "" {
		spec.DeliveryMethod = delivery.DetectMethod(spec.Recipient)
	}
	switch spec.DeliveryMethod {
	case delivery.MethodEmail, delivery.MethodWhatsApp:
	default:
		return fmt.Errorf("%w: unknown delivery method %q", errs.ErrInvalid, spec.DeliveryMethod)
	}

	return nil
}

// parseClock parses a HH:MM 24h wall-clock time (00:00–23:59).
func parseClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: time must be HH:MM, got %q", errs.ErrInvalid, clock)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour out of range in %q", errs.ErrInvalid, clock)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute out of range in %q", errs.ErrInvalid, clock)
	}
	return hour, minute, nil
}

// ComputeNextRun computes the next execution time for a schedule
// relative to now:
//
//	daily   — next wall-clock occurrence of HH:MM (today if still future)
//	weekly  — the daily anchor plus 7 days
//	monthly — same HH:MM one calendar month later, day clamped to 28
func ComputeNextRun(scheduleType, clock string, now time.Time) (time.Time, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	anchor := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	switch scheduleType {
	case ScheduleDaily:
		if anchor.After(now) {
			return anchor, nil
		}
		return anchor.AddDate(0, 0, 1), nil

	case ScheduleWeekly:
		if !anchor.After(now) {
			anchor = anchor.AddDate(0, 0, 1)
		}
		return anchor.AddDate(0, 0, 7), nil

	case ScheduleMonthly:
		day := now.Day()
		if day > monthlyDayClamp {
			day = monthlyDayClamp
		}
		next := time.Date(now.Year(), now.Month(), day, hour, minute, 0, 0, now.Location())
		return next.AddDate(0, 1, 0), nil

	default:
		return time.Time{}, fmt.Errorf("%w: unknown schedule type %q", errs.ErrInvalid, scheduleType)
	}
}
