package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrNameConflict    = errors.New("task with this name already exists")
	ErrInvalidCronExpr = errors.New("invalid cron expression")
	ErrInvalidSchedule = errors.New("invalid schedule fields for schedule_kind")
	ErrValidation      = errors.New("invalid task fields")
)

// Kind identifies what a task's handler does.
type Kind string

const (
	KindSleep   Kind = "sleep"
	KindCounter Kind = "counter"
	KindHTTP    Kind = "http"
)

// ScheduleKind identifies how a task's next_run_at is advanced.
type ScheduleKind string

const (
	ScheduleInterval ScheduleKind = "interval"
	ScheduleOnce     ScheduleKind = "once"
	ScheduleCron     ScheduleKind = "cron"
)

// Params is the opaque, task-kind-specific key/value bag stored on a Task
// and produced by an Execution. Stored as a JSONB column.
type Params map[string]any

// Task is the durable, coordination object claimed by the dispatch engine.
type Task struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Kind            Kind         `json:"kind"`
	ScheduleKind    ScheduleKind `json:"schedule_kind"`
	IntervalSeconds *int         `json:"interval_seconds,omitempty"`
	CronExpression  *string      `json:"cron_expression,omitempty"`
	NextRunAt       *time.Time   `json:"next_run_at"`
	Params          Params       `json:"params"`
	TimeoutSeconds  *int         `json:"timeout_seconds,omitempty"`
	Running         bool         `json:"running"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Validate checks the schedule-kind-specific required fields, matching
// spec.md §6's TaskCreate validation rules.
func (t *Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	switch t.Kind {
	case KindSleep, KindCounter, KindHTTP:
	default:
		return fmt.Errorf("%w: kind must be one of sleep, counter, http", ErrValidation)
	}
	switch t.ScheduleKind {
	case ScheduleInterval:
		if t.IntervalSeconds == nil || *t.IntervalSeconds < 1 {
			return ErrInvalidSchedule
		}
	case ScheduleOnce:
		if t.NextRunAt == nil {
			return ErrInvalidSchedule
		}
	case ScheduleCron:
		if t.CronExpression == nil || *t.CronExpression == "" {
			return ErrInvalidSchedule
		}
	default:
		return fmt.Errorf("%w: schedule_kind must be one of interval, once, cron", ErrValidation)
	}
	return nil
}
