package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trustle-io/taskscheduler/internal/clock"
	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/trustle-io/taskscheduler/internal/metrics"
	"github.com/trustle-io/taskscheduler/internal/repository"
	"github.com/trustle-io/taskscheduler/internal/runner"
)

// Finalizer runs one claimed task end to end and performs the
// finalisation steps described in spec.md's glossary: record the
// Execution outcome, clear running, and (for interval tasks) set the
// next fire from the completion time.
type Finalizer struct {
	tasks          repository.TaskRepository
	executions     repository.ExecutionRepository
	registry       *runner.Registry
	clock          clock.Clock
	defaultTimeout time.Duration
	logger         *slog.Logger
}

func NewFinalizer(tasks repository.TaskRepository, executions repository.ExecutionRepository, registry *runner.Registry, c clock.Clock, defaultTimeout time.Duration, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		tasks:          tasks,
		executions:     executions,
		registry:       registry,
		clock:          c,
		defaultTimeout: defaultTimeout,
		logger:         logger.With("component", "finalizer"),
	}
}

// Run executes task's handler and finalises it. ctx carries no deadline
// tied to the task's own timeout: handlers are never preempted, only
// reclassified after the fact (spec.md's soft timeout).
func (f *Finalizer) Run(ctx context.Context, task *domain.Task) {
	start := f.clock.Now()

	exec, err := f.executions.Create(ctx, &domain.Execution{TaskID: task.ID, StartedAt: start})
	if err != nil {
		f.logger.ErrorContext(ctx, "create execution", "task_id", task.ID, "error", err)
		f.finish(ctx, task)
		return
	}

	handler, err := f.registry.Lookup(task.Kind)
	if err != nil {
		f.completeFailed(ctx, exec.ID, err)
		f.finish(ctx, task)
		return
	}

	f.logger.InfoContext(ctx, "task start", "task_id", task.ID, "kind", task.Kind)

	result, runErr := handler(ctx, task)
	finishedAt := f.clock.Now()
	duration := finishedAt.Sub(start)

	status := domain.ExecutionSuccess
	var detail *string
	if runErr != nil {
		status = domain.ExecutionFailed
		msg := runErr.Error()
		detail = &msg
	}

	if err := f.executions.Complete(ctx, exec.ID, status, detail, result); err != nil {
		f.logger.ErrorContext(ctx, "complete execution", "execution_id", exec.ID, "error", err)
	}

	timeout := f.defaultTimeout
	if task.TimeoutSeconds != nil {
		timeout = time.Duration(*task.TimeoutSeconds) * time.Second
	}
	if status == domain.ExecutionSuccess && duration > timeout {
		detail := fmt.Sprintf("Exceeded timeout of %ds", int(timeout.Seconds()))
		if err := f.executions.Reclassify(ctx, exec.ID, domain.ExecutionTimeout, detail); err != nil {
			f.logger.ErrorContext(ctx, "reclassify execution", "execution_id", exec.ID, "error", err)
		}
		status = domain.ExecutionTimeout
		metrics.TimeoutsTotal.Inc()
	}

	metrics.TaskExecutionDuration.WithLabelValues(string(task.Kind), string(status)).Observe(duration.Seconds())
	metrics.ExecutionsTotal.WithLabelValues(string(status)).Inc()

	f.logger.InfoContext(ctx, "task finish",
		"task_id", task.ID, "status", status, "duration_seconds", duration.Seconds())

	f.finish(ctx, task)
}

func (f *Finalizer) completeFailed(ctx context.Context, executionID int64, cause error) {
	msg := cause.Error()
	if err := f.executions.Complete(ctx, executionID, domain.ExecutionFailed, &msg, nil); err != nil {
		f.logger.ErrorContext(ctx, "complete execution", "execution_id", executionID, "error", err)
	}
}

// finish clears running and, for interval schedules only, recomputes
// next_run_at from the completion time — the asymmetry documented in
// spec.md: interval cadence resets at run finish, cron/once keep whatever
// next_run_at the claim transaction already set.
func (f *Finalizer) finish(ctx context.Context, task *domain.Task) {
	var next *time.Time
	if task.ScheduleKind == domain.ScheduleInterval && task.IntervalSeconds != nil {
		t := f.clock.Now().Add(time.Duration(*task.IntervalSeconds) * time.Second)
		next = &t
	} else {
		next = task.NextRunAt
	}

	if err := f.tasks.ClearRunning(ctx, task.ID, next); err != nil {
		f.logger.ErrorContext(ctx, "clear running", "task_id", task.ID, "error", err)
	}
}
