package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/trustle-io/taskscheduler/internal/clock"
	"github.com/trustle-io/taskscheduler/internal/cronexpr"
	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/trustle-io/taskscheduler/internal/metrics"
	"github.com/trustle-io/taskscheduler/internal/repository"
)

// Dispatcher ticks on a fixed interval, claims due tasks in one
// transaction, and hands each to the pool. Grounded in the teacher's
// dispatcher.go, generalized from a single cron-only Schedule model to the
// three schedule kinds this domain supports.
type Dispatcher struct {
	tasks      repository.TaskRepository
	finalizer  *Finalizer
	pool       *Pool
	clock      clock.Clock
	interval   time.Duration
	batchSize  int
	logger     *slog.Logger
}

func NewDispatcher(tasks repository.TaskRepository, finalizer *Finalizer, pool *Pool, c clock.Clock, interval time.Duration, batchSize int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		tasks:     tasks,
		finalizer: finalizer,
		pool:      pool,
		clock:     c,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With("component", "dispatcher"),
	}
}

// Run blocks, ticking until ctx is cancelled. The caller is expected to run
// this in its own goroutine and join it with a bounded wait (spec.md §9).
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("dispatcher started", "interval", d.interval, "batch_size", d.batchSize)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping")
			return
		case <-ticker.C:
			d.safeTick(ctx)
		}
	}
}

// safeTick runs one tick with panic containment: a panic inside the claim
// query, the advance callback, or submission must not kill the dispatcher
// goroutine and take the whole engine down with it (spec.md §4.3's "panics
// inside a tick MUST NOT kill the engine loop", translating the original
// scheduler's `try/except Exception` around `_tick()`).
func (d *Dispatcher) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tick panicked", "recover", r)
		}
	}()
	d.tick(ctx)
}

func (d *Dispatcher) tick(ctx context.Context) {
	now := d.clock.Now()
	due, err := d.tasks.ClaimDue(ctx, now, d.batchSize, d.advance)
	if err != nil {
		d.logger.Error("claim due tasks", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	d.logger.Info("claimed due tasks", "count", len(due))
	metrics.TasksClaimed.Add(float64(len(due)))

	for _, task := range due {
		task := task
		// A cancelled ctx must not abort an already-claimed task: the
		// handler runs to completion regardless (soft timeout contract),
		// so detach it from the dispatcher's own lifecycle context.
		d.pool.Submit(func() {
			d.runDetached(task)
		})
	}
}

func (d *Dispatcher) runDetached(task *domain.Task) {
	d.finalizer.Run(context.Background(), task)
}

// advance computes next_run_at at claim time, mirroring the original
// scheduler's _tick: interval tasks get a provisional now+interval value
// (overwritten again at finish), cron tasks get their true next fire
// computed from now, and one-shot tasks get nil since they never fire
// again.
func (d *Dispatcher) advance(task *domain.Task) *time.Time {
	now := d.clock.Now()
	switch task.ScheduleKind {
	case domain.ScheduleInterval:
		if task.IntervalSeconds == nil {
			return nil
		}
		t := now.Add(time.Duration(*task.IntervalSeconds) * time.Second)
		return &t
	case domain.ScheduleCron:
		if task.CronExpression == nil {
			return nil
		}
		next, err := cronexpr.Next(*task.CronExpression, now)
		if err != nil {
			d.logger.Error("invalid cron expression at dispatch, disabling future runs",
				"task_id", task.ID, "cron_expression", *task.CronExpression, "error", err)
			return nil
		}
		return &next
	default: // ScheduleOnce
		return nil
	}
}
