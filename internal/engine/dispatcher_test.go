package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/trustle-io/taskscheduler/internal/clock"
	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/trustle-io/taskscheduler/internal/engine"
	"github.com/trustle-io/taskscheduler/internal/runner"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func runDispatcherOnce(t *testing.T, task *domain.Task) (*fakeTaskRepo, *fakeExecutionRepo) {
	t.Helper()
	tasks := newFakeTaskRepo(task)
	executions := newFakeExecutionRepo()
	c := clock.NewFrozen(time.Now())

	registry := runner.NewRegistry()
	ran := make(chan struct{}, 1)
	registry.Register(task.Kind, func(_ context.Context, _ *domain.Task) (domain.Params, error) {
		ran <- struct{}{}
		return domain.Params{}, nil
	})

	finalizer := engine.NewFinalizer(tasks, executions, registry, c, 30*time.Second, discardLogger())
	pool := engine.NewPool(4, discardLogger())
	dispatcher := engine.NewDispatcher(tasks, finalizer, pool, c, 20*time.Millisecond, 100, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("handler never ran for a due task")
	}

	waitFor(t, time.Second, func() bool {
		execs, _ := executions.ListByTaskID(context.Background(), task.ID)
		return len(execs) == 1
	})
	cancel()
	pool.Wait()

	return tasks, executions
}

func TestDispatcher_Tick_ClaimsDueTaskAndRunsItThroughPool(t *testing.T) {
	interval := 60
	now := time.Now().Add(-time.Minute)
	task := &domain.Task{
		ID: 1, Name: "due-task", Kind: domain.KindSleep, ScheduleKind: domain.ScheduleInterval,
		IntervalSeconds: &interval, NextRunAt: &now, Params: domain.Params{"duration": 0},
	}

	_, executions := runDispatcherOnce(t, task)

	execs, _ := executions.ListByTaskID(context.Background(), task.ID)
	if len(execs) != 1 || execs[0].Status != domain.ExecutionSuccess {
		t.Fatalf("expected one success execution, got %+v", execs)
	}
	if task.NextRunAt == nil {
		t.Fatal("expected interval task to be rescheduled after finishing")
	}
}

func TestDispatcher_OnceSchedule_NextRunAtStaysNilAfterDispatch(t *testing.T) {
	now := time.Now().Add(-time.Minute)
	task := &domain.Task{
		ID: 5, Name: "once", Kind: domain.KindSleep, ScheduleKind: domain.ScheduleOnce,
		NextRunAt: &now, Params: domain.Params{},
	}

	runDispatcherOnce(t, task)

	if task.NextRunAt != nil {
		t.Fatalf("expected a one-shot task to never fire again, got %v", task.NextRunAt)
	}
}

func TestDispatcher_CronSchedule_InvalidExpressionDisablesTask(t *testing.T) {
	bad := "not a cron expression"
	now := time.Now().Add(-time.Minute)
	task := &domain.Task{
		ID: 6, Name: "cron", Kind: domain.KindSleep, ScheduleKind: domain.ScheduleCron,
		CronExpression: &bad, NextRunAt: &now, Params: domain.Params{},
	}

	runDispatcherOnce(t, task)

	if task.NextRunAt != nil {
		t.Fatalf("expected invalid cron expression to disable future runs, got %v", task.NextRunAt)
	}
}
