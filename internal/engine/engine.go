// Package engine implements the dispatch loop described in spec.md §4:
// a ticking claimer backed by a bounded worker pool, both talking to
// Postgres only through the repository ports (no in-memory queue between
// dispatcher and workers).
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/trustle-io/taskscheduler/internal/clock"
	"github.com/trustle-io/taskscheduler/internal/metrics"
	"github.com/trustle-io/taskscheduler/internal/repository"
	"github.com/trustle-io/taskscheduler/internal/runner"
)

// Config bundles the tunables the dispatch engine needs at construction
// time, all sourced from config.Config.
type Config struct {
	PollInterval    time.Duration
	MaxWorkers      int
	MaxClaimBatch   int
	DefaultTimeout  time.Duration
}

// Engine is the process-wide, singleton dispatch control loop. Start/Stop
// form an idempotent, restartable lifecycle (spec.md's "process-wide
// engine handle"): a stopped engine can be started again without reusing
// any previously joined goroutine, mirroring the teacher's worker.go
// reused across restarts and, more directly, the original scheduler's
// Scheduler.start/stop which recreates its executor and thread each time.
type Engine struct {
	tasks      repository.TaskRepository
	executions repository.ExecutionRepository
	registry   *runner.Registry
	clock      clock.Clock
	cfg        Config
	logger     *slog.Logger

	mu             sync.Mutex
	cancel         context.CancelFunc
	dispatcherDone chan struct{}
	pool           *Pool
	running        bool
}

func New(tasks repository.TaskRepository, executions repository.ExecutionRepository, registry *runner.Registry, c clock.Clock, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		tasks:      tasks,
		executions: executions,
		registry:   registry,
		clock:      c,
		cfg:        cfg,
		logger:     logger.With("component", "engine"),
	}
}

// Start is a no-op if the engine is already running. Otherwise it spins up
// a fresh pool and dispatcher goroutine.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.logger.Info("engine already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.dispatcherDone = make(chan struct{})
	e.pool = NewPool(e.cfg.MaxWorkers, e.logger)
	e.running = true

	finalizer := NewFinalizer(e.tasks, e.executions, e.registry, e.clock, e.cfg.DefaultTimeout, e.logger)
	dispatcher := NewDispatcher(e.tasks, finalizer, e.pool, e.clock, e.cfg.PollInterval, e.cfg.MaxClaimBatch, e.logger)

	metrics.EngineStartTime.Set(float64(e.clock.Now().Unix()))
	e.logger.Info("engine starting")

	go func() {
		defer close(e.dispatcherDone)
		dispatcher.Run(ctx)
	}()
}

// Stop joins the dispatcher with a bounded wait and then drains the worker
// pool unboundedly, per spec.md §9: in-flight handlers are never forced to
// interrupt. Safe to call on an engine that isn't running.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	dispatcherDone := e.dispatcherDone
	pool := e.pool
	e.mu.Unlock()

	e.logger.Info("engine stopping")
	cancel()

	select {
	case <-dispatcherDone:
	case <-time.After(5 * time.Second):
		e.logger.Warn("dispatcher did not join within bounded wait")
	}

	pool.Wait()
	metrics.EngineStopsTotal.Inc()

	e.mu.Lock()
	e.running = false
	e.cancel = nil
	e.dispatcherDone = nil
	e.pool = nil
	e.mu.Unlock()

	e.logger.Info("engine stopped")
}
