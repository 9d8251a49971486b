package engine

import (
	"log/slog"
	"sync"

	"github.com/trustle-io/taskscheduler/internal/metrics"
)

// Pool is a bounded-concurrency executor: at most n submissions run at
// once, and Submit blocks the caller (here, the dispatcher's tick) once
// that many are already in flight. Grounded in the teacher's worker.go,
// which bounds concurrency with a sync.WaitGroup over one claimed batch;
// this generalizes that to a standing semaphore so the bound holds across
// ticks, not just within one.
type Pool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewPool(size int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size), logger: logger.With("component", "pool")}
}

// Submit acquires a slot and runs fn in a new goroutine. Blocks if the pool
// is saturated; per spec this is intentional rate limiting, not a bug, so
// it takes no context — callers that need to bail out should not call it.
// A panic inside fn (e.g. a misbehaving handler) is recovered and logged
// rather than left to crash the whole process (spec.md §4.3).
func (p *Pool) Submit(fn func()) {
	p.sem <- struct{}{}
	p.wg.Add(1)
	metrics.TasksInFlight.Inc()
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		defer metrics.TasksInFlight.Dec()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("submitted task panicked", "recover", r)
			}
		}()
		fn()
	}()
}

// Wait blocks until every submitted fn has returned. Unbounded: in-flight
// handlers are never interrupted (spec.md's soft-timeout contract).
func (p *Pool) Wait() {
	p.wg.Wait()
}
