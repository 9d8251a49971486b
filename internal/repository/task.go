package repository

import (
	"context"
	"time"

	"github.com/trustle-io/taskscheduler/internal/domain"
)

// ListTasksInput filters GET /tasks-style queries.
type ListTasksInput struct {
	// UpcomingOnly restricts the result to tasks with a non-null NextRunAt,
	// ordered by NextRunAt ascending (GET /upcoming).
	UpcomingOnly bool
}

// TaskRepository is the port the HTTP handlers and the dispatch engine
// depend on, not the concrete Postgres adapter. Swappable for tests via a
// fake implementation.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, id int64, fn func(*domain.Task) error) (*domain.Task, error)
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context, input ListTasksInput) ([]*domain.Task, error)
	Delete(ctx context.Context, id int64) error

	// ClaimDue atomically claims due tasks (FOR UPDATE SKIP LOCKED), sets
	// running=true, advances next_run_at via advance, and commits in a
	// single transaction. This is the correctness-critical primitive
	// behind spec.md §4.3.
	ClaimDue(ctx context.Context, now time.Time, limit int, advance func(*domain.Task) *time.Time) ([]*domain.Task, error)

	// SetParams persists a handler-owned rewrite of a task's params (the
	// counter handler's mutation path, spec.md §4.5).
	SetParams(ctx context.Context, id int64, params domain.Params) error

	// ClearRunning finalises a claim: clears running and writes nextRunAt
	// as given. The caller (engine.Finalizer) computes that value, from the
	// completion time for interval schedules (spec.md §4.4 step 6).
	ClearRunning(ctx context.Context, id int64, nextRunAt *time.Time) error
}
