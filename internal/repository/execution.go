package repository

import (
	"context"

	"github.com/trustle-io/taskscheduler/internal/domain"
)

// ExecutionRepository is the port for per-run Execution records.
type ExecutionRepository interface {
	// Create opens an execution row at handler entry (status=running),
	// returning it with its DB-generated ID (spec.md E3).
	Create(ctx context.Context, e *domain.Execution) (*domain.Execution, error)

	// Complete closes an execution with its terminal outcome. result is
	// nil on failure; detail is nil on success.
	Complete(ctx context.Context, id int64, status domain.ExecutionStatus, detail *string, result domain.Params) error

	// Reclassify rewrites a successful execution's status to timeout
	// post-hoc, per spec.md §4.4 step 5. Only ever called with
	// domain.ExecutionTimeout.
	Reclassify(ctx context.Context, id int64, status domain.ExecutionStatus, detail string) error

	ListByTaskID(ctx context.Context, taskID int64) ([]*domain.Execution, error)
	ListAll(ctx context.Context) ([]*domain.Execution, error)
}
