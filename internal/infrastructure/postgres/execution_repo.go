package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trustle-io/taskscheduler/internal/domain"
)

type ExecutionRepository struct {
	pool *pgxpool.Pool
}

func NewExecutionRepository(pool *pgxpool.Pool) *ExecutionRepository {
	return &ExecutionRepository{pool: pool}
}

const executionColumns = `id, task_id, started_at, finished_at, status, detail, result`

func (r *ExecutionRepository) Create(ctx context.Context, e *domain.Execution) (*domain.Execution, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO executions (task_id, started_at, status)
		VALUES ($1, $2, $3)
		RETURNING `+executionColumns,
		e.TaskID, e.StartedAt, domain.ExecutionRunning,
	)
	return scanExecution(row)
}

func (r *ExecutionRepository) Complete(ctx context.Context, id int64, status domain.ExecutionStatus, detail *string, result domain.Params) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE executions
		SET status = $2, detail = $3, result = $4, finished_at = NOW()
		WHERE id = $1`,
		id, status, detail, result,
	)
	if err != nil {
		return fmt.Errorf("complete execution %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete execution %d: not found", id)
	}
	return nil
}

// Reclassify is only ever invoked with domain.ExecutionTimeout, rewriting a
// successful run post-hoc once the handler exceeded its budget (spec.md
// §4.4 step 5). It never touches finished_at or result: the run already
// finished and produced whatever it produced, it just ran too slowly.
func (r *ExecutionRepository) Reclassify(ctx context.Context, id int64, status domain.ExecutionStatus, detail string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE executions SET status = $2, detail = $3 WHERE id = $1`,
		id, status, detail,
	)
	if err != nil {
		return fmt.Errorf("reclassify execution %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reclassify execution %d: not found", id)
	}
	return nil
}

func (r *ExecutionRepository) ListByTaskID(ctx context.Context, taskID int64) ([]*domain.Execution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+executionColumns+` FROM executions WHERE task_id = $1 ORDER BY started_at ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list executions for task %d: %w", taskID, err)
	}
	defer rows.Close()
	return scanExecutions(rows)
}

func (r *ExecutionRepository) ListAll(ctx context.Context) ([]*domain.Execution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+executionColumns+` FROM executions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()
	return scanExecutions(rows)
}

func scanExecutions(rows pgx.Rows) ([]*domain.Execution, error) {
	var executions []*domain.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}
	return executions, rows.Err()
}

func scanExecution(row rowScanner) (*domain.Execution, error) {
	var e domain.Execution
	err := row.Scan(&e.ID, &e.TaskID, &e.StartedAt, &e.FinishedAt, &e.Status, &e.Detail, &e.Result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("execution not found")
		}
		return nil, fmt.Errorf("scan execution: %w", err)
	}
	return &e, nil
}
