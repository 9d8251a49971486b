package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trustle-io/taskscheduler/internal/repository"
)

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `id, name, kind, schedule_kind, interval_seconds, cron_expression,
	next_run_at, params, timeout_seconds, running, created_at, updated_at`

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if t.Params == nil {
		t.Params = domain.Params{}
	}

	query := `
		INSERT INTO tasks (name, kind, schedule_kind, interval_seconds, cron_expression,
		                    next_run_at, params, timeout_seconds, running)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query,
		t.Name, t.Kind, t.ScheduleKind, t.IntervalSeconds, t.CronExpression,
		t.NextRunAt, t.Params, t.TimeoutSeconds,
	)

	created, err := scanTask(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrNameConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func (r *TaskRepository) List(ctx context.Context, input repository.ListTasksInput) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if input.UpcomingOnly {
		query += ` WHERE next_run_at IS NOT NULL ORDER BY next_run_at ASC`
	} else {
		query += ` ORDER BY id ASC`
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Update loads the task, lets fn mutate it in place, and persists the
// mutable PATCH-able fields. Runs inside a transaction so the read and
// write are atomic with respect to concurrent claims.
func (r *TaskRepository) Update(ctx context.Context, id int64, fn func(*domain.Task) error) (*domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	if err := fn(t); err != nil {
		return nil, err
	}

	updateRow := tx.QueryRow(ctx, `
		UPDATE tasks
		SET schedule_kind    = $2,
		    interval_seconds = $3,
		    cron_expression  = $4,
		    next_run_at      = $5,
		    params           = $6,
		    timeout_seconds  = $7,
		    updated_at       = NOW()
		WHERE id = $1
		RETURNING `+taskColumns,
		id, t.ScheduleKind, t.IntervalSeconds, t.CronExpression, t.NextRunAt, t.Params, t.TimeoutSeconds,
	)
	updated, err := scanTask(updateRow)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// ClaimDue is the correctness-critical claim-and-advance transaction
// described in spec.md §4.3. FOR UPDATE SKIP LOCKED gives mutual exclusion
// against peer schedulers without blocking them.
func (r *TaskRepository) ClaimDue(ctx context.Context, now time.Time, limit int, advance func(*domain.Task) *time.Time) ([]*domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE next_run_at IS NOT NULL AND next_run_at <= $1 AND running = FALSE
		ORDER BY next_run_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due tasks: %w", err)
	}

	var due []*domain.Task
	for rows.Next() {
		t, scanErr := scanTask(rows)
		if scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		due = append(due, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due tasks: %w", err)
	}

	for _, t := range due {
		next := advance(t)
		if _, err := tx.Exec(ctx, `
			UPDATE tasks SET running = TRUE, next_run_at = $2, updated_at = NOW() WHERE id = $1`,
			t.ID, next,
		); err != nil {
			return nil, fmt.Errorf("claim task %d: %w", t.ID, err)
		}
		t.Running = true
		t.NextRunAt = next
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return due, nil
}

func (r *TaskRepository) SetParams(ctx context.Context, id int64, params domain.Params) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tasks SET params = $2, updated_at = NOW() WHERE id = $1`, id, params)
	if err != nil {
		return fmt.Errorf("set task params: %w", err)
	}
	return nil
}

func (r *TaskRepository) ClearRunning(ctx context.Context, id int64, nextRunAt *time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tasks SET running = FALSE, next_run_at = $2, updated_at = NOW() WHERE id = $1`,
		id, nextRunAt)
	if err != nil {
		return fmt.Errorf("clear running: %w", err)
	}
	return nil
}

// pgx.Row and pgx.Rows both implement this.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.Name, &t.Kind, &t.ScheduleKind, &t.IntervalSeconds, &t.CronExpression,
		&t.NextRunAt, &t.Params, &t.TimeoutSeconds, &t.Running, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &t, nil
}
