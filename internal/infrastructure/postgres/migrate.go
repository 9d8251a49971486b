package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied idempotently at process startup. No migration library
// is pulled in for this: the teacher's own go.mod carries none (golang-migrate
// appears only in a sibling example's stack), and two CREATE TABLE IF NOT
// EXISTS statements don't warrant one. See DESIGN.md.
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id               BIGSERIAL PRIMARY KEY,
	name             TEXT NOT NULL UNIQUE,
	kind             TEXT NOT NULL,
	schedule_kind    TEXT NOT NULL,
	interval_seconds INT NULL,
	cron_expression  TEXT NULL,
	next_run_at      TIMESTAMPTZ NULL,
	params           JSONB NOT NULL DEFAULT '{}',
	timeout_seconds  INT NULL,
	running          BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tasks_next_run_at ON tasks (next_run_at);

CREATE TABLE IF NOT EXISTS executions (
	id          BIGSERIAL PRIMARY KEY,
	task_id     BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NULL,
	status      TEXT NOT NULL,
	detail      TEXT NULL,
	result      JSONB NULL
);

CREATE INDEX IF NOT EXISTS idx_executions_task_id ON executions (task_id);
CREATE INDEX IF NOT EXISTS idx_executions_started_at ON executions (started_at);
`

// Migrate applies the schema. Safe to call on every process start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
