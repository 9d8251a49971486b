package runner

import (
	"context"
	"log/slog"

	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/trustle-io/taskscheduler/internal/repository"
)

// NewCounterHandler grounds spec.md's "counter" kind: increment params.count
// and persist the new value back onto the task row so the next run sees it.
func NewCounterHandler(tasks repository.TaskRepository, logger *slog.Logger) Handler {
	logger = logger.With("handler", "counter")
	return func(ctx context.Context, task *domain.Task) (domain.Params, error) {
		count := 0
		if raw, ok := task.Params["count"]; ok {
			if n, ok := toFloat(raw); ok {
				count = int(n)
			}
		}
		count++

		params := domain.Params{}
		for k, v := range task.Params {
			params[k] = v
		}
		params["count"] = count

		if err := tasks.SetParams(ctx, task.ID, params); err != nil {
			return nil, err
		}
		task.Params = params

		logger.InfoContext(ctx, "counter increment", "task_id", task.ID, "count", count)
		return domain.Params{"count": count}, nil
	}
}
