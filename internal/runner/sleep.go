package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/trustle-io/taskscheduler/internal/domain"
)

// NewSleepHandler grounds spec.md's "sleep" kind: sleep for params.duration
// seconds (default 2) and report how long it actually took. Returns
// ctx.Err() early if ctx is cancelled; the engine runs handlers under a
// context that is never cancelled, and a soft timeout does not cancel it.
func NewSleepHandler(logger *slog.Logger) Handler {
	logger = logger.With("handler", "sleep")
	return func(ctx context.Context, task *domain.Task) (domain.Params, error) {
		duration := 2 * time.Second
		if raw, ok := task.Params["duration"]; ok {
			if secs, ok := toFloat(raw); ok {
				duration = time.Duration(secs * float64(time.Second))
			}
		}

		start := time.Now()
		logger.DebugContext(ctx, "sleep start", "task_id", task.ID, "duration", duration)

		timer := time.NewTimer(duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		elapsed := time.Since(start)
		logger.InfoContext(ctx, "sleep finish", "task_id", task.ID, "slept_seconds", elapsed.Seconds())
		return domain.Params{"slept_seconds": elapsed.Seconds()}, nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
