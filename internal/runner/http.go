package runner

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/trustle-io/taskscheduler/internal/domain"
)

// httpTaskTimeout is the fixed client-side cutoff for an http task's GET
// (spec.md §4.5), grounded on the original's `httpx.Client(timeout=10)`
// (original_source/app/tasks.py). It is independent of the task's own
// soft timeout, which only reclassifies an already-finished execution and
// never cancels anything (internal/engine/finalize.go).
const httpTaskTimeout = 10 * time.Second

// NewHTTPHandler grounds spec.md's "http" kind: GET params.url, falling back
// to the configured HTTP_TASK_URL, and report status code and
// elapsed time. The client is tuned the way the teacher tunes its executor
// client: capped idle connections, a TLS floor, and a bounded redirect
// chain, plus a fixed per-request timeout the way the teacher's
// scheduler.Executor derives its own request deadline from context
// (internal/scheduler/executor.go's `context.WithTimeout` around job.TimeoutSeconds).
func NewHTTPHandler(defaultURL string, logger *slog.Logger) Handler {
	logger = logger.With("handler", "http")

	client := &http.Client{
		// Per-request timeouts are set via context below; this is a safety net.
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}

	return func(ctx context.Context, task *domain.Task) (domain.Params, error) {
		url := defaultURL
		if raw, ok := task.Params["url"]; ok {
			if s, ok := raw.(string); ok && s != "" {
				url = s
			}
		}

		start := time.Now()
		logger.DebugContext(ctx, "http task start", "task_id", task.ID, "url", url)

		ctx, cancel := context.WithTimeout(ctx, httpTaskTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)

		elapsed := time.Since(start)
		logger.InfoContext(ctx, "http task finish",
			"task_id", task.ID, "status", resp.StatusCode, "elapsed_seconds", elapsed.Seconds())

		return domain.Params{
			"status_code":     resp.StatusCode,
			"elapsed_seconds": elapsed.Seconds(),
		}, nil
	}
}
