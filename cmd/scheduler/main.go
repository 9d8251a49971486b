package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trustle-io/taskscheduler/config"
	"github.com/trustle-io/taskscheduler/internal/clock"
	"github.com/trustle-io/taskscheduler/internal/engine"
	"github.com/trustle-io/taskscheduler/internal/health"
	"github.com/trustle-io/taskscheduler/internal/infrastructure/postgres"
	ctxlog "github.com/trustle-io/taskscheduler/internal/log"
	"github.com/trustle-io/taskscheduler/internal/metrics"
	"github.com/trustle-io/taskscheduler/internal/runner"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.LogJSON, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}
	logger.Info("db connected")

	metrics.Register()
	// Registers the scheduler_health_check_up gauge against this process's
	// own DB connection too; /readyz itself is only exposed by cmd/server.
	health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	taskRepo := postgres.NewTaskRepository(pool)
	executionRepo := postgres.NewExecutionRepository(pool)

	registry := runner.NewRegistry()
	registry.Register("sleep", runner.NewSleepHandler(logger))
	registry.Register("counter", runner.NewCounterHandler(taskRepo, logger))
	registry.Register("http", runner.NewHTTPHandler(cfg.HTTPTaskURL, logger))

	e := engine.New(taskRepo, executionRepo, registry, clock.Real{}, engine.Config{
		PollInterval:   cfg.PollInterval(),
		MaxWorkers:     cfg.MaxWorkerThreads,
		MaxClaimBatch:  cfg.MaxClaimBatch,
		DefaultTimeout: cfg.DefaultTaskTimeout(),
	}, logger)

	if cfg.SchedulerEnable {
		e.Start()
	} else {
		logger.Info("scheduler disabled via config, metrics server only")
	}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	e.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("scheduler shut down")
}

func newLogger(env string, jsonFormat bool, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" && !jsonFormat {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
