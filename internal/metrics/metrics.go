package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatch engine metrics

	TasksClaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "tasks_claimed_total",
		Help:      "Total tasks claimed off the due set across all ticks.",
	})

	TaskExecutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "task_execution_duration_seconds",
		Help:      "Duration of a task handler run, by outcome.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"kind", "status"})

	TasksInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "tasks_in_flight",
		Help:      "Number of task handlers currently executing.",
	})

	ExecutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "executions_total",
		Help:      "Total executions finished, by outcome.",
	}, []string{"status"})

	TimeoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "soft_timeouts_total",
		Help:      "Total successful executions reclassified as timeout.",
	})

	// Engine lifecycle

	EngineStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "engine_start_time_seconds",
		Help:      "Unix timestamp when the dispatch engine last started.",
	})

	EngineStopsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "engine_stops_total",
		Help:      "Number of times the dispatch engine has stopped.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		TasksClaimed,
		TaskExecutionDuration,
		TasksInFlight,
		ExecutionsTotal,
		TimeoutsTotal,
		EngineStartTime,
		EngineStopsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
