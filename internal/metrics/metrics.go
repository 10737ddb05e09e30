package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Task metrics
	TasksTotal   *prometheus.CounterVec
	TaskDuration *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec

	// Backend metrics
	BackendChecksTotal *prometheus.CounterVec
}

// New creates and registers all metrics on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		TasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_total",
				Help: "Total number of dispatched tasks",
			},
			[]string{"agent_id", "status"},
		),
		TaskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "task_duration_seconds",
				Help:    "Duration of agent task processing in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent_id"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "code"},
		),
		BackendChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_checks_total",
				Help: "Total number of backend liveness checks",
			},
			[]string{"backend", "status"},
		),
	}

	registry.MustRegister(
		m.TasksTotal,
		m.TaskDuration,
		m.HTTPRequestsTotal,
		m.BackendChecksTotal,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
