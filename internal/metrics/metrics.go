// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksSubmitted counts accepted analysis submissions by kind
	TasksSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeintel_tasks_submitted_total",
		Help: "Total number of analysis tasks submitted.",
	}, []string{"kind"})

	// TasksFinished counts finished executions by kind and state. LOST marks
	// an execution whose RUNNING or terminal write never reached the store.
	TasksFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeintel_tasks_finished_total",
		Help: "Total number of analysis task executions by final state (COMPLETED, FAILED or LOST).",
	}, []string{"kind", "state"})

	// TaskDuration observes runner wall time by kind
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routeintel_task_duration_seconds",
		Help:    "Wall time from RUNNING to a terminal state.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
	}, []string{"kind"})

	// RoutesScored counts scored routes by classification
	RoutesScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeintel_routes_scored_total",
		Help: "Total number of scored routes by classification.",
	}, []string{"classification"})

	// ProviderFailures counts failed calls to external backends by provider
	ProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routeintel_provider_failures_total",
		Help: "Total number of failed calls to external providers and stores.",
	}, []string{"provider"})
)
