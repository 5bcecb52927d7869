// Package metrics provides Prometheus metrics for the task API and the planner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests.
	// Labels: method, route, status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of task API requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "studyplan",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of task API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// TaskOperations counts repository operations.
	// Labels: op (list, get, create, update, delete, clear), result (success, not_found, error)
	TaskOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Subsystem: "tasks",
			Name:      "operations_total",
			Help:      "Total number of task store operations",
		},
		[]string{"op", "result"},
	)

	// PlanGenerations counts calls to the generation service.
	// Labels: result (success, error)
	PlanGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Subsystem: "planner",
			Name:      "generations_total",
			Help:      "Total number of study plan generation calls",
		},
		[]string{"result"},
	)

	// PlanGenerationDuration tracks generation latency.
	PlanGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "studyplan",
			Subsystem: "planner",
			Name:      "generation_duration_seconds",
			Help:      "Duration of study plan generation calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// ObserveTaskOp records the outcome of a store operation.
func ObserveTaskOp(op, result string) {
	TaskOperations.WithLabelValues(op, result).Inc()
}
