// Package metrics exposes Prometheus instrumentation for the recording
// engine, following the teacher's promauto idiom (internal/metrics/metrics.go
// in github.com/maumercado/task-queue-go) relabeled to this domain.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SchedulesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamvault_schedules_created_total",
			Help: "Total number of schedules created",
		},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamvault_tasks_completed_total",
			Help: "Total number of tasks reaching a terminal status",
		},
		[]string{"status"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamvault_task_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~34min
		},
		[]string{"status"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamvault_queue_depth",
			Help: "Current number of queues by status",
		},
		[]string{"status"},
	)

	ProcessSpawnErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamvault_process_spawn_errors_total",
			Help: "Total number of external process spawn failures",
		},
	)

	DaemonTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamvault_daemon_tick_duration_seconds",
			Help:    "Time spent in one daemon run-loop iteration",
			Buckets: prometheus.DefBuckets,
		},
	)

	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamvault_active_workers",
			Help: "Current number of queue/recorder worker goroutines",
		},
	)
)

// RecordTaskCompletion records a task reaching a terminal status.
func RecordTaskCompletion(status string, durationSeconds float64) {
	TasksCompleted.WithLabelValues(status).Inc()
	TaskDuration.WithLabelValues(status).Observe(durationSeconds)
}

// SetQueueDepth sets the gauge for one queue status bucket.
func SetQueueDepth(status string, depth float64) {
	QueueDepth.WithLabelValues(status).Set(depth)
}

// RecordSpawnError increments the process spawn failure counter.
func RecordSpawnError() {
	ProcessSpawnErrors.Inc()
}

// SetActiveWorkers sets the active-worker gauge.
func SetActiveWorkers(n float64) {
	ActiveWorkers.Set(n)
}
