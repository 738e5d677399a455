package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "threadpool"

// Registry holds all metric instances for threadpool components.
type Registry struct {
	// Worker Pool Metrics
	TasksSubmitted        *prometheus.CounterVec
	TasksExecuted         *prometheus.CounterVec
	TasksCompleted        *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TasksShed             *prometheus.CounterVec
	WorkerPanics          *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	TaskQueueWait         *prometheus.HistogramVec
	WorkerPoolSize        *prometheus.GaugeVec
	WorkerPoolLive        *prometheus.GaugeVec
	WorkerPoolQueued      *prometheus.GaugeVec

	// Scheduler Metrics
	TasksScheduled  *prometheus.CounterVec
	TasksDispatched *prometheus.CounterVec
	DispatchErrors  *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by threadpool components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, DefaultNamespace, nil)
}

// NewRegistryFromConfig creates a registry honoring the namespace and
// constant labels of config.
func NewRegistryFromConfig(config Config) *Registry {
	return newRegistry(config.registerer(), config.namespace(), config.Labels)
}

func newRegistry(reg prometheus.Registerer, namespace string, labels prometheus.Labels) *Registry {
	factory := promauto.With(reg)

	counter := func(subsystem, name, help string, labelNames ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   subsystem,
				Name:        name,
				Help:        help,
				ConstLabels: labels,
			},
			labelNames,
		)
	}
	gauge := func(subsystem, name, help string, labelNames ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   subsystem,
				Name:        name,
				Help:        help,
				ConstLabels: labels,
			},
			labelNames,
		)
	}
	histogram := func(subsystem, name, help string, labelNames ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   subsystem,
				Name:        name,
				Help:        help,
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			labelNames,
		)
	}

	return &Registry{
		TasksSubmitted: counter("workerpool", "tasks_submitted_total",
			"Total number of tasks accepted into the queue", "pool_name"),
		TasksExecuted: counter("workerpool", "tasks_executed_total",
			"Total number of tasks executed", "pool_name"),
		TasksCompleted: counter("workerpool", "tasks_completed_total",
			"Total number of tasks completed successfully", "pool_name"),
		TasksFailed: counter("workerpool", "tasks_failed_total",
			"Total number of tasks that returned an error", "pool_name"),
		TasksShed: counter("workerpool", "tasks_shed_total",
			"Total number of tasks run on the submitter because the pool was not running", "pool_name"),
		WorkerPanics: counter("workerpool", "worker_panics_total",
			"Total number of workers lost to panicking tasks", "pool_name"),
		TaskExecutionDuration: histogram("workerpool", "task_duration_seconds",
			"Time spent executing tasks", "pool_name"),
		TaskQueueWait: histogram("workerpool", "task_queue_wait_seconds",
			"Time tasks spent between submission and execution", "pool_name"),
		WorkerPoolSize: gauge("workerpool", "size",
			"Configured number of workers", "pool_name"),
		WorkerPoolLive: gauge("workerpool", "live_workers",
			"Number of workers still running their loop", "pool_name"),
		WorkerPoolQueued: gauge("workerpool", "queued_tasks",
			"Number of queued tasks", "pool_name"),

		TasksScheduled: counter("scheduler", "tasks_scheduled_total",
			"Total number of tasks scheduled", "scheduler_name"),
		TasksDispatched: counter("scheduler", "tasks_dispatched_total",
			"Total number of due tasks handed to the pool", "scheduler_name"),
		DispatchErrors: counter("scheduler", "dispatch_errors_total",
			"Total number of due tasks the pool rejected or that failed on the caller", "scheduler_name"),
	}
}
