package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "matdet"

// Registry holds all metric instances for matdet components.
type Registry struct {
	// Worker Pool Metrics
	WorkerPoolSize    *prometheus.GaugeVec
	WorkerPoolActive  *prometheus.GaugeVec
	WorkerPoolQueued  *prometheus.GaugeVec
	TasksSubmitted    *prometheus.CounterVec
	TasksRejected     *prometheus.CounterVec
	TasksExecuted     *prometheus.CounterVec
	TasksFaulted      *prometheus.CounterVec
	TasksDropped      *prometheus.CounterVec
	TaskQueueWait     *prometheus.HistogramVec
	TaskExecutionTime *prometheus.HistogramVec

	// Batch Metrics
	BatchRuns     *prometheus.CounterVec
	JobsSucceeded *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
	BatchDuration *prometheus.HistogramVec

	// Report Sink Metrics
	SinkRecords      *prometheus.CounterVec
	SinkErrors       *prometheus.CounterVec
	SinkBytesWritten *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by matdet components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Number of workers in the pool",
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "active_workers",
				Help:      "Number of workers currently executing a task",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "queued_tasks",
				Help:      "Number of tasks waiting in the queue",
			},
			[]string{"pool_name"},
		),

		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks accepted by the pool",
			},
			[]string{"pool_name"},
		),

		TasksRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_rejected_total",
				Help:      "Total number of submissions refused because the pool was closed",
			},
			[]string{"pool_name"},
		),

		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_executed_total",
				Help:      "Total number of tasks run to completion or fault",
			},
			[]string{"pool_name"},
		),

		TasksFaulted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_faulted_total",
				Help:      "Total number of tasks that panicked",
			},
			[]string{"pool_name"},
		),

		TasksDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_dropped_total",
				Help:      "Total number of queued tasks discarded by a pool without workers",
			},
			[]string{"pool_name"},
		),

		TaskQueueWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "task_queue_wait_seconds",
				Help:      "Time tasks spent queued before a worker picked them up",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		TaskExecutionTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		BatchRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "runs_total",
				Help:      "Total number of batch runs started",
			},
			[]string{"runner_name"},
		),

		JobsSucceeded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "jobs_succeeded_total",
				Help:      "Total number of matrices whose determinant was recorded",
			},
			[]string{"runner_name"},
		),

		JobsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "jobs_failed_total",
				Help:      "Total number of matrices that could not be read, computed or recorded",
			},
			[]string{"runner_name", "stage"},
		),

		BatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "run_duration_seconds",
				Help:      "Wall time of a batch run including pool drain",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"runner_name"},
		),

		SinkRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "report",
				Name:      "records_total",
				Help:      "Total number of result lines recorded",
			},
			[]string{"sink_name"},
		),

		SinkErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "report",
				Name:      "errors_total",
				Help:      "Total number of failed record attempts",
			},
			[]string{"sink_name"},
		),

		SinkBytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "report",
				Name:      "bytes_written_total",
				Help:      "Total bytes written by report sinks",
			},
			[]string{"sink_name"},
		),
	}
}
