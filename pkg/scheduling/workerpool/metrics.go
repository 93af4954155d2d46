package workerpool

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/matdet/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

// NewWithMetrics creates a new worker pool with metrics enabled.
func NewWithMetrics(workerCount int, name string) Pool {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	config := metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	}

	return NewWithConfigAndMetrics(Config{WorkerCount: workerCount}, name, config)
}

// NewWithConfigAndMetrics creates a new worker pool with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) Pool {
	basePool := NewWithConfig(config)

	if !metricsConfig.Enabled {
		return basePool
	}

	return Instrument(basePool, name, metricsConfig.Resolve())
}

// Instrument decorates an existing pool with metrics recorded into registry.
func Instrument(pool Pool, name string, registry *metrics.Registry) *MetricsPool {
	mp := &MetricsPool{
		pool: pool,
		name: name,
	}
	mp.registry.Store(registry)
	mp.enabled.Store(true)

	mp.registry.Load().WorkerPoolSize.WithLabelValues(name).Set(float64(pool.Size()))
	mp.updateMetrics()

	return mp
}

// updateMetrics updates the current state gauges.
func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled.Load() {
		return
	}

	reg := mp.registry.Load()
	reg.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	reg.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit wraps the task to record queue wait and execution time, then
// submits it to the underlying pool.
func (mp *MetricsPool) Submit(task Task) error {
	if task == nil {
		return mp.pool.Submit(nil)
	}

	submitTime := time.Now()
	wrapped := func() {
		mp.observe(task, submitTime)
	}

	err := mp.pool.Submit(wrapped)

	if mp.enabled.Load() {
		reg := mp.registry.Load()
		switch {
		case err == nil:
			reg.TasksSubmitted.WithLabelValues(mp.name).Inc()
		case errors.Is(err, ErrPoolClosed):
			reg.TasksRejected.WithLabelValues(mp.name).Inc()
		}
		mp.updateMetrics()
	}

	return err
}

// observe runs the original task and records metrics, even if it panics.
// The panic is re-raised so the pool's own fault handling still applies.
func (mp *MetricsPool) observe(task Task, submitTime time.Time) {
	start := time.Now()
	enabled := mp.enabled.Load()
	reg := mp.registry.Load()

	if enabled {
		reg.TaskQueueWait.WithLabelValues(mp.name).Observe(start.Sub(submitTime).Seconds())
		reg.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	}

	panicked := true
	defer func() {
		if !enabled {
			return
		}
		reg.TaskExecutionTime.WithLabelValues(mp.name).Observe(time.Since(start).Seconds())
		reg.TasksExecuted.WithLabelValues(mp.name).Inc()
		if panicked {
			reg.TasksFaulted.WithLabelValues(mp.name).Inc()
		}
		mp.updateMetrics()
	}()

	task()
	panicked = false
}

// Close shuts the underlying pool down and publishes the final gauges.
func (mp *MetricsPool) Close() {
	before := mp.pool.TotalDropped()
	mp.pool.Close()

	if mp.enabled.Load() {
		if dropped := mp.pool.TotalDropped() - before; dropped > 0 {
			mp.registry.Load().TasksDropped.WithLabelValues(mp.name).Add(float64(dropped))
		}
		mp.updateMetrics()
	}
}

// IsClosed reports whether Close has begun.
func (mp *MetricsPool) IsClosed() bool {
	return mp.pool.IsClosed()
}

// Size returns the number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	queueSize := mp.pool.QueueSize()

	if mp.enabled.Load() {
		mp.registry.Load().WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(queueSize))
	}

	return queueSize
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	activeWorkers := mp.pool.ActiveWorkers()

	if mp.enabled.Load() {
		mp.registry.Load().WorkerPoolActive.WithLabelValues(mp.name).Set(float64(activeWorkers))
	}

	return activeWorkers
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// TotalFaulted returns the total number of tasks that panicked.
func (mp *MetricsPool) TotalFaulted() int64 {
	return mp.pool.TotalFaulted()
}

// TotalDropped returns the number of tasks discarded without running.
func (mp *MetricsPool) TotalDropped() int64 {
	return mp.pool.TotalDropped()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		mp.registry.Store(metrics.NewRegistry(config.Registry))
	}
	mp.enabled.Store(config.Enabled)

	if config.Enabled {
		mp.registry.Load().WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
		mp.updateMetrics()
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled.Load()
}

var _ metrics.Instrumentable = (*MetricsPool)(nil)
