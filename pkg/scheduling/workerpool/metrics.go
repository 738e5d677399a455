package workerpool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/threadpool/pkg/metrics"
)

// MetricsPool wraps a WorkerPool with Prometheus metrics collection.
type MetricsPool struct {
	*WorkerPool

	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

// NewWithMetrics creates a worker pool with metrics enabled on a
// dedicated Prometheus registry.
func NewWithMetrics(name string, workerCount int) *MetricsPool {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	return NewWithConfigAndMetrics(Config{
		Name:        name,
		WorkerCount: workerCount,
	}, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a worker pool with custom config and
// metrics. Shed tasks and worker panics are counted through the pool hooks;
// any hooks already in config still run.
func NewWithConfigAndMetrics(config Config, metricsConfig metrics.Config) *MetricsPool {
	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistryFromConfig(metricsConfig)
	}

	mp := &MetricsPool{}
	mp.registry.Store(registry)
	mp.enabled.Store(metricsConfig.Enabled)

	onShed := config.OnTaskShed
	config.OnTaskShed = func(task Task) {
		if mt, ok := task.(*metricsTask); ok {
			mt.shed = true
		}
		if mp.enabled.Load() {
			mp.Registry().TasksShed.WithLabelValues(mp.Name()).Inc()
		}
		if onShed != nil {
			onShed(unwrapTask(task))
		}
	}

	onPanic := config.PanicHandler
	if onPanic != nil {
		config.PanicHandler = func(worker string, err *PanicError) {
			mp.recordPanic()
			onPanic(worker, err)
		}
	}

	if onStart := config.OnTaskStart; onStart != nil {
		config.OnTaskStart = func(worker string, task Task) {
			onStart(worker, unwrapTask(task))
		}
	}

	if onComplete := config.OnTaskComplete; onComplete != nil {
		config.OnTaskComplete = func(worker string, result Result) {
			result.Task = unwrapTask(result.Task)
			onComplete(worker, result)
		}
	}

	onStop := config.OnWorkerStop
	config.OnWorkerStop = func(worker string) {
		mp.updateMetrics()
		if onStop != nil {
			onStop(worker)
		}
	}

	mp.WorkerPool = NewWithConfig(config)
	mp.updateMetrics()
	return mp
}

func (mp *MetricsPool) recordPanic() {
	if mp.enabled.Load() {
		mp.Registry().WorkerPanics.WithLabelValues(mp.Name()).Inc()
	}
}

// updateMetrics updates the current state metrics.
func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled.Load() || mp.WorkerPool == nil {
		return
	}

	name := mp.Name()
	registry := mp.Registry()
	registry.WorkerPoolSize.WithLabelValues(name).Set(float64(mp.Size()))
	registry.WorkerPoolLive.WithLabelValues(name).Set(float64(mp.LiveWorkers()))
	registry.WorkerPoolQueued.WithLabelValues(name).Set(float64(mp.QueueSize()))
}

// Start launches the workers and refreshes the gauges.
func (mp *MetricsPool) Start() {
	mp.WorkerPool.Start()
	mp.updateMetrics()
}

// Stop drains and joins the workers and refreshes the gauges.
func (mp *MetricsPool) Stop() {
	mp.WorkerPool.Stop()
	mp.updateMetrics()
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) error {
	return mp.SubmitContext(context.Background(), task)
}

// SubmitContext wraps the task to time it and submits it.
func (mp *MetricsPool) SubmitContext(ctx context.Context, task Task) error {
	if task == nil {
		return mp.WorkerPool.SubmitContext(ctx, nil)
	}

	wrapped := &metricsTask{
		original:   task,
		pool:       mp,
		submitTime: time.Now(),
	}

	err := mp.WorkerPool.SubmitContext(ctx, wrapped)
	// shed is only written by the OnTaskShed hook on this goroutine.
	if mp.enabled.Load() && err == nil && !wrapped.shed {
		mp.Registry().TasksSubmitted.WithLabelValues(mp.Name()).Inc()
	}
	mp.updateMetrics()

	return err
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original   Task
	pool       *MetricsPool
	submitTime time.Time
	shed       bool
}

func (mt *metricsTask) Name() string {
	return mt.original.Name()
}

// Unwrap returns the submitted task.
func (mt *metricsTask) Unwrap() Task {
	return mt.original
}

// Run runs the original task and records metrics. Shed tasks run on the
// submitter and are counted by TasksShed only, matching TotalCompleted.
func (mt *metricsTask) Run() (err error) {
	if mt.shed {
		return mt.original.Run()
	}

	start := time.Now()
	name := mt.pool.Name()
	registry := mt.pool.Registry()

	if mt.pool.enabled.Load() {
		registry.TaskQueueWait.WithLabelValues(name).Observe(start.Sub(mt.submitTime).Seconds())
	}

	finished := false
	defer func() {
		if !mt.pool.enabled.Load() {
			return
		}
		registry.TaskExecutionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		registry.TasksExecuted.WithLabelValues(name).Inc()

		if !finished || err != nil {
			registry.TasksFailed.WithLabelValues(name).Inc()
		} else {
			registry.TasksCompleted.WithLabelValues(name).Inc()
		}
		mt.pool.updateMetrics()
	}()

	err = mt.original.Run()
	finished = true
	return err
}

func unwrapTask(task Task) Task {
	if mt, ok := task.(*metricsTask); ok {
		return mt.original
	}
	return task
}

// Registry returns the metrics registry the pool reports to.
func (mp *MetricsPool) Registry() *metrics.Registry {
	return mp.registry.Load()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		mp.registry.Store(metrics.NewRegistryFromConfig(config))
	}
	mp.enabled.Store(config.Enabled)
	mp.updateMetrics()
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

var (
	_ Pool                   = (*WorkerPool)(nil)
	_ Pool                   = (*MetricsPool)(nil)
	_ metrics.Instrumentable = (*MetricsPool)(nil)
)
