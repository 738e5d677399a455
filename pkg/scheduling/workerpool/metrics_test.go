package workerpool

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/threadpool/internal/testutil"
	"github.com/vnykmshr/threadpool/pkg/metrics"
)

func newTestMetricsPool(t *testing.T, config Config) (*MetricsPool, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	config.Logger = testutil.NewRecordingLogger()
	config.Namer = testutil.NewFakeNamer()
	pool := NewWithConfigAndMetrics(config, metrics.Config{
		Enabled:  true,
		Registry: reg,
	})
	return pool, reg
}

func TestMetricsPoolCounters(t *testing.T) {
	pool, _ := newTestMetricsPool(t, Config{Name: "mp", WorkerCount: 2, QueueSize: 10})
	pool.Start()

	for i := 0; i < 5; i++ {
		testutil.AssertNoError(t, pool.Submit(Func("ok", func() {})))
	}
	testutil.AssertNoError(t, pool.Submit(NewTask("bad", func() error { return errors.New("nope") })))
	pool.Stop()

	r := pool.Registry()
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksSubmitted.WithLabelValues("mp")), 6.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksExecuted.WithLabelValues("mp")), 6.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksCompleted.WithLabelValues("mp")), 5.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksFailed.WithLabelValues("mp")), 1.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.WorkerPoolSize.WithLabelValues("mp")), 2.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.WorkerPoolLive.WithLabelValues("mp")), 0.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.WorkerPoolQueued.WithLabelValues("mp")), 0.0)
}

func TestMetricsPoolShed(t *testing.T) {
	var shedName string
	pool, _ := newTestMetricsPool(t, Config{
		Name:        "mp",
		WorkerCount: 1,
		OnTaskShed:  func(task Task) { shedName = task.Name() },
	})

	// Not started: runs on the caller.
	var ran bool
	testutil.AssertNoError(t, pool.Submit(Func("direct", func() { ran = true })))

	r := pool.Registry()
	testutil.AssertEqual(t, ran, true)
	testutil.AssertEqual(t, shedName, "direct")
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksShed.WithLabelValues("mp")), 1.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksSubmitted.WithLabelValues("mp")), 0.0)

	// Shed runs stay out of the worker counters, like TotalCompleted.
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksExecuted.WithLabelValues("mp")), 0.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksCompleted.WithLabelValues("mp")), 0.0)
	testutil.AssertEqual(t, pool.TotalCompleted(), int64(0))
}

func TestMetricsPoolPanics(t *testing.T) {
	panicked := make(chan struct{})
	pool, _ := newTestMetricsPool(t, Config{
		Name:         "mp",
		WorkerCount:  2,
		PanicHandler: func(string, *PanicError) { close(panicked) },
	})
	pool.Start()

	testutil.AssertNoError(t, pool.Submit(Func("explode", func() { panic("boom") })))
	testutil.WaitClosed(t, panicked, time.Second)

	r := pool.Registry()
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.WorkerPanics.WithLabelValues("mp")), 1.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksExecuted.WithLabelValues("mp")), 1.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksFailed.WithLabelValues("mp")), 1.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksCompleted.WithLabelValues("mp")), 0.0)
	testutil.AssertEqual(t, promtestutil.CollectAndCount(r.TaskExecutionDuration), 1)
	testutil.AssertEventually(t, func() bool {
		return promtestutil.ToFloat64(r.WorkerPoolLive.WithLabelValues("mp")) == 1
	})

	pool.Stop()
}

func TestMetricsPoolHooksSeeOriginalTask(t *testing.T) {
	results := make(chan Result, 1)
	pool, _ := newTestMetricsPool(t, Config{
		Name:           "mp",
		WorkerCount:    1,
		OnTaskComplete: func(_ string, r Result) { results <- r },
	})
	pool.Start()
	defer pool.Stop()

	task := Func("plain", func() {})
	testutil.AssertNoError(t, pool.Submit(task))

	select {
	case r := <-results:
		testutil.AssertEqual(t, r.Task, Task(task))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for result")
	}
}

func TestMetricsPoolDisable(t *testing.T) {
	pool, _ := newTestMetricsPool(t, Config{Name: "mp", WorkerCount: 1})
	pool.Start()
	defer pool.Stop()

	testutil.AssertEqual(t, pool.MetricsEnabled(), true)
	pool.DisableMetrics()
	testutil.AssertEqual(t, pool.MetricsEnabled(), false)

	task := NewWaitableTask("quiet", func() error { return nil })
	testutil.AssertNoError(t, pool.Submit(task))
	testutil.WaitClosed(t, task.Done(), time.Second)

	r := pool.Registry()
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksSubmitted.WithLabelValues("mp")), 0.0)

	reg := prometheus.NewRegistry()
	testutil.AssertNoError(t, pool.EnableMetrics(metrics.Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "custom",
	}))
	testutil.AssertEqual(t, pool.MetricsEnabled(), true)
	testutil.AssertEqual(t, pool.Registry() != r, true)

	count, err := promtestutil.GatherAndCount(reg, "custom_workerpool_size")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, count, 1)
}

func TestNewWithMetrics(t *testing.T) {
	pool := NewWithMetrics("named", 3)
	testutil.AssertEqual(t, pool.Name(), "named")
	testutil.AssertEqual(t, pool.Size(), 3)
	testutil.AssertEqual(t, pool.MetricsEnabled(), true)
	testutil.AssertEqual(t, promtestutil.ToFloat64(pool.Registry().WorkerPoolSize.WithLabelValues("named")), 3.0)
}
