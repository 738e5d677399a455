package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/threadpool/internal/testutil"
	"github.com/vnykmshr/threadpool/pkg/config"
	"github.com/vnykmshr/threadpool/pkg/metrics"
	"github.com/vnykmshr/threadpool/pkg/scheduling/scheduler"
	"github.com/vnykmshr/threadpool/pkg/scheduling/workerpool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestConfiguredPoolWithScheduler builds a metrics pool and scheduler from a
// config file and checks that scheduled and directly submitted work drains.
func TestConfiguredPoolWithScheduler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threadpool.yaml")
	err := os.WriteFile(path, []byte(`
pool:
  name: it
  workers: 3
  queue_size: 4
metrics:
  enabled: true
  namespace: it
schedules:
  - id: tick
    every: 20ms
`), 0o644)
	testutil.AssertNoError(t, err)

	file, err := config.Load(path)
	testutil.AssertNoError(t, err)

	reg := prometheus.NewRegistry()
	poolCfg := file.PoolConfig()
	poolCfg.Logger = testutil.NewRecordingLogger()
	pool := workerpool.NewWithConfigAndMetrics(poolCfg, file.MetricsConfig(reg))
	pool.Start()

	s := scheduler.NewWithConfig(scheduler.Config{
		Name:         "it",
		Pool:         pool,
		TickInterval: 5 * time.Millisecond,
		Logger:       poolCfg.Logger,
		Metrics:      pool.Registry(),
	})

	var ticks atomic.Int32
	testutil.AssertNoError(t, file.Register(s, map[string]workerpool.Task{
		"tick": workerpool.Func("tick", func() { ticks.Add(1) }),
	}))
	testutil.AssertNoError(t, s.Start())

	// Direct producers compete with the scheduler for queue slots.
	var direct atomic.Int32
	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for j := 0; j < 25; j++ {
				if err := pool.Submit(workerpool.Func("direct", func() {
					time.Sleep(100 * time.Microsecond)
					direct.Add(1)
				})); err != nil {
					return err
				}
			}
			return nil
		})
	}
	testutil.AssertNoError(t, g.Wait())

	testutil.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)

	<-s.Stop()
	pool.Stop()

	testutil.AssertEqual(t, direct.Load(), int32(100))
	testutil.AssertEqual(t, pool.TotalSubmitted(), pool.TotalCompleted())
	testutil.AssertEqual(t, pool.LiveWorkers(), 0)

	r := pool.Registry()
	dispatched := promtestutil.ToFloat64(r.TasksDispatched.WithLabelValues("it"))
	testutil.AssertEqual(t, dispatched >= 3, true)
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.TasksExecuted.WithLabelValues("it")), float64(pool.TotalCompleted()))

	count, err := promtestutil.GatherAndCount(reg, "it_workerpool_tasks_submitted_total")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, count, 1)
}

// TestRestartUnderLoad stops and restarts a pool while producers keep
// submitting. Every task runs exactly once, either on a worker or on the
// producer that hit the stopped window.
func TestRestartUnderLoad(t *testing.T) {
	pool := workerpool.NewWithConfigAndMetrics(workerpool.Config{
		Name:        "restart",
		WorkerCount: 2,
		QueueSize:   2,
		Logger:      testutil.NewRecordingLogger(),
		Namer:       testutil.NewFakeNamer(),
	}, metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()})
	pool.Start()

	const producers, perProducer = 4, 50
	var mu sync.Mutex
	seen := make(map[int]int)

	g, _ := errgroup.WithContext(context.Background())
	for p := 0; p < producers; p++ {
		p := p
		g.Go(func() error {
			for j := 0; j < perProducer; j++ {
				id := p*perProducer + j
				_ = pool.Submit(workerpool.Func("record", func() {
					mu.Lock()
					seen[id]++
					mu.Unlock()
				}))
			}
			return nil
		})
	}

	for i := 0; i < 3; i++ {
		time.Sleep(2 * time.Millisecond)
		pool.Stop()
		pool.Start()
	}
	testutil.AssertNoError(t, g.Wait())
	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertEqual(t, len(seen), producers*perProducer)
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("task %d ran %d times", id, n)
		}
	}

	r := pool.Registry()
	shed := promtestutil.ToFloat64(r.TasksShed.WithLabelValues("restart"))
	testutil.AssertEqual(t, int64(shed), pool.TotalShed())
	testutil.AssertEqual(t, pool.TotalSubmitted()+pool.TotalShed(), int64(producers*perProducer))
}
