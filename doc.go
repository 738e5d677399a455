/*
Package threadpool provides a fixed-size pool of named OS worker threads for
Go applications.

Threads (pkg/thread):
  - Thread: a goroutine locked to its own OS thread, named at start
  - Namer: reads and applies OS thread names by native thread id

Task Scheduling (pkg/scheduling):
  - workerpool: bounded FIFO drained by "<pool>-poolthread-<i>" workers
  - scheduler: one-time, interval and cron submission into a pool

Support:
  - metrics: Prometheus registry for pools and schedulers
  - config: YAML/JSON pool, metrics and schedule files
  - common/logging: leveled diagnostics sink used by every component

Example usage:

	import (
		"github.com/vnykmshr/threadpool/pkg/scheduling/workerpool"
	)

	pool := workerpool.New("ingest", 4) // 4 workers, queue of 4
	pool.Start()
	defer pool.Stop() // drains the queue, then joins the workers

	_ = pool.Submit(workerpool.Func("parse", func() {
		// Do work
	}))
*/
package threadpool
