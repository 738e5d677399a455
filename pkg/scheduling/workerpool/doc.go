/*
Package workerpool provides a fixed-size pool of named worker threads fed by a
bounded FIFO task queue.

Each worker is a thread.Thread: a goroutine locked to its own OS thread and
named "<pool>-poolthread-<i>" so it can be told apart in ps, top or a debugger.
Producers call Submit, which blocks while the queue is full. Workers take tasks
in submission order and run them one at a time.

Basic usage:

	pool := workerpool.New("ingest", 4) // 4 workers, queue of 4
	pool.Start()
	defer pool.Stop()

	err := pool.Submit(workerpool.NewTask("parse", func() error {
		// Do work
		return nil
	}))
	if err != nil {
		log.Printf("Failed to submit: %v", err)
	}

Task Interface:

	type Task interface {
		Name() string
		Run() error
	}

NewTask and Func build tasks from closures. TaskFunc adapts a bare function
with an empty name. NewWaitableTask returns a task the submitter can Wait on.

Lifecycle:

A pool is created stopped. Start launches exactly WorkerCount workers; a second
Start only logs a warning. Stop marks the pool as stopping, wakes every idle
worker and joins them all. Tasks queued before Stop are still run: a worker
only leaves its loop once the pool is not running and the queue is empty.
Calling Start again after Stop builds a fresh set of workers.

Submitting while not running:

When the pool has not been started, or is stopping or stopped, Submit does not
queue. The task runs on the calling goroutine before Submit returns and its
error is returned to the caller. This is not treated as a failure; it is how
late work is shed back to the producer.

Failures:

A task that returns an error is logged with the pool and task names and the
worker carries on. A task that panics is logged and its worker leaves the pool
for good, so LiveWorkers drops below Size. With Config.PanicHandler set the
handler receives a *PanicError and the process continues; without one the
panic is re-raised on the worker thread.

Configuration Options:

	config := workerpool.Config{
		Name:        "ingest",
		WorkerCount: 8,
		QueueSize:   64,
		TaskRate:    100, // at most 100 task starts per second
		PanicHandler: func(worker string, err *workerpool.PanicError) {
			log.Printf("%s lost: %v", worker, err)
		},
		OnTaskComplete: func(worker string, result workerpool.Result) {
			log.Printf("%s ran %s in %v", worker, result.Task.Name(), result.Duration)
		},
	}
	pool, err := workerpool.NewSafe(config)

NewWithConfig panics on invalid configuration instead of returning an error.

Metrics:

NewWithMetrics and NewWithConfigAndMetrics wrap the pool and report queue,
execution and worker figures to a Prometheus registry from package metrics.
*/
package workerpool
