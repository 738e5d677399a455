/*
Package scheduling groups the task execution packages of threadpool.

  - workerpool: fixed set of named worker threads draining a bounded FIFO
  - scheduler: time, interval and cron driven submission into a pool

Worker Pool:

	pool := workerpool.New("ingest", 4) // 4 workers, queue of 4
	pool.Start()
	defer pool.Stop()

	_ = pool.Submit(workerpool.Func("parse", func() {
		// Do work
	}))

Task Scheduler:

	s := scheduler.New(pool)
	_ = s.Start()
	defer func() { <-s.Stop() }()

	_ = s.ScheduleAfter("once", task, time.Minute)
	_ = s.ScheduleRepeating("poll", task, time.Hour)
	_ = s.ScheduleCron("weekday", "0 9 * * MON-FRI", task)

All types are safe for concurrent use.
*/
package scheduling
