/*
Package scheduler submits tasks into a worker pool at a time, on an interval,
or on a cron expression.

The scheduler owns no threads for running tasks. A single dispatch loop wakes
every TickInterval, collects the entries that are due and hands them to
Pool.Submit. A full pool queue therefore blocks the loop, which is the intended
backpressure: late entries are dispatched once workers catch up.

Basic Usage:

	pool := workerpool.New("jobs", 4)
	pool.Start()
	defer pool.Stop()

	s := scheduler.New(pool)
	_ = s.Start()
	defer func() { <-s.Stop() }()

	task := workerpool.Func("report", func() {
		fmt.Println("Task executed!")
	})

	// One-time, after a delay
	_ = s.ScheduleAfter("once", task, time.Second)

	// Now and then every 30 seconds
	_ = s.ScheduleRepeating("poll", task, 30*time.Second)

	// Weekdays at 9 AM
	_ = s.ScheduleCron("morning", "0 9 * * MON-FRI", task)

Cron expressions use five fields, an optional leading seconds field, or a
descriptor such as "@hourly" or "@every 1m30s".

If Config.Pool is nil the scheduler creates a pool of its own and starts and
stops it together with the dispatch loop. When the target pool is not running,
Submit runs due tasks on the dispatch goroutine itself.

Task Management:

	entries := s.List()        // ordered by next run
	next, ok := s.NextRun("poll")
	s.Cancel("once")
	s.CancelAll()
*/
package scheduler
