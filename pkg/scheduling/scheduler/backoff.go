package scheduler

import (
	"time"

	"github.com/vnykmshr/threadpool/pkg/scheduling/workerpool"
)

// BackoffTask wraps a task with retry logic. Retries sleep on the worker
// thread that runs the task, so the worker is busy for the whole sequence.
type BackoffTask struct {
	Task         workerpool.Task
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Name returns the wrapped task's name.
func (bt BackoffTask) Name() string {
	return bt.Task.Name()
}

// Run implements workerpool.Task with exponential backoff.
func (bt BackoffTask) Run() error {
	var lastErr error
	delay := bt.InitialDelay

	for attempt := 0; attempt <= bt.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)

			// Double delay for next attempt
			delay *= 2
			if bt.MaxDelay > 0 && delay > bt.MaxDelay {
				delay = bt.MaxDelay
			}
		}

		lastErr = bt.Task.Run()
		if lastErr == nil {
			return nil
		}
	}

	return lastErr
}
