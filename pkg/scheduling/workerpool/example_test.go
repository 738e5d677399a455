package workerpool_test

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/vnykmshr/threadpool/pkg/common/logging"
	"github.com/vnykmshr/threadpool/pkg/scheduling/workerpool"
)

// Example demonstrates basic usage of the worker pool
func Example() {
	pool := workerpool.NewWithConfig(workerpool.Config{
		Name:        "example",
		WorkerCount: 3,
		Logger:      logging.Nop(),
	})
	pool.Start()
	defer pool.Stop()

	task := workerpool.NewWaitableTask("hello", func() error {
		fmt.Println("Task executed")
		return nil
	})

	if err := pool.Submit(task); err != nil {
		log.Printf("Failed to submit task: %v", err)
		return
	}

	if err := task.Wait(); err != nil {
		log.Printf("Task failed: %v", err)
	}

	// Output: Task executed
}

// Example_orderedProcessing shows that a single worker runs tasks in
// submission order.
func Example_orderedProcessing() {
	pool := workerpool.NewWithConfig(workerpool.Config{
		Name:        "ordered",
		WorkerCount: 1,
		QueueSize:   3,
		Logger:      logging.Nop(),
	})
	pool.Start()

	for _, step := range []string{"fetch", "transform", "store"} {
		step := step
		_ = pool.Submit(workerpool.Func(step, func() {
			fmt.Println(step)
		}))
	}

	// Stop returns once the queue has drained.
	pool.Stop()

	// Output:
	// fetch
	// transform
	// store
}

// Example_fallbackToCaller shows a task submitted to a pool that is not
// running: it runs on the calling goroutine and its error comes back.
func Example_fallbackToCaller() {
	pool := workerpool.NewWithConfig(workerpool.Config{
		Name:        "idle",
		WorkerCount: 2,
		Logger:      logging.Nop(),
	})

	err := pool.Submit(workerpool.NewTask("direct", func() error {
		fmt.Println("running on caller")
		return errors.New("rejected")
	}))

	fmt.Println("error:", err)
	fmt.Println("shed:", pool.TotalShed())

	// Output:
	// running on caller
	// error: rejected
	// shed: 1
}

// Example_panicHandler shows a panicking task taking its worker out of
// the pool.
func Example_panicHandler() {
	var lost atomic.Int32
	done := make(chan struct{})

	pool := workerpool.NewWithConfig(workerpool.Config{
		Name:        "fragile",
		WorkerCount: 2,
		Logger:      logging.Nop(),
		PanicHandler: func(worker string, err *workerpool.PanicError) {
			lost.Add(1)
			fmt.Println("recovered:", err.Value)
			close(done)
		},
	})
	pool.Start()

	_ = pool.Submit(workerpool.Func("explode", func() { panic("boom") }))
	<-done

	pool.Stop()
	fmt.Println("workers lost:", lost.Load())

	// Output:
	// recovered: boom
	// workers lost: 1
}
