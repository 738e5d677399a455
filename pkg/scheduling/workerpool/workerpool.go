package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
	"github.com/vnykmshr/threadpool/pkg/common/logging"
	"github.com/vnykmshr/threadpool/pkg/thread"
)

// Start launches exactly WorkerCount named worker threads. A pool that was
// stopped gets a fresh set of workers; the joined ones are discarded.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Running:
		p.logger.Warn("thread pool is started multiple times", logging.F("pool", p.config.Name))
		return
	case Stopping:
		p.logger.Warn("thread pool cannot start while stopping", logging.F("pool", p.config.Name))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.state = Running
	p.live = p.config.WorkerCount
	p.workers = make([]*thread.Thread, 0, p.config.WorkerCount)
	for i := 0; i < p.config.WorkerCount; i++ {
		name := fmt.Sprintf("%s-poolthread-%d", p.config.Name, i)
		w := thread.New(func() { p.runWorker(ctx, name) }, name,
			thread.WithNamer(p.config.Namer),
			thread.WithLogger(p.logger),
		)
		p.workers = append(p.workers, w)
		w.Start()
	}
}

// Submit adds a task to the pool, blocking until the queue has room.
//
// While the pool is running the task is queued and Submit returns nil.
// Otherwise (never started, stopping or stopped) the task runs on the
// calling goroutine before Submit returns, and its error is returned.
func (p *WorkerPool) Submit(task Task) error {
	return p.submit(nil, task)
}

// SubmitContext is Submit with a context that bounds the wait for queue
// space. It returns the context error if ctx ends before the task is
// accepted. The context is not passed to the task.
func (p *WorkerPool) SubmitContext(ctx context.Context, task Task) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return p.submit(ctx, task)
}

func (p *WorkerPool) submit(ctx context.Context, task Task) error {
	if task == nil {
		return tperrors.ErrNilTask
	}

	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cannot submit task: %w", err)
		}
		// Wake blocked producers so they notice the canceled context.
		stop := context.AfterFunc(ctx, func() {
			p.mu.Lock()
			p.notFull.Broadcast()
			p.mu.Unlock()
		})
		defer stop()
	}

	queued, err := p.enqueue(ctx, task)
	if err != nil {
		return err
	}
	if queued {
		return nil
	}
	return p.runOnCaller(task)
}

// enqueue waits for queue space and queues task if the pool is running.
// It reports false when the task must run on the caller instead.
func (p *WorkerPool) enqueue(ctx context.Context, task Task) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.queue.full() && p.state == Running {
		if ctx != nil && ctx.Err() != nil {
			return false, fmt.Errorf("cannot submit task: %w", ctx.Err())
		}
		p.notFull.Wait()
	}

	if p.state != Running {
		return false, nil
	}

	p.queue.push(task)
	p.totalSubmitted.Add(1)
	p.notEmpty.Broadcast()
	return true, nil
}

func (p *WorkerPool) runOnCaller(task Task) error {
	p.logger.Warn("running task locally since the thread pool is not running",
		logging.F("pool", p.config.Name), logging.F("task", task.Name()))
	p.totalShed.Add(1)
	if p.config.OnTaskShed != nil {
		p.config.OnTaskShed(task)
	}
	return task.Run()
}

// take removes the head task, blocking while the queue is empty and the
// pool is running. Queued tasks are handed out even after Stop so the
// backlog drains; once it is empty a stopping pool yields the sentinel.
func (p *WorkerPool) take() Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.queue.len() == 0 && p.state == Running {
		p.notEmpty.Wait()
	}

	if p.queue.len() > 0 {
		task := p.queue.pop()
		p.notFull.Broadcast()
		return task
	}
	return sentinel
}

// drained reports whether a worker may leave its loop.
func (p *WorkerPool) drained() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != Running && p.queue.len() == 0
}

// Stop stops accepting work, lets the workers drain the queue and joins
// them. Tasks submitted from now on run on the caller. Stopping a pool
// that is not running is a no-op.
//
// The pool always ends up Stopped, even when a leftover task panics and
// no PanicHandler is set; the panic is re-raised after that.
func (p *WorkerPool) Stop() {
	workers := p.beginStop()
	if workers == nil {
		return
	}

	defer func() {
		p.mu.Lock()
		p.state = Stopped
		p.mu.Unlock()

		p.logger.Debug("thread pool stopped", logging.F("pool", p.config.Name))
	}()

	for _, w := range workers {
		w.Join()
	}

	// Only non-empty if every worker died on a panic.
	if perr := p.drainLeftovers(); perr != nil {
		panic(perr.Value)
	}
}

func (p *WorkerPool) beginStop() []*thread.Thread {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Running {
		return nil
	}

	p.state = Stopping
	p.cancel()
	p.notEmpty.Broadcast()
	p.notFull.Broadcast()
	return p.workers
}

// drainLeftovers runs every queued task on the caller. It returns the
// first unhandled panic once the queue is empty.
func (p *WorkerPool) drainLeftovers() *PanicError {
	var unhandled *PanicError
	for {
		task, ok := p.popLeftover()
		if !ok {
			return unhandled
		}
		p.logger.Warn("running task left behind by exited workers",
			logging.F("pool", p.config.Name), logging.F("task", task.Name()))
		if perr := p.runLeftover(task); perr != nil && unhandled == nil {
			unhandled = perr
		}
	}
}

// runLeftover runs one task outside any worker. A panic is logged and
// handed to the PanicHandler, or returned when there is none.
func (p *WorkerPool) runLeftover(task Task) (unhandled *PanicError) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		perr := &PanicError{Task: task.Name(), Value: r, Stack: debug.Stack()}
		p.logger.Error("unknown exception happens when executing task",
			logging.F("pool", p.config.Name), logging.F("task", task.Name()), logging.F("panic", r))
		if p.config.PanicHandler == nil {
			unhandled = perr
			return
		}
		p.config.PanicHandler(p.config.Name, perr)
	}()

	if err := task.Run(); err != nil {
		p.logger.Error("exception happens when executing task",
			logging.F("pool", p.config.Name), logging.F("task", task.Name()), logging.F("error", err))
	}
	return nil
}

func (p *WorkerPool) popLeftover() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.queue.len() == 0 {
		return nil, false
	}
	task := p.queue.pop()
	p.notFull.Broadcast()
	return task, true
}

// runWorker is the loop every worker thread runs.
func (p *WorkerPool) runWorker(ctx context.Context, name string) {
	p.logger.Debug("worker started", logging.F("pool", p.config.Name), logging.F("worker", name))
	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(name)
	}

	defer func() {
		p.mu.Lock()
		p.live--
		p.mu.Unlock()

		if p.config.OnWorkerStop != nil {
			p.config.OnWorkerStop(name)
		}
		p.logger.Debug("worker exited", logging.F("pool", p.config.Name), logging.F("worker", name))
	}()

	for {
		task := p.take()
		if task != sentinel {
			p.throttle(ctx, name)
			if !p.execute(name, task) {
				return
			}
		}
		if p.drained() {
			return
		}
	}
}

// throttle waits for the rate limiter. Once the pool stops the wait is
// cut short so the backlog drains at full speed.
func (p *WorkerPool) throttle(ctx context.Context, worker string) {
	if p.limiter == nil {
		return
	}
	if err := p.limiter.Wait(ctx); err != nil {
		p.logger.Debug("task throttling skipped",
			logging.F("pool", p.config.Name), logging.F("worker", worker), logging.F("reason", err))
	}
}

// execute runs one task inside the worker's failure boundary. It reports
// false when the task panicked and the worker must leave the pool.
func (p *WorkerPool) execute(worker string, task Task) (ok bool) {
	start := time.Now()
	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(worker, task)
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		perr := &PanicError{Task: task.Name(), Value: r, Stack: debug.Stack()}
		p.logger.Error("unknown exception happens when executing task",
			logging.F("pool", p.config.Name), logging.F("worker", worker),
			logging.F("task", task.Name()), logging.F("panic", r))
		p.finish(worker, task, perr, start)

		if p.config.PanicHandler == nil {
			panic(r)
		}
		p.config.PanicHandler(worker, perr)
		ok = false
	}()

	err := task.Run()
	if err != nil {
		p.logger.Error("exception happens when executing task",
			logging.F("pool", p.config.Name), logging.F("task", task.Name()), logging.F("error", err))
	} else {
		p.logger.Debug("thread finished task without problem",
			logging.F("pool", p.config.Name), logging.F("worker", worker), logging.F("task", task.Name()))
	}
	p.finish(worker, task, err, start)
	return true
}

func (p *WorkerPool) finish(worker string, task Task, err error, start time.Time) {
	p.totalCompleted.Add(1)
	if p.config.OnTaskComplete != nil {
		p.config.OnTaskComplete(worker, Result{
			Task:     task,
			Error:    err,
			Duration: time.Since(start),
			Worker:   worker,
		})
	}
}

// Name returns the pool name.
func (p *WorkerPool) Name() string {
	return p.config.Name
}

// Size returns the configured number of workers.
func (p *WorkerPool) Size() int {
	return p.config.WorkerCount
}

// QueueLimit returns the maximum number of buffered tasks.
func (p *WorkerPool) QueueLimit() int {
	return p.config.QueueSize
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *WorkerPool) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.len()
}

// LiveWorkers returns how many workers are still in their loop. It drops
// below Size when a task panic takes a worker down.
func (p *WorkerPool) LiveWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// State returns the current lifecycle state.
func (p *WorkerPool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Running reports whether the pool accepts tasks into its queue.
func (p *WorkerPool) Running() bool {
	return p.State() == Running
}

// WorkerNames returns the thread names of the current worker set.
func (p *WorkerPool) WorkerNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, len(p.workers))
	for i, w := range p.workers {
		names[i] = w.Name()
	}
	return names
}

// TotalSubmitted returns the total number of tasks accepted into the queue.
func (p *WorkerPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of tasks workers finished running.
func (p *WorkerPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// TotalShed returns the total number of tasks run on the submitter.
func (p *WorkerPool) TotalShed() int64 {
	return p.totalShed.Load()
}
