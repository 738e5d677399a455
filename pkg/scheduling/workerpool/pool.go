package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vnykmshr/threadpool/pkg/common/logging"
	"github.com/vnykmshr/threadpool/pkg/common/validation"
	"github.com/vnykmshr/threadpool/pkg/thread"
)

// DefaultName is the pool name used when Config.Name is empty.
const DefaultName = "threadpool"

// Result describes one finished task execution on a worker.
type Result struct {
	// Task is the task that was executed
	Task Task

	// Error is the task's returned error, or a *PanicError
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// Worker is the name of the worker thread that ran the task
	Worker string
}

// PanicError carries a panic recovered from a task.
type PanicError struct {
	Task  string
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %q panicked: %v", e.Task, e.Value)
}

// Pool is the caller-facing surface shared by WorkerPool and MetricsPool.
type Pool interface {
	// Start launches the workers. Starting a running pool only logs.
	Start()

	// Submit queues a task, blocking while the queue is full. When the
	// pool is not running the task runs on the caller and its error is
	// returned.
	Submit(task Task) error

	// SubmitContext is Submit with a context bounding the wait for queue space.
	SubmitContext(ctx context.Context, task Task) error

	// Stop drains queued tasks, then joins every worker.
	Stop()

	// Name returns the pool name.
	Name() string

	// Size returns the configured number of workers.
	Size() int

	// QueueSize returns the number of tasks waiting for a worker.
	QueueSize() int

	// LiveWorkers returns the number of workers still running their loop.
	LiveWorkers() int

	// TotalSubmitted returns the number of tasks accepted into the queue.
	TotalSubmitted() int64

	// TotalCompleted returns the number of tasks workers finished running.
	TotalCompleted() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// Name prefixes every worker thread name: "<Name>-poolthread-<i>".
	Name string

	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the maximum number of buffered tasks.
	// Zero means the same as WorkerCount.
	QueueSize int

	// Logger receives lifecycle and task diagnostics.
	// Defaults to logging.Default().
	Logger logging.Logger

	// Namer applies worker thread names. Defaults to thread.OSNamer().
	Namer thread.Namer

	// TaskRate limits how many tasks per second all workers together
	// start. Zero disables throttling.
	TaskRate float64

	// TaskBurst is the limiter burst when TaskRate is set. Defaults to 1.
	TaskBurst int

	// PanicHandler is called after a task panicked and its worker left
	// the pool. If nil, the panic is re-raised on the worker thread,
	// which terminates the process. Tasks that Stop runs itself because
	// every worker died report the pool name as worker.
	PanicHandler func(worker string, err *PanicError)

	// OnWorkerStart is called on the worker thread before its loop starts.
	OnWorkerStart func(worker string)

	// OnWorkerStop is called on the worker thread after its loop ends.
	OnWorkerStop func(worker string)

	// OnTaskStart is called before a worker runs a task.
	OnTaskStart func(worker string, task Task)

	// OnTaskComplete is called after a worker ran a task (success or failure).
	OnTaskComplete func(worker string, result Result)

	// OnTaskShed is called when a task is run on the submitting goroutine
	// because the pool is not running.
	OnTaskShed func(task Task)
}

// State is the lifecycle stage of a WorkerPool.
type State int

const (
	Created State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// WorkerPool runs tasks from a bounded FIFO on a fixed set of named threads.
type WorkerPool struct {
	config  Config
	logger  logging.Logger
	limiter *rate.Limiter

	// mu guards queue, state, workers and live. notEmpty and notFull
	// are always broadcast: Stop must wake every blocked worker at once.
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	queue    *taskRing
	state    State
	workers  []*thread.Thread
	live     int

	// cancel ends the throttle waits of the current worker set.
	cancel context.CancelFunc

	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64
	totalShed      atomic.Int64
}

// New creates a pool whose queue holds as many tasks as it has workers.
func New(name string, workerCount int) *WorkerPool {
	return NewWithConfig(Config{
		Name:        name,
		WorkerCount: workerCount,
	})
}

// NewWithQueue creates a pool with an explicit queue limit.
func NewWithQueue(name string, workerCount, queueSize int) *WorkerPool {
	return NewWithConfig(Config{
		Name:        name,
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
}

// NewWithConfig creates a pool from config. It panics on invalid
// configuration; use NewSafe to get an error instead.
func NewWithConfig(config Config) *WorkerPool {
	p, err := NewSafe(config)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// NewSafe creates a pool from config, returning a ValidationError for
// invalid values. The pool is created stopped; call Start to launch it.
func NewSafe(config Config) (*WorkerPool, error) {
	if err := validation.ValidatePositive("workerpool", "WorkerCount", config.WorkerCount); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("workerpool", "QueueSize", float64(config.QueueSize)); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("workerpool", "TaskRate", config.TaskRate); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("workerpool", "TaskBurst", float64(config.TaskBurst)); err != nil {
		return nil, err
	}

	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.QueueSize == 0 {
		config.QueueSize = config.WorkerCount
	}
	if config.Logger == nil {
		config.Logger = logging.Default()
	}
	if config.Namer == nil {
		config.Namer = thread.OSNamer()
	}

	p := &WorkerPool{
		config: config,
		logger: config.Logger,
		queue:  newTaskRing(config.QueueSize),
		state:  Created,
	}
	p.notEmpty = sync.NewCond(&p.mu)
	p.notFull = sync.NewCond(&p.mu)

	if config.TaskRate > 0 {
		burst := config.TaskBurst
		if burst == 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(config.TaskRate), burst)
	}

	return p, nil
}
