package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
	"github.com/vnykmshr/threadpool/pkg/common/logging"
	"github.com/vnykmshr/threadpool/pkg/common/validation"
	"github.com/vnykmshr/threadpool/pkg/metrics"
	"github.com/vnykmshr/threadpool/pkg/scheduling/workerpool"
)

const (
	// DefaultName labels scheduler logs and metrics when Config.Name is empty.
	DefaultName = "scheduler"

	// DefaultTickInterval is how often due entries are collected.
	DefaultTickInterval = 50 * time.Millisecond

	// DefaultMaxTasks bounds the number of scheduled entries.
	DefaultMaxTasks = 10000

	maxIDLen = 255
)

var (
	// ErrTaskExists is returned when an ID is already scheduled.
	ErrTaskExists = errors.New("task ID already scheduled")

	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler already running")
)

// Entry describes one scheduled task.
type Entry struct {
	ID       string
	Name     string
	RunAt    time.Time
	Interval time.Duration // Zero for one-time and cron entries
	CronExpr string
	Created  time.Time
	Runs     int
}

// Scheduler hands tasks to a worker pool when they become due.
type Scheduler interface {
	// Basic scheduling
	Schedule(id string, task workerpool.Task, runAt time.Time) error
	ScheduleAfter(id string, task workerpool.Task, delay time.Duration) error
	ScheduleRepeating(id string, task workerpool.Task, interval time.Duration) error

	// Cron scheduling
	ScheduleCron(id string, cronExpr string, task workerpool.Task) error
	UpdateCron(id string, cronExpr string) error
	NextRun(id string) (time.Time, bool)

	// Task management
	Cancel(id string) bool
	CancelAll()
	List() []Entry

	// Lifecycle
	Start() error
	Stop() <-chan struct{}
}

// Config holds scheduler configuration.
type Config struct {
	// Name labels logs and metrics.
	Name string

	// Pool receives due tasks. If nil the scheduler creates, starts and
	// stops a pool of its own.
	Pool workerpool.Pool

	// Location is used to evaluate cron expressions. Defaults to time.Local.
	Location *time.Location

	// TickInterval is how often to check for due entries (default: 50ms).
	TickInterval time.Duration

	// MaxTasks is the maximum number of scheduled entries (default: 10000).
	MaxTasks int

	// Logger defaults to logging.Default().
	Logger logging.Logger

	// Metrics, when set, counts scheduled and dispatched tasks.
	Metrics *metrics.Registry
}

type scheduledTask struct {
	id           string
	task         workerpool.Task
	runAt        time.Time
	interval     time.Duration
	cronExpr     string
	cronSchedule cron.Schedule
	created      time.Time
	runs         int
}

func (t *scheduledTask) entry() Entry {
	return Entry{
		ID:       t.id,
		Name:     t.task.Name(),
		RunAt:    t.runAt,
		Interval: t.interval,
		CronExpr: t.cronExpr,
		Created:  t.created,
		Runs:     t.runs,
	}
}

type scheduler struct {
	name         string
	pool         workerpool.Pool
	ownPool      bool
	location     *time.Location
	tickInterval time.Duration
	maxTasks     int
	logger       logging.Logger
	metrics      *metrics.Registry

	mu      sync.Mutex
	tasks   map[string]*scheduledTask
	done    chan struct{}
	stopped chan struct{}
	running bool

	// halted is closed once the last Stop has fully finished.
	halted <-chan struct{}
}

// New creates a scheduler that submits into pool. A nil pool makes the
// scheduler own a four-worker pool.
func New(pool workerpool.Pool) Scheduler {
	return NewWithConfig(Config{Pool: pool})
}

// NewWithConfig creates a scheduler with custom configuration. It panics
// on invalid configuration; use NewSafe to get an error instead.
func NewWithConfig(cfg Config) Scheduler {
	s, err := NewSafe(cfg)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSafe creates a scheduler, returning a ValidationError for negative
// tick intervals or task limits.
func NewSafe(cfg Config) (Scheduler, error) {
	if err := validation.ValidateNonNegative("scheduler", "TickInterval", float64(cfg.TickInterval)); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("scheduler", "MaxTasks", float64(cfg.MaxTasks)); err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = DefaultName
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	pool := cfg.Pool
	ownPool := false
	if pool == nil {
		pool = workerpool.NewWithConfig(workerpool.Config{
			Name:        name,
			WorkerCount: 4,
			QueueSize:   100,
			Logger:      logger,
		})
		ownPool = true
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	tickInterval := cfg.TickInterval
	if tickInterval == 0 {
		tickInterval = DefaultTickInterval
	}

	maxTasks := cfg.MaxTasks
	if maxTasks == 0 {
		maxTasks = DefaultMaxTasks
	}

	return &scheduler{
		name:         name,
		pool:         pool,
		ownPool:      ownPool,
		location:     location,
		tickInterval: tickInterval,
		maxTasks:     maxTasks,
		logger:       logger,
		metrics:      cfg.Metrics,
		tasks:        make(map[string]*scheduledTask),
	}, nil
}

func validateEntry(id string, task workerpool.Task) error {
	if err := validation.ValidateNotEmpty("scheduler", "id", id); err != nil {
		return err
	}
	if err := validation.ValidateMaxLen("scheduler", "id", id, maxIDLen); err != nil {
		return err
	}
	if task == nil {
		return tperrors.ErrNilTask
	}
	return nil
}

// add stores t unless its ID is taken or the scheduler is full.
func (s *scheduler) add(t *scheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.id]; exists {
		return fmt.Errorf("%w: %q, cancel the existing task first", ErrTaskExists, t.id)
	}
	if len(s.tasks) >= s.maxTasks {
		return fmt.Errorf("cannot schedule task %q: limit of %d tasks: %w", t.id, s.maxTasks, tperrors.ErrCapacityExceeded)
	}

	s.tasks[t.id] = t
	if s.metrics != nil {
		s.metrics.TasksScheduled.WithLabelValues(s.name).Inc()
	}
	return nil
}

func (s *scheduler) Schedule(id string, task workerpool.Task, runAt time.Time) error {
	if err := validateEntry(id, task); err != nil {
		return err
	}
	if runAt.IsZero() {
		return tperrors.NewValidationError("scheduler", "runAt", runAt, "run time cannot be zero")
	}

	return s.add(&scheduledTask{
		id:      id,
		task:    task,
		runAt:   runAt,
		created: time.Now(),
	})
}

func (s *scheduler) ScheduleAfter(id string, task workerpool.Task, delay time.Duration) error {
	return s.Schedule(id, task, time.Now().Add(delay))
}

// ScheduleRepeating runs task now and then every interval.
func (s *scheduler) ScheduleRepeating(id string, task workerpool.Task, interval time.Duration) error {
	if err := validateEntry(id, task); err != nil {
		return err
	}
	if interval <= 0 {
		return tperrors.NewValidationError("scheduler", "interval", interval, "must be positive").
			WithHint("use Schedule for a one-time task")
	}

	now := time.Now()
	return s.add(&scheduledTask{
		id:       id,
		task:     task,
		runAt:    now,
		interval: interval,
		created:  now,
	})
}

func (s *scheduler) ScheduleCron(id string, cronExpr string, task workerpool.Task) error {
	if err := validateEntry(id, task); err != nil {
		return err
	}

	schedule, err := ParseCron(cronExpr)
	if err != nil {
		return err
	}

	now := time.Now()
	return s.add(&scheduledTask{
		id:           id,
		task:         task,
		runAt:        schedule.Next(now.In(s.location)),
		cronExpr:     cronExpr,
		cronSchedule: schedule,
		created:      now,
	})
}

// UpdateCron replaces the expression of a cron entry and recomputes its
// next run.
func (s *scheduler) UpdateCron(id string, cronExpr string) error {
	schedule, err := ParseCron(cronExpr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tasks[id]
	if !exists || t.cronSchedule == nil {
		return fmt.Errorf("cron task with ID %q not found", id)
	}

	t.cronExpr = cronExpr
	t.cronSchedule = schedule
	t.runAt = schedule.Next(time.Now().In(s.location))
	return nil
}

func (s *scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tasks[id]
	if !exists {
		return time.Time{}, false
	}
	return t.runAt, true
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; exists {
		delete(s.tasks, id)
		return true
	}
	return false
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*scheduledTask)
}

// List returns every entry ordered by next run time.
func (s *scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.tasks))
	for _, t := range s.tasks {
		entries = append(entries, t.entry())
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RunAt.Before(entries[j].RunAt)
	})

	return entries
}

// Start launches the dispatch loop, and the owned pool if there is one.
func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.running {
			return ErrAlreadyRunning
		}
		halted := s.halted
		if halted == nil || isClosed(halted) {
			break
		}
		// The previous loop may need mu to exit, and an owned pool cannot
		// start again until it has stopped.
		s.mu.Unlock()
		<-halted
		s.mu.Lock()
	}

	if s.ownPool {
		s.pool.Start()
	}

	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.run(s.done, s.stopped)
	return nil
}

// Stop ends the dispatch loop. The returned channel is closed once the
// loop has exited and an owned pool has drained.
func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	s.running = false
	close(s.done)
	loopStopped := s.stopped
	stopped := make(chan struct{})
	s.halted = stopped
	s.mu.Unlock()

	go func() {
		defer close(stopped)
		<-loopStopped
		if s.ownPool {
			s.pool.Stop()
		}
	}()

	return stopped
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (s *scheduler) run(done <-chan struct{}, stopped chan<- struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer func() {
		ticker.Stop()
		close(stopped)
	}()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.dispatchSafely()
		}
	}
}

// dispatchSafely keeps the loop alive when a task panics while shed onto
// the scheduler goroutine.
func (s *scheduler) dispatchSafely() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked on the scheduler goroutine",
				logging.F("scheduler", s.name), logging.F("panic", r))
		}
	}()
	s.processReadyTasks(time.Now())
}

// processReadyTasks collects due entries, reschedules or removes them, and
// submits them to the pool outside the lock.
func (s *scheduler) processReadyTasks(now time.Time) {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return
	}

	type due struct {
		task  *scheduledTask
		runAt time.Time
	}
	ready := make([]due, 0, len(s.tasks))
	for id, t := range s.tasks {
		if t.runAt.After(now) {
			continue
		}
		ready = append(ready, due{task: t, runAt: t.runAt})
		t.runs++

		switch {
		case t.interval > 0:
			t.runAt = now.Add(t.interval)
		case t.cronSchedule != nil:
			t.runAt = t.cronSchedule.Next(now.In(s.location))
		default:
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()

	// Entries due in the same tick enter the pool queue oldest first.
	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].runAt.Equal(ready[j].runAt) {
			return ready[i].task.id < ready[j].task.id
		}
		return ready[i].runAt.Before(ready[j].runAt)
	})
	for _, d := range ready {
		s.dispatch(d.task)
	}
}

func (s *scheduler) dispatch(t *scheduledTask) {
	err := s.pool.Submit(t.task)
	if err != nil {
		s.logger.Warn("failed to dispatch scheduled task",
			logging.F("scheduler", s.name), logging.F("id", t.id), logging.F("error", err))
		if s.metrics != nil {
			s.metrics.DispatchErrors.WithLabelValues(s.name).Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.TasksDispatched.WithLabelValues(s.name).Inc()
	}
}
