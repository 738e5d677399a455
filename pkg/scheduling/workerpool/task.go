package workerpool

import (
	"fmt"
	"sync"
)

// Task represents a named unit of work that can be executed by a worker.
type Task interface {
	// Name is a descriptive label used in diagnostics only.
	Name() string

	// Run executes the work. A returned error is a recoverable failure:
	// it is logged and the worker moves on. A panic is unrecoverable.
	Run() error
}

// TaskFunc is a function type that implements the Task interface with an
// empty name.
type TaskFunc func() error

// Run implements the Task interface for TaskFunc.
func (f TaskFunc) Run() error {
	return f()
}

// Name implements the Task interface for TaskFunc.
func (f TaskFunc) Name() string {
	return ""
}

// FuncTask is a closure-backed Task with a mutable name.
type FuncTask struct {
	fn func() error

	mu   sync.RWMutex
	name string
}

// NewTask creates a named task from fn.
func NewTask(name string, fn func() error) *FuncTask {
	if fn == nil {
		panic("task function cannot be nil")
	}
	return &FuncTask{fn: fn, name: name}
}

// Func creates a named task from a function that cannot fail.
func Func(name string, fn func()) *FuncTask {
	if fn == nil {
		panic("task function cannot be nil")
	}
	return NewTask(name, func() error {
		fn()
		return nil
	})
}

// Run invokes the wrapped function once.
func (t *FuncTask) Run() error {
	return t.fn()
}

// Name returns the task label.
func (t *FuncTask) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// SetName replaces the task label.
func (t *FuncTask) SetName(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = name
}

// WaitableTask is a FuncTask that signals completion, letting the
// submitter wait for a fire-and-forget submission to finish.
type WaitableTask struct {
	*FuncTask

	done chan struct{}
	once sync.Once
	err  error
}

// NewWaitableTask creates a task whose completion can be awaited with Wait.
func NewWaitableTask(name string, fn func() error) *WaitableTask {
	return &WaitableTask{
		FuncTask: NewTask(name, fn),
		done:     make(chan struct{}),
	}
}

// Run invokes the wrapped function and releases waiters, also when the
// function panics.
func (t *WaitableTask) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.finish(fmt.Errorf("task %q panicked: %v", t.Name(), r))
			panic(r)
		}
		t.finish(err)
	}()
	return t.FuncTask.Run()
}

func (t *WaitableTask) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed once the task has run.
func (t *WaitableTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task has run and returns its error.
func (t *WaitableTask) Wait() error {
	<-t.done
	return t.err
}

const stopTaskName = "dummy for stop"

// stopTask is handed to a worker that is woken by Stop with nothing left
// to take, so its loop can observe the new state.
type stopTask struct{}

func (stopTask) Name() string { return stopTaskName }

func (stopTask) Run() error { return nil }

var sentinel Task = stopTask{}
