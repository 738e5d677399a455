package thread

import (
	"runtime"
	"sync"

	"github.com/vnykmshr/threadpool/pkg/common/logging"
)

// State is the lifecycle stage of a Thread.
type State int

const (
	Idle State = iota
	Running
	Joined
	Detached
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Joined:
		return "joined"
	case Detached:
		return "detached"
	default:
		return "unknown"
	}
}

// Option configures a Thread.
type Option func(*Thread)

// WithNamer overrides the OS name service.
func WithNamer(n Namer) Option {
	return func(t *Thread) {
		if n != nil {
			t.namer = n
		}
	}
}

// WithLogger sets the diagnostics sink for lifecycle warnings.
func WithLogger(l logging.Logger) Option {
	return func(t *Thread) {
		if l != nil {
			t.logger = l
		}
	}
}

// Thread owns one OS thread that runs a single function.
type Thread struct {
	fn     func()
	namer  Namer
	logger logging.Logger
	done   chan struct{}

	mu    sync.Mutex
	name  string
	tid   int
	state State
}

// New creates an idle Thread that will run fn. An empty name keeps
// whatever name the OS assigns, which is read back on Start.
func New(fn func(), name string, opts ...Option) *Thread {
	if fn == nil {
		panic("thread function cannot be nil")
	}

	t := &Thread{
		fn:     fn,
		namer:  OSNamer(),
		logger: logging.Default(),
		done:   make(chan struct{}),
		name:   name,
		tid:    -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start spawns the OS thread. Starting a Thread that is not idle only logs.
func (t *Thread) Start() {
	t.mu.Lock()
	if t.state != Idle {
		name, state := t.name, t.state
		t.mu.Unlock()
		t.logger.Warn("thread has already been started",
			logging.F("thread", name), logging.F("state", state))
		return
	}
	t.state = Running
	t.mu.Unlock()

	go t.execute()
}

func (t *Thread) execute() {
	// Deliberately never unlocked, see package doc.
	runtime.LockOSThread()

	tid := currentTID()

	t.mu.Lock()
	if t.name != "" {
		t.namer.SetName(tid, t.name)
	} else {
		t.name = t.namer.Name(tid)
	}
	t.tid = tid
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.tid = -1
		t.mu.Unlock()
		close(t.done)
	}()

	t.fn()
}

// Join blocks until the function returns. Joining a Thread that was never
// started, or one that was detached, only logs.
func (t *Thread) Join() {
	t.mu.Lock()
	name, state := t.name, t.state
	t.mu.Unlock()

	t.logger.Debug("joining thread", logging.F("thread", name))

	switch state {
	case Idle:
		t.logger.Warn("join called on a thread that was never started", logging.F("thread", name))
		return
	case Detached:
		t.logger.Warn("join called on a detached thread", logging.F("thread", name))
		return
	}

	<-t.done

	t.mu.Lock()
	if t.state == Running {
		t.state = Joined
	}
	t.mu.Unlock()
}

// Detach releases the Thread without waiting. The OS thread keeps running
// the function to completion on its own.
func (t *Thread) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case Running:
		t.state = Detached
	case Idle:
		t.logger.Warn("detach called on a thread that was never started", logging.F("thread", t.name))
	default:
		t.logger.Warn("detach called on a released thread",
			logging.F("thread", t.name), logging.F("state", t.state))
	}
}

// Joinable reports whether Join or Detach would still take effect.
func (t *Thread) Joinable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == Running
}

// SetName stores name and applies it to the OS thread if one is running.
// It reports whether the OS accepted the name.
func (t *Thread) SetName(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.name = name
	if t.tid < 0 {
		return false
	}
	return t.namer.SetName(t.tid, name)
}

// Name returns the stored display name.
func (t *Thread) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// TID returns the native thread id while the function runs, -1 otherwise.
func (t *Thread) TID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tid
}

// State returns the current lifecycle state.
func (t *Thread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done is closed when the function has returned.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}
