package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vnykmshr/threadpool/pkg/common/logging"
)

// LogEntry is one message captured by RecordingLogger.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// RecordingLogger captures log calls so tests can assert on diagnostics.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (r *RecordingLogger) record(level, msg string, fields []logging.Field) {
	e := LogEntry{Level: level, Message: msg, Fields: make(map[string]any, len(fields))}
	for _, f := range fields {
		e.Fields[f.Key] = f.Value
	}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func (r *RecordingLogger) Debug(msg string, fields ...logging.Field) { r.record("DEBUG", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...logging.Field)  { r.record("INFO", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...logging.Field)  { r.record("WARN", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...logging.Field) { r.record("ERROR", msg, fields) }

// Entries returns a copy of everything logged so far.
func (r *RecordingLogger) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.entries...)
}

// Count returns how many entries at level contain substr in their message.
func (r *RecordingLogger) Count(level, substr string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

// Find returns the first entry at level whose message contains substr.
func (r *RecordingLogger) Find(level, substr string) (LogEntry, bool) {
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return e, true
		}
	}
	return LogEntry{}, false
}

// FakeNamer is an in-memory thread name service keyed by thread id.
// It satisfies thread.Namer.
type FakeNamer struct {
	mu       sync.Mutex
	names    map[int]string
	Refuse   bool
	setCalls int
}

// NewFakeNamer creates a FakeNamer that accepts every name.
func NewFakeNamer() *FakeNamer {
	return &FakeNamer{names: make(map[int]string)}
}

func (f *FakeNamer) SetName(tid int, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.Refuse || tid < 0 {
		return false
	}
	f.names[tid] = name
	return true
}

func (f *FakeNamer) Name(tid int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.names[tid]; ok {
		return name
	}
	return fmt.Sprintf("os-%d", tid)
}

// SetCalls returns how many times SetName was invoked.
func (f *FakeNamer) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}
