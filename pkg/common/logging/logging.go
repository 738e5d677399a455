// Package logging is the diagnostics sink used by threads and pools.
//
// Callers plug in their own structured logger by implementing Logger;
// NewDefault writes leveled lines through the standard log package.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
)

// Logger interface for structured logging
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// DefaultLogger writes "[LEVEL] msg {k: v}" lines to an io.Writer.
type DefaultLogger struct {
	out    *log.Logger
	levels map[string]*color.Color
	debug  bool
}

// NewDefault creates a DefaultLogger writing to w. Level tags are
// colorized only when w is a terminal-backed stdout or stderr.
func NewDefault(w io.Writer) *DefaultLogger {
	l := &DefaultLogger{
		out: log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		levels: map[string]*color.Color{
			"DEBUG": color.New(color.FgHiBlack),
			"INFO":  color.New(color.FgBlue),
			"WARN":  color.New(color.FgYellow),
			"ERROR": color.New(color.FgRed, color.Bold),
		},
	}
	if (w != os.Stdout && w != os.Stderr) || color.NoColor {
		for _, c := range l.levels {
			c.DisableColor()
		}
	}
	return l
}

// WithDebug enables or disables Debug output and returns the logger.
func (l *DefaultLogger) WithDebug(enabled bool) *DefaultLogger {
	l.debug = enabled
	return l
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	if !l.debug {
		return
	}
	l.log("DEBUG", msg, fields...)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log("INFO", msg, fields...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log("WARN", msg, fields...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.log("ERROR", msg, fields...)
}

func (l *DefaultLogger) log(level, msg string, fields ...Field) {
	var b strings.Builder
	b.WriteString(l.levels[level].Sprint("[" + level + "]"))
	b.WriteByte(' ')
	b.WriteString(msg)
	if len(fields) > 0 {
		b.WriteString(" {")
		for i, f := range fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %v", f.Key, f.Value)
		}
		b.WriteByte('}')
	}
	l.out.Println(b.String())
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

type holder struct{ Logger }

var std atomic.Value

func init() {
	std.Store(holder{NewDefault(os.Stderr)})
}

// Default returns the process-wide logger used when a component is
// configured without one.
func Default() Logger {
	return std.Load().(holder).Logger
}

// SetDefault replaces the process-wide logger. A nil logger installs Nop.
func SetDefault(l Logger) {
	if l == nil {
		l = Nop()
	}
	std.Store(holder{l})
}
