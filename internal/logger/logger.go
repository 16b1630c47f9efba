// Package logger provides the component-scoped logger used across logdesk.
// Debug and Info lines are only written in verbose mode; Warn and Error always are.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// VerboseChecker reports whether verbose output is enabled
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger writes `[15:04:05.000] LEVEL [component] message [k=v ...]` lines
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	writer         io.Writer
	mu             *sync.Mutex
}

// Field is a key-value pair attached to a log line
type Field struct {
	Key   string
	Value interface{}
}

// New creates a logger writing to stderr
func New(component string, verboseChecker VerboseChecker) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		writer:         os.Stderr,
		mu:             &sync.Mutex{},
	}
}

// NewWithCallback creates a logger whose verbosity is read from a callback
func NewWithCallback(component string, verboseCheck func() bool) *Logger {
	return New(component, &callbackChecker{callback: verboseCheck})
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return New("", Verbose(false)).WithWriter(io.Discard)
}

// Verbose is a fixed VerboseChecker
type Verbose bool

// IsVerbose implements VerboseChecker
func (v Verbose) IsVerbose() bool { return bool(v) }

// WithComponent derives a logger for another component sharing the same output
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: l.verboseChecker,
		writer:         l.writer,
		mu:             l.mu,
	}
}

// WithWriter derives a logger writing to w
func (l *Logger) WithWriter(w io.Writer) *Logger {
	return &Logger{
		component:      l.component,
		verboseChecker: l.verboseChecker,
		writer:         w,
		mu:             &sync.Mutex{},
	}
}

type callbackChecker struct {
	callback func() bool
}

func (c *callbackChecker) IsVerbose() bool {
	if c.callback == nil {
		return false
	}
	return c.callback()
}

func (l *Logger) verbose() bool {
	return l != nil && l.verboseChecker != nil && l.verboseChecker.IsVerbose()
}

// Debug logs debug messages (verbose only)
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.verbose() {
		l.write("DEBUG", msg, nil, args...)
	}
}

// Info logs informational messages (verbose only)
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.verbose() {
		l.write("INFO", msg, nil, args...)
	}
}

// Warn logs warnings (always shown)
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l != nil {
		l.write("WARN", msg, nil, args...)
	}
}

// Error logs errors (always shown)
func (l *Logger) Error(msg string, args ...interface{}) {
	if l != nil {
		l.write("ERROR", msg, nil, args...)
	}
}

// DebugWithFields logs a debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.write("DEBUG", msg, fields, args...)
	}
}

// InfoWithFields logs an info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.write("INFO", msg, fields, args...)
	}
}

// WarnWithFields logs a warning with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	if l != nil {
		l.write("WARN", msg, fields, args...)
	}
}

func (l *Logger) write(level, msg string, fields []Field, args ...interface{}) {
	component := l.component
	if component == "" {
		component = "main"
	}

	line := fmt.Sprintf("[%s] %s [%s] %s", time.Now().Format("15:04:05.000"), level, component, fmt.Sprintf(msg, args...))
	if len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
		}
		line += " [" + strings.Join(parts, " ") + "]"
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Nowhere to report a failed log write.
	_, _ = fmt.Fprintln(l.writer, line)
}

// F builds a field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Count(value int) Field {
	return Field{Key: "count", Value: value}
}

func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

func ID(id string) Field {
	return Field{Key: "id", Value: id}
}
