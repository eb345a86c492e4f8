// logging.go: pluggable logging with injected callback support
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"fmt"
	"strings"
	"sync"
)

// Logger defines the pluggable logging interface for the modfactory core.
//
// The core never owns a logging sink: the application injects one. Any
// framework can be adapted (see ZerologAdapter), and a plain severity +
// message callback can be injected through LogFunc.
//
// Example usage:
//
//	manager := modfactory.NewManager(modfactory.NewZerologAdapter(log.Logger))
//
//	// Callback collaborator
//	manager := modfactory.NewManager(modfactory.LogFunc(func(level, msg string) {
//	    fmt.Println(level, msg)
//	}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, args ...any)

	// Info logs an info message with optional key-value pairs
	Info(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs
	Warn(msg string, args ...any)

	// Error logs an error message with optional key-value pairs
	Error(msg string, args ...any)

	// With returns a new logger with persistent context key-value pairs
	With(args ...any) Logger
}

// NewLogger creates a Logger from supported logger types.
//
// Supported types:
//   - Logger interface: Used directly
//   - LogFunc or func(level, msg string): wrapped as a callback logger
//   - nil: Returns NoOpLogger for silent operation
//   - Unsupported types: Panic with descriptive message
func NewLogger(logger any) Logger {
	switch l := logger.(type) {
	case Logger:
		return l
	case LogFunc:
		return &callbackLogger{fn: l}
	case func(level, msg string):
		return &callbackLogger{fn: l}
	case nil:
		return NewNoOpLogger()
	default:
		panic("unsupported logger type: expected Logger interface, LogFunc or nil")
	}
}

// LogFunc is a severity + message callback. Key-value pairs are rendered
// into the message as "key=value" suffixes.
type LogFunc func(level, msg string)

type callbackLogger struct {
	fn     func(level, msg string)
	fields []any
}

func (c *callbackLogger) Debug(msg string, args ...any) { c.emit("DEBUG", msg, args) }
func (c *callbackLogger) Info(msg string, args ...any)  { c.emit("INFO", msg, args) }
func (c *callbackLogger) Warn(msg string, args ...any)  { c.emit("WARN", msg, args) }
func (c *callbackLogger) Error(msg string, args ...any) { c.emit("ERROR", msg, args) }

func (c *callbackLogger) With(args ...any) Logger {
	fields := make([]any, 0, len(c.fields)+len(args))
	fields = append(fields, c.fields...)
	fields = append(fields, args...)
	return &callbackLogger{fn: c.fn, fields: fields}
}

func (c *callbackLogger) emit(level, msg string, args []any) {
	all := append(append([]any{}, c.fields...), args...)
	if len(all) == 0 {
		c.fn(level, msg)
		return
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(all); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(all) {
			fmt.Fprintf(&b, "%v=%v", all[i], all[i+1])
		} else {
			fmt.Fprintf(&b, "%v", all[i])
		}
	}
	c.fn(level, b.String())
}

// NoOpLogger provides a silent logger implementation for testing and minimal setups.
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-operation logger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug implements Logger interface (no-op)
func (n *NoOpLogger) Debug(msg string, args ...any) {}

// Info implements Logger interface (no-op)
func (n *NoOpLogger) Info(msg string, args ...any) {}

// Warn implements Logger interface (no-op)
func (n *NoOpLogger) Warn(msg string, args ...any) {}

// Error implements Logger interface (no-op)
func (n *NoOpLogger) Error(msg string, args ...any) {}

// With implements Logger interface (no-op)
func (n *NoOpLogger) With(args ...any) Logger {
	return n
}

// TestLogger captures log messages so tests can assert on them.
type TestLogger struct {
	mu       *sync.RWMutex
	messages *[]TestLogMessage
	fields   []any
}

// TestLogMessage represents a captured log message for testing.
type TestLogMessage struct {
	Level   string
	Message string
	Args    []any
}

// NewTestLogger creates a new test logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{
		mu:       &sync.RWMutex{},
		messages: &[]TestLogMessage{},
	}
}

// Debug implements Logger interface (captures message)
func (t *TestLogger) Debug(msg string, args ...any) { t.record("DEBUG", msg, args) }

// Info implements Logger interface (captures message)
func (t *TestLogger) Info(msg string, args ...any) { t.record("INFO", msg, args) }

// Warn implements Logger interface (captures message)
func (t *TestLogger) Warn(msg string, args ...any) { t.record("WARN", msg, args) }

// Error implements Logger interface (captures message)
func (t *TestLogger) Error(msg string, args ...any) { t.record("ERROR", msg, args) }

// With returns a logger sharing the same capture buffer with extra fields.
func (t *TestLogger) With(args ...any) Logger {
	fields := append(append([]any{}, t.fields...), args...)
	return &TestLogger{mu: t.mu, messages: t.messages, fields: fields}
}

func (t *TestLogger) record(level, msg string, args []any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	*t.messages = append(*t.messages, TestLogMessage{
		Level:   level,
		Message: msg,
		Args:    append(append([]any{}, t.fields...), args...),
	})
}

// Messages returns a copy of the captured messages.
func (t *TestLogger) Messages() []TestLogMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TestLogMessage, len(*t.messages))
	copy(out, *t.messages)
	return out
}

// HasMessage checks if the logger captured a message at level with the given text.
func (t *TestLogger) HasMessage(level, message string) bool {
	for _, msg := range t.Messages() {
		if msg.Level == level && msg.Message == message {
			return true
		}
	}
	return false
}

// CountMessages returns how many messages with the given level and text were captured.
func (t *TestLogger) CountMessages(level, message string) int {
	n := 0
	for _, msg := range t.Messages() {
		if msg.Level == level && msg.Message == message {
			n++
		}
	}
	return n
}

// Clear removes all captured messages.
func (t *TestLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	*t.messages = (*t.messages)[:0]
}
