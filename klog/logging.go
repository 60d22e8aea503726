// Package klog provides a small structured logging seam for the kernel.
//
// Design decision (mirroring
// github.com/joeycumines/go-utilpkg/eventloop/logging.go): logging is a
// cross-cutting infrastructure concern, so a process-wide default logger is
// kept behind a package-level, mutex-guarded variable rather than threaded
// through every constructor. Embedders swap in a real backend (zerolog,
// logrus, slog, or github.com/joeycumines/logiface via the
// klog/logifaceadapter package) with [SetLogger]; absent that, [NoOpLogger]
// is used and logging calls are effectively free.
package klog

import (
	"fmt"
	"sync"
)

// Level is the severity of a log entry.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(l))
	}
}

// Field is a structured key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F constructs a Field; a short alias used at call sites, e.g.
// klog.Get().Info("timer armed", klog.F("tick", now), klog.F("thread", id)).
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is the interface the kernel logs through. Implementations must be
// safe for concurrent use, since the kernel may be driven by a tick source
// goroutine concurrently with thread goroutines.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// NoOpLogger discards every entry. The zero value is ready to use.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...Field) {}
func (NoOpLogger) Info(string, ...Field)  {}
func (NoOpLogger) Warn(string, ...Field)  {}
func (NoOpLogger) Error(string, ...Field) {}

var global struct {
	sync.RWMutex
	logger Logger
}

// SetLogger installs logger as the process-wide default. Passing nil
// reverts to [NoOpLogger].
func SetLogger(logger Logger) {
	global.Lock()
	defer global.Unlock()
	global.logger = logger
}

// Get returns the current process-wide default logger, or a [NoOpLogger]
// if none has been set.
func Get() Logger {
	global.RLock()
	defer global.RUnlock()
	if global.logger != nil {
		return global.logger
	}
	return NoOpLogger{}
}
