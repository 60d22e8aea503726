package klog

import (
	"time"

	catrate "github.com/joeycumines/go-catrate"
)

// Throttled wraps a Logger so that repeated entries sharing the same msg are
// sampled rather than emitted on every call — a thread that spins retrying a
// timed-out kernel call (§4.F's retry loop, or the reaper warning in
// kernel.Reap) would otherwise flood the sink once per tick. Grounded on
// github.com/joeycumines/go-catrate's sliding-window category limiter: each
// distinct level and msg pair is its own category, limited independently.
type Throttled struct {
	next    Logger
	limiter *catrate.Limiter
}

// NewThrottled wraps next, allowing at most maxPerWindow entries of any
// single level and msg pair within window. Entries beyond the limit are dropped, not
// queued or coalesced.
func NewThrottled(next Logger, window time.Duration, maxPerWindow int) *Throttled {
	if next == nil {
		next = NoOpLogger{}
	}
	return &Throttled{
		next:    next,
		limiter: catrate.NewLimiter(map[time.Duration]int{window: maxPerWindow}),
	}
}

func (t *Throttled) allow(level Level, msg string) bool {
	_, ok := t.limiter.Allow([2]any{level, msg})
	return ok
}

func (t *Throttled) Debug(msg string, fields ...Field) {
	if t.allow(LevelDebug, msg) {
		t.next.Debug(msg, fields...)
	}
}

func (t *Throttled) Info(msg string, fields ...Field) {
	if t.allow(LevelInfo, msg) {
		t.next.Info(msg, fields...)
	}
}

func (t *Throttled) Warn(msg string, fields ...Field) {
	if t.allow(LevelWarn, msg) {
		t.next.Warn(msg, fields...)
	}
}

func (t *Throttled) Error(msg string, fields ...Field) {
	if t.allow(LevelError, msg) {
		t.next.Error(msg, fields...)
	}
}
