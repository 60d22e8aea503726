// Package rttick implements spec.md's components B and C: the monotonic
// tick clock and the tick-driven software timer engine, including the
// current/overflow list pairing that keeps absolute-expiry comparisons
// correct across a 32-bit tick-counter wraparound.
package rttick

import "sync/atomic"

// Clock is a lock-free 32-bit tick counter. The zero value starts at tick
// 0 and is ready to use.
type Clock struct {
	tick atomic.Uint32
}

// Now returns the current tick count. Safe to call without holding the
// kernel's critical section, matching the original's use of a plain
// volatile read for elapsed-time sampling.
func (c *Clock) Now() uint32 {
	return c.tick.Load()
}

// Advance increments the counter by one and reports whether it wrapped
// (transitioned to zero). Callers are expected to hold the kernel's
// critical section, since advancing the clock and swapping the timer
// engine's lists on wrap must be observed atomically together.
func (c *Clock) Advance() (wrapped bool) {
	return c.tick.Add(1) == 0
}

// Set forces the counter to an arbitrary value. Exists only for the test
// hook spec.md §8 scenario 5 requires (jumping the clock near the wrap
// boundary); production code never calls this.
func (c *Clock) Set(v uint32) {
	c.tick.Store(v)
}

// TickDiff computes end-start using unsigned modular subtraction, so a
// wrap between the two samples is treated correctly rather than as a
// huge positive or negative jump.
func TickDiff(end, start uint32) uint32 {
	return end - start
}
