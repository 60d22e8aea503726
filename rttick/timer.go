package rttick

import "github.com/joeycumines/go-rtos/rtlist"

// Callback is invoked when an armed [Timer] expires. It runs outside the
// kernel's critical section (see [Engine.Tick]), so it may itself call
// back into the kernel to arm new timers or move threads between
// scheduler queues.
type Callback func(t *Timer)

// Timer is spec.md's 4.A timer node: embeddable in a thread (for sleep
// and IPC timeouts) or used standalone. A Timer is linked in exactly one
// of an [Engine]'s two lists while armed, and in neither when stopped;
// the zero value is an unarmed timer ready to [Engine.Arm].
type Timer struct {
	node     rtlist.Node[*Timer]
	expiry   uint32
	duration uint32
	callback Callback
	arg      any
	armed    bool
}

// Arg returns the user pointer supplied to [Engine.Arm], for callbacks
// that were registered generically and need to recover their receiver.
func (t *Timer) Arg() any {
	return t.arg
}

// Duration returns the timer's configured period in ticks, as set by the
// most recent [Engine.Arm] call (spec.md's `TO_TIMER_GET_TIME`/
// `TO_TIMER_SET_TIME` control operation).
func (t *Timer) Duration() uint32 {
	return t.duration
}

// SetDuration changes the configured duration without rearming; it takes
// effect the next time the timer is armed (spec.md's `TO_TIMER_SET_TIME`).
func (t *Timer) SetDuration(d uint32) {
	t.duration = d
}

// Expiry returns the absolute tick at which an armed timer will fire. Its
// value is meaningless while the timer is stopped.
func (t *Timer) Expiry() uint32 {
	return t.expiry
}

// Armed reports whether the timer is currently linked into one of an
// Engine's lists.
func (t *Timer) Armed() bool {
	return t.armed
}

// fire invokes the stored callback, if any. Called by the kernel after an
// [Engine.Tick] collection, outside the critical section.
func (t *Timer) fire() {
	if t.callback != nil {
		t.callback(t)
	}
}
