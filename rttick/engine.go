package rttick

import "github.com/joeycumines/go-rtos/rtlist"

// Engine is spec.md's 4.C timer engine: two lists of armed timers, each
// ordered by absolute expiry tick ascending. The *current* list holds
// timers due before the next wrap of the shared [Clock]; the *overflow*
// list holds timers due after it. All methods assume the caller already
// holds the kernel's critical section — Engine performs no locking of
// its own, matching spec.md's "process-wide state, mutated only under
// the critical section" model.
type Engine struct {
	clock    *Clock
	current  *rtlist.List[*Timer]
	overflow *rtlist.List[*Timer]
}

// NewEngine builds an Engine driven by clock.
func NewEngine(clock *Clock) *Engine {
	return &Engine{
		clock:    clock,
		current:  rtlist.New[*Timer](),
		overflow: rtlist.New[*Timer](),
	}
}

// Now is a convenience forward to the driving clock.
func (e *Engine) Now() uint32 {
	return e.clock.Now()
}

func expiryLess(a, b *Timer) bool {
	return a.expiry < b.expiry
}

// Arm configures t to fire after duration ticks, invoking callback with
// arg recoverable via [Timer.Arg]. Any prior linkage is removed first, so
// re-arming an already-armed timer is a plain restart, not an error.
// expiry = now() + duration with uint32 wraparound; the current list is
// chosen when expiry > now() (no wrap occurred in the addition) and the
// overflow list otherwise, exactly as spec.md §4.C and the §9 tick-wrap
// boundary note describe. t is inserted before the first existing node
// with strictly greater expiry, so ties break in arming order (FIFO).
func (e *Engine) Arm(t *Timer, duration uint32, callback Callback, arg any) {
	t.node.Remove()
	now := e.clock.Now()
	t.duration = duration
	t.callback = callback
	t.arg = arg
	t.expiry = now + duration
	t.armed = true

	list := e.overflow
	if t.expiry > now {
		list = e.current
	}
	list.InsertSorted(&t.node, t, expiryLess)
}

// Stop detaches t if armed. Safe to call on an already-stopped timer.
func (e *Engine) Stop(t *Timer) {
	t.node.Remove()
	t.armed = false
}

// Tick advances the clock by one, swapping the current and overflow
// lists on wrap, then walks the (new) current list from its head,
// collecting every timer whose expiry is now due into a FIFO-ordered
// slice and stopping at the first timer still in the future. The
// returned timers are already detached and marked unarmed; the caller
// must invoke [Engine.Dispatch] on the result after releasing the
// critical section, per spec.md §5's "callbacks run outside the
// critical section to shorten IRQ-off windows".
func (e *Engine) Tick() []*Timer {
	if e.clock.Advance() {
		e.current, e.overflow = e.overflow, e.current
	}
	now := e.clock.Now()

	var expired []*Timer
	e.current.Each(func(n *rtlist.Node[*Timer]) bool {
		t := n.Value
		if t.expiry > now {
			return false
		}
		n.Remove()
		t.armed = false
		expired = append(expired, t)
		return true
	})
	return expired
}

// Dispatch invokes the callback of every timer in expired, in order. It
// must be called outside the critical section that produced them (see
// [Engine.Tick]); callbacks may themselves call back into the kernel to
// arm timers or requeue threads.
func (e *Engine) Dispatch(expired []*Timer) {
	for _, t := range expired {
		t.fire()
	}
}
