package kernel

import (
	"github.com/joeycumines/go-rtos/rtconfig"
	"github.com/joeycumines/go-rtos/rtlist"
)

// insertReady appends t to the tail of its priority's ready queue, sets
// the priority bit, and marks t READY. spec.md §4.D "insert ready".
func (k *Kernel) insertReady(t *Thread) {
	k.ready[t.currentPriority].PushBack(&t.node, t)
	k.readyBitmap |= t.priorityBit
	k.readyCount++
	t.status = Ready
}

// removeReady detaches t from its ready queue, clearing the priority bit
// if that queue became empty. spec.md §4.D "remove ready".
func (k *Kernel) removeReady(t *Thread) {
	t.node.Remove()
	if k.ready[t.currentPriority].Empty() {
		k.readyBitmap &^= t.priorityBit
	}
	k.readyCount--
}

// highestReadyPriority returns the bit-scan result over the ready
// bitmap, or -1 if no priority is ready. The scan direction is chosen by
// the configured convention via the Arch seam, per spec.md §4.D.
func (k *Kernel) highestReadyPriority() int {
	if k.readyBitmap == 0 {
		return -1
	}
	return k.arch.BitScan(k.readyBitmap)
}

// higherPriority reports whether a is strictly higher priority than b
// under the configured convention.
func (k *Kernel) higherPriority(a, b int) bool {
	if k.cfg.PriorityConvention == rtconfig.SmallerIsHigher {
		return a < b
	}
	return a > b
}

// switchDecision picks the next thread to run and mutates status/current
// accordingly, reporting whether the caller must, after releasing the
// critical section, hand control to next via the architecture switch
// primitive. It never calls into Arch itself: spec.md's context-switch
// primitive is the sole writer of a thread's saved stack pointer, and in
// this reference model that write may cooperatively block the calling
// goroutine, which must not happen while the critical section is held.
func (k *Kernel) switchDecision() (prev, next *Thread, ok bool) {
	if !k.started || k.suspendDepth > 0 {
		return nil, nil, false
	}
	p := k.highestReadyPriority()
	if p < 0 {
		return nil, nil, false
	}
	next = k.ready[p].Front().Value
	prev = k.current
	if prev == next {
		return nil, nil, false
	}
	if prev != nil && prev.status == Running {
		prev.status = Ready
	}
	next.status = Running
	k.current = next
	return prev, next, true
}

// rotateDecision requeues the current thread at the tail of its
// priority's ready queue (a no-op if fewer than two threads share that
// priority) and reports whether a rotation happened, for the caller to
// follow with a switch request after releasing the critical section
// ([Kernel.rotate] uses requestForeignSwitch). spec.md §4.D "rotate same
// priority".
func (k *Kernel) rotateDecision() bool {
	cur := k.current
	if cur == nil {
		return false
	}
	queue := k.ready[cur.currentPriority]
	if queue.Len() <= 1 {
		return false
	}
	cur.node.Remove()
	queue.PushBack(&cur.node, cur)
	return true
}

// WaitOrder selects how a wait list orders blocked threads, spec.md
// §4.F.
type WaitOrder uint8

const (
	// FIFOOrder appends new waiters at the tail.
	FIFOOrder WaitOrder = iota
	// PriorityOrder inserts before the first existing waiter of
	// strictly lower priority.
	PriorityOrder
)

// SuspendOnWaitList implements spec.md §4.F's ipc-suspend: removes t
// from the ready queue, marks it SUSPEND, and links it into wait per
// order. Callers (package ipc) hold the kernel's critical section.
func (k *Kernel) SuspendOnWaitList(wait *rtlist.List[*Thread], t *Thread, order WaitOrder) {
	k.removeReady(t)
	t.status = Suspend

	if order == FIFOOrder {
		wait.PushBack(&t.node, t)
		return
	}
	wait.Each(func(n *rtlist.Node[*Thread]) bool {
		if k.higherPriority(t.currentPriority, n.Value.currentPriority) {
			wait.InsertBefore(&t.node, n, t)
			return false
		}
		return true
	})
	if !t.node.Linked() {
		wait.PushBack(&t.node, t)
	}
}

// ResumeAll implements spec.md §4.F's list-resume-all: repeatedly
// detaches the head waiter, marks it READY, and inserts it into the
// scheduler. No switch is requested; the caller decides when to switch.
func (k *Kernel) ResumeAll(wait *rtlist.List[*Thread]) {
	for {
		n := wait.Front()
		if n == nil {
			return
		}
		t := n.Value
		n.Remove()
		k.insertReady(t)
	}
}

// ResumeHead detaches and ready-queues the head waiter, if any,
// returning it and true. No switch is requested.
func (k *Kernel) ResumeHead(wait *rtlist.List[*Thread]) (*Thread, bool) {
	n := wait.Front()
	if n == nil {
		return nil, false
	}
	t := n.Value
	n.Remove()
	k.insertReady(t)
	return t, true
}

// RequestSwitch lets package ipc ask for a reschedule after mutating
// shared state and releasing the critical section, mirroring the many
// `t_sched_switch()` call sites in spec.md §4.F/§4.G/§4.H/§4.I. It takes
// its own short critical section to make the switch decision, then
// invokes the architecture switch primitive outside it.
func (k *Kernel) RequestSwitch() {
	mask := k.Enter()
	prev, next, ok := k.switchDecision()
	k.Exit(mask)
	if !ok {
		return
	}
	// prev may be a nil *Thread (the very first switch out of no thread);
	// passing it through the arch.Thread interface as-is would wrap a nil
	// pointer in a non-nil interface value, so arch.Switch would see
	// old != nil and dereference it. Pass a literal nil instead.
	if prev == nil {
		k.arch.Switch(nil, next)
		return
	}
	k.arch.Switch(prev, next)
}

// requestForeignSwitch is [Kernel.RequestSwitch]'s counterpart for
// callers that are not themselves a kernel thread's own goroutine — the
// tick driver, via [Kernel.Tick]'s slice-exhaustion rotation and timer
// dispatch. In this reference model, only a thread's own call into a
// blocking kernel operation can cooperatively park its goroutine; an
// external tick source never held the baton to begin with, so it must
// not block waiting for one back. The previously-running thread's
// goroutine keeps executing until it next calls into the kernel itself.
func (k *Kernel) requestForeignSwitch() {
	mask := k.Enter()
	_, next, ok := k.switchDecision()
	k.Exit(mask)
	if ok {
		k.arch.Switch(nil, next)
	}
}
