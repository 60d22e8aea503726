// Package ipc implements spec.md §4.F/§4.G/§4.H/§4.I's synchronization
// primitives — semaphores, mutexes (with one-level priority inheritance
// and recursive acquire), and bounded message queues — on top of package
// kernel's scheduler and timer primitives. Every blocking operation
// shares the same retry-loop shape as original_source/src/ipc.c: attempt
// under the critical section, suspend with an optional timeout if it
// can't proceed yet, and on wake re-check deletion and timeout elapsed
// before retrying.
package ipc

import (
	"github.com/joeycumines/go-rtos/kernel"
	"github.com/joeycumines/go-rtos/rterr"
	"github.com/joeycumines/go-rtos/rtlist"
	"github.com/joeycumines/go-rtos/rttick"
)

// Timeout is a blocking call's patience, in ticks. NoWait returns
// immediately if the call can't proceed; Forever blocks with no timer.
type Timeout uint32

const (
	NoWait  Timeout = 0
	Forever Timeout = 0xFFFFFFFF
)

// object is the common state every IPC primitive embeds: the owning
// kernel, the wait list and its wake order, and a validity flag cleared
// by Delete so blocked waiters observe spec.md §4.F's DELETED return
// instead of silently re-blocking. Grounded on original_source/src/ipc.c's
// shared t_ipc_t fields (status, wait_list, mode).
type object struct {
	k     *kernel.Kernel
	order kernel.WaitOrder
	wait  *rtlist.List[*kernel.Thread]
	valid bool
}

func newObject(k *kernel.Kernel, order kernel.WaitOrder) object {
	return object{k: k, order: order, wait: rtlist.New[*kernel.Thread](), valid: true}
}

// Valid reports whether the object has not yet been deleted.
func (o *object) Valid() bool {
	return o.valid
}

// deleteObject is shared by every primitive's Delete: invalidate, wake
// every waiter so they observe DELETED, and request a switch outside the
// critical section. spec.md §4.F "delete", original_source's t_ipc_delete.
func (o *object) deleteObject() {
	mask := o.k.Enter()
	if !o.valid {
		o.k.Exit(mask)
		return
	}
	o.valid = false
	o.k.ResumeAll(o.wait)
	o.k.Exit(mask)
	o.k.RequestSwitch()
}

// waitStep is one pass of the unified blocking/timeout retry loop of
// spec.md §4.F, run by a caller already holding the critical section and
// already confirmed unable to proceed. It suspends the current thread on
// wait (in order), arms a timeout if one remains, and reports the values
// the caller needs after releasing the critical section and switching.
type waitStep struct {
	self      *kernel.Thread
	startTick uint32
	sampled   bool
}

// suspend links self onto wait per order and, for a bounded timeout,
// samples the start tick on the first pass only and arms self's timer
// for the remaining duration. Must be called under the critical section.
func (o *object) suspend(w *waitStep, remaining Timeout) {
	o.k.SuspendOnWaitList(o.wait, w.self, o.order)
	if remaining != Forever {
		if !w.sampled {
			w.startTick = o.k.Now()
			w.sampled = true
		}
		o.k.ArmTimeout(w.self, uint32(remaining))
	}
}

// afterWake re-checks validity and, for a bounded timeout, how much of it
// remains — called after a switch brought the thread back, outside the
// critical section (spec.md §4.F "after wake up"). ok=false means the
// caller must return err immediately; otherwise remaining is the timeout
// to retry with.
func (o *object) afterWake(w *waitStep, remaining Timeout) (newRemaining Timeout, ok bool, err error) {
	if !o.valid {
		return 0, false, rterr.ErrDeleted
	}
	if remaining == Forever || remaining == NoWait {
		return remaining, true, nil
	}
	now := o.k.Now()
	elapsed := rttick.TickDiff(now, w.startTick)
	if elapsed >= uint32(remaining) {
		return 0, false, rterr.ErrTimeout
	}
	w.startTick = now
	return remaining - Timeout(elapsed), true, nil
}
