package kernel

import (
	"time"

	"github.com/joeycumines/go-rtos/klog"
	"github.com/joeycumines/go-rtos/rterr"
	"github.com/joeycumines/go-rtos/rttick"
)

// dynamicLogger forwards each call to the process-wide logger current at
// call time, rather than whatever [klog.Get] returned at package-init.
type dynamicLogger struct{}

func (dynamicLogger) Debug(msg string, fields ...klog.Field) { klog.Get().Debug(msg, fields...) }
func (dynamicLogger) Info(msg string, fields ...klog.Field)  { klog.Get().Info(msg, fields...) }
func (dynamicLogger) Warn(msg string, fields ...klog.Field)  { klog.Get().Warn(msg, fields...) }
func (dynamicLogger) Error(msg string, fields ...klog.Field) { klog.Get().Error(msg, fields...) }

// reaperWarnings throttles the reaper's "failed to free" warning: a
// corrupted or exhausted pool could otherwise fail on every terminated
// thread the reaper ever processes, flooding the sink.
var reaperWarnings = klog.NewThrottled(dynamicLogger{}, time.Second, 3)

// CreateThread is spec.md §4.E's "create": validates entry/stackSize/
// slice/priority, builds the thread object, allocates its stack (from
// the dynamic pool when configured, otherwise a plain Go-managed slice
// standing in for caller-supplied static storage), prepares the initial
// stacked context via the architecture's stack-init primitive, and sets
// status INIT. name is a SUPPLEMENTED FEATURE (original_source's
// tdef.h) carried only for diagnostics.
func (k *Kernel) CreateThread(name string, entry func(arg any), arg any, priority int, stackSize int, slice uint32) (*Thread, error) {
	if entry == nil {
		return nil, rterr.ErrNull
	}
	if stackSize <= 0 || slice == 0 {
		return nil, rterr.New(rterr.INVALID, "kernel: CreateThread requires a positive stack size and time slice")
	}
	if priority < 0 || priority >= k.cfg.PriorityMax {
		return nil, rterr.New(rterr.INVALID, "kernel: CreateThread priority out of range")
	}

	k.nextID++
	t := &Thread{
		id:              k.nextID,
		Name:            name,
		entry:           entry,
		arg:             arg,
		currentPriority: priority,
		initPriority:    priority,
		priorityBit:     uint32(1) << uint(priority),
		initSlice:       slice,
		remainingSlice:  slice,
		status:          Init,
	}

	if k.pool != nil {
		stack, err := k.pool.Alloc(stackSize)
		if err != nil {
			return nil, err
		}
		t.stack = stack
		t.heapAllocated = true
	} else {
		t.stack = make([]byte, stackSize)
	}

	k.stackInit(t)
	klog.Get().Debug("thread created",
		klog.F("thread", t.id), klog.F("name", name), klog.F("priority", priority))
	return t, nil
}

// Startup transitions a thread INIT -> READY and inserts it into the
// ready queue; it is an error on a DELETED thread. spec.md §4.E.
func (k *Kernel) Startup(t *Thread) error {
	if t == nil {
		return rterr.ErrNull
	}
	if t.status == Deleted {
		return rterr.New(rterr.ERR, "kernel: Startup on a DELETED thread")
	}

	mask := k.Enter()
	t.currentPriority = t.initPriority
	t.remainingSlice = t.initSlice
	k.insertReady(t)
	k.Exit(mask)

	k.RequestSwitch()
	return nil
}

// Sleep suspends the current thread for ticks, arming its own timer to
// wake it via [Kernel.DefaultTimeoutWake]. spec.md §4.E "Sleep(ticks)".
func (k *Kernel) Sleep(ticks uint32) error {
	mask := k.Enter()
	cur := k.current
	if cur == nil {
		k.Exit(mask)
		return rterr.New(rterr.ERR, "kernel: Sleep called with no current thread")
	}
	k.removeReady(cur)
	cur.status = Suspend
	k.timers.Stop(&cur.timer)
	k.timers.Arm(&cur.timer, ticks, k.DefaultTimeoutWake, cur)
	k.Exit(mask)

	k.RequestSwitch()
	return nil
}

// Suspend removes t from the ready queue and marks it SUSPEND, without
// arming a timer. spec.md §4.E "Suspend(thread)".
func (k *Kernel) Suspend(t *Thread) error {
	if t == nil {
		return rterr.ErrNull
	}
	mask := k.Enter()
	k.removeReady(t)
	t.status = Suspend
	k.Exit(mask)

	k.RequestSwitch()
	return nil
}

// Resume lowers the suspend-depth-free resume of a single suspended
// thread, inserting it back into the ready queue. Unlike [Kernel.SuspendScheduling]/
// [Kernel.ResumeScheduling] (the global suspend counter of spec.md §4.D),
// this resumes one specific thread that was parked by [Kernel.Suspend].
func (k *Kernel) Resume(t *Thread) error {
	if t == nil {
		return rterr.ErrNull
	}
	if t.status != Suspend {
		return rterr.New(rterr.ERR, "kernel: Resume requires a SUSPEND thread")
	}
	mask := k.Enter()
	k.insertReady(t)
	k.Exit(mask)

	k.RequestSwitch()
	return nil
}

// SuspendScheduling increments the global suspend-depth counter; while
// positive, [Kernel.RequestSwitch] is a no-op. spec.md §4.D.
func (k *Kernel) SuspendScheduling() {
	mask := k.Enter()
	k.suspendDepth++
	k.Exit(mask)
}

// ResumeScheduling decrements the suspend-depth counter; at zero, with
// ready work pending, it requests a switch. spec.md §4.D.
func (k *Kernel) ResumeScheduling() {
	mask := k.Enter()
	k.suspendDepth--
	empty := k.readyBitmap == 0
	k.Exit(mask)
	if !empty {
		k.RequestSwitch()
	}
}

// ExitCurrent terminates the current thread: stops its timer, removes it
// from the ready queue, marks it TERMINATED, and links it into the
// termination list for deferred reclamation by [Kernel.Reap]. spec.md
// §4.E "Exit".
func (k *Kernel) ExitCurrent() {
	mask := k.Enter()
	cur := k.current
	if cur == nil {
		k.Exit(mask)
		return
	}
	k.removeReady(cur)
	k.timers.Stop(&cur.timer)
	cur.status = Terminated
	k.termination.PushBack(&cur.node, cur)
	k.Exit(mask)

	k.RequestSwitch()
}

// Delete marks any thread TERMINATED for deferred reclamation, whether
// or not it is the current thread. Returns OK if already TERMINATED, an
// error if already DELETED. spec.md §4.E "Delete".
func (k *Kernel) Delete(t *Thread) error {
	if t == nil {
		return rterr.ErrNull
	}
	if t.status == Terminated {
		return nil
	}
	if t.status == Deleted {
		return rterr.New(rterr.ERR, "kernel: Delete on an already-DELETED thread")
	}

	mask := k.Enter()
	isCurrent := t == k.current
	if t.status == Ready || t.status == Running {
		k.removeReady(t)
	} else {
		t.node.Remove()
	}
	k.timers.Stop(&t.timer)
	t.status = Terminated
	k.termination.PushBack(&t.node, t)
	k.Exit(mask)

	if isCurrent {
		k.RequestSwitch()
	}
	return nil
}

// Reap is spec.md §4.E's deferred reaper, run by the idle thread: while
// the termination list is non-empty, dequeue, mark DELETED, and — for a
// heap-allocated thread — release its stack back to the pool.
func (k *Kernel) Reap() {
	mask := k.Enter()
	var freed []*Thread
	for {
		n := k.termination.Front()
		if n == nil {
			break
		}
		t := n.Value
		n.Remove()
		t.status = Deleted
		if t.heapAllocated {
			freed = append(freed, t)
		}
	}
	k.Exit(mask)

	for _, t := range freed {
		if err := k.pool.Free(t.stack); err != nil {
			reaperWarnings.Warn("reaper: failed to free thread stack",
				klog.F("thread", t.id), klog.F("err", err))
		}
		t.stack = nil
	}
}

// Restart reinitializes a DELETED thread's context and timer and
// transitions it back to READY. spec.md §4.E "Restart".
func (k *Kernel) Restart(t *Thread) error {
	if t == nil {
		return rterr.ErrNull
	}
	if t.status != Deleted {
		return rterr.New(rterr.ERR, "kernel: Restart requires a DELETED thread")
	}

	t.currentPriority = t.initPriority
	t.priorityBit = uint32(1) << uint(t.initPriority)
	t.remainingSlice = t.initSlice
	t.timer = rttick.Timer{}
	t.status = Init
	k.stackInit(t)

	return k.Startup(t)
}

// stackInit (re)prepares t's initial stacked context, wrapping its entry
// so that an ordinary return falls through to [Kernel.ExitCurrent] —
// spec.md §4.E's "entry returning lands in thread-exit" — without
// disturbing the raw entry/arg a future [Kernel.Restart] reinitializes
// from.
func (k *Kernel) stackInit(t *Thread) {
	entry, arg := t.entry, t.arg
	k.arch.StackInit(t, func(a any) {
		entry(a)
		k.ExitCurrent()
	}, arg)
}

// SetPriority changes t's current priority, atomically re-queuing it if
// it was READY or RUNNING, and requests a switch — priority inheritance
// (package ipc) is built on this. spec.md §4.E "Set priority".
func (k *Kernel) SetPriority(t *Thread, priority int) error {
	if t == nil {
		return rterr.ErrNull
	}
	if priority < 0 || priority >= k.cfg.PriorityMax {
		return rterr.New(rterr.INVALID, "kernel: SetPriority out of range")
	}

	mask := k.Enter()
	wasRunning := t.status == Running
	wasReady := wasRunning || t.status == Ready
	if wasReady {
		k.removeReady(t)
	}
	t.currentPriority = priority
	t.priorityBit = uint32(1) << uint(priority)
	if wasReady {
		k.insertReady(t)
		if wasRunning {
			t.status = Running
		}
	}
	k.Exit(mask)

	k.RequestSwitch()
	return nil
}
