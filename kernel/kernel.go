package kernel

import (
	"github.com/joeycumines/go-rtos/arch"
	"github.com/joeycumines/go-rtos/klog"
	"github.com/joeycumines/go-rtos/pool"
	"github.com/joeycumines/go-rtos/rtconfig"
	"github.com/joeycumines/go-rtos/rterr"
	"github.com/joeycumines/go-rtos/rtlist"
	"github.com/joeycumines/go-rtos/rttick"
)

// Kernel is the process-wide, initialized-once container of spec.md §9:
// the ready bitmap, per-priority ready queues, tick clock, timer engine,
// and termination list, all mutated only under its critical section
// (see [Kernel.Enter]). Build one with [New]; the zero value is not
// usable.
type Kernel struct {
	cfg  rtconfig.Config
	arch arch.Arch

	clock   rttick.Clock
	timers  *rttick.Engine
	pool    *pool.Pool // nil when cfg.AllocationMode == rtconfig.StaticOnly

	ready       []*rtlist.List[*Thread]
	readyBitmap uint32
	readyCount  int
	current     *Thread
	started     bool
	suspendDepth int

	termination *rtlist.List[*Thread]

	nextID uint64
}

// New builds a Kernel for cfg, driven by a. If cfg.AllocationMode allows
// dynamic allocation, a [pool.Pool] of cfg.DynamicPoolSize bytes is
// created to back heap-allocated thread stacks (spec.md's "simple
// byte-pool is an optional collaborator").
func New(cfg rtconfig.Config, a arch.Arch) *Kernel {
	k := &Kernel{
		cfg:         cfg,
		arch:        a,
		ready:       make([]*rtlist.List[*Thread], cfg.PriorityMax),
		termination: rtlist.New[*Thread](),
	}
	for i := range k.ready {
		k.ready[i] = rtlist.New[*Thread]()
	}
	if cfg.AllocationMode != rtconfig.StaticOnly {
		k.pool = pool.New(cfg.DynamicPoolSize)
	}
	k.timers = rttick.NewEngine(&k.clock)
	return k
}

// Config returns the resolved configuration this Kernel was built with.
func (k *Kernel) Config() rtconfig.Config {
	return k.cfg
}

// Enter takes the kernel's critical section, spec.md §6's
// `critical_enter`. Public Kernel/ipc operations never nest it; an
// operation may take and release it more than once in sequence (Open
// Question Decision #3/#4).
func (k *Kernel) Enter() uint64 {
	return k.arch.Enter()
}

// Exit releases the critical section taken by a matching [Kernel.Enter].
func (k *Kernel) Exit(mask uint64) {
	k.arch.Exit(mask)
}

// Now returns the current tick, safe to call without the critical
// section (spec.md §4.B).
func (k *Kernel) Now() uint32 {
	return k.clock.Now()
}

// SetTick forces the tick counter to an arbitrary value; exists only for
// the §8 scenario-5 wrap test hook.
func (k *Kernel) SetTick(v uint32) {
	k.clock.Set(v)
}

// Current returns the currently RUNNING thread, or nil before [Kernel.Start].
func (k *Kernel) Current() *Thread {
	return k.current
}

// Timers exposes the timer engine for packages (kernel's own lifecycle
// code, and package ipc) that need to arm per-thread timeouts.
func (k *Kernel) Timers() *rttick.Engine {
	return k.timers
}

// Pool returns the dynamic byte-pool allocator, or nil if
// cfg.AllocationMode is rtconfig.StaticOnly.
func (k *Kernel) Pool() *pool.Pool {
	return k.pool
}

// Start performs spec.md §4.D's scheduler start: selects the
// highest-priority ready thread, marks it RUNNING, loads its slice, and
// hands it to the architecture's first-switch primitive. It is an error
// to call Start with no thread READY.
func (k *Kernel) Start() error {
	mask := k.Enter()
	p := k.highestReadyPriority()
	if p < 0 {
		k.Exit(mask)
		return rterr.New(rterr.ERR, "kernel: Start called with no ready thread")
	}
	next := k.ready[p].Front().Value
	k.current = next
	k.started = true
	next.status = Running
	next.remainingSlice = next.initSlice
	k.Exit(mask)

	klog.Get().Info("scheduler start", klog.F("thread", next.id), klog.F("priority", next.currentPriority))
	k.arch.FirstSwitch(next)
	return nil
}

// Tick is spec.md §4.B/§4.D/§4.C's combined tick entry point: it
// decrements the running thread's remaining slice (reloading and
// rotating same-priority on exhaustion), then advances the timer
// engine and dispatches expired timers outside the critical section.
func (k *Kernel) Tick() {
	mask := k.Enter()
	rotate := false
	if cur := k.current; cur != nil {
		cur.remainingSlice--
		if cur.remainingSlice == 0 {
			cur.remainingSlice = cur.initSlice
			rotate = true
		}
	}
	k.Exit(mask)

	if rotate {
		k.rotate()
	}

	mask = k.Enter()
	expired := k.timers.Tick()
	k.Exit(mask)
	k.timers.Dispatch(expired)
}

// rotate implements the decision/act split described at
// [Kernel.switchDecision]: requeue under the critical section, then
// request a switch outside it.
func (k *Kernel) rotate() {
	mask := k.Enter()
	rotated := k.rotateDecision()
	k.Exit(mask)
	if rotated {
		k.requestForeignSwitch()
	}
}

// DefaultTimeoutWake is armed on a thread's own timer by the blocking
// retry loop (package ipc) and by [Kernel.Sleep]: it is the unified wake
// path of spec.md §4.C — remove from wherever linked (the wait list, if
// any), mark READY, insert into the ready queue, then request a switch
// via requestForeignSwitch. This runs from [rttick.Engine]'s dispatch,
// outside the critical section, so it takes its own.
func (k *Kernel) DefaultTimeoutWake(timer *rttick.Timer) {
	t, _ := timer.Arg().(*Thread)
	if t == nil {
		return
	}
	mask := k.Enter()
	if t.status == Suspend {
		t.node.Remove()
		k.insertReady(t)
	}
	k.Exit(mask)
	k.requestForeignSwitch()
}
