// Package archsim is the goroutine-and-channel [arch.Arch] collaborator
// described in arch.go's package doc: unlike the kernel's own
// recording-only test double, it actually runs concurrent thread bodies,
// by baton-passing a single token between per-thread goroutines, so
// spec.md §8's scenarios exercise the real blocking/wake/timeout paths
// of package ipc.
//
// Each kernel thread gets a goroutine parked on its own unbuffered
// channel. Switch hands the baton to the new thread's channel, then
// blocks the calling goroutine (the "old" thread — the one whose Go call
// stack is already inside the kernel op that triggered the switch) on
// its own channel until some later Switch hands the baton back. Exactly
// one goroutine ever holds the baton, matching spec.md's single-core
// model.
//
// A thread is only ever actually blocked waiting for its baton — and
// thus only ever actually re-signaled — while it is "parked": freshly
// spawned and not yet dispatched, or blocked inside Switch's own
// baton-wait as the outgoing thread. A thread the kernel logically
// rotates back onto the CPU without it ever having yielded (the
// cooperative-preemption limit: a goroutine's Go code runs un-suspended
// until it next calls into the kernel itself) is not parked, so handing
// it the baton again is a no-op rather than a send with no receiver —
// it is already "running", uninterrupted, exactly as the reference
// simulation's design intends.
package archsim

import (
	"math/bits"
	"sync"

	"github.com/joeycumines/go-rtos/arch"
	"github.com/joeycumines/go-rtos/rtconfig"
)

// Arch implements [arch.Arch]. The zero value is not usable; use [New].
type Arch struct {
	arch.MutexCritical

	convention rtconfig.PriorityConvention

	mu     sync.Mutex
	batons map[uint64]chan struct{}
	parked map[uint64]bool
}

// New creates an Arch that scans the ready bitmap per convention.
func New(convention rtconfig.PriorityConvention) *Arch {
	return &Arch{
		convention: convention,
		batons:     make(map[uint64]chan struct{}),
		parked:     make(map[uint64]bool),
	}
}

func (a *Arch) batonFor(id uint64) chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.batons[id]
	if !ok {
		ch = make(chan struct{})
		a.batons[id] = ch
	}
	return ch
}

func (a *Arch) setParked(id uint64, v bool) {
	a.mu.Lock()
	a.parked[id] = v
	a.mu.Unlock()
}

// signal hands the baton to id's goroutine, but only if it is currently
// parked waiting to receive one; otherwise id's goroutine never blocked
// since it last ran and there is nobody to deliver to, so this is a
// no-op. Parked is cleared here, before the blocking send, so a target
// that immediately switches back out cannot race this call into
// thinking it is still parked.
func (a *Arch) signal(id uint64) {
	a.mu.Lock()
	wasParked := a.parked[id]
	a.parked[id] = false
	a.mu.Unlock()
	if !wasParked {
		return
	}
	a.batonFor(id) <- struct{}{}
}

// StackInit spawns t's goroutine, parked until its first Switch/
// FirstSwitch hand-off. entry is the already-kernel-wrapped thread body
// (see kernel.Kernel's stackInit), so an ordinary return reaches
// Kernel.ExitCurrent on its own.
func (a *Arch) StackInit(t arch.Thread, entry func(arg any), arg any) {
	ch := a.batonFor(t.ID())
	a.setParked(t.ID(), true)
	go func() {
		<-ch
		entry(arg)
	}()
}

// FirstSwitch hands the baton to t. There is no prior kernel-thread
// goroutine to resume afterward — the caller is bootstrap code, not a
// simulated thread — so FirstSwitch returns once t has been signaled,
// without blocking.
func (a *Arch) FirstSwitch(t arch.Thread) {
	a.signal(t.ID())
}

// Switch hands the baton to new — if new is parked waiting for it, a
// no-op otherwise — then, for a real outgoing thread, marks it parked
// and blocks the calling goroutine (old's) on its own channel until a
// future Switch/FirstSwitch signals it again. old is marked parked
// before new is signaled, so an immediate switch back from new's own
// goroutine always finds old genuinely waiting.
func (a *Arch) Switch(old, new arch.Thread) {
	var oldCh chan struct{}
	if old != nil {
		oldCh = a.batonFor(old.ID())
		a.setParked(old.ID(), true)
	}
	a.signal(new.ID())
	if old != nil {
		<-oldCh
	}
}

// BitScan implements the priority convention's bit-scan: first-set for
// SmallerIsHigher, last-set otherwise; 0 for an empty bitmap, matching
// [arch.Switcher]'s contract.
func (a *Arch) BitScan(bitmap uint32) int {
	if bitmap == 0 {
		return 0
	}
	if a.convention == rtconfig.SmallerIsHigher {
		return bits.TrailingZeros32(bitmap)
	}
	return 31 - bits.LeadingZeros32(bitmap)
}
