// Package arch declares the architecture-primitive seam of spec.md §6:
// the context-switch assembly, stack-frame initialization, and bit-scan
// that the kernel core treats as external collaborators. The core never
// assumes a concrete implementation; it only calls through [Arch].
//
// Two collaborators exist in this module: a no-op/recording
// implementation used by package kernel's own unit tests, and archsim, a
// goroutine-and-channel implementation that actually runs concurrent
// thread bodies, used by package ipc's tests and the end-to-end
// scenarios of spec.md §8 (see internal/scenario).
package arch

// Critical is the nestable(-by-contract, non-reentrant-in-practice-here)
// IRQ-masking primitive of spec.md §6. Enter returns an opaque mask that
// must be passed back to Exit. The kernel never nests Enter/Exit calls
// (spec.md §9's redesign flag: a clean implementation takes the critical
// section once, uniformly, at the top of every entry point).
type Critical interface {
	Enter() (mask uint64)
	Exit(mask uint64)
}

// Thread is the minimal view the Arch seam needs of a schedulable thread;
// kernel.Thread satisfies it.
type Thread interface {
	// ID is a stable, comparable handle for logging/bookkeeping only; the
	// seam must not dereference anything through it.
	ID() uint64
}

// Switcher is the context-switch primitive of spec.md §6. StackInit
// prepares a thread so a future Switch/FirstSwitch may resume it;
// FirstSwitch starts the very first thread; Switch hands control from old
// to new. BitScan implements the priority convention's bit-scan: for
// "0=highest" it is first-set (low), otherwise last-set (high); it must
// return 0 for a zero bitmap.
type Switcher interface {
	StackInit(t Thread, entry func(arg any), arg any)
	FirstSwitch(t Thread)
	Switch(old, new Thread)
	BitScan(bitmap uint32) int
}

// Arch bundles the primitives the core depends on.
type Arch interface {
	Critical
	Switcher
}
