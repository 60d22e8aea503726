// Package kernel implements spec.md's components D and E: the
// priority-bitmap ready-queue scheduler and thread lifecycle, plus the
// Kernel container that holds the process-wide scheduler and tick-clock
// state spec.md §9 calls out as an "initialized-once container."
package kernel

import (
	"github.com/joeycumines/go-rtos/rtlist"
	"github.com/joeycumines/go-rtos/rttick"
)

// Status is a thread's lifecycle tag, spec.md §3/§6.
type Status uint8

const (
	Init Status = iota
	Ready
	Running
	Suspend
	Terminated
	Deleted
)

func (s Status) String() string {
	switch s {
	case Init:
		return "INIT"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Suspend:
		return "SUSPEND"
	case Terminated:
		return "TERMINATED"
	case Deleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Thread is spec.md §3's thread object. A Thread's intrusive node is
// linked in at most one of: a ready queue, an IPC wait list, or the
// kernel's termination list. Entry and Arg are immutable after Create;
// everything else is mutated only under the owning Kernel's critical
// section.
//
// Name and heapAllocated are SUPPLEMENTED FEATURES carried from
// original_source/src/thread.c's tdef.h (a diagnostic name) and its
// static/dynamic allocation split (so the reaper only frees a stack it
// itself allocated from the pool).
type Thread struct {
	node rtlist.Node[*Thread]

	id   uint64
	Name string

	entry func(arg any)
	arg   any

	stack         []byte
	heapAllocated bool

	priorityBit     uint32
	currentPriority int
	initPriority    int

	initSlice      uint32
	remainingSlice uint32

	status Status

	timer rttick.Timer
}

// ID returns a stable handle, satisfying arch.Thread.
func (t *Thread) ID() uint64 {
	return t.id
}

// Status returns the thread's current lifecycle tag.
func (t *Thread) Status() Status {
	return t.status
}

// CurrentPriority returns the thread's (possibly inheritance-boosted)
// priority.
func (t *Thread) CurrentPriority() int {
	return t.currentPriority
}

// InitPriority returns the thread's priority as configured at create
// time — the restore target for priority inheritance.
func (t *Thread) InitPriority() int {
	return t.initPriority
}

// Entry and Arg recover the thread body for an Arch collaborator
// (e.g. archsim) to run on first switch-in.
func (t *Thread) Entry() func(arg any) { return t.entry }
func (t *Thread) Arg() any             { return t.arg }
