package ipc

import (
	"github.com/joeycumines/go-rtos/kernel"
	"github.com/joeycumines/go-rtos/rtconfig"
	"github.com/joeycumines/go-rtos/rterr"
)

// Mutex is spec.md §4.H's mutex: owner-only release, one-level priority
// inheritance, and (when built via NewRecursiveMutex) recursive
// acquire/release counting. Grounded on
// original_source/src/ipc.c's t_mutex_recv_base/t_mutex_send_base, whose
// original_prio/DUMMY_PRIORITY sentinel becomes hasOriginalPrio below.
type Mutex struct {
	object
	recursive bool

	available       bool
	holder          *kernel.Thread
	heldCount       int
	originalPrio    int
	hasOriginalPrio bool
}

// NewMutex creates a non-recursive mutex; a second Acquire by the holder
// returns an error rather than nesting.
func NewMutex(k *kernel.Kernel, order kernel.WaitOrder) *Mutex {
	return &Mutex{object: newObject(k, order), available: true}
}

// NewRecursiveMutex creates a mutex whose holder may Acquire it again
// without blocking; each Acquire must be matched by a Release.
func NewRecursiveMutex(k *kernel.Kernel, order kernel.WaitOrder) *Mutex {
	return &Mutex{object: newObject(k, order), recursive: true, available: true}
}

// Delete invalidates the mutex, waking every waiter with rterr.ErrDeleted.
func (m *Mutex) Delete() {
	m.deleteObject()
}

// Holder returns the current owner, or nil if unheld.
func (m *Mutex) Holder() *kernel.Thread {
	return m.holder
}

// higherPriority reports whether a outranks b under k's configured
// priority convention.
func higherPriority(k *kernel.Kernel, a, b *kernel.Thread) bool {
	if k.Config().PriorityConvention == rtconfig.SmallerIsHigher {
		return a.CurrentPriority() < b.CurrentPriority()
	}
	return a.CurrentPriority() > b.CurrentPriority()
}

// Acquire takes the mutex, blocking up to timeout if it's held by
// another thread. A blocked acquirer boosts the holder's priority to its
// own (one-level inheritance, not chained) whenever it outranks the
// holder; the boost is undone by [Mutex.Release] once the original
// acquirer's recursion count drops to zero.
func (m *Mutex) Acquire(timeout Timeout) error {
	var w waitStep
	remaining := timeout
	for {
		mask := m.k.Enter()
		if !m.valid {
			m.k.Exit(mask)
			return rterr.ErrDeleted
		}
		cur := m.k.Current()

		if m.available {
			m.available = false
			m.holder = cur
			m.heldCount = 1
			m.originalPrio = cur.CurrentPriority()
			m.hasOriginalPrio = false
			m.k.Exit(mask)
			return nil
		}

		if m.holder == cur {
			if !m.recursive {
				m.k.Exit(mask)
				return rterr.New(rterr.ERR, "ipc: mutex already held by this thread")
			}
			if m.heldCount >= m.k.Config().RecursiveMutexMaxDepth {
				m.k.Exit(mask)
				return rterr.New(rterr.ERR, "ipc: recursive mutex max depth exceeded")
			}
			m.heldCount++
			m.k.Exit(mask)
			return nil
		}

		if remaining == NoWait {
			m.k.Exit(mask)
			return rterr.ErrBusy
		}

		if m.holder != nil && higherPriority(m.k, cur, m.holder) {
			if !m.hasOriginalPrio {
				m.originalPrio = m.holder.CurrentPriority()
				m.hasOriginalPrio = true
			}
			holder, boostTo := m.holder, cur.CurrentPriority()
			m.k.Exit(mask)
			m.k.SetPriority(holder, boostTo)
			continue
		}

		if w.self == nil {
			w.self = cur
		}
		m.suspend(&w, remaining)
		m.k.Exit(mask)
		m.k.RequestSwitch()

		if !m.valid {
			return rterr.ErrDeleted
		}
		if m.holder == w.self {
			return nil
		}
		next, ok, err := m.afterWake(&w, remaining)
		if !ok {
			return err
		}
		remaining = next
	}
}

// Release gives up the mutex. Only the current holder may call it; a
// recursive mutex must be released once per Acquire before it becomes
// available again. Restores the holder's priority if it was boosted by
// inheritance, then wakes the head waiter.
func (m *Mutex) Release() error {
	mask := m.k.Enter()
	if !m.valid {
		m.k.Exit(mask)
		return rterr.ErrDeleted
	}
	cur := m.k.Current()
	if cur != m.holder {
		m.k.Exit(mask)
		return rterr.ErrNotOwner
	}
	if m.recursive && m.heldCount > 1 {
		m.heldCount--
		m.k.Exit(mask)
		return nil
	}

	m.available = true
	m.holder = nil
	m.heldCount = 0
	restore, restoreTo := m.hasOriginalPrio, m.originalPrio
	m.hasOriginalPrio = false
	m.k.Exit(mask)

	if restore && cur.CurrentPriority() != restoreTo {
		m.k.SetPriority(cur, restoreTo)
	}

	mask = m.k.Enter()
	_, woke := m.k.ResumeHead(m.wait)
	m.k.Exit(mask)
	if woke {
		m.k.RequestSwitch()
	}
	return nil
}
