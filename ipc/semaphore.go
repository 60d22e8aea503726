package ipc

import (
	"github.com/joeycumines/go-rtos/kernel"
	"github.com/joeycumines/go-rtos/rterr"
)

// Semaphore is spec.md §4.G's counting semaphore, grounded on
// original_source/src/ipc.c's t_sema_create/t_sema_send/t_sema_recv.
type Semaphore struct {
	object
	capacity int
	count    int
}

// NewSemaphore creates a semaphore bounded by capacity, starting at
// initCount, waking waiters in order.
func NewSemaphore(k *kernel.Kernel, capacity, initCount int, order kernel.WaitOrder) (*Semaphore, error) {
	if capacity <= 0 {
		return nil, rterr.ErrInvalid
	}
	if initCount < 0 || initCount > capacity {
		return nil, rterr.ErrInvalid
	}
	return &Semaphore{object: newObject(k, order), capacity: capacity, count: initCount}, nil
}

// Send releases the semaphore, waking the head waiter if any. Returns
// rterr.ErrBusy if already at capacity, rterr.ErrDeleted if deleted.
func (s *Semaphore) Send() error {
	mask := s.k.Enter()
	if !s.valid {
		s.k.Exit(mask)
		return rterr.ErrDeleted
	}
	if s.count >= s.capacity {
		s.k.Exit(mask)
		return rterr.ErrBusy
	}
	s.count++
	_, woke := s.k.ResumeHead(s.wait)
	s.k.Exit(mask)
	if woke {
		s.k.RequestSwitch()
	}
	return nil
}

// Count returns the current available count.
func (s *Semaphore) Count() int {
	return s.count
}

// Delete invalidates the semaphore, waking every waiter with
// rterr.ErrDeleted. spec.md §4.F "delete".
func (s *Semaphore) Delete() {
	s.deleteObject()
}

// Receive acquires the semaphore, blocking up to timeout if the count is
// zero. spec.md §4.F/§4.G.
func (s *Semaphore) Receive(timeout Timeout) error {
	var w waitStep
	remaining := timeout
	for {
		mask := s.k.Enter()
		if !s.valid {
			s.k.Exit(mask)
			return rterr.ErrDeleted
		}
		if s.count > 0 {
			s.count--
			s.k.Exit(mask)
			return nil
		}
		if remaining == NoWait {
			s.k.Exit(mask)
			return rterr.ErrBusy
		}
		if w.self == nil {
			w.self = s.k.Current()
		}
		s.suspend(&w, remaining)
		s.k.Exit(mask)
		s.k.RequestSwitch()

		next, ok, err := s.afterWake(&w, remaining)
		if !ok {
			return err
		}
		remaining = next
	}
}
