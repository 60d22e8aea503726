package ipc

import (
	"golang.org/x/exp/constraints"

	"github.com/joeycumines/go-rtos/kernel"
	"github.com/joeycumines/go-rtos/rterr"
)

// ring is a generic circular buffer, grounded on catrate/ring.go's
// read/write-cursor shape — here a plain modulo index rather than a
// power-of-2 mask, since queue capacities are caller-chosen, not rounded
// up. original_source/src/ipc.c's queue instead copies fixed-size byte
// records between head/tail/read_from/write_to offsets; ring generalizes
// that to an arbitrary element type.
type ring[T any] struct {
	buf  []T
	r, w int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) Len() int { return r.w - r.r }
func (r *ring[T]) Cap() int { return len(r.buf) }

func (r *ring[T]) Push(v T) {
	r.buf[wrap(r.w, len(r.buf))] = v
	r.w++
}

func (r *ring[T]) Pop() T {
	i := wrap(r.r, len(r.buf))
	v := r.buf[i]
	var zero T
	r.buf[i] = zero
	r.r++
	return v
}

// wrap folds i into [0, capacity).
func wrap[I constraints.Integer](i, capacity I) I {
	if capacity == 0 {
		return 0
	}
	m := i % capacity
	if m < 0 {
		m += capacity
	}
	return m
}

// Queue is spec.md §4.I's bounded message queue: Send blocks while full,
// Receive blocks while empty, both up to an optional timeout, and either
// side wakes the head of the shared wait list on progress — grounded on
// original_source/src/ipc.c's t_queue_send/t_queue_recv, which share a
// single wait_list between blocked senders and receivers and simply wake
// its head on every successful operation.
type Queue[T any] struct {
	object
	buf *ring[T]
}

// NewQueue creates a queue holding up to capacity items of type T.
func NewQueue[T any](k *kernel.Kernel, capacity int, order kernel.WaitOrder) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, rterr.ErrInvalid
	}
	return &Queue[T]{object: newObject(k, order), buf: newRing[T](capacity)}, nil
}

// Delete invalidates the queue, waking every waiter with rterr.ErrDeleted.
func (q *Queue[T]) Delete() {
	q.deleteObject()
}

// Len returns the number of items currently queued.
func (q *Queue[T]) Len() int { return q.buf.Len() }

// Cap returns the queue's fixed capacity.
func (q *Queue[T]) Cap() int { return q.buf.Cap() }

// Send enqueues item, blocking up to timeout while the queue is full.
func (q *Queue[T]) Send(item T, timeout Timeout) error {
	var w waitStep
	remaining := timeout
	for {
		mask := q.k.Enter()
		if !q.valid {
			q.k.Exit(mask)
			return rterr.ErrDeleted
		}
		if q.buf.Len() < q.buf.Cap() {
			q.buf.Push(item)
			_, woke := q.k.ResumeHead(q.wait)
			q.k.Exit(mask)
			if woke {
				q.k.RequestSwitch()
			}
			return nil
		}
		if remaining == NoWait {
			q.k.Exit(mask)
			return rterr.ErrBusy
		}
		if w.self == nil {
			w.self = q.k.Current()
		}
		q.suspend(&w, remaining)
		q.k.Exit(mask)
		q.k.RequestSwitch()

		next, ok, err := q.afterWake(&w, remaining)
		if !ok {
			return err
		}
		remaining = next
	}
}

// Receive dequeues the oldest item, blocking up to timeout while the
// queue is empty.
func (q *Queue[T]) Receive(timeout Timeout) (T, error) {
	var w waitStep
	remaining := timeout
	var zero T
	for {
		mask := q.k.Enter()
		if !q.valid {
			q.k.Exit(mask)
			return zero, rterr.ErrDeleted
		}
		if q.buf.Len() > 0 {
			item := q.buf.Pop()
			_, woke := q.k.ResumeHead(q.wait)
			q.k.Exit(mask)
			if woke {
				q.k.RequestSwitch()
			}
			return item, nil
		}
		if remaining == NoWait {
			q.k.Exit(mask)
			return zero, rterr.ErrBusy
		}
		if w.self == nil {
			w.self = q.k.Current()
		}
		q.suspend(&w, remaining)
		q.k.Exit(mask)
		q.k.RequestSwitch()

		next, ok, err := q.afterWake(&w, remaining)
		if !ok {
			return zero, err
		}
		remaining = next
	}
}
