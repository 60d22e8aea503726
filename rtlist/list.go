// Package rtlist provides a generic intrusive circular doubly-linked list.
//
// A "list" is a sentinel [Node] that never carries a value of its own.
// Callers embed a [Node] field in the structs they want to link (threads,
// timers, IPC wait entries) and pass a pointer to that field to the list's
// Push/Insert operations. A node belongs to at most one list at a time;
// [Node.Remove] detaches it and self-links it so a subsequent Remove is a
// harmless no-op. All operations are O(1) except [List.Len],
// [List.InsertSorted] and [List.Each], which walk the ring.
package rtlist

// Node is one link in a [List]. The zero value is an unlinked node.
type Node[T any] struct {
	next, prev *Node[T]
	list       *List[T]
	Value      T
}

// Linked reports whether n is currently a member of some list.
func (n *Node[T]) Linked() bool {
	return n.list != nil
}

// Remove detaches n from whatever list it belongs to. Safe to call on an
// already-unlinked node.
func (n *Node[T]) Remove() {
	if n.list == nil {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = n
	n.prev = n
	n.list = nil
}

// List is a circular doubly-linked list sentinel. The zero value is not
// ready for use; call [List.Init] or use [New].
type List[T any] struct {
	sentinel Node[T]
}

// New returns an initialized, empty list.
func New[T any]() *List[T] {
	l := new(List[T])
	l.Init()
	return l
}

// Init (re)initializes l as empty. Must be called before first use if l
// was not built with [New].
func (l *List[T]) Init() {
	l.sentinel.next = &l.sentinel
	l.sentinel.prev = &l.sentinel
	l.sentinel.list = l
}

// Empty reports whether the list has no linked nodes.
func (l *List[T]) Empty() bool {
	return l.sentinel.next == &l.sentinel
}

// Len walks the list and counts its nodes. O(n).
func (l *List[T]) Len() int {
	n := 0
	for cur := l.sentinel.next; cur != &l.sentinel; cur = cur.next {
		n++
	}
	return n
}

// Front returns the head node, or nil if the list is empty.
func (l *List[T]) Front() *Node[T] {
	if l.Empty() {
		return nil
	}
	return l.sentinel.next
}

// Back returns the tail node, or nil if the list is empty.
func (l *List[T]) Back() *Node[T] {
	if l.Empty() {
		return nil
	}
	return l.sentinel.prev
}

// PushBack links n at the tail, storing value on it.
func (l *List[T]) PushBack(n *Node[T], value T) {
	l.InsertBefore(n, &l.sentinel, value)
}

// PushFront links n at the head, storing value on it.
func (l *List[T]) PushFront(n *Node[T], value T) {
	l.InsertAfter(n, &l.sentinel, value)
}

// InsertBefore links n immediately before mark (mark must belong to l, or
// be l's sentinel), storing value on it.
func (l *List[T]) InsertBefore(n, mark *Node[T], value T) {
	n.Remove()
	n.Value = value
	n.list = l
	p := mark.prev
	n.prev = p
	n.next = mark
	p.next = n
	mark.prev = n
}

// InsertAfter links n immediately after mark (mark must belong to l, or be
// l's sentinel), storing value on it.
func (l *List[T]) InsertAfter(n, mark *Node[T], value T) {
	n.Remove()
	n.Value = value
	n.list = l
	nx := mark.next
	n.next = nx
	n.prev = mark
	mark.next = n
	nx.prev = n
}

// InsertSorted walks from the head and links n immediately before the
// first existing node for which less(value, existing.Value) is true,
// or at the tail if no such node exists — a stable insert that places n
// after any existing nodes that compare equal. O(n).
func (l *List[T]) InsertSorted(n *Node[T], value T, less func(a, b T) bool) {
	cur := l.sentinel.next
	for cur != &l.sentinel {
		if less(value, cur.Value) {
			l.InsertBefore(n, cur, value)
			return
		}
		cur = cur.next
	}
	l.PushBack(n, value)
}

// Each calls f for every linked node from head to tail, stopping early if f
// returns false. f may remove the node it was called with (and only that
// node) without corrupting the walk.
func (l *List[T]) Each(f func(*Node[T]) bool) {
	cur := l.sentinel.next
	for cur != &l.sentinel {
		next := cur.next
		if !f(cur) {
			return
		}
		cur = next
	}
}
