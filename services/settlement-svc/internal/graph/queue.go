// Package graph builds the settlement flow network and provides the
// traversal primitives used by the max-flow engine.
//
// The network has one synthetic source feeding every debtor, one synthetic
// sink fed by every creditor, and a full mesh of unbounded edges between
// ordinary participants. Capacities live on nodes: the residual of an edge
// u -> v is the residual of v, except for edges leaving the source, whose
// capacity and flow are kept per debtor in the network's source edge list.
package graph

// =============================================================================
// Queue Implementation
// =============================================================================

// link is a node of the doubly linked list backing Queue.
type link[T any] struct {
	val  T
	next *link[T]
	prev *link[T]
}

// Queue is a FIFO container backed by a doubly linked list.
// It is the BFS frontier of the max-flow engine.
//
// Enqueue and Dequeue are O(1). Contains is O(n).
// The zero value is an empty queue ready to use.
type Queue[T comparable] struct {
	head *link[T]
	tail *link[T]
	size int
}

// NewQueue creates an empty queue.
func NewQueue[T comparable]() *Queue[T] {
	return &Queue[T]{}
}

// Enqueue appends v at the back of the queue.
func (q *Queue[T]) Enqueue(v T) {
	l := &link[T]{val: v, prev: q.tail}
	if q.size == 0 {
		q.head = l
	} else {
		q.tail.next = l
	}
	q.tail = l
	q.size++
}

// Dequeue removes and returns the front element.
// The boolean is false when the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}

	v := q.head.val
	if q.size == 1 {
		q.head = nil
		q.tail = nil
	} else {
		q.head = q.head.next
		q.head.prev = nil
	}
	q.size--
	return v, true
}

// Front returns the front element without removing it.
func (q *Queue[T]) Front() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	return q.head.val, true
}

// IsEmpty reports whether the queue holds no elements.
func (q *Queue[T]) IsEmpty() bool {
	return q.size == 0
}

// Len returns the number of elements in the queue.
func (q *Queue[T]) Len() int {
	return q.size
}

// Contains reports whether v is in the queue.
func (q *Queue[T]) Contains(v T) bool {
	for l := q.head; l != nil; l = l.next {
		if l.val == v {
			return true
		}
	}
	return false
}

// Values returns the elements from front to back.
func (q *Queue[T]) Values() []T {
	values := make([]T, 0, q.size)
	for l := q.head; l != nil; l = l.next {
		values = append(values, l.val)
	}
	return values
}

// Reset empties the queue.
func (q *Queue[T]) Reset() {
	q.head = nil
	q.tail = nil
	q.size = 0
}
