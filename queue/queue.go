// Package queue is an unbounded lock-free queue for many producers and one
// consumer.
package queue

import "sync/atomic"

type Queue[T any] struct {
	head atomic.Pointer[node[T]]
	// tail is owned by the consumer.
	tail *node[T]
	size atomic.Int64
}

type node[T any] struct {
	next    atomic.Pointer[node[T]]
	element T
}

func New[T any]() *Queue[T] {
	stub := &node[T]{}
	q := &Queue[T]{tail: stub}
	q.head.Store(stub)
	return q
}

// Push is safe from any goroutine.
func (q *Queue[T]) Push(v T) {
	n := &node[T]{element: v}
	prev := q.head.Swap(n)
	q.size.Add(1)
	prev.next.Store(n)
}

// Pop must only be called by the consumer. A push that has swapped the head
// but not yet linked its node is not visible until it finishes.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	n := q.tail.next.Load()
	if n == nil {
		return zero, false
	}
	q.tail = n
	el := n.element
	n.element = zero
	q.size.Add(-1)
	return el, true
}

func (q *Queue[T]) Empty() bool {
	return q.tail.next.Load() == nil
}

// Len is approximate while producers are active.
func (q *Queue[T]) Len() int {
	return int(q.size.Load())
}
