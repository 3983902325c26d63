package queue

import (
	"sync"
)

// Queue is a mutex-guarded FIFO. The session's deferred-callback machinery
// builds on it; values of any one type can be staged from several goroutines
// and drained in insertion order.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New returns an empty queue ready for use.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push stages one or more values at the tail.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Pop takes the value at the head, or the zero value when nothing is staged.
func (q *Queue[T]) Pop() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item
}

// Empty reports whether nothing is staged.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len reports how many values are staged.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops everything staged without yielding it.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}

// GetAndEmpty hands back everything staged in one slice and resets the queue,
// keeping the backing capacity for the next batch.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}
