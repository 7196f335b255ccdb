// Package queue provides a bounded FIFO whose slots stay reserved until the
// consumer reports that an item has been fully handled.
package queue

import (
	"context"
	"errors"
)

var (
	ErrFull      = errors.New("queue is full")
	ErrNoPending = errors.New("queue has no pending item")
)

// Queue is safe for concurrent producers and consumers.
//
// A slot is taken by TryPush/Push and returned by Done, not by Pop, so with a
// capacity of 1 a second item is refused while the first is still being
// processed.
type Queue[T any] struct {
	items chan T
	slots chan struct{}
}

func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		items: make(chan T, capacity),
		slots: make(chan struct{}, capacity),
	}
}

// TryPush never blocks. It returns ErrFull when every slot is held.
func (q *Queue[T]) TryPush(v T) error {
	select {
	case q.slots <- struct{}{}:
	default:
		return ErrFull
	}
	// items has the same capacity as slots, so this cannot block
	q.items <- v
	return nil
}

// Push waits for a free slot or for ctx to end.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	select {
	case q.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	q.items <- v
	return nil
}

// Pop blocks until an item is available or ctx ends. Items come out in the
// order they were pushed.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	select {
	case v := <-q.items:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done releases the slot held by one popped item.
func (q *Queue[T]) Done() error {
	select {
	case <-q.slots:
		return nil
	default:
		return ErrNoPending
	}
}

// Len is the number of items waiting to be popped.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Pending is the number of held slots: queued plus popped-but-not-done.
func (q *Queue[T]) Pending() int {
	return len(q.slots)
}

func (q *Queue[T]) Cap() int {
	return cap(q.slots)
}
