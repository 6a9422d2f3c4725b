// Package queue bounds how many downloads run at once. Installs block in
// Acquire until a slot frees up, so a batch of mods trickles through at a
// fixed parallelism instead of saturating the link.
package queue

import (
	"context"
	"sync/atomic"
)

// Queue is a counting semaphore over download slots.
type Queue struct {
	slots  chan struct{}
	active atomic.Int64
}

// New creates a queue allowing up to size concurrent tasks. A size below one
// is treated as one.
func New(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{slots: make(chan struct{}, size)}
}

// Acquire blocks until a slot is free or ctx is done.
func (q *Queue) Acquire(ctx context.Context) error {
	select {
	case q.slots <- struct{}{}:
		q.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (q *Queue) Release() {
	q.active.Add(-1)
	<-q.slots
}

// Do runs fn while holding a slot.
func (q *Queue) Do(ctx context.Context, fn func() error) error {
	if err := q.Acquire(ctx); err != nil {
		return err
	}
	defer q.Release()
	return fn()
}

// Active returns how many tasks currently hold a slot.
func (q *Queue) Active() int {
	return int(q.active.Load())
}

// Size returns the queue's parallelism limit.
func (q *Queue) Size() int {
	return cap(q.slots)
}
