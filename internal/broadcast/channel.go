// Package broadcast implements an in-process fan-out channel. Every subscriber
// owns a bounded queue; when a subscriber falls behind, its oldest unread
// values are dropped so that publishers never block.
package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the per-subscriber queue size used when New is given a
// non-positive capacity.
const DefaultCapacity = 100

// ErrClosed is returned by Receive once the subscription has been closed and
// its queue drained.
var ErrClosed = errors.New("broadcast: subscription closed")

// Channel fans every published value out to all current subscribers.
// Publishes are serialized, so subscribers that keep up observe values in the
// order they were published.
type Channel[T any] struct {
	mu       sync.Mutex
	subs     map[*Subscription[T]]struct{}
	capacity int
}

// New creates a Channel whose subscribers buffer up to capacity values.
func New[T any](capacity int) *Channel[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Channel[T]{
		subs:     make(map[*Subscription[T]]struct{}),
		capacity: capacity,
	}
}

// Capacity returns the queue size given to each subscriber.
func (c *Channel[T]) Capacity() int {
	return c.capacity
}

// Subscribe registers a new subscriber. It only sees values published after
// Subscribe returns.
func (c *Channel[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{
		ch:     make(chan T, c.capacity),
		parent: c,
	}

	c.mu.Lock()
	c.subs[s] = struct{}{}
	c.mu.Unlock()

	return s
}

// Publish queues v for every current subscriber and returns how many
// subscribers it was queued for. It never waits on a slow subscriber.
func (c *Channel[T]) Publish(v T) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for s := range c.subs {
		s.offer(v)
	}
	return len(c.subs)
}

// Subscribers returns the number of open subscriptions.
func (c *Channel[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Subscription is one consumer side of a Channel.
type Subscription[T any] struct {
	ch      chan T
	parent  *Channel[T]
	once    sync.Once
	dropped atomic.Uint64
}

// offer enqueues v, evicting the oldest queued value when the queue is full.
// Must be called with the parent's lock held, which makes it the only sender.
func (s *Subscription[T]) offer(v T) {
	select {
	case s.ch <- v:
		return
	default:
	}

	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
		// the consumer freed a slot in the meantime
	}

	select {
	case s.ch <- v:
	default:
		s.dropped.Add(1)
	}
}

// C exposes the queue for use in select statements. It is closed by Close.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Receive blocks until a value is available, the subscription is closed or
// ctx is done.
func (s *Subscription[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-s.ch:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Dropped reports how many values this subscriber lost to overflow.
func (s *Subscription[T]) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unsubscribes. Values still queued can be drained; after that Receive
// returns ErrClosed. Close is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		c := s.parent
		c.mu.Lock()
		delete(c.subs, s)
		close(s.ch)
		c.mu.Unlock()
	})
}
