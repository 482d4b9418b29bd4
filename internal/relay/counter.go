package relay

import "sync/atomic"

// Counter counts envelopes handed to client connections.
type Counter struct {
	n atomic.Uint64
}

// Increment records one delivery.
func (c *Counter) Increment() {
	c.n.Add(1)
}

// Load returns the current count.
func (c *Counter) Load() uint64 {
	return c.n.Load()
}

// Reset sets the count back to zero. Rooms are left untouched.
func (c *Counter) Reset() {
	c.n.Store(0)
}
