// Package counter tracks how many public generation and search calls the
// service has handled since start or the last reset. Each such call counts
// once on entry, before its input is validated, so rejected calls count too.
package counter

import "sync/atomic"

type Counter struct {
	n          atomic.Uint64
	countReads bool
}

type Option func(*Counter)

// WithCountedReads makes Get count itself before reporting, so a fresh
// counter reads 1. Off by default.
func WithCountedReads() Option {
	return func(c *Counter) { c.countReads = true }
}

func New(opts ...Option) *Counter {
	c := &Counter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Increment adds one and returns the new value.
func (c *Counter) Increment() uint64 { return c.n.Add(1) }

func (c *Counter) Get() uint64 {
	if c.countReads {
		return c.n.Add(1)
	}
	return c.n.Load()
}

// Reset sets the counter to zero. In counted-reads mode the reset call
// counts itself first, which a store of zero makes unobservable.
func (c *Counter) Reset() { c.n.Store(0) }
