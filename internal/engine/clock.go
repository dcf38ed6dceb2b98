package engine

import "sync/atomic"

// Clock numbers oracle probes with a strictly increasing sequence.
//
// A driver built from a snapshot starts its clock at the number of replayed
// edges, so a probe's seq equals its 1-based position in the edge log.
type Clock struct {
	seq atomic.Int64
}

// NewClockAt creates a new clock starting at a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
