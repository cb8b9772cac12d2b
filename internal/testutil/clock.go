// Package testutil holds deterministic helpers shared by the harness and
// its tests.
package testutil

import "sync"

// SeqClock is a thread-safe monotonic logical clock.
//
// The runner stamps every case event with a sequence number from a SeqClock
// so that reports and recorded runs are reproducible without wall-clock
// noise. It can be reset so the same selection produces identical sequences
// across runs, which keeps golden report files stable.
type SeqClock struct {
	mu  sync.Mutex
	seq int64
}

// NewSeqClock creates a clock starting at 0. The first call to Next
// returns 1.
func NewSeqClock() *SeqClock {
	return &SeqClock{}
}

// Next increments and returns the next sequence number.
func (c *SeqClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *SeqClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *SeqClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
