package testutil

import "sync"

// DeterministicClock is a millisecond clock for tests. Every call to Now
// advances it by a fixed step, so audit timestamps are predictable and
// strictly increasing.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	now   int64
}

// NewDeterministicClock creates a clock whose first Now returns start+step.
// A step of 0 is replaced by 1.
func NewDeterministicClock(start, step int64) *DeterministicClock {
	if step == 0 {
		step = 1
	}
	return &DeterministicClock{start: start, step: step, now: start}
}

// Now advances the clock and returns the new time in epoch milliseconds.
func (c *DeterministicClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.step
	return c.now
}

// Current returns the last value handed out without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its start value.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
