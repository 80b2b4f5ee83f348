package silo

import (
	"sync/atomic"
	"time"
)

// Clock supplies audit timestamps in epoch milliseconds.
type Clock interface {
	Now() int64
}

// SystemClock reads wall time but never goes backwards: if the system clock
// steps back, Now keeps returning the last value until wall time catches up.
//
// Thread-safety: SystemClock is safe for concurrent use (atomic operations).
type SystemClock struct {
	last atomic.Int64
}

// NewSystemClock creates a wall clock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time in epoch milliseconds.
func (c *SystemClock) Now() int64 {
	now := time.Now().UnixMilli()
	for {
		last := c.last.Load()
		if now <= last {
			return last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}
