package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant a DeterministicClock reports before its first tick:
// 2023-10-13T18:48:09.472Z, or 1697222889472 Unix milliseconds.
var Epoch = time.UnixMilli(1697222889472).UTC()

// DeterministicClock is a wall clock for tests that advances by a fixed step
// on every call to Now.
//
// Used with clock.TimeSource it yields the seed sequence Epoch+step,
// Epoch+2*step, ... so ciphertexts are reproducible across runs and can be
// compared against golden files.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	now   time.Time
	step  time.Duration
	calls int64
}

// NewDeterministicClock creates a clock starting at Epoch that advances one
// millisecond per call.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(Epoch, time.Millisecond)
}

// NewDeterministicClockAt creates a clock starting at start advancing by step.
// A zero step freezes the clock.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{now: start, step: step}
}

// Now advances the clock by one step and returns the new time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	c.calls++
	return c.now
}

// Current returns the time of the last tick without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Calls reports how many times Now has been called.
func (c *DeterministicClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock to start.
func (c *DeterministicClock) Reset(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = start
	c.calls = 0
}
