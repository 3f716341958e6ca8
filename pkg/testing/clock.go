package testing

import (
	"sync"
	"time"
)

// FakeClock is the time source of a Tester's context. Every frame trace
// timing is a difference of two readings: one at BeginFrame, one after
// declaration, and one after each of layout, paint, sweep and submit. A
// test sets those timings by advancing the clock from a build function, or
// by giving every reading a fixed step with SetStep.
type FakeClock struct {
	mu    sync.Mutex
	now   time.Time
	step  time.Duration
	reads int
}

// FakeClockEpoch is the time of the first reading of a new FakeClock.
var FakeClockEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFakeClock returns a clock at FakeClockEpoch with no step.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: FakeClockEpoch}
}

// Now returns the current time, then moves the clock on by the step.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	c.reads++
	return t
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// SetStep makes every later reading advance the clock by d. With a step s
// each frame phase takes s and a whole frame 6s.
func (c *FakeClock) SetStep(d time.Duration) {
	c.mu.Lock()
	c.step = d
	c.mu.Unlock()
}

// Reads returns how many times the clock has been read.
func (c *FakeClock) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
