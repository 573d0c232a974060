package testutil

import "sync"

// StepClock is a deterministic millisecond clock for tests.
//
// Every call to Now returns a strictly larger timestamp than the last, so
// rows written one after another get distinct, ordered modification times
// without depending on wall-clock resolution.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	now   int64
}

// NewStepClock creates a clock whose first Now returns start+step.
func NewStepClock(start, step int64) *StepClock {
	if step <= 0 {
		step = 1
	}
	return &StepClock{start: start, step: step, now: start}
}

// Now advances the clock by one step and returns the new time.
// Its signature matches store.WithClock.
func (c *StepClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.step
	return c.now
}

// Current returns the last timestamp handed out without advancing.
func (c *StepClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its start.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
