package timer

import "time"

// Clock is the time source used by timers and everything timed through them
type Clock interface {
	Now() time.Time
}

// SystemClock reads the board (or host) clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock only moves when told to. It is used by tests and by the simulator's step mode.
// It is not safe for concurrent use.
type ManualClock struct {
	now time.Time
}

// NewManualClock creates a ManualClock starting at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Set moves the clock to t
func (c *ManualClock) Set(t time.Time) {
	c.now = t
}
