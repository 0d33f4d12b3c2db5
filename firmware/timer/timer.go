package timer

import "time"

// Timer is a non-blocking interval gate. Expired reports true at most once per elapsed interval and
// never while stopped. It is intended to be polled from a cooperative loop.
type Timer struct {
	interval time.Duration
	last     time.Time
	enabled  bool
	clock    Clock
}

// Option configures a Timer
type Option func(*Timer)

// WithClock sets the time source. The default is SystemClock
func WithClock(c Clock) Option {
	return func(t *Timer) {
		t.clock = c
	}
}

// New creates a Timer with the interval. If startNow is false, the Timer stays disabled until Start
func New(interval time.Duration, startNow bool, opts ...Option) *Timer {
	t := &Timer{
		interval: interval,
		clock:    SystemClock{},
	}
	for _, opt := range opts {
		opt(t)
	}

	if startNow {
		t.Start()
	}
	return t
}

// Start enables the Timer and resets the reference point to now
func (t *Timer) Start() {
	t.last = t.clock.Now()
	t.enabled = true
}

// Stop disables the Timer. The interval is kept
func (t *Timer) Stop() {
	t.enabled = false
}

// Reset moves the reference point to now without changing the enabled state
func (t *Timer) Reset() {
	t.last = t.clock.Now()
}

// Expired returns true when the Timer is enabled and the interval has elapsed since the last true
// result (or Start). A true result moves the reference point to now, so a long pause fires once
// instead of catching up.
func (t *Timer) Expired() bool {
	if !t.enabled {
		return false
	}

	now := t.clock.Now()
	if now.Sub(t.last) >= t.interval {
		t.last = now
		return true
	}
	return false
}

// SetInterval changes the interval. It applies on the next Expired check
func (t *Timer) SetInterval(interval time.Duration) {
	t.interval = interval
}

// Interval returns the configured interval
func (t *Timer) Interval() time.Duration {
	return t.interval
}

// IsRunning reports whether the Timer is enabled
func (t *Timer) IsRunning() bool {
	return t.enabled
}
