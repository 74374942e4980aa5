// Package timer provides the periodic-edge primitive the engine polls for
// every sender cadence and every receive watchdog. Rather than spawning
// its own goroutine and ticker per watchdog, a Timer here is a plain
// value stepped by the engine's single poll loop: the expiry math
// (now.Sub(last) >= period) stays simple, but ownership of the clock moves
// to the caller so six timers (three senders, three watchdogs) share one
// goroutine instead of six.
package timer

import "time"

// Timer is a periodic-edge clock. The zero value is stopped with a zero
// period; call Init before use. Not safe for concurrent use — each Timer
// is owned by exactly one goroutine (the engine loop).
type Timer struct {
	period  time.Duration
	last    time.Time
	running bool
	now     func() time.Time
}

// Init sets the timer's period in milliseconds. It does not start the
// timer.
func (t *Timer) Init(periodMS int64) {
	t.period = time.Duration(periodMS) * time.Millisecond
	if t.now == nil {
		t.now = time.Now
	}
}

// SetPeriod changes the period without affecting the running/stopped state
// or resetting the elapsed edge.
func (t *Timer) SetPeriod(periodMS int64) {
	t.period = time.Duration(periodMS) * time.Millisecond
}

// Start begins the timer, resetting its elapsed edge to now.
func (t *Timer) Start() {
	t.running = true
	t.last = t.clock()
}

// Stop halts the timer; IsExpired returns false while stopped.
func (t *Timer) Stop() {
	t.running = false
}

// Reset clears the elapsed edge back to zero without changing the
// running/stopped state.
func (t *Timer) Reset() {
	t.last = t.clock()
}

// IsExpired reports whether the configured period has elapsed since the
// last Start or Reset. It remains true on every call until Reset (or
// Start) is invoked again — a monotonic edge, not a one-shot pulse.
func (t *Timer) IsExpired() bool {
	if !t.running {
		return false
	}
	return t.clock().Sub(t.last) >= t.period
}

func (t *Timer) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}
