package scheduler

import "time"

// CadenceTimer accumulates base ticks for one task.
type CadenceTimer struct {
	elapsed time.Duration
	period  time.Duration
}

// NewCadenceTimer returns a timer that is due immediately, so its task runs on
// the first pass of the loop.
func NewCadenceTimer(period time.Duration) CadenceTimer {
	return CadenceTimer{elapsed: period, period: period}
}

// Due reports whether the accumulated time has reached the period.
func (c *CadenceTimer) Due() bool {
	return c.elapsed >= c.period
}

// Reset drops the accumulator to zero. Any remainder past the period is
// discarded rather than carried into the next interval.
func (c *CadenceTimer) Reset() {
	c.elapsed = 0
}

// Advance adds d to the accumulator.
func (c *CadenceTimer) Advance(d time.Duration) {
	c.elapsed += d
}

// Elapsed returns the accumulated time.
func (c *CadenceTimer) Elapsed() time.Duration {
	return c.elapsed
}

// Period returns the configured period.
func (c *CadenceTimer) Period() time.Duration {
	return c.period
}
