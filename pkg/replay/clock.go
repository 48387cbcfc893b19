package replay

import "time"

// Clock is a deterministic time source: each call to Now advances by a
// fixed Step from a fixed Base, so two runs seeded with the same Base/Step
// observe an identical sequence of timestamps (spec §4.9/C10). Grounded
// on the injectable-clock idiom used throughout this engine (crypto.Signer,
// ledger.Store, ledger.Rotator all accept a `func() time.Time`).
type Clock struct {
	base  time.Time
	step  time.Duration
	ticks int
}

// NewClock returns a Clock starting at base and advancing by step on every
// call to Now.
func NewClock(base time.Time, step time.Duration) *Clock {
	return &Clock{base: base, step: step}
}

// Now returns the next deterministic timestamp and advances the clock.
func (c *Clock) Now() time.Time {
	t := c.base.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return t
}

// Reset rewinds the clock to its initial state, for replaying the same
// sequence of operations a second time from scratch.
func (c *Clock) Reset() {
	c.ticks = 0
}

// Ticks reports how many times Now has been called since the last Reset.
func (c *Clock) Ticks() int {
	return c.ticks
}
