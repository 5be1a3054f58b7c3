package vm

import "time"

// systemClock is the default Clock, backed by the real monotonic clock.
type systemClock struct{}

func (systemClock) NowNano() int64 { return time.Now().UnixNano() }

// FakeClock is a manually-advanced Clock for deterministic tests of
// timeout-based quaint waits (spec.md §8's "fixed monotonic-clock
// observations" determinism property).
type FakeClock struct {
	now int64
}

func NewFakeClock(startNano int64) *FakeClock { return &FakeClock{now: startNano} }

func (c *FakeClock) NowNano() int64 { return c.now }

func (c *FakeClock) Advance(d time.Duration) { c.now += int64(d) }
