package game

import (
	"math/rand"
	"time"
)

// Clock supplies current time. Injected so tests can fix it.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

func (c *Coordinator) now() time.Time {
	if c != nil && c.clock != nil {
		return c.clock.Now()
	}
	return time.Now()
}

func (c *Coordinator) randomFloat() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	if c.rng != nil {
		return c.rng.Float64()
	}
	return rand.Float64()
}

func (c *Coordinator) randomIntn(n int) int {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	if c.rng != nil {
		return c.rng.Intn(n)
	}
	return rand.Intn(n)
}

// randomCoord draws one spawn-range coordinate uniformly.
func (c *Coordinator) randomCoord() float64 {
	min, max := c.cfg.SpawnMin, c.cfg.SpawnMax
	if max <= min {
		return min
	}
	return min + c.randomFloat()*(max-min)
}
