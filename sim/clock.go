package sim

import (
	"context"
	"fmt"
	"time"
)

// Clock is the time base shared by every execution unit of a run.
// Now and the durations passed to Sleep are simulated time.
type Clock interface {
	// Now returns the current simulated time.
	Now() time.Time
	// Sleep suspends for d of simulated time. Returns ctx.Err() if ctx ends first.
	Sleep(ctx context.Context, d time.Duration) error
}

// ScaledClock maps simulated time onto wall time.
// Scale is wall seconds per simulated second: 1 runs in real time,
// 0.01 runs a 1000ms Large request in 10ms of wall time.
type ScaledClock struct {
	scale float64
	epoch time.Time // wall and simulated time coincide here
}

// NewScaledClock creates a clock anchored at the current wall time.
// Panics if scale <= 0.
func NewScaledClock(scale float64) *ScaledClock {
	if scale <= 0 {
		panic(fmt.Sprintf("NewScaledClock: scale must be > 0, got %v", scale))
	}
	return &ScaledClock{scale: scale, epoch: time.Now()}
}

// Scale returns the wall-per-simulated ratio.
func (c *ScaledClock) Scale() float64 {
	return c.scale
}

func (c *ScaledClock) Now() time.Time {
	wall := time.Since(c.epoch)
	return c.epoch.Add(time.Duration(float64(wall) / c.scale))
}

func (c *ScaledClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.ToWall(d))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ToWall converts a simulated duration to the wall duration it occupies.
func (c *ScaledClock) ToWall(d time.Duration) time.Duration {
	return time.Duration(float64(d) * c.scale)
}
