package workload

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/dispatch-sim/sim"
)

// stepClock advances simulated time by exactly the requested sleep, without
// waiting on the wall clock.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

func newTestGenerator(rate float64, ids *sim.RequestSequence) (*Generator, *stepClock) {
	cfg := sim.DefaultSimConfig()
	cfg.Rate = rate
	clk := &stepClock{now: time.Unix(0, 0)}
	return NewGenerator(cfg, clk, sim.NewPartitionedRNG(sim.NewRunKey(cfg.Seed)), ids), clk
}

func TestGenerator_ZeroRate_ReturnsImmediately(t *testing.T) {
	g, _ := newTestGenerator(0, nil)
	done := make(chan struct{})
	go func() {
		g.Run(context.Background(), func(*sim.Request) { t.Error("emitted at rate 0") })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return at rate 0")
	}
	assert.Zero(t, g.Generated())
}

func TestGenerator_EmitsMonotonicIDsWithAdvancingArrival(t *testing.T) {
	// GIVEN a generator at 5 req/s on an instant clock
	g, clk := newTestGenerator(5, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WHEN 1000 requests are emitted
	var got []*sim.Request
	g.Run(ctx, func(r *sim.Request) {
		got = append(got, r)
		if len(got) == 1000 {
			cancel()
		}
	})

	// THEN IDs run 1..1000, arrival times never go backwards, and the mean
	// gap is 1/rate
	require.Len(t, got, 1000)
	for i, r := range got {
		assert.Equal(t, uint64(i+1), r.ID)
		if i > 0 {
			assert.False(t, r.ArrivalTime.Before(got[i-1].ArrivalTime))
		}
	}
	span := clk.Now().Sub(time.Unix(0, 0))
	assert.InDelta(t, 200*time.Millisecond, span/1000, float64(30*time.Millisecond))
	assert.Equal(t, int64(1000), g.Generated())
}

func TestGenerator_SharedSequence_NoCollisions(t *testing.T) {
	ids := &sim.RequestSequence{}
	ids.Next() // taken by another source
	g, _ := newTestGenerator(1, ids)
	ctx, cancel := context.WithCancel(context.Background())
	var first uint64
	g.Run(ctx, func(r *sim.Request) {
		first = r.ID
		cancel()
	})
	assert.Equal(t, uint64(2), first)
}

func TestGenerator_Deterministic(t *testing.T) {
	run := func() []sim.Request {
		g, _ := newTestGenerator(3, nil)
		ctx, cancel := context.WithCancel(context.Background())
		var out []sim.Request
		g.Run(ctx, func(r *sim.Request) {
			out = append(out, *r)
			if len(out) == 50 {
				cancel()
			}
		})
		return out
	}
	assert.Equal(t, run(), run())
}

func TestGenerator_SecondRun_Panics(t *testing.T) {
	g, _ := newTestGenerator(0, nil)
	g.Run(context.Background(), func(*sim.Request) {})
	assert.Panics(t, func() { g.Run(context.Background(), func(*sim.Request) {}) })
}
