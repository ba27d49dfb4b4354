package workload

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/dispatch-sim/sim"
)

// EmitFunc receives each generated request. It must not block: the caller
// offers the request to the pending queue and records a rejection on failure.
type EmitFunc func(req *sim.Request)

// Generator produces an endless, timed sequence of requests at a mean rate.
// A Generator runs once; a new run needs a new Generator.
type Generator struct {
	rate    float64
	sampler ArrivalSampler // nil when rate is 0
	mix     *Mix
	clock   sim.Clock
	gapRNG  *rand.Rand
	mixRNG  *rand.Rand

	ids       *sim.RequestSequence
	generated atomic.Int64
	started   atomic.Bool
}

// NewGenerator creates a generator for cfg's rate, arrival process and mix.
// Random streams come from rng's arrivals and mix subsystems. IDs are drawn
// from ids, which may be shared with other request sources; nil means a
// private sequence.
func NewGenerator(cfg sim.SimConfig, clock sim.Clock, rng *sim.PartitionedRNG, ids *sim.RequestSequence) *Generator {
	if ids == nil {
		ids = &sim.RequestSequence{}
	}
	g := &Generator{
		ids:    ids,
		rate:   cfg.Rate,
		mix:    NewMix(cfg.Mix),
		clock:  clock,
		gapRNG: rng.ForSubsystem(sim.SubsystemArrivals),
		mixRNG: rng.ForSubsystem(sim.SubsystemMix),
	}
	if cfg.Rate > 0 {
		g.sampler = NewArrivalSampler(cfg.Arrival.Process, cfg.Rate, cfg.Arrival.CV)
	}
	return g
}

// Run emits requests until ctx is done. With a zero rate it returns at once.
// Panics if called twice.
func (g *Generator) Run(ctx context.Context, emit EmitFunc) {
	if !g.started.CompareAndSwap(false, true) {
		panic("Generator.Run called more than once")
	}
	if g.sampler == nil {
		logrus.Debugf("generator: rate is 0, no arrivals")
		return
	}
	logrus.Debugf("generator: %.2f req/s, mean gap %v", g.rate, time.Duration(float64(time.Second)/g.rate))
	for {
		gap := g.sampler.SampleGap(g.gapRNG)
		if err := g.clock.Sleep(ctx, gap); err != nil {
			logrus.Debugf("generator: stopping after %d requests", g.generated.Load())
			return
		}
		typ, size := g.mix.Draw(g.mixRNG)
		req := sim.NewRequest(g.ids.Next(), g.clock.Now(), typ, size)
		g.generated.Add(1)
		emit(req)
	}
}

// Generated returns how many requests have been emitted so far.
func (g *Generator) Generated() int64 {
	return g.generated.Load()
}
