package cluster

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/dispatch-sim/sim"
	"github.com/inference-sim/dispatch-sim/sim/trace"
)

// Dispatcher drains the pending queue and hands each request to the server
// the balancer picks. A full server queue rejects the request; the balancer
// is not consulted again.
type Dispatcher struct {
	pending  *sim.BoundedQueue
	servers  []*Server
	balancer *sim.Balancer
	metrics  sim.MetricsRecorder
	trace    *trace.Recorder
	clock    sim.Clock

	dispatched atomic.Int64
}

// NewDispatcher wires a dispatcher between pending and servers.
// Panics if servers is empty.
func NewDispatcher(pending *sim.BoundedQueue, servers []*Server, balancer *sim.Balancer,
	metrics sim.MetricsRecorder, rec *trace.Recorder, clock sim.Clock) *Dispatcher {
	if len(servers) == 0 {
		panic("NewDispatcher: no servers")
	}
	return &Dispatcher{
		pending:  pending,
		servers:  servers,
		balancer: balancer,
		metrics:  metrics,
		trace:    rec,
		clock:    clock,
	}
}

// Run dispatches until ctx ends. Suspends while the pending queue is empty.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		req, ok := d.pending.Take(ctx)
		if !ok {
			logrus.Debugf("dispatcher: stopping after %d dispatches", d.dispatched.Load())
			return
		}
		d.Dispatch(req)
	}
}

// Dispatch routes one request. Returns the chosen server index and whether
// that server accepted it.
func (d *Dispatcher) Dispatch(req *sim.Request) (int, bool) {
	loads := make([]int, len(d.servers))
	for i, s := range d.servers {
		loads[i] = s.Load()
	}
	idx := d.balancer.Pick(loads)
	d.dispatched.Add(1)

	if d.servers[idx].Enqueue(req) {
		d.trace.Record(trace.Event{Kind: trace.EventAssigned, RequestID: req.ID, Server: idx, Clock: d.clock.Now()})
		logrus.Debugf("dispatcher: #%d -> server %d (%v, loads=%v)", req.ID, idx, d.balancer.Policy(), loads)
		return idx, true
	}

	d.metrics.RecordRejected(sim.RejectServer)
	d.trace.Record(trace.Event{Kind: trace.EventRejected, RequestID: req.ID, Server: idx, Stage: string(sim.RejectServer), Clock: d.clock.Now()})
	logrus.Debugf("dispatcher: #%d rejected, server %d queue full", req.ID, idx)
	return idx, false
}

// Dispatched returns how many requests have been routed, accepted or not.
func (d *Dispatcher) Dispatched() int64 {
	return d.dispatched.Load()
}
