// Package cluster runs a live simulation of a small server fleet.
//
// One goroutine each for the arrival generator, the dispatcher and every
// server; the metrics aggregator and trace recorder are shared, lock-protected
// sinks. Simulation owns their lifecycle.
package cluster

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/dispatch-sim/sim"
	"github.com/inference-sim/dispatch-sim/sim/trace"
	"github.com/inference-sim/dispatch-sim/sim/workload"
)

type runState int

const (
	stateIdle runState = iota
	stateRunning
	stateStopped
)

// Status is a live view of the whole fleet for display.
type Status struct {
	Metrics         sim.MetricsSnapshot
	Created         uint64 // requests generated or submitted so far
	Generated       int64  // of Created, emitted by the arrival generator
	Dispatched      int64  // requests routed to a server, accepted or not
	PendingLen      int
	PendingCapacity int
	Servers         []ServerStatus
}

// InFlight returns requests created but not yet processed or rejected.
func (st Status) InFlight() int64 {
	return int64(st.Created) - st.Metrics.Total
}

// FinalReport is the outcome of a stopped run.
//
// Requests in service when Stop was called are completed and counted in
// Metrics. Requests still waiting in a queue are Abandoned: they are not part
// of Metrics.Total, and Created == Processed + Rejected + Abandoned.
type FinalReport struct {
	Metrics     sim.MetricsSnapshot
	Created     uint64
	Generated   int64 // of Created, from the arrival generator; the rest were submitted
	Dispatched  int64
	Abandoned   int64
	Assignments []int64 // balancer picks per server
	Processed   []int64 // completions per server
}

// Simulation wires a generator, a pending queue, a dispatcher and N servers
// for one run. A Simulation starts at most once.
type Simulation struct {
	cfg        sim.SimConfig
	policy     sim.Policy
	clock      *sim.ScaledClock
	metrics    *sim.Metrics
	trace      *trace.Recorder
	ids        *sim.RequestSequence
	pending    *sim.BoundedQueue
	servers    []*Server
	balancer   *sim.Balancer
	dispatcher *Dispatcher
	generator  *workload.Generator

	mu     sync.Mutex
	state  runState
	cancel context.CancelFunc
	group  *errgroup.Group
	final  *FinalReport
}

// New validates cfg and builds every component. Nothing runs until Start.
func New(cfg sim.SimConfig) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	policy, err := sim.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	clock := sim.NewScaledClock(cfg.TimeScale)
	metrics := sim.NewMetrics(clock)
	rec := trace.NewRecorder(trace.TraceConfig{Level: trace.TraceLevel(cfg.TraceLevel), Capacity: cfg.TraceCapacity})
	rng := sim.NewPartitionedRNG(sim.NewRunKey(cfg.Seed))
	ids := &sim.RequestSequence{}

	servers := make([]*Server, cfg.NumServers)
	for i := range servers {
		servers[i] = NewServer(i, cfg.ServerCapacity, clock, metrics, rec, cfg.ServiceJitter,
			rng.ForSubsystem(sim.SubsystemServer(i)))
	}
	pending := sim.NewBoundedQueue(cfg.PendingCapacity)
	balancer := sim.NewBalancer(policy, cfg.NumServers, rng.ForSubsystem(sim.SubsystemBalancer))

	return &Simulation{
		cfg:        cfg,
		policy:     policy,
		clock:      clock,
		metrics:    metrics,
		trace:      rec,
		ids:        ids,
		pending:    pending,
		servers:    servers,
		balancer:   balancer,
		dispatcher: NewDispatcher(pending, servers, balancer, metrics, rec, clock),
		generator:  workload.NewGenerator(cfg, clock, rng, ids),
	}, nil
}

// Start launches the generator, the dispatcher and every server.
// Cancelling ctx halts them as Stop would; Stop must still be called to
// finalize the report. Returns an error if the simulation was already started.
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateIdle {
		return fmt.Errorf("simulation already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	s.cancel = cancel
	s.group = g
	s.state = stateRunning
	s.metrics.Start()

	for _, srv := range s.servers {
		srv := srv
		g.Go(func() error {
			srv.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		s.dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		s.generator.Run(gctx, func(req *sim.Request) { s.admit(req) })
		return nil
	})

	logrus.Infof("simulation started: policy=%v rate=%.2f req/s servers=%d pending-cap=%d server-cap=%d time-scale=%v",
		s.policy, s.cfg.Rate, s.cfg.NumServers, s.cfg.PendingCapacity, s.cfg.ServerCapacity, s.cfg.TimeScale)
	return nil
}

// admit offers a freshly created request to the pending queue.
// A full queue counts a pending-stage rejection.
func (s *Simulation) admit(req *sim.Request) bool {
	s.trace.Record(trace.Event{Kind: trace.EventCreated, RequestID: req.ID, Server: trace.NoServer, Clock: req.ArrivalTime})
	if s.pending.Offer(req) {
		return true
	}
	s.metrics.RecordRejected(sim.RejectPending)
	s.trace.Record(trace.Event{Kind: trace.EventRejected, RequestID: req.ID, Server: trace.NoServer, Stage: string(sim.RejectPending), Clock: req.ArrivalTime})
	logrus.Debugf("pending queue full, rejected #%d", req.ID)
	return false
}

// Submit injects one request alongside the generator, stamped with the
// current simulated time. Returns the request and whether the pending queue
// accepted it. After Stop nothing is created and (nil, false) is returned.
func (s *Simulation) Submit(typ sim.RequestType, size sim.RequestSize) (*sim.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateStopped {
		return nil, false
	}
	req := sim.NewRequest(s.ids.Next(), s.clock.Now(), typ, size)
	return req, s.admit(req)
}

// Stop halts every execution unit and returns the final report.
// It waits for requests in service to complete, abandons queued ones, and
// checks that every created request is accounted for. Safe to call at any
// time and more than once; later calls return the same report.
func (s *Simulation) Stop() FinalReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.final != nil {
		return *s.final
	}
	if s.state == stateRunning {
		s.cancel()
		_ = s.group.Wait()
	}
	s.state = stateStopped

	abandoned := int64(len(s.pending.Drain()))
	for _, srv := range s.servers {
		abandoned += int64(len(srv.drain()))
	}
	snap := s.metrics.Finalize()
	created := s.ids.Issued()
	generated := s.generator.Generated()
	if generated > int64(created) {
		panic(fmt.Sprintf("Simulation.Stop: generated %d exceeds created %d", generated, created))
	}
	if int64(created) != snap.Total+abandoned {
		panic(fmt.Sprintf("Simulation.Stop: created %d != processed %d + rejected %d + abandoned %d",
			created, snap.Processed, snap.Rejected, abandoned))
	}

	report := FinalReport{
		Metrics:     snap,
		Created:     created,
		Generated:   generated,
		Dispatched:  s.dispatcher.Dispatched(),
		Abandoned:   abandoned,
		Assignments: s.balancer.Assignments(),
		Processed:   make([]int64, len(s.servers)),
	}
	for i, srv := range s.servers {
		report.Processed[i] = srv.Status().Processed
	}
	s.final = &report
	logrus.Infof("simulation stopped: processed=%d rejected=%d abandoned=%d elapsed=%v",
		snap.Processed, snap.Rejected, abandoned, snap.Elapsed)
	return report
}

// Snapshot returns the current metrics.
func (s *Simulation) Snapshot() sim.MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Status returns metrics plus live queue lengths for display.
func (s *Simulation) Status() Status {
	st := Status{
		Metrics:         s.metrics.Snapshot(),
		Created:         s.ids.Issued(),
		Generated:       s.generator.Generated(),
		Dispatched:      s.dispatcher.Dispatched(),
		PendingLen:      s.pending.Len(),
		PendingCapacity: s.pending.Cap(),
		Servers:         make([]ServerStatus, len(s.servers)),
	}
	for i, srv := range s.servers {
		st.Servers[i] = srv.Status()
	}
	return st
}

// PendingRequests returns a copy of the pending queue, head first.
func (s *Simulation) PendingRequests() []*sim.Request {
	return s.pending.Items()
}

// RecentEvents returns retained lifecycle events, oldest first.
// Empty unless the trace level is "events".
func (s *Simulation) RecentEvents() []trace.Event {
	return s.trace.Recent()
}

// TraceSummary aggregates every lifecycle event recorded so far.
func (s *Simulation) TraceSummary() *trace.TraceSummary {
	return trace.Summarize(s.trace)
}

// Metrics exposes the aggregator for percentile queries and printing.
func (s *Simulation) Metrics() *sim.Metrics {
	return s.metrics
}

// Print writes the end-of-run report.
func (r FinalReport) Print(w io.Writer, m *sim.Metrics) {
	m.Print(w)
	fmt.Fprintf(w, "Created              : %d (generated %d, submitted %d)\n",
		r.Created, r.Generated, int64(r.Created)-r.Generated)
	fmt.Fprintf(w, "Dispatched           : %d\n", r.Dispatched)
	fmt.Fprintf(w, "Abandoned at stop    : %d\n", r.Abandoned)
	for i := range r.Processed {
		fmt.Fprintf(w, "Server %d             : assigned %d, processed %d\n", i+1, r.Assignments[i], r.Processed[i])
	}
	if r.Metrics.Processed > 0 {
		CollectRunMetrics(r, m).Print(w)
	}
}
