package cluster

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/dispatch-sim/sim"
	"github.com/inference-sim/dispatch-sim/sim/trace"
)

// ServerStatus is a display snapshot of one server.
type ServerStatus struct {
	ID        int           // 0-based index
	QueueLen  int           // requests waiting, excluding the one in service
	Capacity  int           // queue bound
	Busy      bool          // true while a request is in service
	Current   uint64        // ID of the request in service, 0 when idle
	Processed int64         // completions so far
	Workload  time.Duration // nominal service time queued plus in service
}

// Server owns one bounded queue and processes its requests strictly one at a time.
//
// States: Idle (suspended on the queue) -> Processing (sleeping on the clock)
// -> Idle, until the run's context ends.
type Server struct {
	id      int
	queue   *sim.BoundedQueue
	clock   sim.Clock
	metrics sim.MetricsRecorder
	trace   *trace.Recorder
	jitter  float64
	rng     *rand.Rand // owned by the Run goroutine

	// mu makes "pop head and mark busy" one step, so Load never observes a
	// request that has left the queue but is not yet counted as in service.
	mu        sync.Mutex
	current   *sim.Request
	processed int64
	workload  time.Duration
}

// NewServer creates an idle server with an empty queue of the given capacity.
// jitter in [0,1) spreads IoBound/Mixed service times; rng supplies the factor.
func NewServer(id, capacity int, clock sim.Clock, metrics sim.MetricsRecorder, rec *trace.Recorder, jitter float64, rng *rand.Rand) *Server {
	return &Server{
		id:      id,
		queue:   sim.NewBoundedQueue(capacity),
		clock:   clock,
		metrics: metrics,
		trace:   rec,
		jitter:  jitter,
		rng:     rng,
	}
}

// ID returns the server's 0-based index.
func (s *Server) ID() int {
	return s.id
}

// Enqueue offers req to the server's queue without blocking.
// Returns false when the queue is full.
func (s *Server) Enqueue(req *sim.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.queue.Offer(req) {
		return false
	}
	s.workload += req.Size.Nominal()
	return true
}

// Load returns queued requests plus the one in service.
func (s *Server) Load() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	load := s.queue.Len()
	if s.current != nil {
		load++
	}
	return load
}

// Status returns a display snapshot.
func (s *Server) Status() ServerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := ServerStatus{
		ID:        s.id,
		QueueLen:  s.queue.Len(),
		Capacity:  s.queue.Cap(),
		Busy:      s.current != nil,
		Processed: s.processed,
		Workload:  s.workload,
	}
	if s.current != nil {
		st.Current = s.current.ID
	}
	return st
}

// Queued returns a copy of the waiting requests, head first.
func (s *Server) Queued() []*sim.Request {
	return s.queue.Items()
}

// Run processes requests until ctx ends. A request already in service when
// ctx ends is finished and recorded before Run returns; queued ones are left
// for the caller to drain.
func (s *Server) Run(ctx context.Context) {
	for {
		req, ok := s.take(ctx)
		if !ok {
			logrus.Debugf("server %d: stopping after %d requests", s.id, s.Status().Processed)
			return
		}
		s.process(ctx, req)
	}
}

func (s *Server) take(ctx context.Context) (*sim.Request, bool) {
	for {
		if ctx.Err() != nil {
			return nil, false
		}
		if req, ok := s.claim(); ok {
			return req, true
		}
		select {
		case <-s.queue.Ready():
		case <-ctx.Done():
			return nil, false
		}
	}
}

// claim pops the head and marks it in service under one lock.
func (s *Server) claim() (*sim.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.queue.TryTake()
	if !ok {
		return nil, false
	}
	if s.current != nil {
		panic("Server.claim: already processing a request")
	}
	s.current = req
	return req, true
}

func (s *Server) process(ctx context.Context, req *sim.Request) {
	service := req.ServiceTime(s.jitterFactor(req))
	s.trace.Record(trace.Event{Kind: trace.EventStarted, RequestID: req.ID, Server: s.id, Clock: s.clock.Now()})
	logrus.Debugf("server %d: start #%d (%s, %v)", s.id, req.ID, req.Name(), service)

	// In-flight work always completes, so stopping never drops a started request.
	_ = s.clock.Sleep(context.WithoutCancel(ctx), service)

	done := s.clock.Now()
	responseTime := done.Sub(req.ArrivalTime)
	s.metrics.RecordProcessed(responseTime)

	s.mu.Lock()
	s.current = nil
	s.processed++
	s.workload -= req.Size.Nominal()
	if s.workload < 0 {
		panic("Server.process: negative outstanding workload")
	}
	s.mu.Unlock()

	s.trace.Record(trace.Event{Kind: trace.EventProcessed, RequestID: req.ID, Server: s.id, Clock: done, ResponseTime: responseTime})
	logrus.Debugf("server %d: done #%d, response time %v", s.id, req.ID, responseTime)
}

// jitterFactor returns 1 for CpuBound work or when jitter is off,
// otherwise a uniform factor in [1-jitter, 1+jitter].
func (s *Server) jitterFactor(req *sim.Request) float64 {
	if s.jitter == 0 || !req.Jitterable() || s.rng == nil {
		return 1
	}
	return 1 + (2*s.rng.Float64()-1)*s.jitter
}

// drain removes and returns everything still queued.
func (s *Server) drain() []*sim.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	left := s.queue.Drain()
	for _, r := range left {
		s.workload -= r.Size.Nominal()
	}
	return left
}
