// Tracks run-wide completion and rejection counters shared by the dispatcher and every server.

package sim

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// RejectStage names the queue boundary at which a request was turned away.
type RejectStage string

const (
	RejectPending RejectStage = "pending" // pending queue full at generation
	RejectServer  RejectStage = "server"  // chosen server's queue full at dispatch
)

// MetricsRecorder is the only surface execution units see of the aggregator.
type MetricsRecorder interface {
	RecordProcessed(responseTime time.Duration)
	RecordRejected(stage RejectStage)
	Snapshot() MetricsSnapshot
}

// MetricsSnapshot is a consistent point-in-time view of the counters.
// Total == Processed + Rejected holds for every snapshot.
type MetricsSnapshot struct {
	Total           int64
	Processed       int64
	Rejected        int64
	RejectedPending int64
	RejectedServer  int64
	ResponseTimeSum time.Duration
	AvgResponseTime time.Duration
	Throughput      float64 // processed requests per simulated second
	Elapsed         time.Duration
}

// Metrics aggregates completion/rejection events from concurrent writers.
// A single mutex covers every field, so a reader never sees Processed
// advanced without the matching ResponseTimeSum.
type Metrics struct {
	mu sync.Mutex

	clock   Clock
	start   time.Time
	end     time.Time // zero until Finalize
	elapsed time.Duration

	processed       int64
	rejectedPending int64
	rejectedServer  int64
	responseTimeSum time.Duration
	responseTimes   []time.Duration // per processed request, for percentiles
}

// NewMetrics creates an aggregator whose elapsed time starts now on clock.
func NewMetrics(clock Clock) *Metrics {
	return &Metrics{
		clock: clock,
		start: clock.Now(),
	}
}

// Start re-anchors elapsed time at the current clock time.
func (m *Metrics) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = m.clock.Now()
}

// RecordProcessed counts one completion with its arrival-to-completion time.
func (m *Metrics) RecordProcessed(responseTime time.Duration) {
	if responseTime < 0 {
		panic(fmt.Sprintf("Metrics.RecordProcessed: negative response time %v", responseTime))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
	m.responseTimeSum += responseTime
	m.responseTimes = append(m.responseTimes, responseTime)
}

// RecordRejected counts one admission rejection at the given stage.
func (m *Metrics) RecordRejected(stage RejectStage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch stage {
	case RejectPending:
		m.rejectedPending++
	case RejectServer:
		m.rejectedServer++
	default:
		panic(fmt.Sprintf("Metrics.RecordRejected: unknown stage %q", stage))
	}
}

// Snapshot returns the counters and derived values at one instant.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := m.elapsed
	if m.end.IsZero() {
		elapsed = m.clock.Now().Sub(m.start)
	}
	rejected := m.rejectedPending + m.rejectedServer
	snap := MetricsSnapshot{
		Total:           m.processed + rejected,
		Processed:       m.processed,
		Rejected:        rejected,
		RejectedPending: m.rejectedPending,
		RejectedServer:  m.rejectedServer,
		ResponseTimeSum: m.responseTimeSum,
		Elapsed:         elapsed,
	}
	if m.processed > 0 {
		snap.AvgResponseTime = m.responseTimeSum / time.Duration(m.processed)
	}
	if elapsed > 0 {
		snap.Throughput = float64(m.processed) / elapsed.Seconds()
	}
	return snap
}

// Finalize freezes elapsed time. Later records still count, but throughput
// is computed against the frozen elapsed time. Idempotent.
func (m *Metrics) Finalize() MetricsSnapshot {
	m.mu.Lock()
	if m.end.IsZero() {
		m.end = m.clock.Now()
		m.elapsed = m.end.Sub(m.start)
	}
	m.mu.Unlock()
	return m.Snapshot()
}

// ResponseTimePercentile returns the p-th percentile (0..100) of recorded
// response times, or 0 when nothing was processed.
func (m *Metrics) ResponseTimePercentile(p float64) time.Duration {
	data := m.ResponseTimes()
	if len(data) == 0 {
		return 0
	}
	sort.Slice(data, func(i, j int) bool { return data[i] < data[j] })
	return time.Duration(CalculatePercentile(data, p))
}

// ResponseTimes returns a copy of every recorded response time in completion order.
func (m *Metrics) ResponseTimes() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.responseTimes))
	copy(out, m.responseTimes)
	return out
}

// Print writes the end-of-run report.
func (m *Metrics) Print(w io.Writer) {
	snap := m.Snapshot()
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Elapsed              : %v\n", snap.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Total Requests       : %s\n", humanize.Comma(snap.Total))
	fmt.Fprintf(w, "Processed            : %s\n", humanize.Comma(snap.Processed))
	fmt.Fprintf(w, "Rejected             : %s (pending %s, server %s)\n",
		humanize.Comma(snap.Rejected), humanize.Comma(snap.RejectedPending), humanize.Comma(snap.RejectedServer))
	if snap.Processed > 0 {
		fmt.Fprintf(w, "Average Response Time: %v\n", snap.AvgResponseTime.Round(time.Millisecond))
		fmt.Fprintf(w, "P50 / P95 / P99      : %v / %v / %v\n",
			m.ResponseTimePercentile(50).Round(time.Millisecond),
			m.ResponseTimePercentile(95).Round(time.Millisecond),
			m.ResponseTimePercentile(99).Round(time.Millisecond))
		fmt.Fprintf(w, "Throughput           : %.2f req/s\n", snap.Throughput)
	}
}
