package cluster

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/inference-sim/dispatch-sim/sim"
)

// Distribution captures statistical summary of a metric.
type Distribution struct {
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
	Min   float64
	Max   float64
	Count int
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return Distribution{
		Mean:  sum / float64(len(sorted)),
		P50:   sim.CalculatePercentile(sorted, 50),
		P95:   sim.CalculatePercentile(sorted, 95),
		P99:   sim.CalculatePercentile(sorted, 99),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// RunMetrics holds fleet-level figures derived after a run.
type RunMetrics struct {
	ResponseTimeMs Distribution // arrival to completion, simulated milliseconds
	Throughput     float64      // processed per simulated second
	RejectionRate  float64      // rejected / total, 0 when nothing finished
	AbandonedRate  float64      // abandoned / created
	Balance        float64      // Jain's index over per-server completions
}

// CollectRunMetrics derives RunMetrics from a final report and the aggregator
// that produced it.
func CollectRunMetrics(report FinalReport, m *sim.Metrics) *RunMetrics {
	times := m.ResponseTimes()
	ms := make([]float64, len(times))
	for i, d := range times {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	raw := &RunMetrics{
		ResponseTimeMs: NewDistribution(ms),
		Throughput:     report.Metrics.Throughput,
		Balance:        JainFairnessIndex(report.Processed),
	}
	if report.Metrics.Total > 0 {
		raw.RejectionRate = float64(report.Metrics.Rejected) / float64(report.Metrics.Total)
	}
	if report.Created > 0 {
		raw.AbandonedRate = float64(report.Abandoned) / float64(report.Created)
	}
	return raw
}

// JainFairnessIndex returns (Σx)² / (n·Σx²): 1 when every server did the same
// work, 1/n when one server did all of it. Returns 0 for empty or all-zero input.
func JainFairnessIndex(counts []int64) float64 {
	var sum, sumSq float64
	for _, c := range counts {
		x := float64(c)
		sum += x
		sumSq += x * x
	}
	if sumSq == 0 {
		return 0
	}
	return sum * sum / (float64(len(counts)) * sumSq)
}

// Print writes the derived figures.
func (r *RunMetrics) Print(w io.Writer) {
	d := r.ResponseTimeMs
	fmt.Fprintln(w, "=== Fleet ===")
	fmt.Fprintf(w, "Response Time (ms)   : min %.0f, mean %.1f, p50 %.0f, p95 %.0f, p99 %.0f, max %.0f\n",
		d.Min, d.Mean, d.P50, d.P95, d.P99, d.Max)
	fmt.Fprintf(w, "Rejection Rate       : %.1f%%\n", 100*r.RejectionRate)
	fmt.Fprintf(w, "Abandoned Rate       : %.1f%%\n", 100*r.AbandonedRate)
	fmt.Fprintf(w, "Load Balance (Jain)  : %.3f\n", r.Balance)
}
