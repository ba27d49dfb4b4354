package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/inference-sim/dispatch-sim/sim/cluster"
	"github.com/inference-sim/dispatch-sim/sim/trace"
)

var (
	fullColor = color.New(color.FgRed, color.Bold)
	busyColor = color.New(color.FgYellow)
	idleColor = color.New(color.FgGreen)
)

// formatStatus renders one status line: totals, the pending queue, then each
// server as queued/capacity, outstanding workload and a busy marker.
// Full queues are red.
func formatStatus(st cluster.Status) string {
	var b strings.Builder
	m := st.Metrics
	fmt.Fprintf(&b, "[%6.1fs] total=%d processed=%d rejected=%d avg=%v thr=%.2f/s | pending %s",
		m.Elapsed.Seconds(), m.Total, m.Processed, m.Rejected, m.AvgResponseTime.Round(time.Millisecond), m.Throughput,
		queueGauge(st.PendingLen, st.PendingCapacity))
	for _, srv := range st.Servers {
		fmt.Fprintf(&b, " | S%d %s load %dms", srv.ID+1, queueGauge(srv.QueueLen, srv.Capacity), srv.Workload.Milliseconds())
		if srv.Busy {
			b.WriteString(busyColor.Sprintf(" #%d", srv.Current))
		} else {
			b.WriteString(idleColor.Sprint(" idle"))
		}
	}
	return b.String()
}

func queueGauge(n, capacity int) string {
	s := fmt.Sprintf("%d/%d", n, capacity)
	if n >= capacity {
		return fullColor.Sprint(s)
	}
	return s
}

func printStatus(w io.Writer, st cluster.Status) {
	fmt.Fprintln(w, formatStatus(st))
}

// printTrace writes event counts, the per-server assignment split and the
// retained event log.
func printTrace(w io.Writer, s *cluster.Simulation) {
	summary := s.TraceSummary()
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Events               : %d\n", summary.TotalEvents)
	kinds := make([]string, 0, len(summary.Counts))
	for k := range summary.Counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-10s: %d\n", k, summary.Counts[trace.EventKind(k)])
	}
	servers := make([]int, 0, len(summary.TargetDistribution))
	for id := range summary.TargetDistribution {
		servers = append(servers, id)
	}
	sort.Ints(servers)
	for _, id := range servers {
		fmt.Fprintf(w, "  Server %d assigned: %d\n", id+1, summary.TargetDistribution[id])
	}

	fmt.Fprintln(w, "=== Recent Events ===")
	for _, e := range s.RecentEvents() {
		fmt.Fprintln(w, e.String())
	}
}
