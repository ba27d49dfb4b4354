package trace

// TraceSummary aggregates statistics from a Recorder.
type TraceSummary struct {
	TotalEvents        int64
	Counts             map[EventKind]int64
	UniqueTargets      int
	TargetDistribution map[int]int64 // server index → count of requests assigned
}

// Summarize computes aggregate statistics over every event ever recorded,
// not only the retained window. Safe for a nil Recorder (returns zero-value fields).
func Summarize(r *Recorder) *TraceSummary {
	summary := &TraceSummary{
		Counts:             make(map[EventKind]int64),
		TargetDistribution: make(map[int]int64),
	}
	if r == nil {
		return summary
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for kind, n := range r.counts {
		summary.Counts[kind] = n
		summary.TotalEvents += n
	}
	for server, n := range r.targets {
		summary.TargetDistribution[server] = n
	}
	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
