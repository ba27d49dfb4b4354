package trace

import "sync"

// TraceLevel controls whether lifecycle events are retained.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents retains the most recent lifecycle events.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level    TraceLevel
	Capacity int // events retained; older ones are overwritten
}

// Recorder keeps a ring of recent events plus running per-kind counts.
// A nil *Recorder is valid and records nothing, so callers need no level checks.
//
// Thread-safety: safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	ring    []Event
	next    int
	full    bool
	counts  map[EventKind]int64
	targets map[int]int64 // server index -> assigned count
}

// NewRecorder returns a Recorder for config, or nil when tracing is off.
func NewRecorder(config TraceConfig) *Recorder {
	if config.Level != TraceLevelEvents || config.Capacity <= 0 {
		return nil
	}
	return &Recorder{
		ring:    make([]Event, config.Capacity),
		counts:  make(map[EventKind]int64),
		targets: make(map[int]int64),
	}
}

// Record appends an event, overwriting the oldest once the ring is full.
func (r *Recorder) Record(e Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ring[r.next] = e
	r.next = (r.next + 1) % len(r.ring)
	if r.next == 0 {
		r.full = true
	}
	r.counts[e.Kind]++
	if e.Kind == EventAssigned {
		r.targets[e.Server]++
	}
}

// Recent returns retained events, oldest first.
func (r *Recorder) Recent() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]Event, r.next)
		copy(out, r.ring[:r.next])
		return out
	}
	out := make([]Event, 0, len(r.ring))
	out = append(out, r.ring[r.next:]...)
	out = append(out, r.ring[:r.next]...)
	return out
}
