package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/inference-sim/dispatch-sim/sim/trace"
)

const (
	// MaxArrivalRate is the highest accepted mean arrival rate (requests/second).
	MaxArrivalRate = 10.0
	// DefaultNumServers is the fleet size.
	DefaultNumServers = 3
	// DefaultTraceCapacity is how many recent lifecycle events are retained.
	DefaultTraceCapacity = 100
)

// ArrivalConfig selects the inter-arrival process. Every process has mean gap 1/Rate.
type ArrivalConfig struct {
	Process string  // "poisson" (default), "constant", "gamma"
	CV      float64 // coefficient of variation for "gamma"; 0 means 1
}

// MixConfig weights the request types and sizes drawn by the generator.
// All-zero weights mean uniform over the three values.
type MixConfig struct {
	TypeWeights [3]float64 // indexed by RequestType
	SizeWeights [3]float64 // indexed by RequestSize
}

// SimConfig is the full configuration of one run.
type SimConfig struct {
	Policy          string        // "random", "round-robin", "smallest-queue"
	Rate            float64       // mean arrivals per second, 0 <= Rate <= MaxArrivalRate
	PendingCapacity int           // pending queue bound
	ServerCapacity  int           // per-server queue bound
	NumServers      int           // fleet size
	Seed            int64         // RNG master seed
	TimeScale       float64       // wall seconds per simulated second
	Arrival         ArrivalConfig // inter-arrival process
	Mix             MixConfig     // request type/size weights
	ServiceJitter   float64       // in [0,1); spread of IoBound/Mixed service times
	TraceLevel      string        // "none" or "events"
	TraceCapacity   int           // retained lifecycle events
}

// DefaultSimConfig returns the reference configuration: 3 servers,
// pending capacity 20, server capacity 10, real-time clock, no jitter.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Policy:          "round-robin",
		Rate:            1.0,
		PendingCapacity: DefaultPendingCapacity,
		ServerCapacity:  DefaultServerCapacity,
		NumServers:      DefaultNumServers,
		Seed:            42,
		TimeScale:       1.0,
		Arrival:         ArrivalConfig{Process: "poisson"},
		TraceLevel:      "none",
		TraceCapacity:   DefaultTraceCapacity,
	}
}

var validArrivalProcesses = map[string]bool{"": true, "poisson": true, "constant": true, "gamma": true}

// Validate rejects configurations the engine must not start with.
func (c *SimConfig) Validate() error {
	if _, err := ParsePolicy(c.Policy); err != nil {
		return err
	}
	if !isFinite(c.Rate) || c.Rate < 0 || c.Rate > MaxArrivalRate {
		return fmt.Errorf("arrival rate must be in [0, %v], got %v", MaxArrivalRate, c.Rate)
	}
	if c.PendingCapacity <= 0 {
		return fmt.Errorf("pending capacity must be > 0, got %d", c.PendingCapacity)
	}
	if c.ServerCapacity <= 0 {
		return fmt.Errorf("server capacity must be > 0, got %d", c.ServerCapacity)
	}
	if c.NumServers <= 0 {
		return fmt.Errorf("number of servers must be > 0, got %d", c.NumServers)
	}
	if !isFinite(c.TimeScale) || c.TimeScale <= 0 {
		return fmt.Errorf("time scale must be > 0, got %v", c.TimeScale)
	}
	if !validArrivalProcesses[c.Arrival.Process] {
		return fmt.Errorf("unknown arrival process %q", c.Arrival.Process)
	}
	if !isFinite(c.Arrival.CV) || c.Arrival.CV < 0 {
		return fmt.Errorf("arrival cv must be finite and non-negative, got %v", c.Arrival.CV)
	}
	if err := validateWeights("type", c.Mix.TypeWeights); err != nil {
		return err
	}
	if err := validateWeights("size", c.Mix.SizeWeights); err != nil {
		return err
	}
	if !isFinite(c.ServiceJitter) || c.ServiceJitter < 0 || c.ServiceJitter >= 1 {
		return fmt.Errorf("service jitter must be in [0, 1), got %v", c.ServiceJitter)
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	if c.TraceCapacity < 0 {
		return fmt.Errorf("trace capacity must be non-negative, got %d", c.TraceCapacity)
	}
	return nil
}

func validateWeights(kind string, w [3]float64) error {
	for i, v := range w {
		if !isFinite(v) || v < 0 {
			return fmt.Errorf("%s weight %d must be finite and non-negative, got %v", kind, i, v)
		}
	}
	return nil
}

// isFinite rejects NaN and ±Inf, which slip past ordered comparisons.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MeanInterArrival returns 1/Rate as a duration, or 0 when Rate is 0.
func (c *SimConfig) MeanInterArrival() time.Duration {
	if c.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.Rate)
}
