package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === RunKey ===

// RunKey identifies the random streams of a simulation run.
// Two runs with the same RunKey and configuration draw the same arrival gaps,
// request mix, random-policy picks and jitter factors. Wall-clock scheduling
// still makes live runs differ in interleaving.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemArrivals drives inter-arrival gaps. Uses the master seed directly.
	SubsystemArrivals = "arrivals"

	// SubsystemMix drives request type/size draws.
	SubsystemMix = "mix"

	// SubsystemBalancer drives the random balancing policy.
	SubsystemBalancer = "balancer"
)

// SubsystemServer returns the subsystem name for server N (service-time jitter).
func SubsystemServer(id int) string {
	return fmt.Sprintf("server_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG hands out one isolated, deterministically seeded *rand.Rand per subsystem.
// None of the streams need to be cryptographically secure.
//
// Derivation: SubsystemArrivals uses the master seed; every other subsystem
// uses masterSeed XOR fnv1a64(name).
//
// Thread-safety: NOT thread-safe. Resolve every subsystem during setup, then
// hand each *rand.Rand to the single goroutine that owns it.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the cached RNG for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derived := int64(p.key)
	if name != SubsystemArrivals {
		derived ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(derived))
	p.subsystems[name] = rng
	return rng
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
