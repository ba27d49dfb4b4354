package sim

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
)

// Policy is the closed set of balancing strategies. Selected once per run.
type Policy int

const (
	PolicyRandom Policy = iota
	PolicyRoundRobin
	PolicySmallestQueue
)

var policyNames = map[Policy]string{
	PolicyRandom:        "random",
	PolicyRoundRobin:    "round-robin",
	PolicySmallestQueue: "smallest-queue",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a CLI/config name to a Policy.
// Empty string defaults to round-robin.
func ParsePolicy(name string) (Policy, error) {
	if name == "" {
		return PolicyRoundRobin, nil
	}
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown balancing policy %q (valid: %v)", name, ValidPolicyNames())
}

// ValidPolicyNames returns the accepted policy names, sorted.
func ValidPolicyNames() []string {
	names := make([]string, 0, len(policyNames))
	for _, n := range policyNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Balancer picks a target server per request for one run.
//
// The round-robin cursor and the random source are owned here, not by any
// server, and every Pick runs under mu so concurrent callers never skip or
// repeat a cursor position.
type Balancer struct {
	mu          sync.Mutex
	policy      Policy
	numServers  int
	cursor      int
	rand        *rand.Rand
	assignments []int64
}

// NewBalancer creates a balancer over numServers servers.
// rng is only consulted by PolicyRandom. Panics if numServers <= 0.
func NewBalancer(policy Policy, numServers int, rng *rand.Rand) *Balancer {
	if numServers <= 0 {
		panic(fmt.Sprintf("NewBalancer: numServers must be > 0, got %d", numServers))
	}
	if _, ok := policyNames[policy]; !ok {
		panic(fmt.Sprintf("NewBalancer: unknown policy %d", int(policy)))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	return &Balancer{
		policy:      policy,
		numServers:  numServers,
		rand:        rng,
		assignments: make([]int64, numServers),
	}
}

// Policy returns the active policy.
func (b *Balancer) Policy() Policy {
	return b.policy
}

// Pick returns the index of the server that should receive the next request.
// loads[i] is server i's current load (queued plus in service); only
// PolicySmallestQueue reads it. Panics if len(loads) != numServers.
func (b *Balancer) Pick(loads []int) int {
	if len(loads) != b.numServers {
		panic(fmt.Sprintf("Balancer.Pick: got %d loads for %d servers", len(loads), b.numServers))
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var idx int
	switch b.policy {
	case PolicyRandom:
		idx = b.rand.Intn(b.numServers)
	case PolicyRoundRobin:
		idx = b.cursor
		b.cursor = (b.cursor + 1) % b.numServers
	case PolicySmallestQueue:
		idx = smallestIndex(loads)
	default:
		panic(fmt.Sprintf("Balancer.Pick: unhandled policy %v", b.policy))
	}
	b.assignments[idx]++
	return idx
}

// smallestIndex returns the index of the minimum load.
// Ties are broken by first occurrence (lowest index).
func smallestIndex(loads []int) int {
	best := 0
	for i := 1; i < len(loads); i++ {
		if loads[i] < loads[best] {
			best = i
		}
	}
	return best
}

// Assignments returns how many picks each server has received so far.
// Counts picks, not successful enqueues.
func (b *Balancer) Assignments() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int64, len(b.assignments))
	copy(out, b.assignments)
	return out
}
