package sim

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario holds a run configuration loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and leave the base config alone.
// String fields use empty string for "not set".
type Scenario struct {
	Policy  string         `yaml:"policy"`
	Rate    *float64       `yaml:"rate"`
	Seed    *int64         `yaml:"seed"`
	Queues  QueuesSection  `yaml:"queues"`
	Servers *int           `yaml:"servers"`
	Clock   ClockSection   `yaml:"clock"`
	Arrival ArrivalSection `yaml:"arrival"`
	Mix     MixSection     `yaml:"mix"`
	Service ServiceSection `yaml:"service"`
	Trace   TraceSection   `yaml:"trace"`
}

// QueuesSection overrides queue capacities.
type QueuesSection struct {
	Pending *int `yaml:"pending"`
	Server  *int `yaml:"server"`
}

// ClockSection configures the simulation clock.
type ClockSection struct {
	TimeScale *float64 `yaml:"time_scale"`
}

// ArrivalSection configures the inter-arrival process.
type ArrivalSection struct {
	Process string   `yaml:"process"`
	CV      *float64 `yaml:"cv"`
}

// MixSection weights request types and sizes by name,
// e.g. types: {cpu-bound: 2, io-bound: 1}.
type MixSection struct {
	Types map[string]float64 `yaml:"types"`
	Sizes map[string]float64 `yaml:"sizes"`
}

// ServiceSection configures service-time variability.
type ServiceSection struct {
	Jitter *float64 `yaml:"jitter"`
}

// TraceSection configures lifecycle event retention.
type TraceSection struct {
	Level    string `yaml:"level"`
	Capacity *int   `yaml:"capacity"`
}

// LoadScenario reads and strictly parses a YAML scenario file.
// Unknown keys are errors so typos do not silently fall back to defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

// Apply overlays every field set in the scenario onto cfg.
// Returns an error for unknown request type or size names in the mix.
func (sc *Scenario) Apply(cfg *SimConfig) error {
	if sc.Policy != "" {
		cfg.Policy = sc.Policy
	}
	if sc.Rate != nil {
		cfg.Rate = *sc.Rate
	}
	if sc.Seed != nil {
		cfg.Seed = *sc.Seed
	}
	if sc.Queues.Pending != nil {
		cfg.PendingCapacity = *sc.Queues.Pending
	}
	if sc.Queues.Server != nil {
		cfg.ServerCapacity = *sc.Queues.Server
	}
	if sc.Servers != nil {
		cfg.NumServers = *sc.Servers
	}
	if sc.Clock.TimeScale != nil {
		cfg.TimeScale = *sc.Clock.TimeScale
	}
	if sc.Arrival.Process != "" {
		cfg.Arrival.Process = sc.Arrival.Process
	}
	if sc.Arrival.CV != nil {
		cfg.Arrival.CV = *sc.Arrival.CV
	}
	seenTypes := make(map[RequestType]string)
	for _, name := range sortedKeys(sc.Mix.Types) {
		t, err := ParseRequestType(name)
		if err != nil {
			return fmt.Errorf("mix: %w", err)
		}
		if prev, ok := seenTypes[t]; ok {
			return fmt.Errorf("mix: %q and %q both name request type %v", prev, name, t)
		}
		seenTypes[t] = name
		cfg.Mix.TypeWeights[t] = sc.Mix.Types[name]
	}
	seenSizes := make(map[RequestSize]string)
	for _, name := range sortedKeys(sc.Mix.Sizes) {
		s, err := ParseRequestSize(name)
		if err != nil {
			return fmt.Errorf("mix: %w", err)
		}
		if prev, ok := seenSizes[s]; ok {
			return fmt.Errorf("mix: %q and %q both name request size %v", prev, name, s)
		}
		seenSizes[s] = name
		cfg.Mix.SizeWeights[s] = sc.Mix.Sizes[name]
	}
	if sc.Service.Jitter != nil {
		cfg.ServiceJitter = *sc.Service.Jitter
	}
	if sc.Trace.Level != "" {
		cfg.TraceLevel = sc.Trace.Level
	}
	if sc.Trace.Capacity != nil {
		cfg.TraceCapacity = *sc.Trace.Capacity
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
