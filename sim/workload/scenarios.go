package workload

import (
	"fmt"
	"sort"

	"github.com/inference-sim/dispatch-sim/sim"
)

// Built-in scenario presets for common traffic patterns.
// Each returns a Scenario to Apply before any file or flag overrides.

// ScenarioSteady is moderate Poisson traffic the default fleet absorbs.
func ScenarioSteady() *sim.Scenario {
	return &sim.Scenario{
		Rate:    ptr(3.0),
		Arrival: sim.ArrivalSection{Process: "poisson"},
	}
}

// ScenarioBurstyTraffic uses Gamma-distributed arrivals with CV 3.5, so
// requests land in clumps that overflow queues a steady stream would not.
func ScenarioBurstyTraffic() *sim.Scenario {
	return &sim.Scenario{
		Rate:    ptr(5.0),
		Arrival: sim.ArrivalSection{Process: "gamma", CV: ptr(3.5)},
	}
}

// ScenarioOverload runs at the maximum rate with mostly large requests.
func ScenarioOverload() *sim.Scenario {
	return &sim.Scenario{
		Rate: ptr(sim.MaxArrivalRate),
		Mix: sim.MixSection{
			Sizes: map[string]float64{"small": 1, "mid": 2, "large": 7},
		},
	}
}

// ScenarioIOHeavy is dominated by IoBound work with jittered service times.
func ScenarioIOHeavy() *sim.Scenario {
	return &sim.Scenario{
		Rate:    ptr(6.0),
		Mix:     sim.MixSection{Types: map[string]float64{"io-bound": 8, "mixed": 1, "cpu-bound": 1}},
		Service: sim.ServiceSection{Jitter: ptr(0.5)},
	}
}

var presets = map[string]func() *sim.Scenario{
	"steady":   ScenarioSteady,
	"bursty":   ScenarioBurstyTraffic,
	"overload": ScenarioOverload,
	"io-heavy": ScenarioIOHeavy,
}

// PresetNames returns the preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns the named preset scenario.
func Preset(name string) (*sim.Scenario, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q; valid presets: %v", name, PresetNames())
	}
	return build(), nil
}

func ptr[T any](v T) *T {
	return &v
}
