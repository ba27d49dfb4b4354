package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_ValidYAML_Applies(t *testing.T) {
	// GIVEN a scenario setting most sections
	path := writeScenario(t, `
policy: smallest-queue
rate: 7.5
seed: 9
servers: 4
queues:
  pending: 5
  server: 2
clock:
  time_scale: 0.1
arrival:
  process: gamma
  cv: 2
mix:
  types: {io-bound: 3, cpu-bound: 1}
  sizes: {large: 1}
service:
  jitter: 0.2
trace:
  level: events
  capacity: 50
`)

	// WHEN it is loaded and applied to the defaults
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	cfg := DefaultSimConfig()
	require.NoError(t, sc.Apply(&cfg))

	// THEN every set field overrides the default
	assert.Equal(t, "smallest-queue", cfg.Policy)
	assert.Equal(t, 7.5, cfg.Rate)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, 4, cfg.NumServers)
	assert.Equal(t, 5, cfg.PendingCapacity)
	assert.Equal(t, 2, cfg.ServerCapacity)
	assert.Equal(t, 0.1, cfg.TimeScale)
	assert.Equal(t, ArrivalConfig{Process: "gamma", CV: 2}, cfg.Arrival)
	assert.Equal(t, [3]float64{1, 3, 0}, cfg.Mix.TypeWeights)
	assert.Equal(t, [3]float64{0, 0, 1}, cfg.Mix.SizeWeights)
	assert.Equal(t, 0.2, cfg.ServiceJitter)
	assert.Equal(t, "events", cfg.TraceLevel)
	assert.Equal(t, 50, cfg.TraceCapacity)
	assert.NoError(t, cfg.Validate())
}

func TestLoadScenario_ZeroValueIsDistinctFromUnset(t *testing.T) {
	// GIVEN a scenario that explicitly sets rate to 0 and nothing else
	path := writeScenario(t, "rate: 0\n")
	sc, err := LoadScenario(path)
	require.NoError(t, err)

	cfg := DefaultSimConfig()
	require.NoError(t, sc.Apply(&cfg))

	// THEN rate is 0 and the untouched fields keep their defaults
	assert.Zero(t, cfg.Rate)
	assert.Equal(t, DefaultSimConfig().Seed, cfg.Seed)
	assert.Equal(t, DefaultSimConfig().Policy, cfg.Policy)
}

func TestLoadScenario_UnknownField_Errors(t *testing.T) {
	path := writeScenario(t, "polcy: random\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing scenario")
}

func TestLoadScenario_NonexistentFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading scenario")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, "rate: [unclosed\n")
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestScenario_Apply_UnknownMixName_Errors(t *testing.T) {
	sc := &Scenario{Mix: MixSection{Sizes: map[string]float64{"gigantic": 1}}}
	cfg := DefaultSimConfig()
	err := sc.Apply(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gigantic")
}

func TestScenario_Apply_DuplicateMixAliases_Errors(t *testing.T) {
	tests := []struct {
		name string
		mix  MixSection
		want string
	}{
		{"type aliases", MixSection{Types: map[string]float64{"cpu": 1, "cpu-bound": 3}}, "request type CpuBound"},
		{"size aliases", MixSection{Sizes: map[string]float64{"mid": 1, "medium": 2}}, "request size Mid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a mix naming the same value twice through different aliases
			sc := &Scenario{Mix: tt.mix}
			cfg := DefaultSimConfig()

			// WHEN applied
			err := sc.Apply(&cfg)

			// THEN the ambiguity is an error rather than an order-dependent weight
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_DuplicateMixAliases_ErrorOnApply(t *testing.T) {
	path := writeScenario(t, "mix:\n  types: {cpu: 1, cpu-bound: 3}\n")
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	cfg := DefaultSimConfig()
	assert.Error(t, sc.Apply(&cfg))
}
