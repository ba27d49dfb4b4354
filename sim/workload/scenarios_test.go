package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/dispatch-sim/sim"
)

func TestPresets_ApplyToValidConfigs(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			sc, err := Preset(name)
			require.NoError(t, err)
			cfg := sim.DefaultSimConfig()
			require.NoError(t, sc.Apply(&cfg))
			assert.NoError(t, cfg.Validate())
			assert.Greater(t, cfg.Rate, 0.0)
		})
	}
}

func TestPreset_Bursty_UsesGamma(t *testing.T) {
	sc, err := Preset("bursty")
	require.NoError(t, err)
	cfg := sim.DefaultSimConfig()
	require.NoError(t, sc.Apply(&cfg))
	assert.Equal(t, "gamma", cfg.Arrival.Process)
	assert.Equal(t, 3.5, cfg.Arrival.CV)
}

func TestPreset_Unknown_Errors(t *testing.T) {
	_, err := Preset("black-friday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steady")
}
