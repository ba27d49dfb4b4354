package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/dispatch-sim/sim"
	"github.com/inference-sim/dispatch-sim/sim/cluster"
)

func TestBuildConfig_FlagsOverrideScenarioOverridesPreset(t *testing.T) {
	// GIVEN the bursty preset, a scenario setting rate and servers, and an explicit --rate
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate: 3\nservers: 5\n"), 0o644))
	presetName, scenarioPath = "bursty", path
	t.Cleanup(func() { presetName, scenarioPath = "", "" })
	require.NoError(t, runCmd.Flags().Set("rate", "7"))
	t.Cleanup(func() {
		runCmd.Flags().Lookup("rate").Changed = false
		rate = sim.DefaultSimConfig().Rate
	})

	// WHEN the config is built
	cfg, err := buildConfig(runCmd)

	// THEN each layer wins over the one below it
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.Rate)
	assert.Equal(t, 5, cfg.NumServers)
	assert.Equal(t, "gamma", cfg.Arrival.Process)
	assert.Equal(t, sim.DefaultSimConfig().PendingCapacity, cfg.PendingCapacity)
}

func TestBuildConfig_InvalidFlag_Errors(t *testing.T) {
	require.NoError(t, runCmd.Flags().Set("servers", "0"))
	t.Cleanup(func() {
		runCmd.Flags().Lookup("servers").Changed = false
		numServers = sim.DefaultNumServers
	})
	_, err := buildConfig(runCmd)
	assert.Error(t, err)
}

func TestFormatStatus(t *testing.T) {
	color.NoColor = true
	st := cluster.Status{
		Metrics: sim.MetricsSnapshot{
			Total: 12, Processed: 10, Rejected: 2,
			AvgResponseTime: 412 * time.Millisecond, Throughput: 1.25, Elapsed: 8 * time.Second,
		},
		PendingLen:      20,
		PendingCapacity: 20,
		Servers: []cluster.ServerStatus{
			{ID: 0, QueueLen: 3, Capacity: 10, Busy: true, Current: 17, Workload: 1300 * time.Millisecond},
			{ID: 1, QueueLen: 0, Capacity: 10},
		},
	}

	got := formatStatus(st)

	assert.Equal(t, "[   8.0s] total=12 processed=10 rejected=2 avg=412ms thr=1.25/s | pending 20/20 | S1 3/10 load 1300ms #17 | S2 0/10 load 0ms idle", got)
}
