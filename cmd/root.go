package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/dispatch-sim/sim"
	"github.com/inference-sim/dispatch-sim/sim/cluster"
	"github.com/inference-sim/dispatch-sim/sim/workload"
)

var (
	// CLI flags for the run
	policy          string        // Load-balancing policy
	rate            float64       // Requests arrival per second
	duration        time.Duration // Simulated run length, 0 runs until interrupted
	pendingCapacity int           // Pending queue bound
	serverCapacity  int           // Per-server queue bound
	numServers      int           // Fleet size
	seed            int64         // Seed for arrivals, mix and random policy
	timeScale       float64       // Wall seconds per simulated second
	arrivalProcess  string        // Inter-arrival process
	arrivalCV       float64       // Coefficient of variation for gamma arrivals
	serviceJitter   float64       // Service-time spread for IoBound/Mixed requests
	traceLevel      string        // Lifecycle event retention
	traceCapacity   int           // Events kept in the log
	statusInterval  time.Duration // Wall time between status lines, 0 disables
	logLevel        string        // Log verbosity level
	scenarioPath    string        // Optional YAML scenario
	presetName      string        // Optional built-in scenario
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dispatch-sim",
	Short: "Live simulator of request dispatch across a small server fleet",
}

// runCmd executes the simulation using parameters from a scenario file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dispatch simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		s, err := cluster.New(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("mean inter-arrival %v, %d servers, policy %s", cfg.MeanInterArrival(), cfg.NumServers, cfg.Policy)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := s.Start(ctx); err != nil {
			logrus.Fatalf("%v", err)
		}

		waitForEnd(ctx, s, cfg)
		if ctx.Err() != nil {
			logrus.Warn("interrupted, stopping simulation")
		}

		report := s.Stop()
		report.Print(os.Stdout, s.Metrics())
		if cfg.TraceLevel == "events" {
			printTrace(os.Stdout, s)
		}
	},
}

// buildConfig layers defaults, then the preset, then the scenario file, then
// explicitly set flags.
func buildConfig(cmd *cobra.Command) (sim.SimConfig, error) {
	cfg := sim.DefaultSimConfig()
	if presetName != "" {
		sc, err := workload.Preset(presetName)
		if err != nil {
			return cfg, err
		}
		if err := sc.Apply(&cfg); err != nil {
			return cfg, err
		}
	}
	if scenarioPath != "" {
		sc, err := sim.LoadScenario(scenarioPath)
		if err != nil {
			return cfg, err
		}
		if err := sc.Apply(&cfg); err != nil {
			return cfg, err
		}
		logrus.Infof("loaded scenario %s", scenarioPath)
	}

	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("rate") {
		cfg.Rate = rate
	}
	if flags.Changed("pending-capacity") {
		cfg.PendingCapacity = pendingCapacity
	}
	if flags.Changed("server-capacity") {
		cfg.ServerCapacity = serverCapacity
	}
	if flags.Changed("servers") {
		cfg.NumServers = numServers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("time-scale") {
		cfg.TimeScale = timeScale
	}
	if flags.Changed("arrival") {
		cfg.Arrival.Process = arrivalProcess
	}
	if flags.Changed("arrival-cv") {
		cfg.Arrival.CV = arrivalCV
	}
	if flags.Changed("jitter") {
		cfg.ServiceJitter = serviceJitter
	}
	if flags.Changed("trace") {
		cfg.TraceLevel = traceLevel
	}
	if flags.Changed("trace-capacity") {
		cfg.TraceCapacity = traceCapacity
	}
	return cfg, cfg.Validate()
}

// waitForEnd blocks until the simulated duration elapses or ctx is cancelled,
// printing a status line every statusInterval of wall time.
func waitForEnd(ctx context.Context, s *cluster.Simulation, cfg sim.SimConfig) {
	var deadline <-chan time.Time
	if duration > 0 {
		wall := time.Duration(float64(duration) * cfg.TimeScale)
		timer := time.NewTimer(wall)
		defer timer.Stop()
		deadline = timer.C
	}
	var tick <-chan time.Time
	if statusInterval > 0 {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-tick:
			printStatus(os.Stdout, s.Status())
		}
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaults := sim.DefaultSimConfig()

	runCmd.Flags().StringVar(&policy, "policy", defaults.Policy, "Load-balancing policy (random, round-robin, smallest-queue)")
	runCmd.Flags().Float64Var(&rate, "rate", defaults.Rate, "Requests arrival per second (0-10)")
	runCmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "Simulated run length; 0 runs until interrupted")
	runCmd.Flags().IntVar(&pendingCapacity, "pending-capacity", defaults.PendingCapacity, "Pending queue capacity")
	runCmd.Flags().IntVar(&serverCapacity, "server-capacity", defaults.ServerCapacity, "Per-server queue capacity")
	runCmd.Flags().IntVar(&numServers, "servers", defaults.NumServers, "Number of servers")
	runCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for arrivals, request mix and random policy")
	runCmd.Flags().Float64Var(&timeScale, "time-scale", defaults.TimeScale, "Wall seconds per simulated second (0.1 runs 10x faster)")
	runCmd.Flags().StringVar(&arrivalProcess, "arrival", defaults.Arrival.Process, "Inter-arrival process (poisson, constant, gamma)")
	runCmd.Flags().Float64Var(&arrivalCV, "arrival-cv", 0, "Coefficient of variation for gamma arrivals")
	runCmd.Flags().Float64Var(&serviceJitter, "jitter", 0, "Service-time spread in [0,1) for IoBound and Mixed requests")
	runCmd.Flags().StringVar(&traceLevel, "trace", defaults.TraceLevel, "Trace level (none, events)")
	runCmd.Flags().IntVar(&traceCapacity, "trace-capacity", defaults.TraceCapacity, "Lifecycle events retained in the log")
	runCmd.Flags().DurationVar(&statusInterval, "status-interval", time.Second, "Wall time between status lines; 0 disables")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&scenarioPath, "config", "", "YAML scenario file; explicitly set flags override it")
	runCmd.Flags().StringVar(&presetName, "preset", "", fmt.Sprintf("Built-in scenario applied before --config %v", workload.PresetNames()))

	rootCmd.AddCommand(runCmd)
}
