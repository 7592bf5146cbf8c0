package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/immunosim/internal/config"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/logger"
	"github.com/san-kum/immunosim/internal/sim"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	duration   float64
	steps      int
	integrator string
	substeps   int
	sets       []string
)

// main registers the commands and exits 1 if the chosen command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "immunosim",
		Short:         "viral infection and immune response simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opt := logger.FromEnv()
			if cmd.Flags().Changed("log-level") {
				opt.Level = logLevel
			}
			logger.Init(opt)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "results", "run store: a directory, or a .db file for SQLite")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newListCmd(),
		newShowCmd(),
		newPlotCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
		newPresetsCmd(),
		newCompareCmd(),
		newSweepCmd(),
		newBatchCmd(),
		newLiveCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// addModelFlags registers the flags shared by every command that builds a
// run configuration.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a named preset")
	cmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "simulated days")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "output grid points")
	cmd.Flags().StringVar(&integrator, "integrator", "rk45", "integrator (rk45, rk4, euler)")
	cmd.Flags().IntVar(&substeps, "substeps", 1, "sub-steps per grid interval for fixed-step integrators")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a parameter or initial value, e.g. --set beta=2e-5 --set V=100")
}

// loadConfig applies defaults < preset < config file < flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.LoadOver(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if cmd.Flags().Changed("duration") {
		cfg.SetDuration(duration)
	}
	if cmd.Flags().Changed("steps") {
		cfg.Simulation.Steps = steps
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Simulation.Integrator = integrator
	}
	if cmd.Flags().Changed("substeps") {
		cfg.Simulation.Substeps = substeps
	}
	return cfg, nil
}

// parseSets splits --set values into parameter and initial state overrides.
func parseSets(values []string) (sim.Request, error) {
	req := sim.Request{Overrides: map[string]float64{}, Initial: map[string]float64{}}
	for _, kv := range values {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return req, fmt.Errorf("invalid --set %q: want name=value", kv)
		}
		name = strings.TrimSpace(name)
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return req, fmt.Errorf("invalid --set %q: %w", kv, err)
		}
		if isCompartment(name) {
			req.Initial[name] = v
		} else {
			req.Overrides[name] = v
		}
	}
	return req, nil
}

func isCompartment(name string) bool {
	for _, n := range immunity.VarNames {
		if n == name {
			return true
		}
	}
	return false
}

// newRunner builds the runner and request for a model command.
func newRunner(cmd *cobra.Command, opts ...sim.Option) (*sim.Runner, sim.Request, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, sim.Request{}, nil, err
	}
	req, err := parseSets(sets)
	if err != nil {
		return nil, sim.Request{}, nil, err
	}
	runner, err := sim.FromConfig(cfg, append([]sim.Option{sim.WithLogger(logger.Get())}, opts...)...)
	if err != nil {
		return nil, sim.Request{}, nil, err
	}
	return runner, req, cfg, nil
}
