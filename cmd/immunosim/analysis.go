package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/immunosim/internal/automation"
	"github.com/san-kum/immunosim/internal/config"
	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/integrators"
	"github.com/san-kum/immunosim/internal/logger"
	"github.com/san-kum/immunosim/internal/sim"
	"github.com/san-kum/immunosim/internal/storage"
	"github.com/san-kum/immunosim/internal/viz"
)

var (
	sweepMin         float64
	sweepMax         float64
	sweepPoints      int
	sweepConcurrency int
	batchPersist     bool
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the same run (default: rk45 rk4 euler)",
		RunE:  compareIntegrators,
	}
	addModelFlags(cmd)
	return cmd
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = integrators.Names()
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req, err := parseSets(sets)
	if err != nil {
		return err
	}

	var reference *dynamo.Trajectory
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEG\tTIME\tPEAK V\tPEAK T\tCLEARANCE\tMAX |ΔV|\tSTABLE")

	for _, name := range names {
		c := cfg.Clone()
		c.Simulation.Integrator = name
		runner, err := sim.FromConfig(c, sim.WithLogger(logger.Get()))
		if err != nil {
			return err
		}
		res, err := runner.Run(cmd.Context(), req)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t%v\n", name, err)
			continue
		}
		if reference == nil {
			reference = res.Trajectory
		}
		d := runner.Metrics(res)
		fmt.Fprintf(w, "%s\t%v\t%.6g\t%.4f\t%s\t%.3g\t%t\n",
			name,
			res.Elapsed.Round(time.Microsecond),
			d.PeakViralLoad,
			d.PeakViralTime,
			viz.FormatClearance(d),
			maxAbsDiff(reference, res.Trajectory, 0),
			runner.Stability(res).Stable,
		)
	}
	return w.Flush()
}

func maxAbsDiff(a, b *dynamo.Trajectory, col int) float64 {
	x, y := a.Column(col), b.Column(col)
	worst := 0.0
	for i := range x {
		worst = math.Max(worst, math.Abs(x[i]-y[i]))
	}
	return worst
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "vary one parameter or initial value and tabulate the metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepParam,
	}
	addModelFlags(cmd)
	cmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	cmd.Flags().Float64Var(&sweepMax, "max", 0, "last value")
	cmd.Flags().IntVar(&sweepPoints, "points", 10, "number of values")
	cmd.Flags().IntVar(&sweepConcurrency, "concurrency", 0, "parallel runs (default: NumCPU)")
	_ = cmd.MarkFlagRequired("min")
	_ = cmd.MarkFlagRequired("max")
	return cmd
}

func sweepParam(cmd *cobra.Command, args []string) error {
	runner, req, _, err := newRunner(cmd)
	if err != nil {
		return err
	}

	points, err := runner.Sweep(cmd.Context(), sim.SweepSpec{
		Name:        args[0],
		Min:         sweepMin,
		Max:         sweepMax,
		Points:      sweepPoints,
		Base:        req,
		Concurrency: sweepConcurrency,
	})
	if err != nil {
		return err
	}

	peaks := make([]float64, 0, len(points))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPEAK V\tPEAK TIME\tCLEARANCE\tMAX T\tPEAK A\tSTABLE\n", args[0])
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(w, "%.4g\t%v\n", p.Value, p.Err)
			continue
		}
		d := p.Metrics
		peaks = append(peaks, d.PeakViralLoad)
		fmt.Fprintf(w, "%.4g\t%.4g\t%.2f\t%s\t%.4g\t%.4g\t%t\n",
			p.Value, d.PeakViralLoad, d.PeakViralTime, viz.FormatClearance(d), d.MaxTCells, d.PeakAntibodies, p.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(peaks) > 1 {
		fmt.Println("\npeak V " + viz.Sparkline(peaks, len(peaks)))
	}
	return nil
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a YAML scenario of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	cmd.Flags().StringVar(&configFile, "config", "", "base config for steps without a preset")
	cmd.Flags().BoolVar(&batchPersist, "persist", false, "store every step, not only those marked persist")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if batchPersist {
		for i := range scenario.Steps {
			scenario.Steps[i].Persist = true
		}
	}

	base := config.DefaultConfig()
	if configFile != "" {
		if base, err = config.Load(configFile); err != nil {
			return err
		}
	}

	var archive storage.Archive
	for _, s := range scenario.Steps {
		if s.Persist {
			if archive, err = openStore(); err != nil {
				return err
			}
			defer archive.Close()
			break
		}
	}

	fmt.Printf("scenario %s: %s\n", scenario.Name, scenario.Description)
	results, err := automation.RunScenario(cmd.Context(), scenario, automation.Options{
		Base:    base,
		Archive: archive,
		Log:     logger.Get(),
		Progress: func(i, n int, name string) {
			fmt.Printf("running step %d/%d: %s\n", i, n, name)
		},
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTEP\tPEAK V\tCLEARANCE\tMAX T\tSTABLE\tRUN")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%.4g\t%s\t%.4g\t%t\t%s\n",
			r.Name, r.Metrics.PeakViralLoad, viz.FormatClearance(r.Metrics), r.Metrics.MaxTCells, r.Stable, r.RunID)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "play a run back in the terminal and tune it interactively",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addModelFlags(cmd)
	cmd.Flags().StringVar(&themeName, "theme", viz.ThemeClassic.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	return cmd
}

func runLive(cmd *cobra.Command, args []string) error {
	th, err := viz.ParseTheme(themeName)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req, err := parseSets(sets)
	if err != nil {
		return err
	}
	// no logger: log lines would corrupt the alternate screen
	runner, err := sim.FromConfig(cfg)
	if err != nil {
		return err
	}

	title := preset
	if title == "" {
		title = "immunosim"
	}
	p, err := viz.NewPlayback(cmd.Context(), title, runner, req)
	if err != nil {
		return err
	}
	p.SetTheme(th)
	return viz.RunPlayback(p)
}
