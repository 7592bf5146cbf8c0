package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/export"
	"github.com/san-kum/immunosim/internal/logger"
	"github.com/san-kum/immunosim/internal/plot"
	"github.com/san-kum/immunosim/internal/viz"
)

var (
	outputDir string
	plotKinds []string
	format    string
	storeDest string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation, store it and write plots",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addModelFlags(cmd)
	cmd.Flags().StringVar(&outputDir, "output-dir", "results", "directory for plots")
	cmd.Flags().StringSliceVar(&plotKinds, "plot", []string{"linear", "log", "phase"}, "plots to write (linear, log, phase)")
	cmd.Flags().StringVar(&format, "format", "png", "plot format (png, svg)")
	cmd.Flags().StringVar(&storeDest, "store", "", "run store (default: --output-dir)")
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if format != "png" && format != "svg" {
		return fmt.Errorf("unknown format %q (want png or svg)", format)
	}
	runner, req, cfg, err := newRunner(cmd)
	if err != nil {
		return err
	}
	settings, err := cfg.Plot.Settings()
	if err != nil {
		return err
	}
	log := logger.Named("cli")

	ctx := cmd.Context()
	start := time.Now()
	res, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}

	dest := storeDest
	if dest == "" {
		dest = outputDir
	}
	runID, err := runner.Persist(ctx, res, dest)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	for _, name := range plotKinds {
		kind, err := plot.ParseKind(name)
		if err != nil {
			log.Warn().Str("plot", name).Msg("unknown plot type, skipped")
			continue
		}
		path, err := writePlot(outputDir, kind, settings, res.Grid, res.Trajectory)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("plot saved")
	}

	report := runner.Stability(res)
	fmt.Println(viz.Summary(fmt.Sprintf("run %s", runID), runner.Metrics(res), report.Stable))
	fmt.Printf("%d points in %v, stored in %s\n", res.Grid.Len(), time.Since(start).Round(time.Millisecond), dest)
	if !report.Stable {
		fmt.Println(viz.StatusError.Render("warning: " + report.String()))
	}
	return nil
}

// writePlot renders kind into dir. SVG output covers the linear chart only;
// other kinds fall back to PNG.
func writePlot(dir string, kind plot.Kind, s plot.Settings, grid dynamo.TimeGrid, traj *dynamo.Trajectory) (string, error) {
	if format == "svg" && kind == plot.Linear {
		path := filepath.Join(dir, kind.FileName("svg"))
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := export.WriteSVG(f, s, grid, traj); err != nil {
			return "", err
		}
		return path, f.Close()
	}
	path := filepath.Join(dir, kind.FileName("png"))
	return path, plot.SavePNG(path, kind, s, grid, traj)
}
