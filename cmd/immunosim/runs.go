package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/immunosim/internal/config"
	"github.com/san-kum/immunosim/internal/export"
	"github.com/san-kum/immunosim/internal/plot"
	"github.com/san-kum/immunosim/internal/sim"
	"github.com/san-kum/immunosim/internal/storage"
	"github.com/san-kum/immunosim/internal/viz"
)

var (
	showLog    bool
	themeName  string
	plotOut    string
	exportFile string
)

func openStore() (storage.Archive, error) {
	return sim.OpenArchive(dataDir)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDAYS\tSTEPS\tINTEG\tPEAK V\tCLEARANCE\tSTABLE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%s\t%.4g\t%s\t%t\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.End-run.Start,
			run.Steps,
			run.Integrator,
			run.Metrics.PeakViralLoad,
			viz.FormatClearance(run.Metrics),
			run.Stable,
		)
	}
	return w.Flush()
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarize a stored run with terminal charts",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	cmd.Flags().BoolVar(&showLog, "log", false, "log10 y axis")
	cmd.Flags().StringVar(&themeName, "theme", viz.ThemeClassic.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	return cmd
}

func showRun(cmd *cobra.Command, args []string) error {
	th, err := viz.ParseTheme(themeName)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, traj, err := st.LoadTrajectory(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Summary("run "+meta.ID, meta.Metrics, meta.Stable))
	fmt.Printf("%s  %d points over [%g, %g] days  %s\n",
		meta.Timestamp.Format("2006-01-02 15:04:05"), meta.Steps, meta.Start, meta.End, meta.Integrator)

	opts := viz.DefaultChartOptions()
	opts.Log = showLog
	opts.Theme = th
	opts.Caption = "Time (days)"
	fmt.Println(viz.Separator(opts.Width))
	fmt.Println(viz.Chart(traj, opts))
	fmt.Println(viz.Legend(th))
	return nil
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "render plots of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringSliceVar(&plotKinds, "plot", []string{"linear", "log", "phase"}, "plots to write (linear, log, phase)")
	cmd.Flags().StringVar(&format, "format", "png", "plot format (png, svg)")
	cmd.Flags().StringVarP(&plotOut, "out", "o", ".", "output directory")
	return cmd
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	grid, traj, err := st.LoadTrajectory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	settings, err := config.DefaultPlotConfig().Settings()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(plotOut, 0755); err != nil {
		return err
	}

	for _, name := range plotKinds {
		kind, err := plot.ParseKind(name)
		if err != nil {
			return err
		}
		path, err := writePlot(plotOut, kind, settings, grid, traj)
		if err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

func newExportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	cmd.Flags().StringVarP(&exportFile, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	grid, traj, err := st.LoadTrajectory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return withOutput(func(f *os.File) error {
		return export.WriteCSV(f, grid, traj)
	})
}

func newExportJSONCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	cmd.Flags().StringVarP(&exportFile, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	grid, traj, err := st.LoadTrajectory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	doc := export.Document{
		ID:           meta.ID,
		CreatedAt:    meta.Timestamp,
		Parameters:   meta.Parameters,
		InitialState: meta.InitialState,
		Metrics:      meta.Metrics,
		Stable:       meta.Stable,
		Series:       export.SeriesOf(grid, traj),
	}
	return withOutput(func(f *os.File) error {
		return export.WriteJSON(f, doc)
	})
}

// withOutput runs write against --out, or stdout when unset.
func withOutput(write func(*os.File) error) error {
	if exportFile == "" {
		return write(os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(exportFile), 0755); err != nil {
		return err
	}
	f, err := os.Create(exportFile)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.DescribePreset(name))
			}
			return w.Flush()
		},
	}
}
