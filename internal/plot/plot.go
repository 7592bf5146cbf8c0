// Package plot renders trajectories as PNG figures with gonum/plot.
//
// Three figures are available: [Linear] (every compartment against time),
// [Log] (the same with a logarithmic y axis) and [Phase] (viral load against
// each immune arm on log-log axes). Log axes add a tiny offset so zero
// populations stay drawable.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
)

type Kind string

const (
	Linear Kind = "linear"
	Log    Kind = "log"
	Phase  Kind = "phase"
)

func Kinds() []Kind { return []Kind{Linear, Log, Phase} }

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown plot type %q (want linear, log or phase)", s)
}

// FileName is the conventional output name, e.g. "log_plot.png".
func (k Kind) FileName(ext string) string {
	return string(k) + "_plot." + ext
}

const (
	DefaultDPI = 100
	logOffset  = 1e-10
)

// Settings controls figure size and styling. Width and Height are inches.
type Settings struct {
	Width  float64
	Height float64
	DPI    int
	Colors [immunity.NumVars]color.Color
	Labels [immunity.NumVars]string
}

func DefaultSettings() Settings {
	return Settings{
		Width:  10,
		Height: 6,
		DPI:    DefaultDPI,
		Colors: [immunity.NumVars]color.Color{
			color.RGBA{R: 0xFF, G: 0x4B, B: 0x4B, A: 0xFF},
			color.RGBA{R: 0x4B, G: 0x4B, B: 0xFF, A: 0xFF},
			color.RGBA{R: 0x4B, G: 0xFF, B: 0x4B, A: 0xFF},
			color.RGBA{R: 0xFF, G: 0x4B, B: 0xFF, A: 0xFF},
		},
		Labels: [immunity.NumVars]string{
			"Viral Load (V)",
			"Infected Cells (I)",
			"CD8+ T Cells (T)",
			"Antibodies (A)",
		},
	}
}

// Build assembles the figure without rendering it.
func Build(kind Kind, s Settings, grid dynamo.TimeGrid, traj *dynamo.Trajectory) (*gplot.Plot, error) {
	if traj.Rows() != grid.Len() {
		return nil, fmt.Errorf("%w: %d grid points, %d trajectory rows", dynamo.ErrDimensionMismatch, grid.Len(), traj.Rows())
	}
	switch kind {
	case Linear:
		return timeSeries(s, grid, traj, false)
	case Log:
		return timeSeries(s, grid, traj, true)
	case Phase:
		return phase(s, traj)
	}
	return nil, fmt.Errorf("unknown plot type %q", kind)
}

func timeSeries(s Settings, grid dynamo.TimeGrid, traj *dynamo.Trajectory, logY bool) (*gplot.Plot, error) {
	p := gplot.New()
	p.Title.Text = "Viral Infection & Immune Response Dynamics"
	p.X.Label.Text = "Time (days)"
	p.Y.Label.Text = "Population"
	if logY {
		p.Title.Text += " (Log Scale)"
		p.Y.Label.Text = "Population (log scale)"
		p.Y.Scale = gplot.LogScale{}
		p.Y.Tick.Marker = gplot.LogTicks{Prec: -1}
	}
	p.Add(plotter.NewGrid())

	offset := 0.0
	if logY {
		offset = logOffset
	}
	for j := 0; j < immunity.NumVars; j++ {
		col := traj.Column(j)
		xys := make(plotter.XYs, len(col))
		for i, v := range col {
			xys[i].X = grid[i]
			xys[i].Y = v + offset
		}
		if err := addLine(p, xys, s.Colors[j], s.Labels[j]); err != nil {
			return nil, err
		}
	}
	if logY {
		widenLogAxis(&p.Y)
	}
	p.Legend.Top = true
	return p, nil
}

func phase(s Settings, traj *dynamo.Trajectory) (*gplot.Plot, error) {
	p := gplot.New()
	p.Title.Text = "Phase Space Analysis"
	p.X.Label.Text = "Viral Load (V)"
	p.Y.Label.Text = "Immune Response"
	p.X.Scale = gplot.LogScale{}
	p.Y.Scale = gplot.LogScale{}
	p.X.Tick.Marker = gplot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = gplot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	v := traj.Column(immunity.IdxV)
	arms := []struct {
		idx   int
		label string
	}{
		{immunity.IdxT, "V vs T cells"},
		{immunity.IdxA, "V vs Antibodies"},
	}
	for _, arm := range arms {
		col := traj.Column(arm.idx)
		xys := make(plotter.XYs, len(col))
		for i := range col {
			xys[i].X = v[i] + logOffset
			xys[i].Y = col[i] + logOffset
		}
		if err := addLine(p, xys, s.Colors[arm.idx], arm.label); err != nil {
			return nil, err
		}
	}
	widenLogAxis(&p.X)
	widenLogAxis(&p.Y)
	p.Legend.Top = true
	return p, nil
}

// widenLogAxis spreads a single-valued range by a decade each way; a log
// axis cannot fall back to the linear +-1 padding.
func widenLogAxis(a *gplot.Axis) {
	if a.Min == a.Max {
		a.Min /= 10
		a.Max *= 10
	}
}

func addLine(p *gplot.Plot, xys plotter.XYs, c color.Color, label string) error {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("build %s line: %w", label, err)
	}
	l.Color = c
	l.Width = vg.Points(2)
	p.Add(l)
	p.Legend.Add(label, l)
	return nil
}

// WritePNG renders kind to w.
func WritePNG(w io.Writer, kind Kind, s Settings, grid dynamo.TimeGrid, traj *dynamo.Trajectory) error {
	p, err := Build(kind, s, grid, traj)
	if err != nil {
		return err
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(s.Width)*vg.Inch, vg.Length(s.Height)*vg.Inch),
		vgimg.UseDPI(s.DPI),
	)
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG renders kind to path, creating parent directories.
func SavePNG(path string, kind Kind, s Settings, grid dynamo.TimeGrid, traj *dynamo.Trajectory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, kind, s, grid, traj); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
