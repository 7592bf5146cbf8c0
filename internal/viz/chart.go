package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
)

// logFloor keeps zero populations on a log10 terminal chart.
const logFloor = 1e-3

// ChartOptions selects what Chart draws. Rows limits the trajectory to its
// first Rows samples; zero means all of them.
type ChartOptions struct {
	Width   int
	Height  int
	Log     bool
	Visible [immunity.NumVars]bool
	Rows    int
	Theme   Theme
	Caption string
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		Width:   70,
		Height:  15,
		Visible: [immunity.NumVars]bool{true, true, true, true},
		Theme:   ThemeClassic,
	}
}

// Chart renders the visible compartments on shared axes.
func Chart(traj *dynamo.Trajectory, opt ChartOptions) string {
	rows := traj.Rows()
	if opt.Rows > 0 && opt.Rows < rows {
		rows = opt.Rows
	}

	var (
		data    [][]float64
		colors  []asciigraph.AnsiColor
		legends []string
	)
	for j := 0; j < immunity.NumVars; j++ {
		if !opt.Visible[j] {
			continue
		}
		col := traj.Column(j)[:rows]
		if opt.Log {
			for i, v := range col {
				col[i] = math.Log10(math.Max(v, logFloor))
			}
		}
		// asciigraph cannot interpolate a single sample
		if len(col) == 1 {
			col = append(col, col[0])
		}
		data = append(data, col)
		colors = append(colors, opt.Theme.Graph[j])
		legends = append(legends, immunity.VarNames[j])
	}
	if len(data) == 0 {
		return ""
	}

	caption := opt.Caption
	if opt.Log {
		caption += " (log10)"
	}
	return asciigraph.PlotMany(data,
		asciigraph.Width(opt.Width),
		asciigraph.Height(opt.Height),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
}
