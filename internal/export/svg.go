package export

import (
	"fmt"
	"image/color"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/plot"
)

// WriteSVG draws every compartment against time as an SVG line chart.
func WriteSVG(w io.Writer, s plot.Settings, grid dynamo.TimeGrid, traj *dynamo.Trajectory) error {
	if traj.Rows() != grid.Len() {
		return fmt.Errorf("%w: grid %d, trajectory %d rows", dynamo.ErrDimensionMismatch, grid.Len(), traj.Rows())
	}
	if grid.Len() < 2 {
		return fmt.Errorf("%w: need at least 2 points to draw", dynamo.ErrInvalidGrid)
	}

	x := make([]float64, grid.Len())
	copy(x, grid)

	series := make([]chart.Series, 0, immunity.NumVars)
	for j := 0; j < immunity.NumVars; j++ {
		series = append(series, chart.ContinuousSeries{
			Name:    s.Labels[j],
			XValues: x,
			YValues: traj.Column(j),
			Style:   chart.Style{StrokeColor: toDrawing(s.Colors[j]), StrokeWidth: 2.0},
		})
	}

	graph := chart.Chart{
		Title:  "Viral Infection & Immune Response Dynamics",
		Width:  int(s.Width * float64(s.DPI)),
		Height: int(s.Height * float64(s.DPI)),
		XAxis: chart.XAxis{
			Name:  "Time (days)",
			Style: chart.Style{FontSize: 10.0},
		},
		YAxis: chart.YAxis{
			Name:  "Population",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	return nil
}

func toDrawing(c color.Color) drawing.Color {
	if c == nil {
		return chart.ColorBlack
	}
	r, g, b, a := c.RGBA()
	return drawing.Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
