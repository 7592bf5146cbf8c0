package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// TimeGrid is a strictly increasing sequence of output times.
type TimeGrid []float64

// Linspace returns n evenly spaced points covering [start, end] inclusive.
// The last point is exactly end.
func Linspace(start, end float64, n int) (TimeGrid, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidGrid, n)
	}
	if !finite(start) || !finite(end) || end <= start {
		return nil, fmt.Errorf("%w: span [%g, %g] is empty", ErrInvalidGrid, start, end)
	}

	g := floats.Span(make([]float64, n), start, end)
	g[n-1] = end
	return g, nil
}

// NewTimeGrid validates and copies points.
func NewTimeGrid(points []float64) (TimeGrid, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInvalidGrid)
	}
	for i, p := range points {
		if !finite(p) {
			return nil, fmt.Errorf("%w: point %d is not finite", ErrInvalidGrid, i)
		}
		if i > 0 && p <= points[i-1] {
			return nil, fmt.Errorf("%w: point %d (%g) does not increase", ErrInvalidGrid, i, p)
		}
	}
	g := make(TimeGrid, len(points))
	copy(g, points)
	return g, nil
}

func (g TimeGrid) Len() int { return len(g) }

func (g TimeGrid) Start() float64 { return g[0] }

func (g TimeGrid) End() float64 { return g[len(g)-1] }

func (g TimeGrid) Span() float64 { return g.End() - g.Start() }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
