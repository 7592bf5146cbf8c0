package dynamo

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Trajectory holds one row per grid point and one column per state
// component. It is immutable once built.
type Trajectory struct {
	m *mat.Dense
}

// NewTrajectory takes ownership of data, laid out row-major.
func NewTrajectory(rows, cols int, data []float64) (*Trajectory, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: trajectory needs a positive shape, got %dx%d", ErrDimensionMismatch, rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for a %dx%d trajectory", ErrDimensionMismatch, len(data), rows, cols)
	}
	return &Trajectory{m: mat.NewDense(rows, cols, data)}, nil
}

func (tr *Trajectory) Rows() int {
	r, _ := tr.m.Dims()
	return r
}

func (tr *Trajectory) Cols() int {
	_, c := tr.m.Dims()
	return c
}

func (tr *Trajectory) At(i, j int) float64 {
	return tr.m.At(i, j)
}

// Row returns a copy of row i.
func (tr *Trajectory) Row(i int) State {
	return State(mat.Row(nil, i, tr.m))
}

// Column returns a copy of column j.
func (tr *Trajectory) Column(j int) []float64 {
	return mat.Col(nil, j, tr.m)
}

// Last returns a copy of the final row.
func (tr *Trajectory) Last() State {
	return tr.Row(tr.Rows() - 1)
}

// Matrix returns a copy of the samples for linear-algebra consumers.
func (tr *Trajectory) Matrix() mat.Matrix {
	return mat.DenseCopyOf(tr.m)
}
