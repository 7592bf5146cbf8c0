package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
)

// Ceilings are the largest plausible value of each compartment.
type Ceilings struct {
	V float64 `yaml:"V" json:"V"`
	I float64 `yaml:"I" json:"I"`
	T float64 `yaml:"T" json:"T"`
	A float64 `yaml:"A" json:"A"`
}

func DefaultCeilings() Ceilings {
	return Ceilings{V: 1e8, I: 1e6, T: 1e5, A: 1e4}
}

func (c Ceilings) column(j int) float64 {
	switch j {
	case immunity.IdxV:
		return c.V
	case immunity.IdxI:
		return c.I
	case immunity.IdxT:
		return c.T
	case immunity.IdxA:
		return c.A
	}
	return math.Inf(1)
}

// Report describes the first violation found, if any.
type Report struct {
	Stable bool
	Row    int
	Column int
	Value  float64
	Reason string
}

func (r Report) String() string {
	if r.Stable {
		return "stable"
	}
	return fmt.Sprintf("unstable at row %d, %s = %g: %s", r.Row, immunity.VarNames[r.Column], r.Value, r.Reason)
}

// Stability flags trajectories that hold non-finite values or exceed the
// ceilings. It never modifies the trajectory.
type Stability struct {
	ceilings Ceilings
}

func NewStability(c Ceilings) *Stability {
	return &Stability{ceilings: c}
}

func (s *Stability) Check(traj *dynamo.Trajectory) Report {
	cols := traj.Cols()
	if cols > immunity.NumVars {
		cols = immunity.NumVars
	}

	for i := 0; i < traj.Rows(); i++ {
		for j := 0; j < cols; j++ {
			v := traj.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Report{Row: i, Column: j, Value: v, Reason: "non-finite value"}
			}
			if ceil := s.ceilings.column(j); v > ceil {
				return Report{Row: i, Column: j, Value: v, Reason: fmt.Sprintf("exceeds ceiling %g", ceil)}
			}
		}
	}
	return Report{Stable: true}
}

func (s *Stability) IsStable(traj *dynamo.Trajectory) bool {
	return s.Check(traj).Stable
}

// IsStable checks traj against DefaultCeilings.
func IsStable(traj *dynamo.Trajectory) bool {
	return NewStability(DefaultCeilings()).IsStable(traj)
}
