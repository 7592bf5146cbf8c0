package dynamo

import (
	"context"
	"math"
)

// State is a point in the phase space of a System.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ClampNonNegative replaces every negative component with zero in place.
func (s State) ClampNonNegative() {
	for i, v := range s {
		if v < 0 {
			s[i] = 0
		}
	}
}

// System is an autonomous or time-dependent ODE dX/dt = f(X, t).
// Derive must be pure: equal inputs give bitwise equal outputs.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Integrator advances a System across a TimeGrid and reports the state at
// every grid point. Implementations must be safe for concurrent use.
type Integrator interface {
	Integrate(ctx context.Context, sys System, x0 State, grid TimeGrid) (*Trajectory, error)
}
