package integrators

import (
	"context"

	"github.com/san-kum/immunosim/internal/dynamo"
)

type Euler struct {
	Substeps int
}

func NewEuler(substeps int) *Euler {
	if substeps < 1 {
		substeps = 1
	}
	return &Euler{Substeps: substeps}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

func (e *Euler) Integrate(ctx context.Context, sys dynamo.System, x0 dynamo.State, grid dynamo.TimeGrid) (*dynamo.Trajectory, error) {
	return integrateFixed(ctx, sys, x0, grid, e.Substeps, e.Step)
}
