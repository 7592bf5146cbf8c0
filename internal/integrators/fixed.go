package integrators

import (
	"context"
	"fmt"

	"github.com/san-kum/immunosim/internal/dynamo"
)

type stepFunc func(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State

func integrateFixed(ctx context.Context, sys dynamo.System, x0 dynamo.State, grid dynamo.TimeGrid, substeps int, step stepFunc) (*dynamo.Trajectory, error) {
	n := len(x0)
	if n != sys.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system expects %d", dynamo.ErrDimensionMismatch, n, sys.StateDim())
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: no points", dynamo.ErrInvalidGrid)
	}
	if substeps < 1 {
		substeps = 1
	}

	data := make([]float64, len(grid)*n)
	copy(data, x0)

	x := x0.Clone()
	stepCount := 0
	for row := 1; row < len(grid); row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := grid[row-1]
		dt := (grid[row] - t) / float64(substeps)
		for s := 0; s < substeps; s++ {
			x = step(sys, x, t+float64(s)*dt, dt)
			stepCount++
			if !x.IsValid() {
				return nil, &dynamo.IntegrationError{Step: stepCount, Time: t + float64(s+1)*dt, State: x, Reason: "state diverged"}
			}
		}
		copy(data[row*n:(row+1)*n], x)
	}

	dynamo.State(data).ClampNonNegative()
	return dynamo.NewTrajectory(len(grid), n, data)
}
