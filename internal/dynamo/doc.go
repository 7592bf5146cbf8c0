// Package dynamo provides core simulation primitives for ODE systems.
//
// The package defines the fundamental interfaces and types shared by the
// model, solver and analysis layers:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: solver that samples a System on a [TimeGrid]
//   - [Trajectory]: dense matrix of sampled states, one row per grid point
//
// # Example
//
//	grid, _ := dynamo.Linspace(0, 100, 1000)
//	solver := integrators.NewDormandPrince()
//	traj, err := solver.Integrate(ctx, model, x0, grid)
//
// # Errors
//
// Validation and solver failures are reported as typed errors that match
// the package sentinels under [errors.Is]: [ErrParameterOutOfRange],
// [ErrInitialConditionOutOfRange], [ErrUnknownParameter] and
// [ErrIntegrationFailure].
//
// # Thread Safety
//
// [State] and [TimeGrid] are plain slices and are not safe for concurrent
// mutation. [Trajectory] is immutable and may be shared freely.
package dynamo
