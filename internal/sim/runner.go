package sim

import (
	"context"
	"time"

	"github.com/san-kum/immunosim/internal/config"
	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/integrators"
	"github.com/san-kum/immunosim/internal/logger"
	"github.com/san-kum/immunosim/internal/metrics"
)

// Runner turns requests into trajectories. It holds only immutable base
// settings and may serve concurrent calls.
type Runner struct {
	base       immunity.Params
	initial    immunity.InitialState
	grid       GridSpec
	integ      dynamo.Integrator
	integName  string
	thresholds metrics.Thresholds
	stability  *metrics.Stability
	log        *logger.Logger
	observers  []Observer
}

type Option func(*Runner)

func WithParams(p immunity.Params) Option {
	return func(r *Runner) { r.base = p }
}

func WithInitialState(s immunity.InitialState) Option {
	return func(r *Runner) { r.initial = s }
}

func WithGrid(g GridSpec) Option {
	return func(r *Runner) { r.grid = g }
}

func WithIntegrator(name string, integ dynamo.Integrator) Option {
	return func(r *Runner) {
		r.integName = name
		r.integ = integ
	}
}

func WithThresholds(th metrics.Thresholds) Option {
	return func(r *Runner) { r.thresholds = th }
}

func WithCeilings(c metrics.Ceilings) Option {
	return func(r *Runner) { r.stability = metrics.NewStability(c) }
}

func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = logger.With(l, "sim") }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

func New(opts ...Option) *Runner {
	r := &Runner{
		base:       immunity.DefaultParams(),
		initial:    immunity.DefaultInitialState(),
		grid:       GridSpec{Start: config.DefaultStart, End: config.DefaultStart + config.DefaultDuration, Steps: config.DefaultSteps},
		integ:      integrators.NewDormandPrince(),
		integName:  integrators.DefaultMethod,
		thresholds: metrics.DefaultThresholds(),
		stability:  metrics.NewStability(metrics.DefaultCeilings()),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromConfig builds a Runner whose base settings come from cfg. Values are
// validated on every Run, not here.
func FromConfig(cfg *config.Config, opts ...Option) (*Runner, error) {
	integ, err := integrators.New(cfg.Simulation.Integrator, cfg.Simulation.Substeps)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithParams(cfg.Parameters),
		WithInitialState(cfg.InitialConditions),
		WithGrid(GridSpec{Start: cfg.Simulation.Start, End: cfg.Simulation.End, Steps: cfg.Simulation.Steps}),
		WithIntegrator(cfg.Simulation.Integrator, integ),
		WithThresholds(cfg.Thresholds),
		WithCeilings(cfg.Stability),
	}
	return New(append(base, opts...)...), nil
}

// BaseGrid returns the grid used when a request names none.
func (r *Runner) BaseGrid() GridSpec { return r.grid }

// Run validates the request and integrates it. Invalid parameters,
// initial conditions and grids fail before any integration.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := r.run(ctx, req)
	elapsed := time.Since(start)

	if res != nil {
		res.Elapsed = elapsed
	}
	for _, o := range r.observers {
		o.OnRun(res, err, elapsed)
	}

	if err != nil {
		r.log.Error().Err(err).Dur("elapsed", elapsed).Msg("simulation failed")
		return nil, err
	}
	r.log.Info().
		Int("points", res.Grid.Len()).
		Float64("end", res.Grid.End()).
		Str("integrator", res.Integrator).
		Dur("elapsed", elapsed).
		Msg("simulation complete")
	return res, nil
}

func (r *Runner) run(ctx context.Context, req Request) (*Result, error) {
	p, err := r.base.With(req.Overrides)
	if err != nil {
		return nil, err
	}
	ps, err := immunity.NewParameterSet(p)
	if err != nil {
		return nil, err
	}

	init, err := r.initial.With(req.Initial)
	if err != nil {
		return nil, err
	}
	if err := init.Validate(); err != nil {
		return nil, err
	}

	spec := r.grid
	if req.Grid != nil {
		spec = *req.Grid
	}
	grid, err := spec.Build()
	if err != nil {
		return nil, err
	}

	traj, err := r.integ.Integrate(ctx, immunity.NewModel(ps), init.State(), grid)
	if err != nil {
		return nil, err
	}

	return &Result{
		Grid:       grid,
		Trajectory: traj,
		Params:     ps,
		Initial:    init,
		Integrator: r.integName,
	}, nil
}

// Metrics extracts derived quantities with the runner's thresholds.
func (r *Runner) Metrics(res *Result) metrics.Derived {
	return metrics.ExtractWith(res.Grid, res.Trajectory, r.thresholds)
}

// Stability checks res against the runner's ceilings.
func (r *Runner) Stability(res *Result) metrics.Report {
	return r.stability.Check(res.Trajectory)
}
