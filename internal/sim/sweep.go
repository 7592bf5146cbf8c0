package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/metrics"
)

// SweepSpec varies one parameter, or one initial compartment, linearly
// between Min and Max.
type SweepSpec struct {
	Name        string
	Min         float64
	Max         float64
	Points      int
	Base        Request
	Concurrency int
}

// SweepPoint is the outcome at one value. Err holds a validation or
// integration failure for that point only.
type SweepPoint struct {
	Value   float64
	Metrics metrics.Derived
	Stable  bool
	Err     error
}

func isCompartment(name string) bool {
	for _, n := range immunity.VarNames {
		if n == name {
			return true
		}
	}
	return false
}

func (s SweepSpec) values() ([]float64, error) {
	if s.Points == 1 {
		return []float64{s.Min}, nil
	}
	g, err := dynamo.Linspace(s.Min, s.Max, s.Points)
	if err != nil {
		return nil, fmt.Errorf("sweep range: %w", err)
	}
	return g, nil
}

// Sweep runs every point concurrently and returns results in value order.
// Only cancellation of ctx aborts the sweep.
func (r *Runner) Sweep(ctx context.Context, spec SweepSpec) ([]SweepPoint, error) {
	if !isCompartment(spec.Name) {
		if _, err := immunity.DefaultParams().Get(spec.Name); err != nil {
			return nil, err
		}
	}
	values, err := spec.values()
	if err != nil {
		return nil, err
	}

	limit := spec.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	points := make([]SweepPoint, len(values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, v := range values {
		g.Go(func() error {
			req := spec.Base.with(spec.Name, v)
			points[i].Value = v

			res, err := r.Run(gctx, req)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				points[i].Err = err
				return nil
			}
			points[i].Metrics = r.Metrics(res)
			points[i].Stable = r.Stability(res).Stable
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// with returns a copy of q with one extra override.
func (q Request) with(name string, v float64) Request {
	out := Request{Grid: q.Grid}
	out.Overrides = copyMap(q.Overrides)
	out.Initial = copyMap(q.Initial)
	if isCompartment(name) {
		out.Initial[name] = v
	} else {
		out.Overrides[name] = v
	}
	return out
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
