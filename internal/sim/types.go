package sim

import (
	"time"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
)

// GridSpec describes an evenly spaced output grid.
type GridSpec struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Steps int     `json:"steps" yaml:"steps"`
}

func (g GridSpec) Build() (dynamo.TimeGrid, error) {
	return dynamo.Linspace(g.Start, g.End, g.Steps)
}

// Request is one run. Empty fields fall back to the Runner's base
// configuration.
type Request struct {
	// Overrides replaces parameters by wire name ("beta", "k_t", ...).
	Overrides map[string]float64
	// Initial replaces compartments by name ("V", "I", "T", "A").
	Initial map[string]float64
	Grid    *GridSpec
}

// Result is a completed run: the validated inputs and the sampled output.
type Result struct {
	Grid       dynamo.TimeGrid
	Trajectory *dynamo.Trajectory
	Params     immunity.ParameterSet
	Initial    immunity.InitialState
	Integrator string
	Elapsed    time.Duration
}

// Observer is told about every finished run, successful or not.
type Observer interface {
	OnRun(res *Result, err error, elapsed time.Duration)
}
