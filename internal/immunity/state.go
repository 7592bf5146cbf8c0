package immunity

import (
	"fmt"

	"github.com/san-kum/immunosim/internal/dynamo"
)

// Column indices of the state vector and of every trajectory row.
const (
	IdxV = iota
	IdxI
	IdxT
	IdxA

	NumVars
)

// VarNames are the short compartment names in column order.
var VarNames = [NumVars]string{"V", "I", "T", "A"}

var stateBounds = [NumVars]Bound{
	{"V", 0, 1e6},
	{"I", 0, 1e5},
	{"T", 0, 1e4},
	{"A", 0, 1e3},
}

// StateRanges returns the validity range of each compartment in column order.
func StateRanges() []Bound {
	out := make([]Bound, NumVars)
	copy(out, stateBounds[:])
	return out
}

// InitialState holds the compartment sizes at the start of a run.
type InitialState struct {
	V float64 `yaml:"V" json:"V"`
	I float64 `yaml:"I" json:"I"`
	T float64 `yaml:"T" json:"T"`
	A float64 `yaml:"A" json:"A"`
}

func DefaultInitialState() InitialState {
	return InitialState{V: 10, I: 1, T: 20, A: 0}
}

func NewInitialState(v, i, t, a float64) (InitialState, error) {
	s := InitialState{V: v, I: i, T: t, A: a}
	if err := s.Validate(); err != nil {
		return InitialState{}, err
	}
	return s, nil
}

func (s InitialState) Validate() error {
	vals := s.values()
	for i, b := range stateBounds {
		if !b.Contains(vals[i]) {
			return &dynamo.InitialConditionOutOfRangeError{Name: b.Name, Value: vals[i], Min: b.Min, Max: b.Max}
		}
	}
	return nil
}

// With returns a copy of s with the named compartments replaced.
func (s InitialState) With(overrides map[string]float64) (InitialState, error) {
	for name, v := range overrides {
		switch name {
		case "V":
			s.V = v
		case "I":
			s.I = v
		case "T":
			s.T = v
		case "A":
			s.A = v
		default:
			return InitialState{}, fmt.Errorf("%w: initial condition %q", dynamo.ErrUnknownParameter, name)
		}
	}
	return s, nil
}

// State returns the state vector in column order.
func (s InitialState) State() dynamo.State {
	v := s.values()
	return dynamo.State(v[:])
}

func (s InitialState) Map() map[string]float64 {
	return map[string]float64{"V": s.V, "I": s.I, "T": s.T, "A": s.A}
}

func (s InitialState) values() [NumVars]float64 {
	return [NumVars]float64{s.V, s.I, s.T, s.A}
}
