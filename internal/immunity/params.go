package immunity

import (
	"fmt"

	"github.com/san-kum/immunosim/internal/dynamo"
)

// Params holds the thirteen kinetic constants of the model. Field tags carry
// the wire names used by config files, query strings and stored runs.
type Params struct {
	Beta  float64 `yaml:"beta" json:"beta"`
	Delta float64 `yaml:"delta" json:"delta"`
	P     float64 `yaml:"p" json:"p"`
	C     float64 `yaml:"c" json:"c"`
	KT    float64 `yaml:"k_t" json:"k_t"`
	KA    float64 `yaml:"k_a" json:"k_a"`
	R     float64 `yaml:"r" json:"r"`
	Theta float64 `yaml:"theta" json:"theta"`
	DT    float64 `yaml:"d_t" json:"d_t"`
	DA    float64 `yaml:"d_a" json:"d_a"`
	Tau   float64 `yaml:"tau" json:"tau"`
	ST    float64 `yaml:"s_t" json:"s_t"`
	SA    float64 `yaml:"s_a" json:"s_a"`
}

func DefaultParams() Params {
	return Params{
		Beta:  1.0e-5,
		Delta: 0.3,
		P:     40.0,
		C:     0.1,
		KT:    2.0e-4,
		KA:    2.0e-3,
		R:     2.5,
		Theta: 50.0,
		DT:    0.02,
		DA:    0.01,
		Tau:   2.0,
		ST:    1.5,
		SA:    0.8,
	}
}

// Bound is a closed validity interval for a named quantity.
type Bound struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

func (b Bound) Contains(v float64) bool {
	// NaN fails both comparisons.
	return v >= b.Min && v <= b.Max
}

type paramField struct {
	Bound
	ref func(*Params) *float64
}

var paramFields = []paramField{
	{Bound{"beta", 1e-8, 1e-4}, func(p *Params) *float64 { return &p.Beta }},
	{Bound{"delta", 0.1, 2.0}, func(p *Params) *float64 { return &p.Delta }},
	{Bound{"p", 1.0, 1000.0}, func(p *Params) *float64 { return &p.P }},
	{Bound{"c", 0.01, 10.0}, func(p *Params) *float64 { return &p.C }},
	{Bound{"k_t", 1e-7, 1e-3}, func(p *Params) *float64 { return &p.KT }},
	{Bound{"k_a", 1e-6, 1e-2}, func(p *Params) *float64 { return &p.KA }},
	{Bound{"r", 0.1, 5.0}, func(p *Params) *float64 { return &p.R }},
	{Bound{"theta", 1e1, 1e4}, func(p *Params) *float64 { return &p.Theta }},
	{Bound{"d_t", 0.01, 1.0}, func(p *Params) *float64 { return &p.DT }},
	{Bound{"d_a", 0.01, 0.5}, func(p *Params) *float64 { return &p.DA }},
	{Bound{"tau", 0.1, 10.0}, func(p *Params) *float64 { return &p.Tau }},
	{Bound{"s_t", 0.1, 2.0}, func(p *Params) *float64 { return &p.ST }},
	{Bound{"s_a", 0.1, 1.0}, func(p *Params) *float64 { return &p.SA }},
}

// Ranges returns the validity range of every parameter in canonical order.
func Ranges() []Bound {
	out := make([]Bound, len(paramFields))
	for i, f := range paramFields {
		out[i] = f.Bound
	}
	return out
}

// ParamNames returns the wire names in canonical order.
func ParamNames() []string {
	out := make([]string, len(paramFields))
	for i, f := range paramFields {
		out[i] = f.Name
	}
	return out
}

func lookupParam(name string) (paramField, bool) {
	for _, f := range paramFields {
		if f.Name == name {
			return f, true
		}
	}
	return paramField{}, false
}

// Get returns the value of the named parameter.
func (p Params) Get(name string) (float64, error) {
	f, ok := lookupParam(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
	}
	return *f.ref(&p), nil
}

// With returns a copy of p with overrides applied by wire name. Values are
// not range-checked here; that happens in NewParameterSet.
func (p Params) With(overrides map[string]float64) (Params, error) {
	for name, v := range overrides {
		f, ok := lookupParam(name)
		if !ok {
			return Params{}, fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
		}
		*f.ref(&p) = v
	}
	return p, nil
}

func (p Params) Map() map[string]float64 {
	m := make(map[string]float64, len(paramFields))
	for _, f := range paramFields {
		m[f.Name] = *f.ref(&p)
	}
	return m
}

// Validate checks every parameter in canonical order and reports the first
// one outside its range.
func (p Params) Validate() error {
	for _, f := range paramFields {
		v := *f.ref(&p)
		if !f.Contains(v) {
			return &dynamo.ParameterOutOfRangeError{Name: f.Name, Value: v, Min: f.Min, Max: f.Max}
		}
	}
	return nil
}

// ParameterSet is a Params value that passed validation. The zero value is
// not usable; build one with NewParameterSet.
type ParameterSet struct {
	p Params
}

func NewParameterSet(p Params) (ParameterSet, error) {
	if err := p.Validate(); err != nil {
		return ParameterSet{}, err
	}
	return ParameterSet{p: p}, nil
}

// DefaultParameterSet returns the validated defaults.
func DefaultParameterSet() ParameterSet {
	return ParameterSet{p: DefaultParams()}
}

func (ps ParameterSet) Params() Params { return ps.p }
