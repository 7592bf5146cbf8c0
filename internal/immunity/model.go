package immunity

import (
	"math"

	"github.com/san-kum/immunosim/internal/dynamo"
)

// Fixed structural constants of the equations.
const (
	tCellVirusKill       = 0.005
	infectedCapacity     = 1000.0
	tCellStimHalfSat     = 100.0
	antibodyVirusHalf    = 100.0
	infectedAntibodyRate = 0.1
	gateSteepness        = 3.0
)

// Model is the four-compartment virus / infected cell / T cell / antibody
// system. It holds only a validated ParameterSet and is safe for concurrent
// use.
type Model struct {
	p Params
}

func NewModel(ps ParameterSet) *Model {
	return &Model{p: ps.p}
}

func (m *Model) StateDim() int { return NumVars }

func (m *Model) Params() Params { return m.p }

// Gate is the logistic immune-activation switch 1/(1+exp(-3(t-tau))).
func Gate(t, tau float64) float64 {
	return 1 / (1 + math.Exp(-gateSteepness*(t-tau)))
}

// Derive returns (dV/dt, dI/dt, dT/dt, dA/dt). Inputs are not clamped.
func (m *Model) Derive(x dynamo.State, t float64) dynamo.State {
	p := &m.p
	v, i, tc, a := x[IdxV], x[IdxI], x[IdxT], x[IdxA]
	g := Gate(t, p.Tau)

	dx := make(dynamo.State, NumVars)

	dx[IdxV] = p.P*i -
		p.C*v -
		p.KA*a*v -
		tCellVirusKill*tc*v

	dx[IdxI] = p.Beta*v*(1-i/infectedCapacity) -
		p.Delta*i -
		p.KT*tc*i

	// s_t stimulation is not gated.
	dx[IdxT] = g*p.R*tc*i/(p.Theta+i) +
		p.ST*i*tc/(tCellStimHalfSat+i) -
		p.DT*tc

	dx[IdxA] = g*p.SA*v*tc/(antibodyVirusHalf+v) +
		g*infectedAntibodyRate*i -
		p.DA*a

	return dx
}
