package immunity

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/immunosim/internal/dynamo"
)

func TestDefaultParams_Valid(t *testing.T) {
	if _, err := NewParameterSet(DefaultParams()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if err := DefaultInitialState().Validate(); err != nil {
		t.Fatalf("default initial state should validate: %v", err)
	}
}

func TestNewParameterSet_OutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value float64
	}{
		{"beta too large", "beta", 1e-3},
		{"delta too small", "delta", 0.05},
		{"p too large", "p", 5000},
		{"k_t zero", "k_t", 0},
		{"tau negative", "tau", -1},
		{"s_a nan", "s_a", math.NaN()},
		{"theta inf", "theta", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DefaultParams().With(map[string]float64{tt.param: tt.value})
			if err != nil {
				t.Fatalf("With failed: %v", err)
			}

			_, err = NewParameterSet(p)
			if !errors.Is(err, dynamo.ErrParameterOutOfRange) {
				t.Fatalf("expected ErrParameterOutOfRange, got %v", err)
			}

			var pe *dynamo.ParameterOutOfRangeError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParameterOutOfRangeError, got %T", err)
			}
			if pe.Name != tt.param {
				t.Errorf("error names %q, want %q", pe.Name, tt.param)
			}
		})
	}
}

func TestNewParameterSet_BoundsInclusive(t *testing.T) {
	for _, b := range Ranges() {
		for _, v := range []float64{b.Min, b.Max} {
			p, err := DefaultParams().With(map[string]float64{b.Name: v})
			if err != nil {
				t.Fatalf("With(%s) failed: %v", b.Name, err)
			}
			if _, err := NewParameterSet(p); err != nil {
				t.Errorf("%s = %g should be accepted: %v", b.Name, v, err)
			}
		}
	}
}

func TestNewParameterSet_ReportsFirstInOrder(t *testing.T) {
	p, _ := DefaultParams().With(map[string]float64{"s_a": 5, "beta": 1})
	_, err := NewParameterSet(p)

	var pe *dynamo.ParameterOutOfRangeError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParameterOutOfRangeError, got %v", err)
	}
	if pe.Name != "beta" {
		t.Errorf("expected beta reported first, got %s", pe.Name)
	}
}

func TestParams_WithUnknown(t *testing.T) {
	_, err := DefaultParams().With(map[string]float64{"bta": 1e-5})
	if !errors.Is(err, dynamo.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestParams_WithLeavesReceiver(t *testing.T) {
	base := DefaultParams()
	p, err := base.With(map[string]float64{"k_t": 1e-4})
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if p.KT != 1e-4 {
		t.Errorf("override not applied: %g", p.KT)
	}
	if base.KT != 2e-4 {
		t.Errorf("receiver mutated: %g", base.KT)
	}
}

func TestParams_MapRoundTrip(t *testing.T) {
	m := DefaultParams().Map()
	if len(m) != len(ParamNames()) {
		t.Fatalf("Map has %d entries, want %d", len(m), len(ParamNames()))
	}

	p, err := Params{}.With(m)
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if p != DefaultParams() {
		t.Errorf("round trip mismatch: %+v", p)
	}

	for _, name := range ParamNames() {
		v, err := p.Get(name)
		if err != nil || v != m[name] {
			t.Errorf("Get(%s) = %g, %v; want %g", name, v, err, m[name])
		}
	}
}

func TestNewInitialState(t *testing.T) {
	tests := []struct {
		name       string
		v, i, t, a float64
		bad        string
	}{
		{"defaults", 10, 1, 20, 0, ""},
		{"upper bounds", 1e6, 1e5, 1e4, 1e3, ""},
		{"negative virus", -1, 1, 20, 0, "V"},
		{"too many infected", 10, 2e5, 20, 0, "I"},
		{"too many antibodies", 10, 1, 20, 1e4, "A"},
		{"nan t cells", 10, 1, math.NaN(), 0, "T"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInitialState(tt.v, tt.i, tt.t, tt.a)
			if tt.bad == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var ie *dynamo.InitialConditionOutOfRangeError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *InitialConditionOutOfRangeError, got %v", err)
			}
			if ie.Name != tt.bad {
				t.Errorf("error names %q, want %q", ie.Name, tt.bad)
			}
			if !errors.Is(err, dynamo.ErrInitialConditionOutOfRange) {
				t.Error("expected match on ErrInitialConditionOutOfRange")
			}
		})
	}
}

func TestInitialState_With(t *testing.T) {
	s, err := DefaultInitialState().With(map[string]float64{"V": 1000, "I": 10})
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if s.V != 1000 || s.I != 10 || s.T != 20 {
		t.Errorf("unexpected state: %+v", s)
	}

	if _, err := s.With(map[string]float64{"X": 1}); !errors.Is(err, dynamo.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}
