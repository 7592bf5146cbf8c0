package integrators

import (
	"context"
	"testing"

	"github.com/san-kum/immunosim/internal/dynamo"
)

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler(1)
	dyn := oscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4(1)
	dyn := oscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkDormandPrince_Decay(b *testing.B) {
	solver := NewDormandPrince()
	grid := mustGrid(b, 0, 30, 1000)
	sys := &decay{rate: 0.5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := solver.Integrate(context.Background(), sys, dynamo.State{10}, grid); err != nil {
			b.Fatal(err)
		}
	}
}
