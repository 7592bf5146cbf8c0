package dynamo

import (
	"errors"
	"testing"
)

func TestLinspace(t *testing.T) {
	g, err := Linspace(0, 100, 1000)
	if err != nil {
		t.Fatalf("Linspace failed: %v", err)
	}
	if g.Len() != 1000 {
		t.Errorf("expected 1000 points, got %d", g.Len())
	}
	if g.Start() != 0 || g.End() != 100 {
		t.Errorf("expected [0, 100], got [%g, %g]", g.Start(), g.End())
	}
	for i := 1; i < g.Len(); i++ {
		if g[i] <= g[i-1] {
			t.Fatalf("grid not increasing at %d: %g <= %g", i, g[i], g[i-1])
		}
	}
}

func TestLinspace_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		n          int
	}{
		{"single point", 0, 10, 1},
		{"empty span", 5, 5, 10},
		{"reversed", 10, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Linspace(tt.start, tt.end, tt.n)
			if !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}

func TestNewTimeGrid(t *testing.T) {
	src := []float64{0, 0.5, 2}
	g, err := NewTimeGrid(src)
	if err != nil {
		t.Fatalf("NewTimeGrid failed: %v", err)
	}
	src[0] = 99
	if g[0] != 0 {
		t.Error("NewTimeGrid should copy its input")
	}

	if _, err := NewTimeGrid([]float64{0, 1, 1}); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("expected ErrInvalidGrid for repeated point, got %v", err)
	}
	if _, err := NewTimeGrid(nil); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("expected ErrInvalidGrid for empty grid, got %v", err)
	}
}
