package dynamo

import (
	"errors"
	"testing"
)

func TestTrajectory(t *testing.T) {
	tr, err := NewTrajectory(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})
	if err != nil {
		t.Fatalf("NewTrajectory failed: %v", err)
	}

	if tr.Rows() != 3 || tr.Cols() != 2 {
		t.Errorf("expected 3x2, got %dx%d", tr.Rows(), tr.Cols())
	}
	if got := tr.At(1, 1); got != 4 {
		t.Errorf("At(1,1) = %g, want 4", got)
	}

	col := tr.Column(0)
	if len(col) != 3 || col[2] != 5 {
		t.Errorf("Column(0) = %v", col)
	}
	col[0] = -1
	if tr.At(0, 0) != 1 {
		t.Error("Column should return a copy")
	}

	last := tr.Last()
	if last[0] != 5 || last[1] != 6 {
		t.Errorf("Last() = %v", last)
	}
}

func TestTrajectory_BadShape(t *testing.T) {
	if _, err := NewTrajectory(2, 2, []float64{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := NewTrajectory(0, 4, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for empty trajectory, got %v", err)
	}
}

func TestState_ClampNonNegative(t *testing.T) {
	s := State{-1e-12, 3, -5, 0}
	s.ClampNonNegative()
	for i, v := range s {
		if v < 0 {
			t.Errorf("component %d still negative: %g", i, v)
		}
	}
	if s[1] != 3 {
		t.Errorf("positive component changed: %g", s[1])
	}
}

func TestErrors_Is(t *testing.T) {
	var err error = &ParameterOutOfRangeError{Name: "beta", Value: 1, Min: 1e-8, Max: 1e-4}
	if !errors.Is(err, ErrParameterOutOfRange) {
		t.Error("ParameterOutOfRangeError should match ErrParameterOutOfRange")
	}

	err = &IntegrationError{Step: 10, Time: 1.5, Reason: "step size underflow"}
	if !errors.Is(err, ErrIntegrationFailure) {
		t.Error("IntegrationError should match ErrIntegrationFailure")
	}
	if errors.Is(err, ErrParameterOutOfRange) {
		t.Error("IntegrationError should not match ErrParameterOutOfRange")
	}
}
