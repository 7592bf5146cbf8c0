package dynamo

import (
	"errors"
	"fmt"
)

var (
	ErrParameterOutOfRange = errors.New("dynamo: parameter out of valid range")

	ErrInitialConditionOutOfRange = errors.New("dynamo: initial condition out of valid range")

	// ErrUnknownParameter indicates an override naming no known parameter.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")

	// ErrIntegrationFailure indicates the solver could not reach the end of the grid.
	ErrIntegrationFailure = errors.New("dynamo: integration failed")

	ErrInvalidGrid = errors.New("dynamo: invalid time grid")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// ParameterOutOfRangeError reports the first parameter found outside its
// closed range. It matches ErrParameterOutOfRange under errors.Is.
type ParameterOutOfRangeError struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

func (e *ParameterOutOfRangeError) Error() string {
	return fmt.Sprintf("parameter %s = %g outside valid range [%g, %g]", e.Name, e.Value, e.Min, e.Max)
}

func (e *ParameterOutOfRangeError) Is(target error) bool {
	return target == ErrParameterOutOfRange
}

type InitialConditionOutOfRangeError struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

func (e *InitialConditionOutOfRangeError) Error() string {
	return fmt.Sprintf("initial condition %s = %g outside valid range [%g, %g]", e.Name, e.Value, e.Min, e.Max)
}

func (e *InitialConditionOutOfRangeError) Is(target error) bool {
	return target == ErrInitialConditionOutOfRange
}

// IntegrationError wraps a solver failure with the point it was reached.
type IntegrationError struct {
	Step   int
	Time   float64
	State  State
	Reason string
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration failed at step %d (t=%.6g): %s", e.Step, e.Time, e.Reason)
}

func (e *IntegrationError) Is(target error) bool {
	return target == ErrIntegrationFailure
}
