package immunity

// UncheckedParameterSet builds a ParameterSet without range validation so
// tests can exercise the equations outside the validated region.
func UncheckedParameterSet(p Params) ParameterSet {
	return ParameterSet{p: p}
}
