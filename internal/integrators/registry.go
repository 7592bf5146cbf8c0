package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/immunosim/internal/dynamo"
)

const DefaultMethod = "rk45"

var registry = map[string]func(substeps int) dynamo.Integrator{
	"rk45":  func(int) dynamo.Integrator { return NewDormandPrince() },
	"rk4":   func(n int) dynamo.Integrator { return NewRK4(n) },
	"euler": func(n int) dynamo.Integrator { return NewEuler(n) },
}

// New returns the named integrator. substeps only applies to fixed-step
// methods.
func New(name string, substeps int) (dynamo.Integrator, error) {
	if name == "" {
		name = DefaultMethod
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(substeps), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
