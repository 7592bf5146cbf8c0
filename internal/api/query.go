package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/san-kum/immunosim/internal/immunity"
)

// SimulationQuery holds the non-parameter fields of /api/run-simulation.
type SimulationQuery struct {
	Duration *float64 `validate:"omitempty,gt=0,lte=3650"`
	Steps    *int     `validate:"omitempty,min=2"`
	PlotType string   `validate:"omitempty,oneof=linear log phase"`
	Persist  bool
}

// parsedQuery is a SimulationQuery plus the parameter and initial state
// overrides found in the same query string.
type parsedQuery struct {
	SimulationQuery
	Overrides map[string]float64
	Initial   map[string]float64
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func parseFloat(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &badRequest{msg: "invalid value for " + key + ": " + raw}
	}
	return &v, nil
}

func parseSimulationQuery(q url.Values, maxSteps int) (parsedQuery, error) {
	var out parsedQuery
	var err error

	if out.Duration, err = parseFloat(q, "duration"); err != nil {
		return out, err
	}
	if raw := strings.TrimSpace(q.Get("steps")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return out, &badRequest{msg: "invalid value for steps: " + raw}
		}
		out.Steps = &n
	}
	out.PlotType = q.Get("plot_type")
	if raw := q.Get("persist"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return out, &badRequest{msg: "invalid value for persist: " + raw}
		}
		out.Persist = b
	}

	if err := validate.Struct(out.SimulationQuery); err != nil {
		return out, &badRequest{msg: describeValidation(err)}
	}
	if out.Steps != nil && maxSteps > 0 && *out.Steps > maxSteps {
		return out, &badRequest{msg: "steps exceeds limit of " + strconv.Itoa(maxSteps)}
	}

	out.Overrides = map[string]float64{}
	for _, name := range immunity.ParamNames() {
		v, err := parseFloat(q, name)
		if err != nil {
			return out, err
		}
		if v != nil {
			out.Overrides[name] = *v
		}
	}
	out.Initial = map[string]float64{}
	for _, name := range immunity.VarNames {
		v, err := parseFloat(q, name)
		if err != nil {
			return out, err
		}
		if v != nil {
			out.Initial[name] = *v
		}
	}
	return out, nil
}

var queryNames = map[string]string{
	"Duration": "duration",
	"Steps":    "steps",
	"PlotType": "plot_type",
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	name := queryNames[fe.Field()]
	switch fe.Tag() {
	case "oneof":
		return name + " must be one of: " + fe.Param()
	case "gt":
		return name + " must be greater than " + fe.Param()
	case "lte":
		return name + " must be at most " + fe.Param()
	case "min":
		return name + " must be at least " + fe.Param()
	default:
		return "invalid value for " + name
	}
}
