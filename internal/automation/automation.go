// Package automation runs scripted batches of simulations from YAML.
package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/immunosim/internal/config"
	"github.com/san-kum/immunosim/internal/logger"
	"github.com/san-kum/immunosim/internal/metrics"
	"github.com/san-kum/immunosim/internal/sim"
	"github.com/san-kum/immunosim/internal/storage"
)

// Scenario is a named sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Preset picks the starting configuration; the
// remaining fields override it.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Duration   float64            `yaml:"duration"`
	Steps      int                `yaml:"steps"`
	Integrator string             `yaml:"integrator"`
	Params     map[string]float64 `yaml:"params"`
	Initial    map[string]float64 `yaml:"initial"`
	Persist    bool               `yaml:"persist"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name    string
	Metrics metrics.Derived
	Stable  bool
	RunID   string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Options configures RunScenario. Archive is required only when a step
// sets persist.
type Options struct {
	Base     *config.Config
	Archive  storage.Archive
	Log      *logger.Logger
	Progress func(i, n int, name string)
}

func (s ScenarioStep) label(i int) string {
	if s.Name != "" {
		return s.Name
	}
	if s.Preset != "" {
		return s.Preset
	}
	return fmt.Sprintf("step-%d", i+1)
}

func (s ScenarioStep) config(base *config.Config) (*config.Config, error) {
	var cfg *config.Config
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	} else if base != nil {
		cfg = base.Clone()
	} else {
		cfg = config.DefaultConfig()
	}

	if s.Duration > 0 {
		cfg.SetDuration(s.Duration)
	}
	if s.Steps > 0 {
		cfg.Simulation.Steps = s.Steps
	}
	if s.Integrator != "" {
		cfg.Simulation.Integrator = s.Integrator
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, opt Options) ([]StepResult, error) {
	log := opt.Log
	if log == nil {
		log = logger.Nop()
	}
	log = logger.With(log, "batch")

	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		name := step.label(i)
		if opt.Progress != nil {
			opt.Progress(i+1, len(scenario.Steps), name)
		}

		cfg, err := step.config(opt.Base)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}
		runner, err := sim.FromConfig(cfg, sim.WithLogger(log))
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		res, err := runner.Run(ctx, sim.Request{Overrides: step.Params, Initial: step.Initial})
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		out := StepResult{
			Name:    name,
			Metrics: runner.Metrics(res),
			Stable:  runner.Stability(res).Stable,
		}
		if step.Persist {
			if opt.Archive == nil {
				return results, fmt.Errorf("step %d (%s): persist requested but no store configured", i+1, name)
			}
			if out.RunID, err = runner.PersistTo(ctx, res, opt.Archive); err != nil {
				return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
			}
		}
		results = append(results, out)
	}

	log.Info().Str("scenario", scenario.Name).Int("steps", len(results)).Msg("scenario complete")
	return results, nil
}
