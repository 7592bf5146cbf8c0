package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/integrators"
	"github.com/san-kum/immunosim/internal/metrics"
)

const (
	DefaultStart    = 0.0
	DefaultDuration = 30.0
	DefaultSteps    = 1000
)

// Config is the model configuration file. Fields missing from a file keep
// their defaults.
type Config struct {
	Parameters        immunity.Params       `yaml:"parameters"`
	InitialConditions immunity.InitialState `yaml:"initial_conditions"`
	Simulation        SimulationConfig      `yaml:"simulation"`
	Plot              PlotConfig            `yaml:"plot"`
	Stability         metrics.Ceilings      `yaml:"stability"`
	Thresholds        metrics.Thresholds    `yaml:"thresholds"`
}

type SimulationConfig struct {
	Start      float64 `yaml:"start"`
	End        float64 `yaml:"end"`
	Steps      int     `yaml:"steps"`
	Integrator string  `yaml:"integrator"`
	Substeps   int     `yaml:"substeps"`
}

func DefaultConfig() *Config {
	return &Config{
		Parameters:        immunity.DefaultParams(),
		InitialConditions: immunity.DefaultInitialState(),
		Simulation: SimulationConfig{
			Start:      DefaultStart,
			End:        DefaultDuration,
			Steps:      DefaultSteps,
			Integrator: integrators.DefaultMethod,
			Substeps:   1,
		},
		Plot:       DefaultPlotConfig(),
		Stability:  metrics.DefaultCeilings(),
		Thresholds: metrics.DefaultThresholds(),
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(DefaultConfig(), path)
}

// LoadOver reads path on top of base, which is modified in place.
func LoadOver(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first invalid field. Range errors keep their
// dynamo types.
func (c *Config) Validate() error {
	if err := c.Parameters.Validate(); err != nil {
		return err
	}
	if err := c.InitialConditions.Validate(); err != nil {
		return err
	}
	if c.Simulation.Steps < 2 {
		return fmt.Errorf("simulation.steps must be at least 2, got %d", c.Simulation.Steps)
	}
	if !(c.Simulation.End > c.Simulation.Start) {
		return fmt.Errorf("simulation.end (%g) must exceed simulation.start (%g)", c.Simulation.End, c.Simulation.Start)
	}
	if !(c.Thresholds.ClearanceFraction > 0 && c.Thresholds.ClearanceFraction < 1) {
		return errors.New("thresholds.clearance_fraction must be in (0, 1)")
	}
	return nil
}

// Duration is the length of the simulated span.
func (c *Config) Duration() float64 {
	return c.Simulation.End - c.Simulation.Start
}

// SetDuration keeps Start and moves End.
func (c *Config) SetDuration(d float64) {
	c.Simulation.End = c.Simulation.Start + d
}

func (c *Config) Clone() *Config {
	cp := *c
	cp.Plot.Colors = make(map[string]string, len(c.Plot.Colors))
	for k, v := range c.Plot.Colors {
		cp.Plot.Colors[k] = v
	}
	return &cp
}
