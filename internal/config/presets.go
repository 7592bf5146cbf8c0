package config

import "sort"

type preset struct {
	description string
	apply       func(*Config)
}

var presets = map[string]preset{
	"default": {
		description: "baseline infection, 30 days",
		apply:       func(*Config) {},
	},
	"high-inoculum": {
		description: "hundredfold inoculum that drives clonal T cell expansion",
		apply: func(c *Config) {
			c.InitialConditions.V = 1000
			c.InitialConditions.I = 10
		},
	},
	"severe": {
		description: "very large inoculum with a strong early burst",
		apply: func(c *Config) {
			c.InitialConditions.V = 1e4
			c.InitialConditions.I = 100
		},
	},
	"weak-immunity": {
		description: "minimal T cell killing and antibody neutralization",
		apply: func(c *Config) {
			c.Parameters.KT = 1e-7
			c.Parameters.KA = 1e-6
		},
	},
	"delayed-response": {
		description: "immune activation held back to day 8",
		apply: func(c *Config) {
			c.Parameters.Tau = 8
		},
	},
	"long-term": {
		description: "baseline followed for 100 days",
		apply: func(c *Config) {
			c.Simulation.End = 100
			c.Simulation.Steps = 2000
		},
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

func DescribePreset(name string) string {
	return presets[name].description
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
