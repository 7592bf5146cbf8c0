package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds HTTP settings read from the environment.
type Server struct {
	Addr           string        `env:"IMMUNOSIM_ADDR" envDefault:":8000"`
	StaticDir      string        `env:"IMMUNOSIM_STATIC_DIR" envDefault:"frontend/static"`
	DataDir        string        `env:"IMMUNOSIM_DATA_DIR" envDefault:"results"`
	ConfigFile     string        `env:"IMMUNOSIM_CONFIG"`
	RequestTimeout time.Duration `env:"IMMUNOSIM_REQUEST_TIMEOUT" envDefault:"30s"`
	MaxSteps       int           `env:"IMMUNOSIM_MAX_GRID_STEPS" envDefault:"20000"`
	CORSOrigins    []string      `env:"IMMUNOSIM_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

func LoadServer() (Server, error) {
	s, err := env.ParseAs[Server]()
	if err != nil {
		return Server{}, fmt.Errorf("parse server env: %w", err)
	}
	return s, nil
}
