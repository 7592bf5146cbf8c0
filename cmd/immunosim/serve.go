package main

import (
	"github.com/spf13/cobra"

	"github.com/san-kum/immunosim/internal/api"
	"github.com/san-kum/immunosim/internal/config"
	"github.com/san-kum/immunosim/internal/logger"
	"github.com/san-kum/immunosim/internal/sim"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: $IMMUNOSIM_ADDR or :8000)")
	cmd.Flags().StringVar(&configFile, "config", "", "model config file (default: $IMMUNOSIM_CONFIG)")
	return cmd
}

func serve(cmd *cobra.Command, args []string) error {
	srvCfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		srvCfg.Addr = serveAddr
	}
	if configFile != "" {
		srvCfg.ConfigFile = configFile
	}

	cfg := config.DefaultConfig()
	if srvCfg.ConfigFile != "" {
		if cfg, err = config.Load(srvCfg.ConfigFile); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	settings, err := cfg.Plot.Settings()
	if err != nil {
		return err
	}

	log := logger.Get()
	metrics := api.NewMetrics()
	runner, err := sim.FromConfig(cfg, sim.WithLogger(log), sim.WithObserver(metrics))
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithLogger(log),
		api.WithMetrics(metrics),
		api.WithPlotSettings(settings),
	}
	if srvCfg.DataDir != "" {
		archive, err := sim.OpenArchive(srvCfg.DataDir)
		if err != nil {
			return err
		}
		defer archive.Close()
		opts = append(opts, api.WithArchive(archive))
	}

	return api.New(srvCfg, runner, opts...).Run(cmd.Context())
}
