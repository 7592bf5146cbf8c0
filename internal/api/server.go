// Package api serves simulations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/immunosim/internal/config"
	"github.com/san-kum/immunosim/internal/logger"
	"github.com/san-kum/immunosim/internal/plot"
	"github.com/san-kum/immunosim/internal/sim"
	"github.com/san-kum/immunosim/internal/storage"
)

// Server is the HTTP front end. Every request builds its own run from
// the runner's immutable base configuration.
type Server struct {
	cfg     config.Server
	runner  *sim.Runner
	archive storage.Archive
	plots   plot.Settings
	metrics *Metrics
	log     *logger.Logger
	mux     *chi.Mux
	srv     *http.Server
}

type Option func(*Server)

// WithArchive enables /api/runs and persist=true.
func WithArchive(a storage.Archive) Option {
	return func(s *Server) { s.archive = a }
}

func WithPlotSettings(ps plot.Settings) Option {
	return func(s *Server) { s.plots = ps }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = logger.With(l, "http") }
}

// WithMetrics shares a registry, typically one the runner already reports to.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func New(cfg config.Server, runner *sim.Runner, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		runner: runner,
		plots:  plot.DefaultSettings(),
		log:    logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.mux = s.routes()
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) logFor(r *http.Request) *logger.Logger {
	return logger.C(r.Context(), s.log)
}

func (s *Server) routes() *chi.Mux {
	m := chi.NewRouter()
	m.Use(
		chimw.RequestID,
		chimw.RealIP,
		requestLogger,
		s.recoverJSON,
		s.accessLog(5*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
		}),
	)

	m.Get("/health", s.health)
	m.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	m.Route("/api", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(deadline(s.cfg.RequestTimeout))
		}
		r.Get("/run-simulation", s.runSimulation)
		r.Get("/plot/{plot_type}", s.plot)
		r.Get("/download-results", s.downloadResults)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
	})

	m.Get("/", s.index)
	m.Handle("/static/*", s.static())

	m.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Resource not found")
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return m
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http listening")
		err := s.srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errc <- err
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http shutting down")
	return s.srv.Shutdown(ctx)
}
