package api

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/san-kum/immunosim/internal/export"
	"github.com/san-kum/immunosim/internal/metrics"
	"github.com/san-kum/immunosim/internal/plot"
	"github.com/san-kum/immunosim/internal/sim"
	"github.com/san-kum/immunosim/internal/storage"
)

type simulationResponse struct {
	Success bool            `json:"success"`
	Data    export.Series   `json:"data"`
	Metrics metrics.Derived `json:"metrics"`
	Stable  bool            `json:"stable"`
	RunID   string          `json:"run_id,omitempty"`
}

type plotResponse struct {
	Success bool   `json:"success"`
	Plot    string `json:"plot"`
}

type runsResponse struct {
	Success bool                  `json:"success"`
	Runs    []storage.RunMetadata `json:"runs"`
}

type runResponse struct {
	Success bool                 `json:"success"`
	Run     *storage.RunMetadata `json:"run"`
	Data    *export.Series       `json:"data,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) runSimulation(w http.ResponseWriter, r *http.Request) {
	q, err := parseSimulationQuery(r.URL.Query(), s.cfg.MaxSteps)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	grid := s.runner.BaseGrid()
	if q.Duration != nil {
		grid.End = grid.Start + *q.Duration
	}
	if q.Steps != nil {
		grid.Steps = *q.Steps
	}

	res, err := s.runner.Run(r.Context(), sim.Request{
		Overrides: q.Overrides,
		Initial:   q.Initial,
		Grid:      &grid,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	report := s.runner.Stability(res)
	if !report.Stable {
		s.metrics.unstable.Inc()
		s.logFor(r).Warn().Str("reason", report.String()).Msg("unstable result rejected")
		s.fail(w, r, ErrUnstable)
		return
	}

	resp := simulationResponse{
		Success: true,
		Data:    export.SeriesOf(res.Grid, res.Trajectory),
		Metrics: s.runner.Metrics(res),
		Stable:  true,
	}
	if q.Persist {
		if s.archive == nil {
			s.fail(w, r, &badRequest{msg: "persistence is not configured"})
			return
		}
		id, err := s.runner.PersistTo(r.Context(), res, s.archive)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.RunID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) plot(w http.ResponseWriter, r *http.Request) {
	kind, err := plot.ParseKind(chi.URLParam(r, "plot_type"))
	if err != nil {
		s.fail(w, r, &badRequest{msg: err.Error()})
		return
	}
	res, err := s.runner.Run(r.Context(), sim.Request{})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := plot.WritePNG(&buf, kind, s.plots, res.Grid, res.Trajectory); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plotResponse{
		Success: true,
		Plot:    base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

func (s *Server) downloadResults(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Run(r.Context(), sim.Request{})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, res.Grid, res.Trajectory); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="simulation_results.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusOK, runsResponse{Success: true, Runs: []storage.RunMetadata{}})
		return
	}
	runs, err := s.archive.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []storage.RunMetadata{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Success: true, Runs: runs})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.archive == nil {
		s.fail(w, r, storage.ErrRunNotFound)
		return
	}
	meta, err := s.archive.Load(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := runResponse{Success: true, Run: meta}
	if r.URL.Query().Get("data") == "true" {
		grid, traj, err := s.archive.LoadTrajectory(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		series := export.SeriesOf(grid, traj)
		resp.Data = &series
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.cfg.StaticDir, "index.html")
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "Frontend file not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) static() http.Handler {
	if fi, err := os.Stat(s.cfg.StaticDir); err != nil || !fi.IsDir() {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "Resource not found")
		})
	}
	return http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir)))
}
