package sim

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/san-kum/immunosim/internal/storage"
	"github.com/san-kum/immunosim/internal/storage/sqlite"
)

// OpenArchive opens the store behind destination: a SQLite file when it
// ends in .db or .sqlite, otherwise a run directory tree.
func OpenArchive(destination string) (storage.Archive, error) {
	switch strings.ToLower(filepath.Ext(destination)) {
	case ".db", ".sqlite":
		return sqlite.Open(destination)
	}
	st := storage.New(destination)
	if err := st.Init(); err != nil {
		return nil, fmt.Errorf("init store %s: %w", destination, err)
	}
	return st, nil
}

// Record packages res with its metrics and stability verdict.
func (r *Runner) Record(res *Result) storage.Record {
	return storage.Record{
		Grid:       res.Grid,
		Trajectory: res.Trajectory,
		Params:     res.Params.Params(),
		Initial:    res.Initial,
		Metrics:    r.Metrics(res),
		Stable:     r.Stability(res).Stable,
		Integrator: res.Integrator,
	}
}

// Persist stores res at destination and returns the run id.
func (r *Runner) Persist(ctx context.Context, res *Result, destination string) (string, error) {
	archive, err := OpenArchive(destination)
	if err != nil {
		return "", err
	}
	id, err := r.PersistTo(ctx, res, archive)
	if cerr := archive.Close(); err == nil && cerr != nil {
		return "", cerr
	}
	return id, err
}

func (r *Runner) PersistTo(ctx context.Context, res *Result, archive storage.Archive) (string, error) {
	id, err := archive.Save(ctx, r.Record(res))
	if err != nil {
		r.log.Error().Err(err).Msg("persist failed")
		return "", fmt.Errorf("persist run: %w", err)
	}
	r.log.Info().Str("run_id", id).Msg("run persisted")
	return id, nil
}
