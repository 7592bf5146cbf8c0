// Package sqlite archives runs in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store persists runs in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the archive at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, r storage.Record) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	params, err := json.Marshal(r.Params)
	if err != nil {
		return "", err
	}
	initial, err := json.Marshal(r.Initial)
	if err != nil {
		return "", err
	}
	derived, err := json.Marshal(r.Metrics)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	runID := storage.NewRunID(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, parameters, initial_state, start_time, end_time, steps, integrator, metrics, stable)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, now.UnixMilli(), string(params), string(initial),
		r.Grid.Start(), r.Grid.End(), r.Grid.Len(), r.Integrator, string(derived), r.Stable,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run_id, idx, t, v, i, tc, a) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare samples: %w", err)
	}
	defer stmt.Close()

	for i, t := range r.Grid {
		row := r.Trajectory.Row(i)
		if _, err := stmt.ExecContext(ctx, runID, i, t,
			row[immunity.IdxV], row[immunity.IdxI], row[immunity.IdxT], row[immunity.IdxA],
		); err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

const selectRun = `SELECT id, created_at, parameters, initial_state, start_time, end_time, steps, integrator, metrics, stable FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (storage.RunMetadata, error) {
	var (
		meta                     storage.RunMetadata
		createdAt                int64
		params, initial, derived string
	)
	if err := row.Scan(&meta.ID, &createdAt, &params, &initial, &meta.Start, &meta.End, &meta.Steps, &meta.Integrator, &derived, &meta.Stable); err != nil {
		return meta, err
	}
	meta.Timestamp = time.UnixMilli(createdAt).UTC()
	if err := json.Unmarshal([]byte(params), &meta.Parameters); err != nil {
		return meta, fmt.Errorf("decode parameters: %w", err)
	}
	if err := json.Unmarshal([]byte(initial), &meta.InitialState); err != nil {
		return meta, fmt.Errorf("decode initial state: %w", err)
	}
	if err := json.Unmarshal([]byte(derived), &meta.Metrics); err != nil {
		return meta, fmt.Errorf("decode metrics: %w", err)
	}
	return meta, nil
}

// List returns stored runs, newest first.
func (s *Store) List(ctx context.Context) ([]storage.RunMetadata, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]storage.RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *Store) Load(ctx context.Context, id string) (*storage.RunMetadata, error) {
	meta, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(ctx context.Context, id string) (dynamo.TimeGrid, *dynamo.Trajectory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t, v, i, tc, a FROM samples WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load samples: %w", err)
	}
	defer rows.Close()

	var times, data []float64
	for rows.Next() {
		var t float64
		var x [immunity.NumVars]float64
		if err := rows.Scan(&t, &x[immunity.IdxV], &x[immunity.IdxI], &x[immunity.IdxT], &x[immunity.IdxA]); err != nil {
			return nil, nil, err
		}
		times = append(times, t)
		data = append(data, x[:]...)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(times) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}

	grid, err := dynamo.NewTimeGrid(times)
	if err != nil {
		return nil, nil, err
	}
	traj, err := dynamo.NewTrajectory(len(times), immunity.NumVars, data)
	if err != nil {
		return nil, nil, err
	}
	return grid, traj, nil
}

var _ storage.Archive = (*Store)(nil)
