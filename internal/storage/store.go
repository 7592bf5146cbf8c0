package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/immunosim/internal/config"
	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/export"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	configFile     = "config.yaml"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

// RunDir is the directory holding run id.
func (s *Store) RunDir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// Save writes the run into a staging directory and renames it into place,
// so a listed run is always complete.
func (s *Store) Save(ctx context.Context, r Record) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if err := s.Init(); err != nil {
		return "", err
	}

	now := s.now()
	runID := NewRunID(now)
	staging, err := os.MkdirTemp(s.baseDir, ".staging-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)

	if err := writeJSON(filepath.Join(staging, metadataFile), newMetadata(runID, now, r)); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(staging, trajectoryFile), r); err != nil {
		return "", err
	}

	cfg := config.DefaultConfig()
	cfg.Parameters = r.Params
	cfg.InitialConditions = r.Initial
	cfg.Simulation.Start = r.Grid.Start()
	cfg.Simulation.End = r.Grid.End()
	cfg.Simulation.Steps = r.Grid.Len()
	if r.Integrator != "" {
		cfg.Simulation.Integrator = r.Integrator
	}
	if err := config.Save(filepath.Join(staging, configFile), cfg); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(staging, s.RunDir(runID)); err != nil {
		return "", fmt.Errorf("commit run %s: %w", runID, err)
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeTrajectory(path string, r Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, r.Grid, r.Trajectory); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns stored runs, newest first. Unreadable entries are skipped.
func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		meta, err := s.Load(ctx, entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(ctx context.Context, runID string) (*RunMetadata, error) {
	if !ValidRunID(runID) {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(ctx context.Context, runID string) (dynamo.TimeGrid, *dynamo.Trajectory, error) {
	if !ValidRunID(runID) {
		return nil, nil, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	f, err := os.Open(filepath.Join(s.RunDir(runID), trajectoryFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, nil, err
	}
	defer f.Close()

	return export.ReadCSV(f)
}

func (s *Store) Close() error { return nil }

var _ Archive = (*Store)(nil)
