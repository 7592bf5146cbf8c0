package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/metrics"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Record is everything persisted for one run.
type Record struct {
	Grid       dynamo.TimeGrid
	Trajectory *dynamo.Trajectory
	Params     immunity.Params
	Initial    immunity.InitialState
	Metrics    metrics.Derived
	Stable     bool
	Integrator string
}

// Validate rejects incomplete or inconsistent records before anything is
// written.
func (r Record) Validate() error {
	if r.Trajectory == nil || r.Grid.Len() == 0 {
		return errors.New("storage: record has no trajectory")
	}
	if r.Trajectory.Rows() != r.Grid.Len() || r.Trajectory.Cols() != immunity.NumVars {
		return fmt.Errorf("%w: grid %d, trajectory %dx%d", dynamo.ErrDimensionMismatch, r.Grid.Len(), r.Trajectory.Rows(), r.Trajectory.Cols())
	}
	if err := r.Params.Validate(); err != nil {
		return err
	}
	return r.Initial.Validate()
}

// RunMetadata is the summary of a stored run.
type RunMetadata struct {
	ID           string                `json:"id"`
	Timestamp    time.Time             `json:"timestamp"`
	Parameters   immunity.Params       `json:"parameters"`
	InitialState immunity.InitialState `json:"initial_state"`
	Start        float64               `json:"start"`
	End          float64               `json:"end"`
	Steps        int                   `json:"steps"`
	Integrator   string                `json:"integrator,omitempty"`
	Metrics      metrics.Derived       `json:"metrics"`
	Stable       bool                  `json:"stable"`
}

func newMetadata(id string, now time.Time, r Record) RunMetadata {
	return RunMetadata{
		ID:           id,
		Timestamp:    now,
		Parameters:   r.Params,
		InitialState: r.Initial,
		Start:        r.Grid.Start(),
		End:          r.Grid.End(),
		Steps:        r.Grid.Len(),
		Integrator:   r.Integrator,
		Metrics:      r.Metrics,
		Stable:       r.Stable,
	}
}

// Archive is a run store.
type Archive interface {
	Save(ctx context.Context, r Record) (string, error)
	List(ctx context.Context) ([]RunMetadata, error)
	Load(ctx context.Context, id string) (*RunMetadata, error)
	LoadTrajectory(ctx context.Context, id string) (dynamo.TimeGrid, *dynamo.Trajectory, error)
	Close() error
}

// NewRunID returns run_<unix seconds>_<8 hex chars>.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("run_%d_%s", now.Unix(), uuid.NewString()[:8])
}

// ValidRunID rejects ids that could escape the store directory.
func ValidRunID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
