package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/metrics"
	"github.com/san-kum/immunosim/internal/storage"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleRecord(t *testing.T) storage.Record {
	t.Helper()
	grid, err := dynamo.Linspace(0, 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	traj, err := dynamo.NewTrajectory(3, 4, []float64{
		10, 1, 20, 0,
		50, 2.5, 21, 3,
		0.1, 0.01, 35, 12,
	})
	if err != nil {
		t.Fatal(err)
	}
	return storage.Record{
		Grid:       grid,
		Trajectory: traj,
		Params:     immunity.DefaultParams(),
		Initial:    immunity.DefaultInitialState(),
		Metrics:    metrics.Extract(grid, traj),
		Stable:     true,
		Integrator: "rk45",
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	rec := sampleRecord(t)

	id, err := st.Save(ctx, rec)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(ctx, id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Parameters != rec.Params || meta.InitialState != rec.Initial {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if !meta.Stable || meta.Steps != 3 || meta.Integrator != "rk45" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Metrics != rec.Metrics {
		t.Errorf("metrics mismatch: %+v vs %+v", meta.Metrics, rec.Metrics)
	}

	grid, traj, err := st.LoadTrajectory(ctx, id)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if grid.Len() != 3 || traj.At(1, immunity.IdxV) != 50 || traj.At(2, immunity.IdxA) != 12 {
		t.Errorf("unexpected samples: grid=%v", grid)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	base := time.Unix(1700000000, 0)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		st.now = func() time.Time { return at }
		id, err := st.Save(ctx, sampleRecord(t))
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
		ids = append(ids, id)
	}

	runs, err := st.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Errorf("unexpected order: %+v", runs)
	}
}

func TestStore_NotFound(t *testing.T) {
	st := openTemp(t)
	if _, err := st.Load(context.Background(), "run_0_missing"); !errors.Is(err, storage.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, _, err := st.LoadTrajectory(context.Background(), "run_0_missing"); !errors.Is(err, storage.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	id, err := st.Save(context.Background(), sampleRecord(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	_ = st.Close()

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st.Close()
	if _, err := st.Load(context.Background(), id); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE x (a INT);\n-- +migrate Down\nDROP TABLE x;\n")
	if got != "\nCREATE TABLE x (a INT);\n" {
		t.Errorf("unexpected up section %q", got)
	}
}
