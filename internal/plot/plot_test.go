package plot

import (
	"bytes"
	"image/png"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/immunosim/internal/dynamo"
)

func sampleRun(t *testing.T) (dynamo.TimeGrid, *dynamo.Trajectory) {
	t.Helper()
	grid, err := dynamo.Linspace(0, 10, 50)
	if err != nil {
		t.Fatal(err)
	}
	data := make([]float64, 0, grid.Len()*4)
	for _, tm := range grid {
		v := 100 * math.Exp(-0.5*(tm-3)*(tm-3))
		data = append(data, v, v/10, 20+tm, 0)
	}
	traj, err := dynamo.NewTrajectory(grid.Len(), 4, data)
	if err != nil {
		t.Fatal(err)
	}
	return grid, traj
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("scatter"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestWritePNG(t *testing.T) {
	grid, traj := sampleRun(t)
	s := DefaultSettings()
	s.Width, s.Height, s.DPI = 4, 3, 50

	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePNG(&buf, k, s, grid, traj); err != nil {
				t.Fatalf("WritePNG failed: %v", err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
				t.Errorf("unexpected size %dx%d", b.Dx(), b.Dy())
			}
		})
	}
}

func TestSavePNG(t *testing.T) {
	grid, traj := sampleRun(t)
	s := DefaultSettings()
	s.DPI = 30

	path := filepath.Join(t.TempDir(), "nested", Linear.FileName("png"))
	if err := SavePNG(path, Linear, s, grid, traj); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}
}

func TestBuild_ShapeMismatch(t *testing.T) {
	grid, traj := sampleRun(t)
	if _, err := Build(Linear, DefaultSettings(), grid[:10], traj); err == nil {
		t.Error("expected error for mismatched grid")
	}
}
