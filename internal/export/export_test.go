package export

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/metrics"
	"github.com/san-kum/immunosim/internal/plot"
)

func sampleRun(t *testing.T) (dynamo.TimeGrid, *dynamo.Trajectory) {
	t.Helper()
	grid, err := dynamo.Linspace(0, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	traj, err := dynamo.NewTrajectory(4, 4, []float64{
		10, 1, 20, 0,
		62.5, 3.25, 20.1, 0.5,
		1.0 / 3.0, 1e-7, 25, 48.27,
		0, 0, 44.72, 30,
	})
	if err != nil {
		t.Fatal(err)
	}
	return grid, traj
}

func TestWriteCSV(t *testing.T) {
	grid, traj := sampleRun(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, grid, traj); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Time,Viral_Load,Infected_Cells,T_Cells,Antibodies" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if lines[1] != "0,10,1,20,0" {
		t.Errorf("unexpected first row: %q", lines[1])
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	grid, traj := sampleRun(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, grid, traj); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	g2, t2, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	for i := range grid {
		if g2[i] != grid[i] {
			t.Errorf("time %d: %g != %g", i, g2[i], grid[i])
		}
		for j := 0; j < 4; j++ {
			if t2.At(i, j) != traj.At(i, j) {
				t.Errorf("cell (%d,%d): %g != %g", i, j, t2.At(i, j), traj.At(i, j))
			}
		}
	}
}

func TestReadCSV_BadHeader(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("t,V,I,T,A\n0,1,2,3,4\n"))
	if err == nil {
		t.Error("expected error for foreign header")
	}
}

func TestSeriesOf(t *testing.T) {
	grid, traj := sampleRun(t)
	s := SeriesOf(grid, traj)

	if len(s.Time) != 4 || s.ViralLoad[1] != 62.5 || s.Antibodies[2] != 48.27 || s.TCells[3] != 44.72 {
		t.Errorf("unexpected series: %+v", s)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, key := range []string{"time", "viral_load", "infected_cells", "t_cells", "antibodies"} {
		if !strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("missing key %s", key)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	grid, traj := sampleRun(t)
	doc := Document{
		ID:      "run_1",
		Metrics: metrics.Derived{PeakViralLoad: 62.5, ClearanceTime: math.Inf(1)},
		Series:  SeriesOf(grid, traj),
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded Document
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ID != "run_1" || decoded.Metrics.Cleared() {
		t.Errorf("unexpected decode: %+v", decoded.Metrics)
	}
}

func TestWriteSVG(t *testing.T) {
	grid, traj := sampleRun(t)
	s := plot.DefaultSettings()
	s.Width, s.Height, s.DPI = 6, 4, 80

	var buf bytes.Buffer
	if err := WriteSVG(&buf, s, grid, traj); err != nil {
		t.Fatalf("WriteSVG failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("output is not SVG")
	}
}
