package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/storage"
)

const scenarioYAML = `name: immunity-comparison
description: default against weakened killing
steps:
  - preset: default
    persist: true
  - name: weak
    params:
      k_t: 1.0e-7
      k_a: 1.0e-6
  - name: short
    duration: 10
    steps: 101
    integrator: rk4
    initial:
      V: 1000
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "immunity-comparison" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	if sc.Steps[1].Params["k_t"] != 1e-7 {
		t.Errorf("k_t = %g", sc.Steps[1].Params["k_t"])
	}
	if sc.Steps[2].Initial["V"] != 1000 {
		t.Errorf("V = %g", sc.Steps[2].Initial["V"])
	}
}

func TestLoadScenario_Empty(t *testing.T) {
	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	var seen []string
	results, err := RunScenario(context.Background(), sc, Options{
		Archive:  st,
		Progress: func(i, n int, name string) { seen = append(seen, name) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if want := []string{"default", "weak", "short"}; len(seen) != 3 || seen[0] != want[0] || seen[1] != want[1] || seen[2] != want[2] {
		t.Errorf("progress = %v, want %v", seen, want)
	}

	if results[0].RunID == "" {
		t.Error("persisted step has no run id")
	}
	if _, err := st.Load(context.Background(), results[0].RunID); err != nil {
		t.Errorf("load persisted run: %v", err)
	}
	if results[1].RunID != "" {
		t.Error("non-persisted step has a run id")
	}
	if !math.IsInf(results[1].Metrics.ClearanceTime, 1) {
		t.Errorf("weak immunity cleared at %g", results[1].Metrics.ClearanceTime)
	}
	if results[2].Metrics.PeakViralLoad < 1000 {
		t.Errorf("peak %g below inoculum", results[2].Metrics.PeakViralLoad)
	}
	for _, r := range results {
		if !r.Stable {
			t.Errorf("%s unstable", r.Name)
		}
	}
}

func TestRunScenario_StopsOnFailure(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Name: "ok", Steps: 50},
		{Name: "bad", Params: map[string]float64{"delta": 50}},
		{Name: "never"},
	}}
	results, err := RunScenario(context.Background(), sc, Options{})
	if !errors.Is(err, dynamo.ErrParameterOutOfRange) {
		t.Fatalf("expected parameter error, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result before failure, got %d", len(results))
	}
}

func TestRunScenario_UnknownPreset(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{{Preset: "nope"}}}
	if _, err := RunScenario(context.Background(), sc, Options{}); err == nil {
		t.Error("expected unknown preset error")
	}
}

func TestRunScenario_PersistWithoutArchive(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{{Steps: 20, Persist: true}}}
	if _, err := RunScenario(context.Background(), sc, Options{}); err == nil {
		t.Error("expected error when persisting without a store")
	}
}
