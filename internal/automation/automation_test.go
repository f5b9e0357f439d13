package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/dynamo"
	"github.com/san-kum/motosim/internal/storage"
)

const batchYAML = `name: smoke
description: short runs
steps:
  - preset: idle
    duration: 0.2
  - preset: wobble
    duration: 0.2
    episodes: 2
    params:
      strength: 0.8
    save_as: wobble-strong
`

func writeBatch(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadBatch(t *testing.T) {
	b, err := LoadBatch(writeBatch(t, batchYAML))
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "smoke" || len(b.Steps) != 2 {
		t.Fatalf("got %+v", b)
	}
	if b.Steps[1].Params["strength"] != 0.8 || b.Steps[1].Episodes != 2 {
		t.Errorf("step 2 = %+v", b.Steps[1])
	}

	if _, err := LoadBatch(writeBatch(t, "name: empty\n")); err == nil {
		t.Error("expected error for batch without steps")
	}
	if _, err := LoadBatch(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStepResolve(t *testing.T) {
	cfg, err := Step{Preset: "cruise", Duration: 3, Params: map[string]float64{"cruise.target_speed": 4}}.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Run.Duration != 3 || cfg.Cruise.TargetSpeed != 4 || cfg.Run.Pilot != "cruise" {
		t.Errorf("resolved %+v %+v", cfg.Run, cfg.Cruise)
	}

	cfgPath := filepath.Join(t.TempDir(), "c.yaml")
	base := config.DefaultConfig()
	base.Controller.Strength = 0.3
	if err := config.Save(cfgPath, base); err != nil {
		t.Fatal(err)
	}
	cfg, err = Step{Config: cfgPath, Preset: "ignored"}.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Controller.Strength != 0.3 {
		t.Errorf("config file not used: strength %v", cfg.Controller.Strength)
	}

	if _, err := (Step{Preset: "unicycle"}).Resolve(); !errors.Is(err, dynamo.ErrUnknownName) {
		t.Errorf("err = %v, want ErrUnknownName", err)
	}
	if _, err := (Step{Params: map[string]float64{"strength": 3}}).Resolve(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("err = %v, want ErrParameterBounds", err)
	}
}

func TestRunBatch(t *testing.T) {
	b, err := LoadBatch(writeBatch(t, batchYAML))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	var seen []string
	results, err := RunBatch(context.Background(), b, st, func(i int, name string) {
		seen = append(seen, name)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || len(seen) != 2 || seen[1] != "wobble-strong" {
		t.Fatalf("results=%d seen=%v", len(results), seen)
	}
	if len(results[1].Results) != 2 || len(results[1].RunIDs) != 2 {
		t.Errorf("step 2: %d results, %d ids", len(results[1].Results), len(results[1].RunIDs))
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Errorf("stored %d runs, want 3", len(runs))
	}

	upright, fallen := Stats(results)
	if upright+fallen != 3 {
		t.Errorf("stats %d+%d, want 3 episodes", upright, fallen)
	}
}

func TestRunBatchStopsOnError(t *testing.T) {
	b := &Batch{Name: "bad", Steps: []Step{
		{Preset: "idle", Duration: 0.1},
		{Preset: "idle", Pilot: "autopilot"},
		{Preset: "idle", Duration: 0.1},
	}}
	results, err := RunBatch(context.Background(), b, nil, nil)
	if !errors.Is(err, dynamo.ErrUnknownName) {
		t.Fatalf("err = %v, want ErrUnknownName", err)
	}
	if len(results) != 1 {
		t.Errorf("completed %d steps, want 1", len(results))
	}
	if results[0].RunIDs != nil {
		t.Error("nil store should not save")
	}
}
