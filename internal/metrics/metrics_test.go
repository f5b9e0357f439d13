package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/control"
	"github.com/san-kum/motosim/internal/sim"
	"github.com/san-kum/motosim/internal/wheel"
)

func grounded() sim.Observation {
	return sim.Observation{
		Mode:  control.Grounded,
		Front: wheel.State{Grounded: true},
		Rear:  wheel.State{Grounded: true},
	}
}

func TestUpright(t *testing.T) {
	m := NewUpright(0.2)
	if m.Value() != 1 {
		t.Errorf("no samples should read as upright, got %v", m.Value())
	}

	for _, roll := range []float64{0, 0.1, -0.3, 0.5} {
		obs := grounded()
		obs.Roll = roll
		m.Observe(obs)
	}
	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %v", m.Value())
	}

	m.Reset()
	if m.Value() != 1 {
		t.Error("expected reset")
	}
}

func TestMaxRoll(t *testing.T) {
	m := NewMaxRoll()
	for _, roll := range []float64{0.1, -0.4, 0.2} {
		m.Observe(sim.Observation{Roll: roll})
	}
	if m.Value() != 0.4 {
		t.Errorf("expected 0.4, got %v", m.Value())
	}
}

func TestAirtime(t *testing.T) {
	m := NewAirtime()
	m.Observe(grounded())
	m.Observe(sim.Observation{Mode: control.Airborne})
	m.Observe(sim.Observation{Mode: control.Airborne})
	m.Observe(grounded())

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %v", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.Observe(sim.Observation{Actions: [3]float64{0.5, 0, -0.5}})
	m.Observe(sim.Observation{Actions: [3]float64{0, 1, 0}})

	if m.Value() != 1 {
		t.Errorf("expected 1, got %v", m.Value())
	}
}

func TestRollRate(t *testing.T) {
	m := NewRollRate()
	m.Observe(sim.Observation{RollRate: 3})
	m.Observe(sim.Observation{RollRate: -4})

	want := math.Sqrt((9 + 16) / 2.0)
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, m.Value())
	}
}

func TestStandardOnRun(t *testing.T) {
	cfg := config.GetPreset("wobble")
	cfg.Run.Duration = 2
	s, err := sim.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, m := range Standard() {
		s.AddMetric(m)
	}

	result, err := s.Run(context.Background(), zeroPilot{}, sim.RunConfig(cfg))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{"upright", "max_roll", "airtime", "control_effort", "roll_rate_rms"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("metric %s missing", name)
		}
	}
	if got := result.Metrics["max_roll"]; math.Abs(got-cfg.Run.Start.Roll) > 0.05 {
		t.Errorf("max roll %v, want about the starting lean %v", got, cfg.Run.Start.Roll)
	}
	if result.Metrics["control_effort"] != 0 {
		t.Errorf("idle pilot spent effort %v", result.Metrics["control_effort"])
	}
	if result.Metrics["airtime"] != 0 {
		t.Errorf("vehicle at rest reported airtime %v", result.Metrics["airtime"])
	}
}

type zeroPilot struct{}

func (zeroPilot) Act(sim.Observation) [3]float64 { return [3]float64{} }
