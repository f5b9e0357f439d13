// Package pilot provides the action sources that fly the vehicle: idle,
// manual, scripted and cruise control.
package pilot

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/dynamo"
	"github.com/san-kum/motosim/internal/sim"
)

// None never touches the controls.
type None struct{}

func NewNone() *None { return &None{} }

func (n *None) Act(sim.Observation) [3]float64 { return [3]float64{} }

// Manual returns whatever was last set, so another goroutine such as a UI
// can steer while the simulation runs.
type Manual struct {
	mu      sync.Mutex
	actions [3]float64
}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) Set(throttle, frontBrake, steer float64) {
	m.mu.Lock()
	m.actions = [3]float64{throttle, frontBrake, steer}
	m.mu.Unlock()
}

func (m *Manual) Actions() [3]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actions
}

func (m *Manual) Act(sim.Observation) [3]float64 { return m.Actions() }

func (m *Manual) Reset() { m.Set(0, 0, 0) }

// Script replays time segments; past the last segment it lets go.
type Script struct {
	segments []config.Segment
}

func NewScript(segments []config.Segment) *Script {
	s := make([]config.Segment, len(segments))
	copy(s, segments)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Until < s[j].Until })
	return &Script{segments: s}
}

func (s *Script) Act(obs sim.Observation) [3]float64 {
	for _, seg := range s.segments {
		if obs.Time < seg.Until {
			return [3]float64{seg.Throttle, seg.FrontBrake, seg.Steer}
		}
	}
	return [3]float64{}
}

// frontBrakeThreshold is the speed-loop output below which the front brake
// joins the rear.
const frontBrakeThreshold = -0.5

// Cruise holds a target speed with a PID on throttle and brakes and steers
// on a fixed schedule.
type Cruise struct {
	pid         *PID
	steer       float64
	weavePeriod float64
}

func NewCruise(cfg config.CruiseConfig) *Cruise {
	return &Cruise{
		pid:         NewPID(cfg.Kp, cfg.Ki, cfg.Kd, cfg.TargetSpeed),
		steer:       cfg.Steer,
		weavePeriod: cfg.WeavePeriod,
	}
}

func (c *Cruise) Act(obs sim.Observation) [3]float64 {
	u := clamp(c.pid.Compute(obs.Speed, obs.Time), -1, 1)
	frontBrake := 0.0
	if u < frontBrakeThreshold {
		frontBrake = -u
	}
	return [3]float64{u, frontBrake, c.steering(obs.Time)}
}

func (c *Cruise) steering(t float64) float64 {
	if c.weavePeriod <= 0 {
		return c.steer
	}
	return c.steer * math.Sin(2*math.Pi*t/c.weavePeriod)
}

func (c *Cruise) Reset() { c.pid.Reset() }

func (c *Cruise) GetParams() map[string]float64 { return c.pid.GetParams() }

func (c *Cruise) SetParam(name string, value float64) { c.pid.SetParam(name, value) }

var registry = map[string]func(cfg *config.Config) sim.Pilot{
	"none":   func(*config.Config) sim.Pilot { return NewNone() },
	"manual": func(*config.Config) sim.Pilot { return NewManual() },
	"script": func(cfg *config.Config) sim.Pilot { return NewScript(cfg.Scenario) },
	"cruise": func(cfg *config.Config) sim.Pilot { return NewCruise(cfg.Cruise) },
}

// New builds the pilot named by cfg.Run.Pilot.
func New(cfg *config.Config) (sim.Pilot, error) {
	fn, ok := registry[cfg.Run.Pilot]
	if !ok {
		return nil, fmt.Errorf("%w: pilot %q", dynamo.ErrUnknownName, cfg.Run.Pilot)
	}
	return fn(cfg), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
