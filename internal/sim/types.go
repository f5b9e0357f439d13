package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/control"
	"github.com/san-kum/motosim/internal/wheel"
)

// Observation is the read-only view of the vehicle at the start of a tick.
// Roll is positive when leaning right, pitch positive nose up.
type Observation struct {
	Time     float64
	Step     int
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Speed    float64
	Roll     float64
	Pitch    float64
	RollRate float64
	YawRate  float64
	Mode     control.Mode
	Front    wheel.State
	Rear     wheel.State
	Readings []control.ProbeReading // from the previous tick
	Actions  [3]float64
}

func (o Observation) Airborne() bool { return o.Mode == control.Airborne }

// Pilot is an action source: throttle/rear brake, front brake, steering.
type Pilot interface {
	Act(obs Observation) [3]float64
}

// Resetter is implemented by pilots that carry state between ticks.
type Resetter interface {
	Reset()
}

type Metric interface {
	Name() string
	Observe(obs Observation)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(obs Observation)
}

type Config struct {
	Dt        float64
	Duration  float64
	FallAngle float64 // 0 disables fall detection
	Seed      int64
	Start     config.StartConfig
}

// RunConfig extracts the loop settings from a full configuration.
func RunConfig(cfg *config.Config) Config {
	return Config{
		Dt:        cfg.Run.Dt,
		Duration:  cfg.Run.Duration,
		FallAngle: cfg.Run.FallAngle,
		Seed:      cfg.Run.Seed,
		Start:     cfg.Run.Start,
	}
}

type Result struct {
	Episode      int
	Observations []Observation
	Metrics      map[string]float64
	Steps        int
	Fallen       bool
	FallTime     float64
}

// Final returns the last recorded observation.
func (r *Result) Final() Observation {
	if len(r.Observations) == 0 {
		return Observation{}
	}
	return r.Observations[len(r.Observations)-1]
}
