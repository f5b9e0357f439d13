package control

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motosim/internal/dynamo"
)

const (
	DefaultStrength       = 0.5
	DefaultTargetDistance = 0.8
	DefaultProbeLength    = 2.0
)

// Config is loaded once and never changes while the controller runs.
type Config struct {
	// StabilizationStrength scales every corrective torque and force.
	StabilizationStrength float64
	// TargetGroundDistance is the ride height each probe servos toward.
	TargetGroundDistance float64
	// ProbeLength bounds the ground cast from each probe.
	ProbeLength float64
	// TiltCurve maps speed to lean magnitude.
	TiltCurve Curve
}

var defaultTiltCurve = MustCurve(
	Key{Speed: 0, Tilt: 0},
	Key{Speed: 5, Tilt: 0.1},
	Key{Speed: 15, Tilt: 0.25},
	Key{Speed: 30, Tilt: 0.35},
)

func DefaultConfig() Config {
	return Config{
		StabilizationStrength: DefaultStrength,
		TargetGroundDistance:  DefaultTargetDistance,
		ProbeLength:           DefaultProbeLength,
		TiltCurve:             defaultTiltCurve,
	}
}

func (c Config) Validate() error {
	if c.StabilizationStrength < 0 || c.StabilizationStrength > 1 {
		return dynamo.Bounds("stabilization_strength", c.StabilizationStrength, "[0, 1]")
	}
	if c.TargetGroundDistance <= 0 {
		return dynamo.Bounds("target_ground_distance", c.TargetGroundDistance, "> 0")
	}
	if c.ProbeLength <= 0 {
		return dynamo.Bounds("probe_length", c.ProbeLength, "> 0")
	}
	if len(c.TiltCurve.keys) == 0 {
		return fmt.Errorf("tilt_curve: %w", ErrEmptyCurve)
	}
	return nil
}

// Probe is a ride-height probe rigidly attached to the chassis. Local is its
// body-local position: Z > 0 tags it as a front probe, the sign of X picks
// the side it leans toward. X = 0 has no side and is rejected.
type Probe struct {
	Name  string
	Local mgl64.Vec3
}

func (p Probe) IsFront() bool { return p.Local.Z() > 0 }

// ValidateProbes checks a probe set before a controller is built from it.
func ValidateProbes(probes []Probe) error {
	if len(probes) == 0 {
		return ErrNoProbes
	}
	for i, p := range probes {
		if p.Local.X() == 0 {
			return fmt.Errorf("probe %d (%s): %w", i, p.Name, ErrCenterlineProbe)
		}
	}
	return nil
}

// Anchor is a transform whose world position designates a point, such as
// the authored center of mass.
type Anchor interface {
	WorldPosition() mgl64.Vec3
}

// WorldPoint is a fixed world-space anchor.
type WorldPoint mgl64.Vec3

func (p WorldPoint) WorldPosition() mgl64.Vec3 { return mgl64.Vec3(p) }
