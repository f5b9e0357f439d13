package wheel

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motosim/internal/geom"
	"github.com/san-kum/motosim/internal/ground"
)

// Chassis is what a simulated wheel needs from the body it is mounted on.
type Chassis interface {
	Frame() geom.Frame
	TransformPoint(local mgl64.Vec3) mgl64.Vec3
	PointVelocity(world mgl64.Vec3) mgl64.Vec3
	AddForceAtPosition(f, world mgl64.Vec3)
}

// Spec describes a simulated wheel. Forces are in newtons, lengths in
// meters.
type Spec struct {
	Mount      mgl64.Vec3 `yaml:"mount"` // body-local top of the suspension
	Radius     float64    `yaml:"radius"`
	Travel     float64    `yaml:"travel"` // suspension rest length
	Stiffness  float64    `yaml:"stiffness"`
	Damping    float64    `yaml:"damping"`
	MotorForce float64    `yaml:"motor_force"` // at drive = 1
	BrakeForce float64    `yaml:"brake_force"` // at brake = 1
	MaxSteer   float64    `yaml:"max_steer"`   // radians at steer = 1
	SteerRate  float64    `yaml:"steer_rate"`  // normalized units per second, 0 = instant
	Grip       float64    `yaml:"grip"`        // lateral force per m/s of side slip
	Friction   float64    `yaml:"friction"`    // friction circle radius as a multiple of load
	Inertia    float64    `yaml:"inertia"`     // spin inertia, kg·m²
	MaxRPM     float64    `yaml:"max_rpm"`
}

const (
	contactCoupling = 25.0 // 1/s, rate at which spin follows ground speed
	slipFloor       = 1.0  // m/s
)

// Sim is a single raycast-suspension wheel.
type Sim struct {
	spec    Spec
	chassis Chassis
	surface ground.Surface

	grounded bool
	contact  ground.Hit
	steer    float64
	brake    float64
	spin     float64 // rad/s
	slip     float64
}

func NewSim(spec Spec, chassis Chassis, surface ground.Surface) *Sim {
	return &Sim{spec: spec, chassis: chassis, surface: surface}
}

func (s *Sim) Spec() Spec { return s.spec }

func (s *Sim) Initialize() {
	s.Reset()
}

func (s *Sim) Reset() {
	s.steer, s.brake, s.spin, s.slip = 0, 0, 0, 0
	s.cast()
}

func (s *Sim) IsGrounded() bool          { return s.grounded }
func (s *Sim) NormalizedSteer() float64  { return s.steer }
func (s *Sim) BrakeRatio() float64       { return s.brake }
func (s *Sim) LongitudinalSlip() float64 { return s.slip }

// Contact returns the last ground contact, valid while grounded.
func (s *Sim) Contact() ground.Hit { return s.contact }

func (s *Sim) RPMRatio() float64 {
	if s.spec.MaxRPM <= 0 {
		return 0
	}
	rpm := math.Abs(s.spin) * 60 / (2 * math.Pi)
	return rpm / s.spec.MaxRPM
}

func (s *Sim) UpdateWheel(drive, brake, steer float64, dt time.Duration) {
	h := dt.Seconds()
	s.brake = brake
	s.steer = s.approachSteer(steer, h)

	s.cast()
	if !s.grounded {
		s.freeSpin(drive, brake, h)
		s.slip = 0
		return
	}

	frame := s.chassis.Frame()
	n := s.contact.Normal
	mount := s.chassis.TransformPoint(s.spec.Mount)

	// Suspension
	compression := s.spec.Travel + s.spec.Radius - s.contact.Distance
	closing := -s.chassis.PointVelocity(mount).Dot(frame.Up())
	load := math.Max(0, s.spec.Stiffness*compression+s.spec.Damping*closing)
	s.chassis.AddForceAtPosition(n.Mul(load), mount)

	// Tire
	heading := frame.ToWorld(mgl64.QuatRotate(s.steer*s.spec.MaxSteer, geom.Up).Rotate(geom.Forward))
	fwd := heading.Sub(n.Mul(heading.Dot(n)))
	if fwd.Len() < 1e-9 {
		return
	}
	fwd = fwd.Normalize()
	side := n.Cross(fwd)

	v := s.chassis.PointVelocity(s.contact.Point)
	vLong := v.Dot(fwd)
	vLat := v.Dot(side)

	long := drive*s.spec.MotorForce - brake*s.spec.BrakeForce*clamp(vLong/0.5, -1, 1)
	lat := -s.spec.Grip * vLat
	if limit := s.spec.Friction * load; limit >= 0 {
		if mag := math.Hypot(long, lat); mag > limit && mag > 0 {
			long *= limit / mag
			lat *= limit / mag
		}
	}
	s.chassis.AddForceAtPosition(fwd.Mul(long).Add(side.Mul(lat)), s.contact.Point)

	s.rollingSpin(drive, brake, vLong, h)
}

func (s *Sim) cast() {
	frame := s.chassis.Frame()
	origin := s.chassis.TransformPoint(s.spec.Mount)
	hit, ok := s.surface.Raycast(origin, frame.Down(), s.spec.Travel+s.spec.Radius)
	s.grounded = ok
	if ok {
		s.contact = hit
	}
}

func (s *Sim) approachSteer(target, h float64) float64 {
	if s.spec.SteerRate <= 0 {
		return target
	}
	step := s.spec.SteerRate * h
	d := target - s.steer
	if math.Abs(d) <= step {
		return target
	}
	return s.steer + math.Copysign(step, d)
}

func (s *Sim) torqueAccel(drive, brake float64) float64 {
	if s.spec.Inertia <= 0 {
		return 0
	}
	tq := drive*s.spec.MotorForce*s.spec.Radius - brake*s.spec.BrakeForce*s.spec.Radius*geom.Sign(s.spin)
	return tq / s.spec.Inertia
}

func (s *Sim) freeSpin(drive, brake, h float64) {
	next := s.spin + s.torqueAccel(drive, brake)*h
	// Brakes stop the wheel, they never reverse it.
	if brake > 0 && geom.Sign(next) != geom.Sign(s.spin) {
		next = 0
	}
	s.spin = next
}

func (s *Sim) rollingSpin(drive, brake, vLong, h float64) {
	s.freeSpin(drive, brake, h)
	if s.spec.Radius > 0 {
		target := vLong / s.spec.Radius
		k := math.Min(1, contactCoupling*h)
		s.spin += (target - s.spin) * k
	}
	surface := s.spin * s.spec.Radius
	s.slip = (surface - vLong) / math.Max(math.Abs(vLong), slipFloor)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
