package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motosim/internal/geom"
	"github.com/san-kum/motosim/internal/ground"
	"github.com/san-kum/motosim/internal/wheel"
)

// Body is the chassis surface the controller reads and commands. Velocity
// changes take effect immediately.
type Body interface {
	Frame() geom.Frame
	Velocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
	TransformPoint(local mgl64.Vec3) mgl64.Vec3
	InverseTransformPoint(world mgl64.Vec3) mgl64.Vec3
	SetCenterOfMass(local mgl64.Vec3)
	AddTorqueVelocityChange(tau mgl64.Vec3)
	AddForceAtPositionVelocityChange(f, world mgl64.Vec3)
	ZeroVelocity()
}

var (
	ErrNoProbes        = errors.New("control: at least one stabilizer probe is required")
	ErrCenterlineProbe = errors.New("control: stabilizer probe must sit off the centerline")
)

type Controller struct {
	cfg     Config
	body    Body
	front   wheel.Unit
	rear    wheel.Unit
	surface ground.Surface
	com     Anchor
	probes  []Probe

	mode     Mode
	readings []ProbeReading
}

func New(cfg Config, body Body, front, rear wheel.Unit, surface ground.Surface, com Anchor, probes []Probe) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("controller config: %w", err)
	}
	if err := ValidateProbes(probes); err != nil {
		return nil, err
	}
	p := make([]Probe, len(probes))
	copy(p, probes)
	return &Controller{
		cfg:      cfg,
		body:     body,
		front:    front,
		rear:     rear,
		surface:  surface,
		com:      com,
		probes:   p,
		readings: make([]ProbeReading, 0, len(p)),
	}, nil
}

// Initialize fixes the center of mass at the anchor and initializes both
// wheel units. It must run once before any tick.
func (c *Controller) Initialize() {
	local := c.body.InverseTransformPoint(c.com.WorldPosition())
	c.body.SetCenterOfMass(local)
	c.front.Initialize()
	c.rear.Initialize()
}

// ManagedReset prepares a new episode: wheel units reset, velocities zeroed.
// Pose and center of mass are kept.
func (c *Controller) ManagedReset() {
	c.front.Reset()
	c.rear.Reset()
	c.body.ZeroVelocity()
	c.readings = c.readings[:0]
}

// Tick runs one control step. Stabilization reads the wheel state before any
// drive command of this tick is issued, so both halves see the same
// snapshot.
func (c *Controller) Tick(actions [3]float64, dt time.Duration) {
	c.stabilize(c.observe())
	c.ApplyActions(actions, dt)
}

func (c *Controller) Config() Config  { return c.cfg }
func (c *Controller) Probes() []Probe { return c.probes }

// Mode is the stabilizer state chosen on the last Stabilize call.
func (c *Controller) Mode() Mode { return c.mode }

// Front and Rear expose the wheel units read-only to cosmetic consumers.
func (c *Controller) Front() wheel.State { return wheel.Observe(c.front) }
func (c *Controller) Rear() wheel.State  { return wheel.Observe(c.rear) }

// LastReadings returns the probe readings of the last Stabilize call. It is
// empty after an airborne tick.
func (c *Controller) LastReadings() []ProbeReading {
	out := make([]ProbeReading, len(c.readings))
	copy(out, c.readings)
	return out
}

// snapshot is the state one tick's decisions are based on.
type snapshot struct {
	frame           geom.Frame
	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3
	front, rear     wheel.State
}

func (c *Controller) observe() snapshot {
	return snapshot{
		frame:           c.body.Frame(),
		velocity:        c.body.Velocity(),
		angularVelocity: c.body.AngularVelocity(),
		front:           wheel.Observe(c.front),
		rear:            wheel.Observe(c.rear),
	}
}
