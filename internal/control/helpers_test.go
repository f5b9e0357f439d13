package control

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motosim/internal/body"
	"github.com/san-kum/motosim/internal/ground"
	"github.com/san-kum/motosim/internal/wheel"
)

type appliedForce struct {
	F, At mgl64.Vec3
}

// recordingBody is a real rigid body that also records every velocity
// change it receives.
type recordingBody struct {
	*body.RigidBody
	torques []mgl64.Vec3
	forces  []appliedForce
}

func newRecordingBody() *recordingBody {
	return &recordingBody{RigidBody: body.NewBox(200, mgl64.Vec3{0.6, 1.0, 2.0})}
}

func (r *recordingBody) AddTorqueVelocityChange(tau mgl64.Vec3) {
	r.torques = append(r.torques, tau)
	r.RigidBody.AddTorqueVelocityChange(tau)
}

func (r *recordingBody) AddForceAtPositionVelocityChange(f, at mgl64.Vec3) {
	r.forces = append(r.forces, appliedForce{F: f, At: at})
	r.RigidBody.AddForceAtPositionVelocityChange(f, at)
}

type command struct {
	DriveCommand
	dt time.Duration
}

// stubWheel reports whatever state the test sets. With applyCommands it
// adopts commanded steer and brake, the way a real unit would.
type stubWheel struct {
	wheel.State
	applyCommands bool
	calls         []command
	inits, resets int
}

func (w *stubWheel) Initialize() { w.inits++ }

func (w *stubWheel) Reset() {
	w.resets++
	w.Steer, w.Brake, w.RPM, w.Slip = 0, 0, 0, 0
}

func (w *stubWheel) UpdateWheel(drive, brake, steer float64, dt time.Duration) {
	w.calls = append(w.calls, command{DriveCommand{drive, brake, steer}, dt})
	if w.applyCommands {
		w.Steer, w.Brake = steer, brake
	}
}

func (w *stubWheel) IsGrounded() bool          { return w.Grounded }
func (w *stubWheel) NormalizedSteer() float64  { return w.Steer }
func (w *stubWheel) BrakeRatio() float64       { return w.Brake }
func (w *stubWheel) RPMRatio() float64         { return w.RPM }
func (w *stubWheel) LongitudinalSlip() float64 { return w.Slip }

// fixedSurface always reports the same hit.
type fixedSurface struct {
	hit ground.Hit
}

func (s fixedSurface) Raycast(origin, dir mgl64.Vec3, maxDist float64) (ground.Hit, bool) {
	if s.hit.Distance > maxDist {
		return ground.Hit{}, false
	}
	return s.hit, true
}

// fourProbes sits symmetric about the body origin at its height.
func fourProbes() []Probe {
	return []Probe{
		{Name: "front_left", Local: mgl64.Vec3{-0.3, 0, 0.8}},
		{Name: "front_right", Local: mgl64.Vec3{0.3, 0, 0.8}},
		{Name: "rear_left", Local: mgl64.Vec3{-0.3, 0, -0.8}},
		{Name: "rear_right", Local: mgl64.Vec3{0.3, 0, -0.8}},
	}
}

type rig struct {
	body        *recordingBody
	front, rear *stubWheel
	ctrl        *Controller
}

func newRig(cfg Config, surface ground.Surface, height float64) *rig {
	b := newRecordingBody()
	b.SetPose(mgl64.Vec3{0, height, 0}, mgl64.QuatIdent())
	front := &stubWheel{State: wheel.State{Grounded: true}}
	rear := &stubWheel{State: wheel.State{Grounded: true}}
	c, err := New(cfg, b, front, rear, surface, WorldPoint(b.TransformPoint(mgl64.Vec3{})), fourProbes())
	if err != nil {
		panic(err)
	}
	return &rig{body: b, front: front, rear: rear, ctrl: c}
}

func strongConfig() Config {
	cfg := DefaultConfig()
	cfg.StabilizationStrength = 1
	return cfg
}
