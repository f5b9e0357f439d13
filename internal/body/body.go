// Package body is the host's rigid-body integrator for the vehicle chassis.
//
// A RigidBody accumulates continuous forces during a tick and advances its
// pose with any dynamo.Integrator. Velocity-change commands bypass the
// accumulators and alter velocity immediately, independent of mass for
// torques and of the timestep for both.
package body

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motosim/internal/dynamo"
	"github.com/san-kum/motosim/internal/geom"
)

const (
	stateDim   = 13
	controlDim = 6
)

var DefaultGravity = mgl64.Vec3{0, -9.81, 0}

// RigidBody is a single dynamic body. Position is the body origin; linear
// velocity is that of the center of mass.
type RigidBody struct {
	Mass        float64
	Inertia     mgl64.Vec3 // principal moments about the center of mass, body frame
	Gravity     mgl64.Vec3
	LinearDrag  float64
	AngularDrag float64

	position        mgl64.Vec3
	orientation     mgl64.Quat
	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3
	centerOfMass    mgl64.Vec3

	force  mgl64.Vec3
	torque mgl64.Vec3
	t      float64
}

func New(mass float64, inertia mgl64.Vec3) *RigidBody {
	return &RigidBody{
		Mass:        mass,
		Inertia:     inertia,
		Gravity:     DefaultGravity,
		orientation: mgl64.QuatIdent(),
	}
}

// NewBox builds a body with the inertia of a solid box of the given full
// extents.
func NewBox(mass float64, size mgl64.Vec3) *RigidBody {
	x, y, z := size.X(), size.Y(), size.Z()
	k := mass / 12
	return New(mass, mgl64.Vec3{k * (y*y + z*z), k * (x*x + z*z), k * (x*x + y*y)})
}

func (b *RigidBody) Position() mgl64.Vec3        { return b.position }
func (b *RigidBody) Orientation() mgl64.Quat     { return b.orientation }
func (b *RigidBody) Frame() geom.Frame           { return geom.NewFrame(b.orientation) }
func (b *RigidBody) Velocity() mgl64.Vec3        { return b.velocity }
func (b *RigidBody) AngularVelocity() mgl64.Vec3 { return b.angularVelocity }
func (b *RigidBody) CenterOfMass() mgl64.Vec3    { return b.centerOfMass }
func (b *RigidBody) Speed() float64              { return b.velocity.Len() }

func (b *RigidBody) SetPose(position mgl64.Vec3, orientation mgl64.Quat) {
	b.position = position
	b.orientation = orientation.Normalize()
}

func (b *RigidBody) SetVelocity(v mgl64.Vec3)        { b.velocity = v }
func (b *RigidBody) SetAngularVelocity(w mgl64.Vec3) { b.angularVelocity = w }

// SetCenterOfMass moves the center of mass to a body-local point, keeping
// the body origin and the motion of the body unchanged.
func (b *RigidBody) SetCenterOfMass(local mgl64.Vec3) {
	newWorld := b.TransformPoint(local)
	b.velocity = b.PointVelocity(newWorld)
	b.centerOfMass = local
}

func (b *RigidBody) TransformPoint(local mgl64.Vec3) mgl64.Vec3 {
	return b.position.Add(b.orientation.Rotate(local))
}

func (b *RigidBody) InverseTransformPoint(world mgl64.Vec3) mgl64.Vec3 {
	return b.orientation.Conjugate().Rotate(world.Sub(b.position))
}

func (b *RigidBody) WorldCenterOfMass() mgl64.Vec3 {
	return b.TransformPoint(b.centerOfMass)
}

// PointVelocity is the world velocity of a world point attached to the body.
func (b *RigidBody) PointVelocity(world mgl64.Vec3) mgl64.Vec3 {
	r := world.Sub(b.WorldCenterOfMass())
	return b.velocity.Add(b.angularVelocity.Cross(r))
}

func (b *RigidBody) AddForce(f mgl64.Vec3)  { b.force = b.force.Add(f) }
func (b *RigidBody) AddTorque(t mgl64.Vec3) { b.torque = b.torque.Add(t) }

func (b *RigidBody) AddForceAtPosition(f, world mgl64.Vec3) {
	r := world.Sub(b.WorldCenterOfMass())
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(r.Cross(f))
}

// AddTorqueVelocityChange adds tau straight to the angular velocity.
func (b *RigidBody) AddTorqueVelocityChange(tau mgl64.Vec3) {
	b.angularVelocity = b.angularVelocity.Add(tau)
}

// AddForceAtPositionVelocityChange adds f straight to the linear velocity and
// the matching impulse moment to the angular velocity.
func (b *RigidBody) AddForceAtPositionVelocityChange(f, world mgl64.Vec3) {
	r := world.Sub(b.WorldCenterOfMass())
	b.velocity = b.velocity.Add(f)
	b.angularVelocity = b.angularVelocity.Add(b.applyInverseInertia(b.orientation, r.Cross(f.Mul(b.Mass))))
}

// ZeroVelocity clears linear and angular velocity and pending forces.
func (b *RigidBody) ZeroVelocity() {
	b.velocity = mgl64.Vec3{}
	b.angularVelocity = mgl64.Vec3{}
	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

// Integrate advances the body by dt under gravity and the accumulated forces,
// then clears the accumulators.
func (b *RigidBody) Integrate(integ dynamo.Integrator, dt float64) error {
	x := b.pack()
	u := dynamo.Control{b.force.X(), b.force.Y(), b.force.Z(), b.torque.X(), b.torque.Y(), b.torque.Z()}
	next := integ.Step(b, x, u, b.t, dt)
	if len(next) != stateDim {
		return fmt.Errorf("integrate body: %w", dynamo.ErrDimensionMismatch)
	}
	if !next.IsValid() {
		return fmt.Errorf("integrate body: %w", dynamo.ErrInvalidState)
	}
	b.unpack(next)
	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
	b.t += dt
	return nil
}
