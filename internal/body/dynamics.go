package body

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motosim/internal/dynamo"
)

// State layout: center of mass position (3), orientation w,x,y,z (4),
// linear velocity (3), angular velocity (3), all in world frame.

func (b *RigidBody) StateDim() int   { return stateDim }
func (b *RigidBody) ControlDim() int { return controlDim }

// Derive implements dynamo.System. u carries world force and torque about
// the center of mass.
func (b *RigidBody) Derive(x dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	q := mgl64.Quat{W: x[3], V: mgl64.Vec3{x[4], x[5], x[6]}}
	v := mgl64.Vec3{x[7], x[8], x[9]}
	w := mgl64.Vec3{x[10], x[11], x[12]}

	var f, tau mgl64.Vec3
	if len(u) >= controlDim {
		f = mgl64.Vec3{u[0], u[1], u[2]}
		tau = mgl64.Vec3{u[3], u[4], u[5]}
	}

	dq := mgl64.Quat{W: 0, V: w}.Mul(q).Scale(0.5)

	acc := b.Gravity.Sub(v.Mul(b.LinearDrag))
	if b.Mass > 0 {
		acc = acc.Add(f.Mul(1 / b.Mass))
	}

	// Euler's equations in world frame: I·dw = tau - w × (I·w)
	gyro := w.Cross(b.applyInertia(q, w))
	alpha := b.applyInverseInertia(q, tau.Sub(gyro)).Sub(w.Mul(b.AngularDrag))

	return dynamo.State{
		v[0], v[1], v[2],
		dq.W, dq.V[0], dq.V[1], dq.V[2],
		acc[0], acc[1], acc[2],
		alpha[0], alpha[1], alpha[2],
	}
}

func (b *RigidBody) applyInertia(q mgl64.Quat, v mgl64.Vec3) mgl64.Vec3 {
	local := q.Conjugate().Rotate(v)
	local = mgl64.Vec3{local[0] * b.Inertia[0], local[1] * b.Inertia[1], local[2] * b.Inertia[2]}
	return q.Rotate(local)
}

func (b *RigidBody) applyInverseInertia(q mgl64.Quat, v mgl64.Vec3) mgl64.Vec3 {
	local := q.Conjugate().Rotate(v)
	for i := range local {
		if b.Inertia[i] > 0 {
			local[i] /= b.Inertia[i]
		} else {
			local[i] = 0
		}
	}
	return q.Rotate(local)
}

func (b *RigidBody) pack() dynamo.State {
	c := b.WorldCenterOfMass()
	q := b.orientation
	v := b.velocity
	w := b.angularVelocity
	return dynamo.State{
		c[0], c[1], c[2],
		q.W, q.V[0], q.V[1], q.V[2],
		v[0], v[1], v[2],
		w[0], w[1], w[2],
	}
}

func (b *RigidBody) unpack(x dynamo.State) {
	q := mgl64.Quat{W: x[3], V: mgl64.Vec3{x[4], x[5], x[6]}}.Normalize()
	c := mgl64.Vec3{x[0], x[1], x[2]}
	b.orientation = q
	b.position = c.Sub(q.Rotate(b.centerOfMass))
	b.velocity = mgl64.Vec3{x[7], x[8], x[9]}
	b.angularVelocity = mgl64.Vec3{x[10], x[11], x[12]}
}
