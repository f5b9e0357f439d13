// Package geom converts world-frame quantities into a vehicle's local
// reference frame and provides the symmetric response curves used by the
// stabilizer.
//
// Vehicle convention: local +X points right, +Y up and +Z forward. World +Y
// is up.
package geom

import "github.com/go-gl/mathgl/mgl64"

var (
	Right   = mgl64.Vec3{1, 0, 0}
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
)

// Frame is an orientation basis derived from a unit quaternion.
type Frame struct {
	q mgl64.Quat
}

func NewFrame(q mgl64.Quat) Frame {
	return Frame{q: q.Normalize()}
}

func (f Frame) Right() mgl64.Vec3   { return f.q.Rotate(Right) }
func (f Frame) Up() mgl64.Vec3      { return f.q.Rotate(Up) }
func (f Frame) Forward() mgl64.Vec3 { return f.q.Rotate(Forward) }
func (f Frame) Down() mgl64.Vec3    { return f.Up().Mul(-1) }
func (f Frame) Back() mgl64.Vec3    { return f.Forward().Mul(-1) }

// ToLocal expresses a world-frame direction in this frame.
func (f Frame) ToLocal(v mgl64.Vec3) mgl64.Vec3 {
	return f.q.Conjugate().Rotate(v)
}

// ToWorld expresses a local direction in world coordinates.
func (f Frame) ToWorld(v mgl64.Vec3) mgl64.Vec3 {
	return f.q.Rotate(v)
}

// Inclination is how far each local axis has tilted away from world up:
// (right.y, up.y, forward.y). A level body reports (0, 1, 0).
func (f Frame) Inclination() mgl64.Vec3 {
	return mgl64.Vec3{f.Right().Y(), f.Up().Y(), f.Forward().Y()}
}
