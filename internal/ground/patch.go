package ground

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Patch is a rectangular piece of a plane, used for ramps and kickers. The
// rectangle is centered on Center, spans HalfLength along Along and
// HalfWidth along Normal × Along.
type Patch struct {
	Plane
	Along      mgl64.Vec3
	Across     mgl64.Vec3
	HalfLength float64
	HalfWidth  float64
}

// NewRamp builds a ramp rising along +Z. It starts at startZ with height
// startY, climbs at pitch radians over length, and is width wide centered on
// x = 0.
func NewRamp(startZ, startY, pitch, length, width float64) Patch {
	along := mgl64.Vec3{0, math.Sin(pitch), math.Cos(pitch)}
	normal := mgl64.Vec3{0, math.Cos(pitch), -math.Sin(pitch)}
	center := mgl64.Vec3{0, startY, startZ}.Add(along.Mul(length / 2))
	return Patch{
		Plane:      NewPlane(center, normal),
		Along:      along,
		Across:     normal.Cross(along).Normalize(),
		HalfLength: length / 2,
		HalfWidth:  width / 2,
	}
}

func (p Patch) Raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool) {
	hit, ok := p.Plane.Raycast(origin, dir, maxDist)
	if !ok {
		return Hit{}, false
	}
	rel := hit.Point.Sub(p.Point)
	if math.Abs(rel.Dot(p.Along)) > p.HalfLength || math.Abs(rel.Dot(p.Across)) > p.HalfWidth {
		return Hit{}, false
	}
	return hit, true
}
