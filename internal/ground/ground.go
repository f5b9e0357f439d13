// Package ground provides the surfaces a vehicle's probes and wheels cast
// against.
package ground

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const parallelEpsilon = 1e-9

// Hit describes where a cast struck a surface.
type Hit struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// Surface answers bounded raycasts. dir must be a unit vector.
//
// Planes only report hits on the side their normal faces. Every surface the
// host builds faces up, so its hits always have Normal.Y() > 0; a hit with a
// downward normal needs an authored downward-facing plane such as a ceiling.
type Surface interface {
	Raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool)
}

// Plane is an infinite one-sided surface through Point facing Normal.
type Plane struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

// NewPlane builds a plane through point, normalizing normal.
func NewPlane(point, normal mgl64.Vec3) Plane {
	return Plane{Point: point, Normal: normal.Normalize()}
}

// Flat is the level plane y = height.
func Flat(height float64) Plane {
	return NewPlane(mgl64.Vec3{0, height, 0}, mgl64.Vec3{0, 1, 0})
}

func (p Plane) Raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool) {
	denom := dir.Dot(p.Normal)
	// Casts from behind or along the plane never hit.
	if denom > -parallelEpsilon {
		return Hit{}, false
	}
	dist := p.Point.Sub(origin).Dot(p.Normal) / denom
	if dist < 0 || dist > maxDist || math.IsNaN(dist) {
		return Hit{}, false
	}
	return Hit{
		Point:    origin.Add(dir.Mul(dist)),
		Normal:   p.Normal,
		Distance: dist,
	}, true
}

// Height returns the plane's y at (x, z). Vertical planes report -Inf.
func (p Plane) Height(x, z float64) float64 {
	ny := p.Normal.Y()
	if math.Abs(ny) < parallelEpsilon {
		return math.Inf(-1)
	}
	return p.Point.Y() - (p.Normal.X()*(x-p.Point.X())+p.Normal.Z()*(z-p.Point.Z()))/ny
}
