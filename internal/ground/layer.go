package ground

import "github.com/go-gl/mathgl/mgl64"

// Layer is the ground collision layer: a set of surfaces that answer casts
// with the nearest hit.
type Layer struct {
	surfaces []Surface
}

func NewLayer(surfaces ...Surface) *Layer {
	return &Layer{surfaces: surfaces}
}

func (l *Layer) Add(s Surface) { l.surfaces = append(l.surfaces, s) }

func (l *Layer) Len() int { return len(l.surfaces) }

func (l *Layer) Raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool) {
	var best Hit
	found := false
	for _, s := range l.surfaces {
		hit, ok := s.Raycast(origin, dir, maxDist)
		if !ok {
			continue
		}
		if !found || hit.Distance < best.Distance {
			best, found = hit, true
		}
	}
	return best, found
}
