package ground

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

var down = mgl64.Vec3{0, -1, 0}

func TestPlaneRaycast(t *testing.T) {
	p := Flat(0)

	tests := []struct {
		name    string
		origin  mgl64.Vec3
		dir     mgl64.Vec3
		maxDist float64
		hit     bool
		dist    float64
	}{
		{"straight down", mgl64.Vec3{0, 1.5, 0}, down, 2, true, 1.5},
		{"out of range", mgl64.Vec3{0, 2.5, 0}, down, 2, false, 0},
		{"exactly at range", mgl64.Vec3{3, 2, -4}, down, 2, true, 2},
		{"pointing up", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}, 2, false, 0},
		{"parallel", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}, 2, false, 0},
		{"below surface", mgl64.Vec3{0, -1, 0}, down, 2, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := p.Raycast(tt.origin, tt.dir, tt.maxDist)
			if ok != tt.hit {
				t.Fatalf("hit = %v, want %v", ok, tt.hit)
			}
			if ok && math.Abs(hit.Distance-tt.dist) > 1e-9 {
				t.Errorf("distance = %v, want %v", hit.Distance, tt.dist)
			}
		})
	}
}

func TestPlaneHitsFromFacingSideOnly(t *testing.T) {
	up := mgl64.Vec3{0, 1, 0}
	if _, ok := Flat(0).Raycast(mgl64.Vec3{0, -1, 0}, up, 2); ok {
		t.Error("upward cast hit the underside of the ground")
	}

	ceiling := NewPlane(mgl64.Vec3{0, 3, 0}, down)
	hit, ok := ceiling.Raycast(mgl64.Vec3{0, 2, 0}, up, 2)
	if !ok {
		t.Fatal("upward cast missed the ceiling")
	}
	if hit.Normal.Y() >= 0 || math.Abs(hit.Distance-1) > 1e-9 {
		t.Errorf("ceiling hit = %+v, want downward normal at 1m", hit)
	}
	if _, ok := ceiling.Raycast(mgl64.Vec3{0, 4, 0}, down, 2); ok {
		t.Error("downward cast hit the back of the ceiling")
	}
}

func TestSlopedPlaneNormal(t *testing.T) {
	pitch := math.Pi / 6
	p := NewPlane(mgl64.Vec3{}, mgl64.Vec3{0, math.Cos(pitch), -math.Sin(pitch)})
	hit, ok := p.Raycast(mgl64.Vec3{0, 3, 2}, down, 5)
	if !ok {
		t.Fatal("expected hit on slope")
	}
	if math.Abs(hit.Normal.Y()-math.Cos(pitch)) > 1e-9 {
		t.Errorf("normal.y = %v, want %v", hit.Normal.Y(), math.Cos(pitch))
	}
	if got, want := hit.Point.Y(), p.Height(0, 2); math.Abs(got-want) > 1e-9 {
		t.Errorf("hit height = %v, plane height = %v", got, want)
	}
}

func TestRampBounds(t *testing.T) {
	r := NewRamp(10, 0, 0.2, 4, 2)

	if _, ok := r.Raycast(mgl64.Vec3{0, 3, 12}, down, 5); !ok {
		t.Error("expected hit in the middle of the ramp")
	}
	if _, ok := r.Raycast(mgl64.Vec3{0, 3, 5}, down, 5); ok {
		t.Error("expected miss before the ramp")
	}
	if _, ok := r.Raycast(mgl64.Vec3{3, 3, 12}, down, 5); ok {
		t.Error("expected miss beside the ramp")
	}
}

func TestLayerNearestHit(t *testing.T) {
	l := NewLayer(Flat(0), NewRamp(0, 0, 0.3, 10, 4))
	hit, ok := l.Raycast(mgl64.Vec3{0, 5, 5}, down, 10)
	if !ok {
		t.Fatal("expected hit")
	}
	if hit.Point.Y() <= 0 {
		t.Errorf("expected ramp hit above flat ground, got y=%v", hit.Point.Y())
	}
	if _, ok := NewLayer().Raycast(mgl64.Vec3{}, down, 1); ok {
		t.Error("empty layer should never hit")
	}
}
