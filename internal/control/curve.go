package control

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyCurve        = errors.New("control: curve has no keys")
	ErrCurveNotMonotonic = errors.New("control: curve is not monotonic")
)

// Key is one speed → tilt keyframe.
type Key struct {
	Speed float64 `yaml:"speed" json:"speed"`
	Tilt  float64 `yaml:"tilt" json:"tilt"`
}

// Curve maps vehicle speed to a lean magnitude by linear interpolation
// between keys, holding the end values outside the keyed range.
type Curve struct {
	keys []Key
}

// NewCurve sorts keys by speed and rejects curves whose tilt decreases with
// speed or that repeat a speed.
func NewCurve(keys ...Key) (Curve, error) {
	if len(keys) == 0 {
		return Curve{}, ErrEmptyCurve
	}
	sorted := make([]Key, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Speed < sorted[j].Speed })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Speed == sorted[i-1].Speed {
			return Curve{}, fmt.Errorf("%w: duplicate speed %g", ErrCurveNotMonotonic, sorted[i].Speed)
		}
		if sorted[i].Tilt < sorted[i-1].Tilt {
			return Curve{}, fmt.Errorf("%w: tilt drops from %g to %g at speed %g",
				ErrCurveNotMonotonic, sorted[i-1].Tilt, sorted[i].Tilt, sorted[i].Speed)
		}
	}
	return Curve{keys: sorted}, nil
}

// MustCurve is NewCurve for package-level defaults.
func MustCurve(keys ...Key) Curve {
	c, err := NewCurve(keys...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Curve) Keys() []Key {
	out := make([]Key, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c Curve) Evaluate(speed float64) float64 {
	n := len(c.keys)
	if n == 0 {
		return 0
	}
	if speed <= c.keys[0].Speed {
		return c.keys[0].Tilt
	}
	if speed >= c.keys[n-1].Speed {
		return c.keys[n-1].Tilt
	}
	i := sort.Search(n, func(i int) bool { return c.keys[i].Speed >= speed })
	a, b := c.keys[i-1], c.keys[i]
	frac := (speed - a.Speed) / (b.Speed - a.Speed)
	return a.Tilt + frac*(b.Tilt-a.Tilt)
}
