package metrics

import (
	"math"

	"github.com/san-kum/motosim/internal/sim"
)

// DefaultUprightThreshold is the roll, in radians, beyond which a tick no
// longer counts as upright.
const DefaultUprightThreshold = 0.25

// Upright is the fraction of ticks spent with |roll| under a threshold.
type Upright struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewUpright(threshold float64) *Upright {
	return &Upright{
		name:      "upright",
		threshold: threshold,
	}
}

func (u *Upright) Name() string {
	return u.name
}

func (u *Upright) Observe(obs sim.Observation) {
	u.samples++
	if math.Abs(obs.Roll) > u.threshold {
		u.violations++
	}
}

func (u *Upright) Value() float64 {
	if u.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(u.violations)/float64(u.samples)
}

func (u *Upright) Reset() {
	u.violations = 0
	u.samples = 0
}

// MaxRoll is the largest |roll| seen.
type MaxRoll struct {
	max float64
}

func NewMaxRoll() *MaxRoll { return &MaxRoll{} }

func (m *MaxRoll) Name() string { return "max_roll" }

func (m *MaxRoll) Observe(obs sim.Observation) {
	m.max = math.Max(m.max, math.Abs(obs.Roll))
}

func (m *MaxRoll) Value() float64 { return m.max }

func (m *MaxRoll) Reset() { m.max = 0 }
