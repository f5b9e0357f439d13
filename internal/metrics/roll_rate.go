package metrics

import (
	"math"

	"github.com/san-kum/motosim/internal/sim"
)

// RollRate is the RMS roll rate. A stabilizer that oscillates scores high
// even when the mean roll is small.
type RollRate struct {
	sumSq   float64
	samples int
}

func NewRollRate() *RollRate { return &RollRate{} }

func (r *RollRate) Name() string { return "roll_rate_rms" }

func (r *RollRate) Observe(obs sim.Observation) {
	r.sumSq += obs.RollRate * obs.RollRate
	r.samples++
}

func (r *RollRate) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sumSq / float64(r.samples))
}

func (r *RollRate) Reset() {
	r.sumSq = 0
	r.samples = 0
}

// Standard is the metric set every run records.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewUpright(DefaultUprightThreshold),
		NewMaxRoll(),
		NewAirtime(),
		NewControlEffort(),
		NewRollRate(),
	}
}
