package metrics

import "github.com/san-kum/motosim/internal/sim"

// Airtime is the fraction of ticks with neither wheel on the ground.
type Airtime struct {
	airborne int
	samples  int
}

func NewAirtime() *Airtime { return &Airtime{} }

func (a *Airtime) Name() string { return "airtime" }

func (a *Airtime) Observe(obs sim.Observation) {
	a.samples++
	if obs.Airborne() {
		a.airborne++
	}
}

func (a *Airtime) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.airborne) / float64(a.samples)
}

func (a *Airtime) Reset() {
	a.airborne = 0
	a.samples = 0
}
