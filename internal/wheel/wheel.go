// Package wheel defines the capability surface the balance controller needs
// from a wheel unit, and a raycast-suspension implementation used by the
// host simulation.
package wheel

import "time"

// Unit is one wheel's contact model as seen by the controller. Queries are
// pure reads of the state left by the last UpdateWheel.
type Unit interface {
	Initialize()
	Reset()

	// UpdateWheel commands drive, brake in [0,1] and steer in [-1,1] for one
	// tick. It is called exactly once per unit per tick while driving.
	UpdateWheel(drive, brake, steer float64, dt time.Duration)

	IsGrounded() bool
	NormalizedSteer() float64
	BrakeRatio() float64
	RPMRatio() float64
	LongitudinalSlip() float64
}

// State is a value snapshot of a unit's queries.
type State struct {
	Grounded bool    `json:"grounded"`
	Steer    float64 `json:"steer"`
	Brake    float64 `json:"brake"`
	RPM      float64 `json:"rpm"`
	Slip     float64 `json:"slip"`
}

// Observe reads all queries of u at once.
func Observe(u Unit) State {
	return State{
		Grounded: u.IsGrounded(),
		Steer:    u.NormalizedSteer(),
		Brake:    u.BrakeRatio(),
		RPM:      u.RPMRatio(),
		Slip:     u.LongitudinalSlip(),
	}
}
