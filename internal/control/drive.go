package control

import (
	"math"
	"time"
)

// frontDrive is sent to the front unit every tick. The front unit carries no
// motor in this configuration; the value is kept as the vehicle has always
// sent it.
const frontDrive = -1.0

// DriveCommand is one wheel unit's command for a tick.
type DriveCommand struct {
	Drive float64
	Brake float64
	Steer float64
}

// MapActions splits the action vector into rear and front commands.
//
//	a0: throttle when positive, rear brake when negative
//	a1: front brake, negative values ignored
//	a2: steering, passed through
//
// Values are not sanitized.
func MapActions(actions [3]float64) (rear, front DriveCommand) {
	throttle := math.Max(actions[0], 0)
	rearBrake := math.Max(-actions[0], 0)
	frontBrake := math.Max(actions[1], 0)

	rear = DriveCommand{Drive: throttle, Brake: rearBrake, Steer: 0}
	front = DriveCommand{Drive: frontDrive, Brake: frontBrake, Steer: actions[2]}
	return rear, front
}

// ApplyActions commands both wheel units for one tick.
func (c *Controller) ApplyActions(actions [3]float64, dt time.Duration) {
	rear, front := MapActions(actions)
	c.rear.UpdateWheel(rear.Drive, rear.Brake, rear.Steer, dt)
	c.front.UpdateWheel(front.Drive, front.Brake, front.Steer, dt)
}
