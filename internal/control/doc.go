// Package control keeps a two-wheeled vehicle upright.
//
// [Controller] turns a three-element action vector into wheel commands and,
// every tick, applies corrective torques and probe forces to the chassis:
//
//   - [Controller.ApplyActions]: throttle/brake/steer mapping to the wheel units
//   - [Controller.Stabilize]: roll/yaw damping while grounded, orientation
//     recovery while airborne, and the per-probe ride-height servo
//   - [Controller.Initialize] and [Controller.ManagedReset]: lifecycle
//
// All corrections are instantaneous velocity changes, not forces integrated
// over the timestep; the gains are tuned against that contract.
//
// # Usage
//
//	c, err := control.New(cfg, chassis, front, rear, surface, anchor, probes)
//	c.Initialize()
//	for each tick {
//	    c.Tick(actions, dt) // stabilize, then drive
//	}
//
// The controller is single-threaded and keeps no state across ticks other
// than the last probe readings, which are exposed for telemetry.
package control
