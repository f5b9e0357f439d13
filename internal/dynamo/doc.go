// Package dynamo provides the numerical primitives shared by the host
// simulation.
//
// The package defines the fundamental interfaces and types used to advance
// continuous state in fixed timesteps:
//
//   - [State]: flat vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//
// The rigid body in package body packs its pose and velocities into a
// [State] and implements [System], so any [Integrator] can advance it.
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe. Use one
// integrator per simulated vehicle.
package dynamo
