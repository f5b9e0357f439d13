package integrators

import "github.com/san-kum/motosim/internal/dynamo"

// Euler is the explicit first-order stepper.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	axpy(result, x, dx, dt)
	return result
}

// axpy writes x + h*d into dst.
func axpy(dst, x, d dynamo.State, h float64) {
	for i := range x {
		dst[i] = x[i] + h*d[i]
	}
}
