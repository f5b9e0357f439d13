package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/dynamo"
	"github.com/san-kum/motosim/internal/integrators"
)

type Simulator struct {
	vehicle    *Vehicle
	integrator dynamo.Integrator
	metrics    []Metric
	observers  []Observer
}

func New(vehicle *Vehicle, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		vehicle:    vehicle,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

// NewFromConfig builds the vehicle and integrator a configuration names.
func NewFromConfig(cfg *config.Config) (*Simulator, error) {
	v, err := NewVehicle(cfg)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(cfg.Run.Integrator)
	if err != nil {
		return nil, err
	}
	return New(v, integ), nil
}

func (s *Simulator) Vehicle() *Vehicle { return s.vehicle }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run drives the vehicle from its current state for cfg.Duration. Each tick
// the pilot sees an observation, the controller stabilizes and commands the
// wheels, and the body integrates the forces the wheels applied.
func (s *Simulator) Run(ctx context.Context, pilot Pilot, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Observations: make([]Observation, 0, steps),
		Metrics:      make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		obs := s.vehicle.Observe(t, i)
		if cfg.FallAngle > 0 && math.Abs(obs.Roll) > cfg.FallAngle {
			result.Fallen = true
			result.FallTime = t
			result.Observations = append(result.Observations, obs)
			break
		}

		obs, err := s.advance(pilot, obs, cfg.Dt)
		result.Observations = append(result.Observations, obs)
		if err != nil {
			s.collect(result)
			return result, err
		}

		t += cfg.Dt
		result.Steps++
	}

	s.collect(result)
	return result, nil
}

// Step runs a single tick at time t and returns the observation the pilot
// acted on. Metrics and observers see it as they would during Run.
func (s *Simulator) Step(pilot Pilot, t float64, step int, dt float64) (Observation, error) {
	return s.advance(pilot, s.vehicle.Observe(t, step), dt)
}

func (s *Simulator) advance(pilot Pilot, obs Observation, dt float64) (Observation, error) {
	obs.Actions = pilot.Act(obs)
	for _, m := range s.metrics {
		m.Observe(obs)
	}
	for _, o := range s.observers {
		o.OnStep(obs)
	}

	s.vehicle.Controller.Tick(obs.Actions, time.Duration(dt*float64(time.Second)))
	if err := s.vehicle.Body.Integrate(s.integrator, dt); err != nil {
		return obs, &dynamo.SimError{Step: obs.Step, Time: obs.Time, Wrapped: err}
	}
	return obs, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// Episodes runs n episodes back to back on the same vehicle. Each starts
// with a managed reset to cfg.Start, rolled by up to ±Start.Jitter.
func (s *Simulator) Episodes(ctx context.Context, pilot Pilot, cfg Config, n int) ([]*Result, error) {
	if n < 1 {
		return nil, dynamo.Bounds("episodes", float64(n), ">= 1")
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	results := make([]*Result, 0, n)

	for ep := 0; ep < n; ep++ {
		start := cfg.Start
		if start.Jitter > 0 {
			start.Roll += (2*rng.Float64() - 1) * start.Jitter
		}
		s.vehicle.Reset(start)
		if r, ok := pilot.(Resetter); ok {
			r.Reset()
		}

		res, err := s.Run(ctx, pilot, cfg)
		if res != nil {
			res.Episode = ep
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("episode %d: %w", ep, err)
		}
	}
	return results, nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return dynamo.Bounds("dt", cfg.Dt, "> 0")
	}
	if cfg.Duration <= 0 {
		return dynamo.Bounds("duration", cfg.Duration, "> 0")
	}
	if cfg.FallAngle < 0 {
		return dynamo.Bounds("fall_angle", cfg.FallAngle, ">= 0")
	}
	return nil
}
