// Package config loads simulation settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/motosim/internal/control"
	"github.com/san-kum/motosim/internal/dynamo"
	"github.com/san-kum/motosim/internal/wheel"
)

// EnvPrefix prefixes every environment override, e.g. MOTOSIM_RUN_DT.
const EnvPrefix = "MOTOSIM_"

const (
	DefaultDt        = 0.02
	DefaultDuration  = 10.0
	DefaultFallAngle = 1.2
	DefaultMass      = 200.0
	DefaultHeight    = 0.85
	DefaultKp        = 0.5
	DefaultKi        = 0.05
	DefaultKd        = 0.0
)

type Config struct {
	Run        RunConfig        `yaml:"run" envPrefix:"RUN_"`
	Controller ControllerConfig `yaml:"controller" envPrefix:"CONTROLLER_"`
	Vehicle    VehicleConfig    `yaml:"vehicle" envPrefix:"VEHICLE_"`
	Terrain    TerrainConfig    `yaml:"terrain" envPrefix:"TERRAIN_"`
	Scenario   []Segment        `yaml:"scenario,omitempty" env:"-"`
	Cruise     CruiseConfig     `yaml:"cruise" envPrefix:"CRUISE_"`
}

type RunConfig struct {
	Integrator string  `yaml:"integrator" env:"INTEGRATOR"`
	Pilot      string  `yaml:"pilot" env:"PILOT"`
	Dt         float64 `yaml:"dt" env:"DT"`
	Duration   float64 `yaml:"duration" env:"DURATION"`
	Seed       int64   `yaml:"seed" env:"SEED"`
	// FallAngle ends an episode once |roll| exceeds it, in radians. Zero
	// disables fall detection.
	FallAngle float64     `yaml:"fall_angle" env:"FALL_ANGLE"`
	Episodes  int         `yaml:"episodes" env:"EPISODES"`
	Start     StartConfig `yaml:"start" envPrefix:"START_"`
}

// StartConfig is the pose an episode begins from.
type StartConfig struct {
	Height float64 `yaml:"height" env:"HEIGHT"` // body origin above the ground plane
	Speed  float64 `yaml:"speed" env:"SPEED"`
	Roll   float64 `yaml:"roll" env:"ROLL"`
	Pitch  float64 `yaml:"pitch" env:"PITCH"`
	// Jitter adds a seeded random roll of up to ±Jitter radians per episode.
	Jitter float64 `yaml:"jitter" env:"JITTER"`
}

type ControllerConfig struct {
	Strength       float64       `yaml:"strength" env:"STRENGTH"`
	TargetDistance float64       `yaml:"target_distance" env:"TARGET_DISTANCE"`
	ProbeLength    float64       `yaml:"probe_length" env:"PROBE_LENGTH"`
	TiltCurve      []control.Key `yaml:"tilt_curve" env:"-"`
	Probes         []ProbeConfig `yaml:"probes" env:"-"`
}

type ProbeConfig struct {
	Name   string     `yaml:"name"`
	Offset mgl64.Vec3 `yaml:"offset"`
}

type VehicleConfig struct {
	Mass float64    `yaml:"mass" env:"MASS"`
	Size mgl64.Vec3 `yaml:"size" env:"-"` // box extents used for inertia
	// CenterOfMass is the body-local point the controller pins the center
	// of mass to on Initialize.
	CenterOfMass mgl64.Vec3 `yaml:"center_of_mass" env:"-"`
	LinearDrag   float64    `yaml:"linear_drag" env:"LINEAR_DRAG"`
	AngularDrag  float64    `yaml:"angular_drag" env:"ANGULAR_DRAG"`
	Front        wheel.Spec `yaml:"front" env:"-"`
	Rear         wheel.Spec `yaml:"rear" env:"-"`
}

type TerrainConfig struct {
	Height float64      `yaml:"height" env:"HEIGHT"`
	Ramps  []RampConfig `yaml:"ramps,omitempty" env:"-"`
}

type RampConfig struct {
	Start  float64 `yaml:"start"` // z where the ramp begins
	Base   float64 `yaml:"base"`  // height at the start
	Pitch  float64 `yaml:"pitch"` // radians
	Length float64 `yaml:"length"`
	Width  float64 `yaml:"width"`
}

// Segment holds an action vector until the given time.
type Segment struct {
	Until      float64 `yaml:"until"`
	Throttle   float64 `yaml:"throttle"` // negative brakes the rear wheel
	FrontBrake float64 `yaml:"front_brake"`
	Steer      float64 `yaml:"steer"`
}

type CruiseConfig struct {
	TargetSpeed float64 `yaml:"target_speed" env:"TARGET_SPEED"`
	Kp          float64 `yaml:"kp" env:"KP"`
	Ki          float64 `yaml:"ki" env:"KI"`
	Kd          float64 `yaml:"kd" env:"KD"`
	Steer       float64 `yaml:"steer" env:"STEER"`
	// WeavePeriod turns Steer into a sinusoid with this period in seconds.
	WeavePeriod float64 `yaml:"weave_period" env:"WEAVE_PERIOD"`
}

func defaultWheel(z float64, motor float64) wheel.Spec {
	return wheel.Spec{
		Mount:      mgl64.Vec3{0, -0.3, z},
		Radius:     0.3,
		Travel:     0.3,
		Stiffness:  20000,
		Damping:    1500,
		MotorForce: motor,
		BrakeForce: 3000,
		MaxSteer:   0.5,
		SteerRate:  4,
		Grip:       800,
		Friction:   1.2,
		Inertia:    0.5,
		MaxRPM:     3000,
	}
}

func DefaultConfig() *Config {
	curve := control.DefaultConfig().TiltCurve.Keys()
	return &Config{
		Run: RunConfig{
			Integrator: "rk4",
			Pilot:      "none",
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			FallAngle:  DefaultFallAngle,
			Episodes:   1,
			Start:      StartConfig{Height: DefaultHeight},
		},
		Controller: ControllerConfig{
			Strength:       control.DefaultStrength,
			TargetDistance: control.DefaultTargetDistance,
			ProbeLength:    control.DefaultProbeLength,
			TiltCurve:      curve,
			Probes: []ProbeConfig{
				{Name: "front_left", Offset: mgl64.Vec3{-0.25, -0.05, 0.75}},
				{Name: "front_right", Offset: mgl64.Vec3{0.25, -0.05, 0.75}},
				{Name: "rear_left", Offset: mgl64.Vec3{-0.25, -0.05, -0.75}},
				{Name: "rear_right", Offset: mgl64.Vec3{0.25, -0.05, -0.75}},
			},
		},
		Vehicle: VehicleConfig{
			Mass:         DefaultMass,
			Size:         mgl64.Vec3{0.6, 1.0, 2.0},
			CenterOfMass: mgl64.Vec3{0, -0.1, 0},
			LinearDrag:   0.05,
			AngularDrag:  0.5,
			Front:        defaultWheel(0.7, 0),
			Rear:         defaultWheel(-0.7, 2000),
		},
		Cruise: CruiseConfig{
			TargetSpeed: 8,
			Kp:          DefaultKp,
			Ki:          DefaultKi,
			Kd:          DefaultKd,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides scalar settings from MOTOSIM_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ControlConfig builds the stabilizer settings and probe set.
func (c *Config) ControlConfig() (control.Config, []control.Probe, error) {
	curve, err := control.NewCurve(c.Controller.TiltCurve...)
	if err != nil {
		return control.Config{}, nil, fmt.Errorf("tilt_curve: %w", err)
	}
	cc := control.Config{
		StabilizationStrength: c.Controller.Strength,
		TargetGroundDistance:  c.Controller.TargetDistance,
		ProbeLength:           c.Controller.ProbeLength,
		TiltCurve:             curve,
	}
	if err := cc.Validate(); err != nil {
		return control.Config{}, nil, err
	}

	probes := make([]control.Probe, len(c.Controller.Probes))
	for i, p := range c.Controller.Probes {
		probes[i] = control.Probe{Name: p.Name, Local: p.Offset}
	}
	if err := control.ValidateProbes(probes); err != nil {
		return control.Config{}, nil, err
	}
	return cc, probes, nil
}

func (c *Config) Validate() error {
	checks := []struct {
		field string
		value float64
		ok    bool
		want  string
	}{
		{"run.dt", c.Run.Dt, c.Run.Dt > 0, "> 0"},
		{"run.duration", c.Run.Duration, c.Run.Duration > 0, "> 0"},
		{"run.fall_angle", c.Run.FallAngle, c.Run.FallAngle >= 0, ">= 0"},
		{"run.episodes", float64(c.Run.Episodes), c.Run.Episodes >= 1, ">= 1"},
		{"run.start.jitter", c.Run.Start.Jitter, c.Run.Start.Jitter >= 0, ">= 0"},
		{"vehicle.mass", c.Vehicle.Mass, c.Vehicle.Mass > 0, "> 0"},
		{"vehicle.front.radius", c.Vehicle.Front.Radius, c.Vehicle.Front.Radius > 0, "> 0"},
		{"vehicle.rear.radius", c.Vehicle.Rear.Radius, c.Vehicle.Rear.Radius > 0, "> 0"},
		{"vehicle.front.travel", c.Vehicle.Front.Travel, c.Vehicle.Front.Travel > 0, "> 0"},
		{"vehicle.rear.travel", c.Vehicle.Rear.Travel, c.Vehicle.Rear.Travel > 0, "> 0"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return dynamo.Bounds(ch.field, ch.value, ch.want)
		}
	}
	for i, axis := range []string{"x", "y", "z"} {
		if c.Vehicle.Size[i] <= 0 {
			return dynamo.Bounds("vehicle.size."+axis, c.Vehicle.Size[i], "> 0")
		}
	}
	if len(c.Controller.Probes) == 0 {
		return fmt.Errorf("controller.probes: %w", control.ErrNoProbes)
	}
	for i, s := range c.Scenario {
		if i > 0 && s.Until <= c.Scenario[i-1].Until {
			return dynamo.Bounds(fmt.Sprintf("scenario[%d].until", i), s.Until, "increasing")
		}
	}
	if _, _, err := c.ControlConfig(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	return nil
}
