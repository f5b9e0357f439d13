package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motosim/internal/body"
	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/control"
	"github.com/san-kum/motosim/internal/geom"
	"github.com/san-kum/motosim/internal/ground"
	"github.com/san-kum/motosim/internal/wheel"
)

// Vehicle is the chassis, its two wheels, the stabilizer and the ground they
// share.
type Vehicle struct {
	Body       *body.RigidBody
	Front      *wheel.Sim
	Rear       *wheel.Sim
	Ground     *ground.Layer
	Controller *control.Controller

	groundHeight float64
}

// comAnchor is a point rigidly attached to the chassis.
type comAnchor struct {
	body  *body.RigidBody
	local mgl64.Vec3
}

func (a comAnchor) WorldPosition() mgl64.Vec3 { return a.body.TransformPoint(a.local) }

func NewVehicle(cfg *config.Config) (*Vehicle, error) {
	cc, probes, err := cfg.ControlConfig()
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}

	b := body.NewBox(cfg.Vehicle.Mass, cfg.Vehicle.Size)
	b.LinearDrag = cfg.Vehicle.LinearDrag
	b.AngularDrag = cfg.Vehicle.AngularDrag

	layer := ground.NewLayer(ground.Flat(cfg.Terrain.Height))
	for _, r := range cfg.Terrain.Ramps {
		layer.Add(ground.NewRamp(r.Start, cfg.Terrain.Height+r.Base, r.Pitch, r.Length, r.Width))
	}

	v := &Vehicle{
		Body:         b,
		Front:        wheel.NewSim(cfg.Vehicle.Front, b, layer),
		Rear:         wheel.NewSim(cfg.Vehicle.Rear, b, layer),
		Ground:       layer,
		groundHeight: cfg.Terrain.Height,
	}
	v.place(cfg.Run.Start)

	ctrl, err := control.New(cc, b, v.Front, v.Rear, layer, comAnchor{b, cfg.Vehicle.CenterOfMass}, probes)
	if err != nil {
		return nil, err
	}
	v.Controller = ctrl
	ctrl.Initialize()
	v.launch(cfg.Run.Start)
	return v, nil
}

// Reset starts a new episode from the given pose without rebuilding
// anything.
func (v *Vehicle) Reset(start config.StartConfig) {
	v.place(start)
	v.Controller.ManagedReset()
	v.launch(start)
}

func (v *Vehicle) place(start config.StartConfig) {
	v.Body.SetPose(mgl64.Vec3{0, v.groundHeight + start.Height, 0}, Attitude(start.Roll, start.Pitch))
}

func (v *Vehicle) launch(start config.StartConfig) {
	v.Body.SetVelocity(v.Body.Frame().Forward().Mul(start.Speed))
}

func (v *Vehicle) Observe(t float64, step int) Observation {
	f := v.Body.Frame()
	roll, pitch := RollPitch(f)
	local := f.ToLocal(v.Body.AngularVelocity())
	front, rear := v.Controller.Front(), v.Controller.Rear()
	return Observation{
		Time:     t,
		Step:     step,
		Position: v.Body.Position(),
		Velocity: v.Body.Velocity(),
		Speed:    v.Body.Speed(),
		Roll:     roll,
		Pitch:    pitch,
		RollRate: -local.Z(),
		YawRate:  local.Y(),
		Mode:     control.SelectMode(front.Grounded, rear.Grounded),
		Front:    front,
		Rear:     rear,
		Readings: v.Controller.LastReadings(),
	}
}

// Attitude builds an orientation with the given roll (positive leans right)
// and pitch (positive nose up).
func Attitude(roll, pitch float64) mgl64.Quat {
	return mgl64.QuatRotate(-roll, geom.Forward).Mul(mgl64.QuatRotate(-pitch, geom.Right))
}

// RollPitch recovers roll and pitch from a frame.
func RollPitch(f geom.Frame) (roll, pitch float64) {
	right, up, fwd := f.Right(), f.Up(), f.Forward()
	roll = math.Atan2(-right.Y(), up.Y())
	pitch = math.Asin(math.Max(-1, math.Min(1, fwd.Y())))
	return roll, pitch
}
