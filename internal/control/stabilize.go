package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/motosim/internal/geom"
)

const (
	airborneDamping = 0.25
	brakeTransfer   = 0.8
	brakeFadeSpeed  = 3.0
	frontTiltBias   = 1.1
	rearTiltBias    = 0.9
)

// Mode selects the stabilizer law for a tick.
type Mode int

const (
	Airborne Mode = iota
	Grounded
)

func (m Mode) String() string {
	if m == Grounded {
		return "grounded"
	}
	return "airborne"
}

// SelectMode is evaluated fresh every tick; there is no hysteresis.
func SelectMode(frontGrounded, rearGrounded bool) Mode {
	if frontGrounded || rearGrounded {
		return Grounded
	}
	return Airborne
}

// YawDampingCoefficient weakens yaw damping as steering approaches full lock
// so the stabilizer does not fight an intended turn.
func YawDampingCoefficient(steer float64) float64 {
	return 1 - math.Abs(steer)
}

// ProbeReading records one probe's ride-height servo result for a tick.
type ProbeReading struct {
	Probe    int     `json:"probe"`
	Hit      bool    `json:"hit"`
	Distance float64 `json:"distance"`
	Error    float64 `json:"error"`
	Force    float64 `json:"force"`
}

// Stabilize applies this tick's corrective torque and, while grounded, the
// ride-height probe forces.
func (c *Controller) Stabilize() {
	c.stabilize(c.observe())
}

func (c *Controller) stabilize(s snapshot) {
	c.mode = SelectMode(s.front.Grounded, s.rear.Grounded)
	c.readings = c.readings[:0]

	switch c.mode {
	case Grounded:
		c.body.AddTorqueVelocityChange(c.groundedTorque(s))
		c.rideHeight(s)
	case Airborne:
		c.body.AddTorqueVelocityChange(c.airborneTorque(s))
	}
}

// groundedTorque removes roll rate fully and yaw rate in proportion to how
// little the rider is steering.
func (c *Controller) groundedTorque(s snapshot) mgl64.Vec3 {
	local := s.frame.ToLocal(s.angularVelocity)
	roll := s.frame.Back().Mul(local.Z())
	yaw := s.frame.Down().Mul(local.Y() * YawDampingCoefficient(s.front.Steer))
	return roll.Add(yaw).Mul(c.cfg.StabilizationStrength)
}

// airborneTorque pulls the chassis toward level with a signed-square
// proportional term and damps the spin.
func (c *Controller) airborneTorque(s snapshot) mgl64.Vec3 {
	inc := s.frame.Inclination()
	keepUpright := s.frame.Back().Mul(geom.SignedSquare(inc.X())).
		Add(s.frame.Right().Mul(geom.SignedSquare(inc.Z())))
	return keepUpright.Sub(s.angularVelocity.Mul(airborneDamping)).Mul(c.cfg.StabilizationStrength)
}

func (c *Controller) rideHeight(s snapshot) {
	speed := s.velocity.Len()
	tiltFactor := c.cfg.TiltCurve.Evaluate(speed)
	steer := s.front.Steer
	dir := s.frame.Down()

	for i, p := range c.probes {
		origin := c.body.TransformPoint(p.Local)
		hit, ok := c.surface.Raycast(origin, dir, c.cfg.ProbeLength)
		if !ok {
			c.readings = append(c.readings, ProbeReading{Probe: i})
			continue
		}

		front := p.IsFront()
		// Braking one end unloads the other.
		opposite, tiltBias := s.front.Brake, rearTiltBias
		if front {
			opposite, tiltBias = s.rear.Brake, frontTiltBias
		}
		brakeMultiplier := 1 - opposite*brakeTransfer*math.Min(speed/brakeFadeSpeed, 1)
		slopeMultiplier := math.Max(0, hit.Normal.Y())

		tiltAmount := steer * geom.Sign(p.Local.X()) * tiltFactor
		err := RideHeightError(c.cfg.TargetGroundDistance, hit.Distance, tiltAmount, tiltBias)
		magnitude := -err * c.cfg.StabilizationStrength * brakeMultiplier * slopeMultiplier

		c.body.AddForceAtPositionVelocityChange(dir.Mul(magnitude), origin)
		c.readings = append(c.readings, ProbeReading{
			Probe:    i,
			Hit:      true,
			Distance: hit.Distance,
			Error:    err,
			Force:    magnitude,
		})
	}
}

// RideHeightError is positive when the probe sits closer to the ground than
// the (lean-biased) target.
func RideHeightError(target, distance, tiltAmount, tiltBias float64) float64 {
	return target - distance - tiltAmount*tiltBias
}
