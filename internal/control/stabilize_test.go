package control

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/motosim/internal/ground"
)

const tol = 1e-9

func expectVec(got, want mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		ExpectWithOffset(1, got[i]).To(BeNumerically("~", want[i], tol), "component %d", i)
	}
}

var _ = Describe("Stabilize", func() {
	Context("when grounded with the probes out of reach", func() {
		var r *rig

		BeforeEach(func() {
			r = newRig(strongConfig(), ground.Flat(0), 10)
			r.body.SetAngularVelocity(mgl64.Vec3{0, 0.4, 0.6})
		})

		It("removes roll and yaw rate at full strength with no steering", func() {
			r.ctrl.Stabilize()

			Expect(r.ctrl.Mode()).To(Equal(Grounded))
			expectVec(r.body.AngularVelocity(), mgl64.Vec3{})
		})

		It("leaves yaw alone at full lock", func() {
			r.front.Steer = 1
			r.ctrl.Stabilize()

			expectVec(r.body.AngularVelocity(), mgl64.Vec3{0, 0.4, 0})
		})

		It("scales the correction with strength", func() {
			cfg := DefaultConfig()
			r = newRig(cfg, ground.Flat(0), 10)
			r.body.SetAngularVelocity(mgl64.Vec3{0, 0.4, 0.6})
			r.ctrl.Stabilize()

			expectVec(r.body.AngularVelocity(), mgl64.Vec3{0, 0.2, 0.3})
		})

		It("records a zero reading for every missed probe", func() {
			r.ctrl.Stabilize()

			Expect(r.body.forces).To(BeEmpty())
			readings := r.ctrl.LastReadings()
			Expect(readings).To(HaveLen(4))
			for _, rd := range readings {
				Expect(rd.Hit).To(BeFalse())
				Expect(rd.Force).To(BeZero())
			}
		})

		It("stays grounded while only one wheel touches", func() {
			r.front.Grounded = false
			r.ctrl.Stabilize()

			Expect(r.ctrl.Mode()).To(Equal(Grounded))
		})
	})

	Context("when grounded over flat ground", func() {
		It("applies no force when every probe sits at the target height", func() {
			r := newRig(strongConfig(), ground.Flat(0), DefaultTargetDistance)
			r.ctrl.Stabilize()

			for _, rd := range r.ctrl.LastReadings() {
				Expect(rd.Hit).To(BeTrue())
				Expect(rd.Error).To(BeNumerically("~", 0, tol))
				Expect(rd.Force).To(BeNumerically("~", 0, tol))
			}
			expectVec(r.body.Velocity(), mgl64.Vec3{})
			expectVec(r.body.AngularVelocity(), mgl64.Vec3{})
		})

		It("pushes the chassis up when it rides too low", func() {
			r := newRig(strongConfig(), ground.Flat(0), 0.6)
			r.ctrl.Stabilize()

			for _, rd := range r.ctrl.LastReadings() {
				Expect(rd.Error).To(BeNumerically("~", 0.2, tol))
			}
			Expect(r.body.forces).To(HaveLen(4))
			Expect(r.body.Velocity().Y()).To(BeNumerically("~", 0.8, tol))
			expectVec(r.body.AngularVelocity(), mgl64.Vec3{})
		})

		It("pulls the chassis down when it rides too high", func() {
			r := newRig(strongConfig(), ground.Flat(0), 1.0)
			r.ctrl.Stabilize()

			Expect(r.body.Velocity().Y()).To(BeNumerically("<", 0))
		})

		It("weakens the rear probes while the front brake is on at speed", func() {
			r := newRig(strongConfig(), ground.Flat(0), 0.6)
			r.front.Brake = 1
			r.body.SetVelocity(mgl64.Vec3{0, 0, 5})
			r.ctrl.Stabilize()

			readings := r.ctrl.LastReadings()
			frontForce, rearForce := readings[0].Force, readings[2].Force
			Expect(frontForce).To(BeNumerically("~", -0.2, tol))
			Expect(rearForce).To(BeNumerically("~", -0.2*(1-brakeTransfer), tol))
		})

		It("fades brake transfer in with speed", func() {
			r := newRig(strongConfig(), ground.Flat(0), 0.6)
			r.rear.Brake = 1
			r.body.SetVelocity(mgl64.Vec3{0, 0, 1.5})
			r.ctrl.Stabilize()

			readings := r.ctrl.LastReadings()
			Expect(readings[0].Force).To(BeNumerically("~", -0.2*(1-brakeTransfer*0.5), tol))
			Expect(readings[2].Force).To(BeNumerically("~", -0.2, tol))
		})

		It("leans into the steered side", func() {
			cfg := strongConfig()
			cfg.TiltCurve = MustCurve(Key{Speed: 0, Tilt: 0.2})
			r := newRig(cfg, ground.Flat(0), DefaultTargetDistance)
			r.front.Steer = 1
			r.ctrl.Stabilize()

			readings := r.ctrl.LastReadings()
			Expect(readings[0].Error).To(BeNumerically("~", 0.2*frontTiltBias, tol))
			Expect(readings[1].Error).To(BeNumerically("~", -0.2*frontTiltBias, tol))
			Expect(readings[2].Error).To(BeNumerically("~", 0.2*rearTiltBias, tol))
			Expect(readings[3].Error).To(BeNumerically("~", -0.2*rearTiltBias, tol))
			// Left side lifted, right side lowered: the chassis banks right.
			Expect(r.body.AngularVelocity().Z()).To(BeNumerically("<", 0))
		})
	})

	Context("when grounded on a slope", func() {
		It("scales the force by the normal's vertical component", func() {
			angle := math.Pi / 6
			surface := fixedSurface{ground.Hit{
				Normal:   mgl64.Vec3{0, math.Cos(angle), math.Sin(angle)},
				Distance: 0.6,
			}}
			r := newRig(strongConfig(), surface, 0.6)
			r.ctrl.Stabilize()

			for _, rd := range r.ctrl.LastReadings() {
				Expect(rd.Force).To(BeNumerically("~", -0.2*math.Cos(angle), tol))
			}
		})

		It("applies nothing against an overhang", func() {
			surface := fixedSurface{ground.Hit{Normal: mgl64.Vec3{0, -1, 0}, Distance: 0.6}}
			r := newRig(strongConfig(), surface, 0.6)
			r.ctrl.Stabilize()

			for _, rd := range r.ctrl.LastReadings() {
				Expect(rd.Hit).To(BeTrue())
				Expect(rd.Force).To(BeNumerically("~", 0, tol))
			}
		})
	})

	Context("when airborne", func() {
		var r *rig

		BeforeEach(func() {
			r = newRig(strongConfig(), ground.Flat(0), 0.6)
			r.front.Grounded = false
			r.rear.Grounded = false
		})

		It("skips the probes", func() {
			r.ctrl.Stabilize()

			Expect(r.ctrl.Mode()).To(Equal(Airborne))
			Expect(r.ctrl.LastReadings()).To(BeEmpty())
			Expect(r.body.forces).To(BeEmpty())
		})

		It("bleeds off spin tick after tick while level", func() {
			r.body.SetAngularVelocity(mgl64.Vec3{0.3, 0.2, -0.5})
			prev := r.body.AngularVelocity().Len()
			for i := 0; i < 10; i++ {
				r.ctrl.Stabilize()
				now := r.body.AngularVelocity().Len()
				Expect(now).To(BeNumerically("<", prev))
				prev = now
			}
			Expect(prev).To(BeNumerically("~", 0.616*math.Pow(1-airborneDamping, 10), 1e-3))
		})

		It("rolls a banked chassis back toward upright", func() {
			tilt := mgl64.QuatRotate(math.Pi/6, mgl64.Vec3{0, 0, 1})
			r.body.SetPose(mgl64.Vec3{0, 5, 0}, tilt)
			r.ctrl.Stabilize()

			expectVec(r.body.AngularVelocity(), mgl64.Vec3{0, 0, -0.25})
		})

		It("levels a nose-down chassis", func() {
			nose := mgl64.QuatRotate(math.Pi/6, mgl64.Vec3{1, 0, 0})
			r.body.SetPose(mgl64.Vec3{0, 5, 0}, nose)
			Expect(r.body.Frame().Forward().Y()).To(BeNumerically("<", 0))
			r.ctrl.Stabilize()

			Expect(r.body.AngularVelocity().X()).To(BeNumerically("<", 0))
		})
	})
})

var _ = Describe("Lifecycle", func() {
	var r *rig

	BeforeEach(func() {
		r = newRig(DefaultConfig(), ground.Flat(0), 0.8)
	})

	It("fixes the center of mass at the anchor on Initialize", func() {
		pose := mgl64.QuatRotate(0.4, mgl64.Vec3{0, 1, 0})
		r.body.SetPose(mgl64.Vec3{2, 1, -3}, pose)
		anchor := WorldPoint(r.body.TransformPoint(mgl64.Vec3{0, -0.2, 0.1}))
		c, err := New(DefaultConfig(), r.body, r.front, r.rear, ground.Flat(0), anchor, fourProbes())
		Expect(err).NotTo(HaveOccurred())

		c.Initialize()

		expectVec(r.body.CenterOfMass(), mgl64.Vec3{0, -0.2, 0.1})
		Expect(r.front.inits).To(Equal(1))
		Expect(r.rear.inits).To(Equal(1))
	})

	It("is idempotent on ManagedReset", func() {
		r.ctrl.Initialize()
		pos, rot, com := r.body.Position(), r.body.Orientation(), r.body.CenterOfMass()
		r.body.SetVelocity(mgl64.Vec3{1, 2, 3})
		r.body.SetAngularVelocity(mgl64.Vec3{0.1, 0.2, 0.3})
		r.front.Steer, r.rear.RPM = 0.5, 0.7

		r.ctrl.ManagedReset()
		first := [2]any{r.ctrl.Front(), r.ctrl.Rear()}
		r.ctrl.ManagedReset()

		Expect([2]any{r.ctrl.Front(), r.ctrl.Rear()}).To(Equal(first))
		expectVec(r.body.Velocity(), mgl64.Vec3{})
		expectVec(r.body.AngularVelocity(), mgl64.Vec3{})
		Expect(r.body.Position()).To(Equal(pos))
		Expect(r.body.Orientation()).To(Equal(rot))
		Expect(r.body.CenterOfMass()).To(Equal(com))
		Expect(r.front.resets).To(Equal(2))
		Expect(r.rear.resets).To(Equal(2))
		Expect(r.ctrl.LastReadings()).To(BeEmpty())
	})
})

var _ = Describe("Tick", func() {
	It("stabilizes against wheel state from before this tick's commands", func() {
		r := newRig(strongConfig(), ground.Flat(0), 10)
		r.front.applyCommands = true
		r.body.SetAngularVelocity(mgl64.Vec3{0, 0.4, 0})

		r.ctrl.Tick([3]float64{0, 0, 1}, 20*time.Millisecond)

		// Full yaw damping means steer was still 0 when stabilizing.
		expectVec(r.body.AngularVelocity(), mgl64.Vec3{})
		Expect(r.front.Steer).To(Equal(1.0))
		Expect(r.front.calls).To(HaveLen(1))
		Expect(r.rear.calls).To(HaveLen(1))
	})
})
