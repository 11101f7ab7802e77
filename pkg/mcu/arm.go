package mcu

import (
	"math"
	"time"

	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

type axis struct {
	pos, target float64
}

func (a *axis) move(step float64) {
	diff := a.target - a.pos
	if step <= 0 || math.Abs(diff) <= step {
		a.pos = a.target
	} else {
		a.pos += math.Copysign(step, diff)
	}
}

func (a *axis) set(v msgs.OptFloat32) {
	if v.Valid {
		a.target = float64(v.Value)
	}
}

func (a *axis) opt() msgs.OptFloat32 {
	return msgs.Some(float32(a.pos))
}

// Arm simulates the arm moving each axis towards its target at Speed.
type Arm struct {
	Speed float64

	lower, upper, rotation        axis
	gripRotation, grip, gripPitch axis
	lastTime                      time.Time
}

// NewArm creates an arm resting at the zero pose.
func NewArm(speed float64) *Arm {
	return &Arm{Speed: speed}
}

func (a *Arm) axes() []*axis {
	return []*axis{&a.lower, &a.upper, &a.rotation, &a.gripRotation, &a.grip, &a.gripPitch}
}

// Estimate moves the axes to where they are as of now.
func (a *Arm) Estimate(now time.Time) {
	var step float64
	if !a.lastTime.IsZero() && now.After(a.lastTime) {
		step = now.Sub(a.lastTime).Seconds() * a.Speed
	}
	if a.lastTime.IsZero() || now.After(a.lastTime) {
		a.lastTime = now
	}
	if a.Speed > 0 && step == 0 {
		return
	}
	// a zero step moves straight to the target.
	for _, ax := range a.axes() {
		ax.move(step)
	}
}

// SetPose moves the axes present in pose, others keep their targets.
func (a *Arm) SetPose(now time.Time, pose msgs.KinematicArmPose) {
	a.Estimate(now)
	a.lower.set(pose.LowerAxis)
	a.upper.set(pose.UpperAxis)
	a.rotation.set(pose.RotationAxis)
	if pose.Grip.Valid {
		a.gripRotation.set(pose.Grip.Pose.RotationAxis)
		a.grip.set(pose.Grip.Pose.GripperAxis)
		a.gripPitch.set(pose.Grip.Pose.PitchAxis)
	}
}

// Halt freezes the arm where it is.
func (a *Arm) Halt(now time.Time) {
	a.Estimate(now)
	for _, ax := range a.axes() {
		ax.target = ax.pos
	}
}

// Pose returns the current pose with all axes present.
func (a *Arm) Pose(now time.Time) msgs.KinematicArmPose {
	a.Estimate(now)
	return msgs.KinematicArmPose{
		LowerAxis:    a.lower.opt(),
		UpperAxis:    a.upper.opt(),
		RotationAxis: a.rotation.opt(),
		Grip: msgs.SomeGrip(msgs.GripperPose{
			RotationAxis: a.gripRotation.opt(),
			GripperAxis:  a.grip.opt(),
			PitchAxis:    a.gripPitch.opt(),
		}),
	}
}
