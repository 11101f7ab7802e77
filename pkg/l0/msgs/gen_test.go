package msgs

import (
	"math/rand"
)

type generator struct {
	*rand.Rand
}

func newGenerator(seed int64) generator {
	return generator{rand.New(rand.NewSource(seed))}
}

func (g generator) f32() float32 {
	return float32(g.NormFloat64() * 10)
}

func (g generator) speed() float32 {
	return g.Float32()*2 - 1
}

func (g generator) opt() OptFloat32 {
	if g.Intn(2) == 0 {
		return OptFloat32{}
	}
	return Some(g.f32())
}

func (g generator) pose() (p KinematicArmPose) {
	p.LowerAxis, p.UpperAxis, p.RotationAxis = g.opt(), g.opt(), g.opt()
	if g.Intn(2) == 1 {
		p.Grip = SomeGrip(GripperPose{
			RotationAxis: g.opt(),
			GripperAxis:  g.opt(),
			PitchAxis:    g.opt(),
		})
	}
	return
}

func (g generator) counts() (c MotorCounts) {
	for _, w := range c.Wheels() {
		w.Count = g.Uint32()
		w.Delta = g.Int63() - g.Int63()
	}
	return
}

func (g generator) state() int32 {
	switch g.Intn(8) {
	case 0:
		return StateDecodeFailed
	case 1:
		return -g.Int31()
	}
	return g.Int31()
}

func (g generator) requestKind() RequestKind {
	switch RequestTag(g.Intn(numRequestTags)) {
	case TagSetSpeed:
		return SetSpeed{Target: g.speed()}
	case TagSetLeftSpeed:
		return SetLeftSpeed{Target: g.speed()}
	case TagSetRightSpeed:
		return SetRightSpeed{Target: g.speed()}
	case TagSetSplitSpeed:
		return SetSplitSpeed{Left: g.speed(), Right: g.speed()}
	case TagHaltMotors:
		return HaltMotors{}
	case TagHaltArm:
		return HaltArm{}
	case TagHalt:
		return Halt{}
	case TagSetArm:
		return SetArm{}
	case TagGetMotorEncoderCounts:
		return GetMotorEncoderCounts{}
	case TagGetKinematicArmPose:
		return GetKinematicArmPose{}
	default:
		return SetArmPose{Pose: g.pose()}
	}
}

func (g generator) request() Request {
	return Request{Kind: g.requestKind(), State: g.state()}
}

func (g generator) response() Response {
	res := Response{Status: Status(g.Intn(numStatuses)), State: g.state()}
	switch g.Intn(3) {
	case 0:
		res.Data = MotorCountResponse{Counts: g.counts()}
	case 1:
		res.Data = KinematicArmPoseResponse{Pose: g.pose()}
	}
	return res
}
