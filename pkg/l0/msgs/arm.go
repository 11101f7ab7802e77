package msgs

import (
	"encoding/json"
	"fmt"
)

// OptFloat32 is an optional float32, the zero value is absent. Value is
// not encoded when Valid is false, so an absent value decodes as the zero
// OptFloat32 whatever Value held.
type OptFloat32 struct {
	Value float32
	Valid bool
}

// Some creates a present OptFloat32.
func Some(v float32) OptFloat32 {
	return OptFloat32{Value: v, Valid: true}
}

// Get returns the value and whether it's present.
func (o OptFloat32) Get() (float32, bool) {
	return o.Value, o.Valid
}

// Or returns the value if present, otherwise def.
func (o OptFloat32) Or(def float32) float32 {
	if o.Valid {
		return o.Value
	}
	return def
}

// String implements fmt.Stringer.
func (o OptFloat32) String() string {
	if !o.Valid {
		return "-"
	}
	return fmt.Sprintf("%g", o.Value)
}

// MarshalJSON encodes absent values as null.
func (o OptFloat32) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Canonical returns o with Value cleared when absent.
func (o OptFloat32) Canonical() OptFloat32 {
	if !o.Valid {
		return OptFloat32{}
	}
	return o
}

func (o OptFloat32) size() int {
	if o.Valid {
		return presenceSize + f32Size
	}
	return presenceSize
}

// GripperPose is the end-effector part of an arm pose.
type GripperPose struct {
	RotationAxis OptFloat32 `json:"rotation_axis"`
	GripperAxis  OptFloat32 `json:"gripper_axis"`
	PitchAxis    OptFloat32 `json:"pitch_axis"`
}

// OptGripperPose is an optional GripperPose, Pose is not encoded when
// Valid is false.
type OptGripperPose struct {
	Pose  GripperPose
	Valid bool
}

// SomeGrip creates a present OptGripperPose.
func SomeGrip(pose GripperPose) OptGripperPose {
	return OptGripperPose{Pose: pose, Valid: true}
}

// MarshalJSON encodes absent values as null.
func (o OptGripperPose) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(&o.Pose)
}

// KinematicArmPose is the pose of the arm in the kinematic model.
// Absent axes are left unchanged when used as a command.
type KinematicArmPose struct {
	LowerAxis    OptFloat32     `json:"lower_axis"`
	UpperAxis    OptFloat32     `json:"upper_axis"`
	RotationAxis OptFloat32     `json:"rotation_axis"`
	Grip         OptGripperPose `json:"grip"`
}

// IsEmpty indicates no axis is set, which is a valid no-op command.
func (p KinematicArmPose) IsEmpty() bool {
	return p.Canonical() == KinematicArmPose{}
}

// Canonical returns p with the payloads of absent values cleared, it's
// what p decodes to after encoding.
func (p KinematicArmPose) Canonical() KinematicArmPose {
	p.LowerAxis = p.LowerAxis.Canonical()
	p.UpperAxis = p.UpperAxis.Canonical()
	p.RotationAxis = p.RotationAxis.Canonical()
	if !p.Grip.Valid {
		p.Grip = OptGripperPose{}
		return p
	}
	g := &p.Grip.Pose
	g.RotationAxis = g.RotationAxis.Canonical()
	g.GripperAxis = g.GripperAxis.Canonical()
	g.PitchAxis = g.PitchAxis.Canonical()
	return p
}

// Apply overrides the axes of p with the ones present in update.
func (p KinematicArmPose) Apply(update KinematicArmPose) KinematicArmPose {
	p = p.Canonical()
	p.LowerAxis = pick(update.LowerAxis, p.LowerAxis)
	p.UpperAxis = pick(update.UpperAxis, p.UpperAxis)
	p.RotationAxis = pick(update.RotationAxis, p.RotationAxis)
	if update.Grip.Valid {
		g := &p.Grip.Pose
		g.RotationAxis = pick(update.Grip.Pose.RotationAxis, g.RotationAxis)
		g.GripperAxis = pick(update.Grip.Pose.GripperAxis, g.GripperAxis)
		g.PitchAxis = pick(update.Grip.Pose.PitchAxis, g.PitchAxis)
		p.Grip.Valid = true
	}
	return p
}

func pick(v, old OptFloat32) OptFloat32 {
	if v.Valid {
		return v
	}
	return old
}

func (p *GripperPose) size() int {
	return p.RotationAxis.size() + p.GripperAxis.size() + p.PitchAxis.size()
}

func (p *GripperPose) encode(e *encoder) {
	e.optF32(p.RotationAxis)
	e.optF32(p.GripperAxis)
	e.optF32(p.PitchAxis)
}

func (p *GripperPose) decode(d *decoder) {
	p.RotationAxis = d.optF32()
	p.GripperAxis = d.optF32()
	p.PitchAxis = d.optF32()
}

func (p *KinematicArmPose) size() int {
	n := p.LowerAxis.size() + p.UpperAxis.size() + p.RotationAxis.size() + presenceSize
	if p.Grip.Valid {
		n += p.Grip.Pose.size()
	}
	return n
}

func (p *KinematicArmPose) encode(e *encoder) {
	e.optF32(p.LowerAxis)
	e.optF32(p.UpperAxis)
	e.optF32(p.RotationAxis)
	if !p.Grip.Valid {
		e.u8(0)
		return
	}
	e.u8(1)
	p.Grip.Pose.encode(e)
}

func (p *KinematicArmPose) decode(d *decoder) {
	p.LowerAxis = d.optF32()
	p.UpperAxis = d.optF32()
	p.RotationAxis = d.optF32()
	if d.present() {
		p.Grip.Pose.decode(d)
		p.Grip.Valid = d.err == nil
	}
}
