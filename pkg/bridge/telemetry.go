package bridge

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// WheelTelemetry is the encoder reading of one wheel.
type WheelTelemetry struct {
	Name  string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Count uint32 `protobuf:"varint,2,opt,name=count,proto3" json:"count,omitempty"`
	Delta int64  `protobuf:"varint,3,opt,name=delta,proto3" json:"delta,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *WheelTelemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *WheelTelemetry) Reset() { *m = WheelTelemetry{} }

// String implements proto.Message.
func (m *WheelTelemetry) String() string { return proto.CompactTextString(m) }

// MotorTelemetry is published on <type>/<id>/telemetry/motors.
type MotorTelemetry struct {
	// Timestamp is when the bridge polled, in unix milliseconds.
	Timestamp int64             `protobuf:"varint,1,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Wheels    []*WheelTelemetry `protobuf:"bytes,2,rep,name=wheels,proto3" json:"wheels,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *MotorTelemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MotorTelemetry) Reset() { *m = MotorTelemetry{} }

// String implements proto.Message.
func (m *MotorTelemetry) String() string { return proto.CompactTextString(m) }

// ArmTelemetry is published on <type>/<id>/telemetry/arm. Absent axes
// are nil.
type ArmTelemetry struct {
	Timestamp        *int64   `protobuf:"varint,1,opt,name=timestamp" json:"timestamp,omitempty"`
	LowerAxis        *float32 `protobuf:"fixed32,2,opt,name=lower_axis" json:"lower_axis,omitempty"`
	UpperAxis        *float32 `protobuf:"fixed32,3,opt,name=upper_axis" json:"upper_axis,omitempty"`
	RotationAxis     *float32 `protobuf:"fixed32,4,opt,name=rotation_axis" json:"rotation_axis,omitempty"`
	GripRotationAxis *float32 `protobuf:"fixed32,5,opt,name=grip_rotation_axis" json:"grip_rotation_axis,omitempty"`
	GripperAxis      *float32 `protobuf:"fixed32,6,opt,name=gripper_axis" json:"gripper_axis,omitempty"`
	GripPitchAxis    *float32 `protobuf:"fixed32,7,opt,name=grip_pitch_axis" json:"grip_pitch_axis,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *ArmTelemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ArmTelemetry) Reset() { *m = ArmTelemetry{} }

// String implements proto.Message.
func (m *ArmTelemetry) String() string { return proto.CompactTextString(m) }

var wheelNames = [4]string{"north_west", "north_east", "south_east", "south_west"}

// NewMotorTelemetry converts encoder counts.
func NewMotorTelemetry(at time.Time, counts msgs.MotorCounts) *MotorTelemetry {
	m := &MotorTelemetry{Timestamp: unixMilli(at)}
	for n, w := range counts.Wheels() {
		m.Wheels = append(m.Wheels, &WheelTelemetry{Name: wheelNames[n], Count: w.Count, Delta: w.Delta})
	}
	return m
}

// Counts converts back to encoder counts, unknown wheels are ignored.
func (m *MotorTelemetry) Counts() (counts msgs.MotorCounts) {
	wheels := counts.Wheels()
	for _, w := range m.Wheels {
		for n, name := range wheelNames {
			if w.Name == name {
				*wheels[n] = msgs.MotorDelta{Count: w.Count, Delta: w.Delta}
			}
		}
	}
	return
}

func optPtr(v msgs.OptFloat32) *float32 {
	if !v.Valid {
		return nil
	}
	return proto.Float32(v.Value)
}

func ptrOpt(p *float32) msgs.OptFloat32 {
	if p == nil {
		return msgs.OptFloat32{}
	}
	return msgs.Some(*p)
}

// NewArmTelemetry converts an arm pose.
func NewArmTelemetry(at time.Time, pose msgs.KinematicArmPose) *ArmTelemetry {
	m := &ArmTelemetry{
		Timestamp:    proto.Int64(unixMilli(at)),
		LowerAxis:    optPtr(pose.LowerAxis),
		UpperAxis:    optPtr(pose.UpperAxis),
		RotationAxis: optPtr(pose.RotationAxis),
	}
	if pose.Grip.Valid {
		m.GripRotationAxis = optPtr(pose.Grip.Pose.RotationAxis)
		m.GripperAxis = optPtr(pose.Grip.Pose.GripperAxis)
		m.GripPitchAxis = optPtr(pose.Grip.Pose.PitchAxis)
	}
	return m
}

// Pose converts back to an arm pose. The grip is present if any of its
// axes is.
func (m *ArmTelemetry) Pose() msgs.KinematicArmPose {
	pose := msgs.KinematicArmPose{
		LowerAxis:    ptrOpt(m.LowerAxis),
		UpperAxis:    ptrOpt(m.UpperAxis),
		RotationAxis: ptrOpt(m.RotationAxis),
	}
	grip := msgs.GripperPose{
		RotationAxis: ptrOpt(m.GripRotationAxis),
		GripperAxis:  ptrOpt(m.GripperAxis),
		PitchAxis:    ptrOpt(m.GripPitchAxis),
	}
	if grip != (msgs.GripperPose{}) {
		pose.Grip = msgs.SomeGrip(grip)
	}
	return pose
}

func unixMilli(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
