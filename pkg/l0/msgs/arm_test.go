package msgs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// poseFromMask sets the axes selected by bits 0-6: lower, upper,
// rotation, grip, grip rotation, gripper, pitch.
func poseFromMask(mask int) (p KinematicArmPose) {
	axis := func(bit int, v float32) OptFloat32 {
		if mask&(1<<uint(bit)) != 0 {
			return Some(v)
		}
		return OptFloat32{}
	}
	p.LowerAxis = axis(0, 1)
	p.UpperAxis = axis(1, 2)
	p.RotationAxis = axis(2, 3)
	if mask&(1<<3) != 0 {
		p.Grip = SomeGrip(GripperPose{
			RotationAxis: axis(4, 4),
			GripperAxis:  axis(5, 5),
			PitchAxis:    axis(6, 6),
		})
	}
	return
}

func TestArmPoseOptionalFields(t *testing.T) {
	for mask := 0; mask < 1<<7; mask++ {
		pose := poseFromMask(mask)
		out, err := (&Request{Kind: SetArmPose{Pose: pose}, State: int32(mask)}).MarshalBinary()
		require.NoError(t, err)
		req, err := DecodeRequest(out)
		require.NoError(t, err)
		require.Equal(t, SetArmPose{Pose: pose}, req.Kind, "mask %07b", mask)

		out, err = (&Response{Data: KinematicArmPoseResponse{Pose: pose}}).MarshalBinary()
		require.NoError(t, err)
		res, err := DecodeResponse(out)
		require.NoError(t, err)
		require.Equal(t, KinematicArmPoseResponse{Pose: pose}, res.Data, "mask %07b", mask)
	}
}

func TestArmPoseLowerAxisOnly(t *testing.T) {
	pose := KinematicArmPose{LowerAxis: Some(1.0)}
	out, err := (&Request{Kind: SetArmPose{Pose: pose}}).MarshalBinary()
	require.NoError(t, err)
	req, err := DecodeRequest(out)
	require.NoError(t, err)
	decoded := req.Kind.(SetArmPose).Pose
	v, ok := decoded.LowerAxis.Get()
	require.True(t, ok)
	require.Equal(t, float32(1), v)
	require.False(t, decoded.UpperAxis.Valid)
	require.False(t, decoded.RotationAxis.Valid)
	require.False(t, decoded.Grip.Valid)
}

func TestArmPoseApply(t *testing.T) {
	full := KinematicArmPose{
		LowerAxis:    Some(1),
		UpperAxis:    Some(2),
		RotationAxis: Some(3),
		Grip:         SomeGrip(GripperPose{Some(4), Some(5), Some(6)}),
	}
	testCases := []struct {
		name   string
		from   KinematicArmPose
		update KinematicArmPose
		expect KinematicArmPose
	}{
		{"no-op", full, KinematicArmPose{}, full},
		{"lower axis", full, KinematicArmPose{LowerAxis: Some(9)}, KinematicArmPose{
			LowerAxis:    Some(9),
			UpperAxis:    Some(2),
			RotationAxis: Some(3),
			Grip:         SomeGrip(GripperPose{Some(4), Some(5), Some(6)}),
		}},
		{"grip with no axes", full, KinematicArmPose{Grip: SomeGrip(GripperPose{})}, full},
		{"gripper axis", full, KinematicArmPose{Grip: SomeGrip(GripperPose{GripperAxis: Some(0)})}, KinematicArmPose{
			LowerAxis:    Some(1),
			UpperAxis:    Some(2),
			RotationAxis: Some(3),
			Grip:         SomeGrip(GripperPose{Some(4), Some(0), Some(6)}),
		}},
		{"grip onto empty", KinematicArmPose{}, KinematicArmPose{Grip: SomeGrip(GripperPose{PitchAxis: Some(1)})},
			KinematicArmPose{Grip: SomeGrip(GripperPose{PitchAxis: Some(1)})}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.from.Apply(tc.update))
		})
	}
	require.True(t, KinematicArmPose{}.IsEmpty())
	require.False(t, full.IsEmpty())
}

func TestArmPoseAbsentPayload(t *testing.T) {
	testCases := []struct {
		name string
		pose KinematicArmPose
	}{
		{"absent axis with value", KinematicArmPose{LowerAxis: OptFloat32{Value: 3}}},
		{"absent grip with axes", KinematicArmPose{
			UpperAxis: Some(2),
			Grip:      OptGripperPose{Pose: GripperPose{PitchAxis: Some(1)}},
		}},
		{"absent grip axis with value", KinematicArmPose{
			Grip: SomeGrip(GripperPose{GripperAxis: OptFloat32{Value: 5}, PitchAxis: Some(1)}),
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			canonical := tc.pose.Canonical()
			require.Equal(t, canonical.size(), tc.pose.size())

			out, err := (&Request{Kind: SetArmPose{Pose: tc.pose}}).MarshalBinary()
			require.NoError(t, err)
			expect, err := (&Request{Kind: SetArmPose{Pose: canonical}}).MarshalBinary()
			require.NoError(t, err)
			require.Equal(t, expect, out)

			req, err := DecodeRequest(out)
			require.NoError(t, err)
			require.Equal(t, SetArmPose{Pose: canonical}, req.Kind)
			require.Equal(t, canonical, canonical.Canonical())
		})
	}

	require.True(t, KinematicArmPose{LowerAxis: OptFloat32{Value: 1}}.IsEmpty())
	merged := KinematicArmPose{Grip: OptGripperPose{Pose: GripperPose{RotationAxis: Some(7)}}}.
		Apply(KinematicArmPose{Grip: SomeGrip(GripperPose{PitchAxis: Some(1)})})
	require.Equal(t, KinematicArmPose{Grip: SomeGrip(GripperPose{PitchAxis: Some(1)})}, merged)
}

func TestArmPoseJSON(t *testing.T) {
	out, err := json.Marshal(KinematicArmPose{LowerAxis: Some(1.5)})
	require.NoError(t, err)
	require.JSONEq(t, `{"lower_axis":1.5,"upper_axis":null,"rotation_axis":null,"grip":null}`, string(out))
}

func TestSpeedRange(t *testing.T) {
	require.True(t, ValidSpeed(-1))
	require.True(t, ValidSpeed(1))
	require.True(t, ValidSpeed(0))
	require.False(t, ValidSpeed(1.01))
	require.False(t, ValidSpeed(-2))
	nan := float32(0)
	nan /= nan
	require.False(t, ValidSpeed(nan))
	require.Equal(t, float32(0), ClampSpeed(nan))
	require.Equal(t, float32(1), ClampSpeed(3))
	require.Equal(t, float32(-1), ClampSpeed(-3))
	require.Equal(t, float32(0.25), ClampSpeed(0.25))
}
