package rover

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// ParseSpeed parses a drive target, it must be within [-1, 1].
func ParseSpeed(arg string) (float32, error) {
	val, err := strconv.ParseFloat(arg, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid SPEED %q: %w", arg, err)
	}
	if !msgs.ValidSpeed(float32(val)) {
		return 0, fmt.Errorf("SPEED %s out of range [%g, %g]", arg, msgs.SpeedMin, msgs.SpeedMax)
	}
	return float32(val), nil
}

// ParsePose parses KEY=VALUE arguments into a partial pose. Keys are
// lower, upper, rotation, grip.rotation, grip.gripper and grip.pitch.
func ParsePose(args []string) (pose msgs.KinematicArmPose, err error) {
	for _, arg := range args {
		kv := strings.SplitN(arg, "=", 2)
		if len(kv) != 2 {
			return pose, fmt.Errorf("expect KEY=VALUE: %q", arg)
		}
		val, err := strconv.ParseFloat(kv[1], 32)
		if err != nil {
			return pose, fmt.Errorf("invalid value of %s: %w", kv[0], err)
		}
		v := msgs.Some(float32(val))
		switch kv[0] {
		case "lower":
			pose.LowerAxis = v
		case "upper":
			pose.UpperAxis = v
		case "rotation":
			pose.RotationAxis = v
		case "grip.rotation":
			pose.Grip.Pose.RotationAxis, pose.Grip.Valid = v, true
		case "grip.gripper":
			pose.Grip.Pose.GripperAxis, pose.Grip.Valid = v, true
		case "grip.pitch":
			pose.Grip.Pose.PitchAxis, pose.Grip.Valid = v, true
		default:
			return pose, fmt.Errorf("unknown axis %q", kv[0])
		}
	}
	return pose, nil
}
