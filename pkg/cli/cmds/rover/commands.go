package rover

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rover.go/pkg/cli/sh"
	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

func speedCmd(name, help string, build func(args []float32) msgs.RequestKind, nargs int) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: help,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < nargs {
				c.Err(fmt.Errorf("%s required", help))
				return
			}
			targets := make([]float32, nargs)
			for n := range targets {
				val, err := ParseSpeed(c.Args[n])
				if err != nil {
					c.Err(err)
					return
				}
				targets[n] = val
			}
			sh.DoRequest(c, build(targets))
		}),
	}
}

func simpleCmd(name string, kind msgs.RequestKind, aliases ...string) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoRequest(c, kind)
		}),
	}
}

var (
	// SpeedCmd exposes SetSpeed.
	SpeedCmd = speedCmd("speed", "SPEED", func(v []float32) msgs.RequestKind {
		return msgs.SetSpeed{Target: v[0]}
	}, 1)

	// LeftSpeedCmd exposes SetLeftSpeed.
	LeftSpeedCmd = speedCmd("speed.left", "SPEED", func(v []float32) msgs.RequestKind {
		return msgs.SetLeftSpeed{Target: v[0]}
	}, 1)

	// RightSpeedCmd exposes SetRightSpeed.
	RightSpeedCmd = speedCmd("speed.right", "SPEED", func(v []float32) msgs.RequestKind {
		return msgs.SetRightSpeed{Target: v[0]}
	}, 1)

	// SplitSpeedCmd exposes SetSplitSpeed.
	SplitSpeedCmd = speedCmd("speed.split", "LEFT RIGHT", func(v []float32) msgs.RequestKind {
		return msgs.SetSplitSpeed{Left: v[0], Right: v[1]}
	}, 2)

	// HaltCmd exposes Halt.
	HaltCmd = simpleCmd("halt", msgs.Halt{}, "h")
	// HaltMotorsCmd exposes HaltMotors.
	HaltMotorsCmd = simpleCmd("halt.motors", msgs.HaltMotors{})
	// HaltArmCmd exposes HaltArm.
	HaltArmCmd = simpleCmd("halt.arm", msgs.HaltArm{})
	// SetArmCmd exposes the legacy SetArm.
	SetArmCmd = simpleCmd("arm.set", msgs.SetArm{})
	// CountsCmd exposes GetMotorEncoderCounts.
	CountsCmd = simpleCmd("counts", msgs.GetMotorEncoderCounts{})
	// PoseCmd exposes GetKinematicArmPose.
	PoseCmd = simpleCmd("pose", msgs.GetKinematicArmPose{})

	// ArmPoseCmd exposes SetArmPose.
	ArmPoseCmd = ishell.Cmd{
		Name: "arm.pose",
		Help: "AXIS=VALUE... (lower, upper, rotation, grip.rotation, grip.gripper, grip.pitch)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			pose, err := ParsePose(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoRequest(c, msgs.SetArmPose{Pose: pose})
		}),
	}
)

func init() {
	sh.AddCmds(
		&SpeedCmd,
		&LeftSpeedCmd,
		&RightSpeedCmd,
		&SplitSpeedCmd,
		&HaltCmd,
		&HaltMotorsCmd,
		&HaltArmCmd,
		&SetArmCmd,
		&CountsCmd,
		&PoseCmd,
		&ArmPoseCmd,
	)
}
