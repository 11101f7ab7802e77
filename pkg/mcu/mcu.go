package mcu

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/l0/comm"
	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// MCU is the reference motor controller. It implements comm.Handler
// and is driven by a framework Loop.
type MCU struct {
	Config Config
	Faults Faults
	// Clock returns the time requests are applied at.
	Clock func() time.Time

	drive      *Drivetrain
	arm        *Arm
	counts     msgs.MotorCounts
	lastSample time.Time
	lock       sync.Mutex
}

// New creates an MCU with default config.
func New() *MCU {
	return &MCU{Config: defaultConfig, Clock: time.Now}
}

func (m *MCU) init() {
	if m.drive == nil {
		m.drive = NewDrivetrain(m.Config.TicksPerSecond)
		m.arm = NewArm(m.Config.ArmSpeed)
	}
}

// HandleRequest implements comm.Handler.
func (m *MCU) HandleRequest(ctx context.Context, kind msgs.RequestKind) (msgs.ResponseKind, error) {
	if err := m.Faults.Check(kind.RequestTag()); err != nil {
		return nil, err
	}
	now := m.Clock()
	m.lock.Lock()
	defer m.lock.Unlock()
	m.init()
	switch k := kind.(type) {
	case msgs.SetSpeed:
		m.drive.SetTargets(now, k.Target, k.Target)
	case msgs.SetLeftSpeed:
		m.drive.SetLeft(now, k.Target)
	case msgs.SetRightSpeed:
		m.drive.SetRight(now, k.Target)
	case msgs.SetSplitSpeed:
		m.drive.SetTargets(now, k.Left, k.Right)
	case msgs.HaltMotors:
		m.drive.Halt(now)
	case msgs.HaltArm:
		m.arm.Halt(now)
	case msgs.Halt:
		m.drive.Halt(now)
		m.arm.Halt(now)
	case msgs.SetArmPose:
		m.arm.SetPose(now, k.Pose)
	case msgs.GetMotorEncoderCounts:
		return msgs.MotorCountResponse{Counts: m.counts}, nil
	case msgs.GetKinematicArmPose:
		return msgs.KinematicArmPoseResponse{Pose: m.arm.Pose(now)}, nil
	default:
		// includes the legacy SetArm.
		return nil, comm.ErrUnimplemented
	}
	return nil, nil
}

// Update advances the simulation to now and samples the encoders when
// the update timer expires.
func (m *MCU) Update(now time.Time) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.init()
	m.drive.Estimate(now)
	m.arm.Estimate(now)
	if m.lastSample.IsZero() {
		m.lastSample = now
		return
	}
	if now.Sub(m.lastSample) >= m.Config.UpdateInterval {
		m.counts = m.drive.Sample(now)
		m.lastSample = now
		glog.V(3).Infof("encoders sampled: %+v", m.counts)
	}
}

// Control implements framework Controller.
func (m *MCU) Control(cc fx.ControlContext) error {
	m.Update(cc.Time())
	return nil
}

// AddToLoop implements LoopAdder.
func (m *MCU) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvActuate, m)
}

// Counts returns the last encoder sample.
func (m *MCU) Counts() msgs.MotorCounts {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.counts
}
