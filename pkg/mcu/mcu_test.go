package mcu

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/l0/comm"
	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

var t0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func TestDrivetrainSample(t *testing.T) {
	testCases := []struct {
		name        string
		left, right float32
		after       time.Duration
		expect      msgs.MotorCounts
	}{
		{
			name: "stopped",
			left: 0, right: 0,
			after: time.Second,
		},
		{
			name: "forward",
			left: 1, right: 1,
			after: time.Second,
			expect: msgs.MotorCounts{
				NorthWest: msgs.MotorDelta{Count: 1000, Delta: 1000},
				NorthEast: msgs.MotorDelta{Count: 1000, Delta: 1000},
				SouthEast: msgs.MotorDelta{Count: 1000, Delta: 1000},
				SouthWest: msgs.MotorDelta{Count: 1000, Delta: 1000},
			},
		},
		{
			name: "spin",
			left: 0.5, right: -0.5,
			after: time.Second,
			expect: msgs.MotorCounts{
				NorthWest: msgs.MotorDelta{Count: 500, Delta: 500},
				NorthEast: msgs.MotorDelta{Count: math.MaxUint32 - 499, Delta: -500},
				SouthEast: msgs.MotorDelta{Count: math.MaxUint16 - 499, Delta: -500},
				SouthWest: msgs.MotorDelta{Count: 500, Delta: 500},
			},
		},
		{
			name: "16-bit wrap",
			left: 1, right: 1,
			after: 70 * time.Second,
			expect: msgs.MotorCounts{
				NorthWest: msgs.MotorDelta{Count: 70000, Delta: 70000},
				NorthEast: msgs.MotorDelta{Count: 70000, Delta: 70000},
				SouthEast: msgs.MotorDelta{Count: 70000 - 65536, Delta: 70000},
				SouthWest: msgs.MotorDelta{Count: 70000 - 65536, Delta: 70000},
			},
		},
		{
			name: "clamped",
			left: 2, right: float32(math.NaN()),
			after: time.Second,
			expect: msgs.MotorCounts{
				NorthWest: msgs.MotorDelta{Count: 1000, Delta: 1000},
				SouthWest: msgs.MotorDelta{Count: 1000, Delta: 1000},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDrivetrain(1000)
			d.SetTargets(t0, tc.left, tc.right)
			require.Equal(t, tc.expect, d.Sample(t0.Add(tc.after)))
		})
	}
}

func TestDrivetrainDelta(t *testing.T) {
	d := NewDrivetrain(1000)
	d.SetTargets(t0, 1, 1)
	first := d.Sample(t0.Add(time.Second))
	require.Equal(t, int64(1000), first.NorthWest.Delta)

	d.SetLeft(t0.Add(time.Second), -1)
	second := d.Sample(t0.Add(2 * time.Second))
	require.Equal(t, int64(-1000), second.NorthWest.Delta)
	require.Equal(t, uint32(0), second.NorthWest.Count)
	require.Equal(t, int64(1000), second.NorthEast.Delta)
	require.Equal(t, uint32(2000), second.NorthEast.Count)

	d.Halt(t0.Add(2 * time.Second))
	third := d.Sample(t0.Add(3 * time.Second))
	for _, w := range third.Wheels() {
		require.Zero(t, w.Delta)
	}
}

func TestDrivetrainSplitSides(t *testing.T) {
	d := NewDrivetrain(1000)
	d.SetRight(t0, 0.25)
	left, right := d.Targets()
	require.Equal(t, float32(0), left)
	require.Equal(t, float32(0.25), right)
	counts := d.Sample(t0.Add(4 * time.Second))
	require.Equal(t, int64(0), counts.NorthWest.Delta)
	require.Equal(t, int64(1000), counts.NorthEast.Delta)
	require.Equal(t, int64(1000), counts.SouthEast.Delta)
	require.Equal(t, int64(0), counts.SouthWest.Delta)
}

func TestArm(t *testing.T) {
	a := NewArm(1)
	a.SetPose(t0, msgs.KinematicArmPose{
		LowerAxis: msgs.Some(1),
		Grip:      msgs.SomeGrip(msgs.GripperPose{GripperAxis: msgs.Some(-2)}),
	})
	pose := a.Pose(t0.Add(500 * time.Millisecond))
	require.Equal(t, msgs.Some(0.5), pose.LowerAxis)
	require.Equal(t, msgs.Some(-0.5), pose.Grip.Pose.GripperAxis)
	require.Equal(t, msgs.Some(0), pose.UpperAxis)

	pose = a.Pose(t0.Add(time.Second))
	require.Equal(t, msgs.Some(1), pose.LowerAxis)
	require.Equal(t, msgs.Some(-1), pose.Grip.Pose.GripperAxis)

	a.Halt(t0.Add(1500 * time.Millisecond))
	pose = a.Pose(t0.Add(3 * time.Second))
	require.Equal(t, msgs.Some(1), pose.LowerAxis)
	require.Equal(t, msgs.Some(-1.5), pose.Grip.Pose.GripperAxis)

	a.SetPose(t0.Add(3*time.Second), msgs.KinematicArmPose{UpperAxis: msgs.Some(0.25)})
	pose = a.Pose(t0.Add(4 * time.Second))
	require.Equal(t, msgs.Some(1), pose.LowerAxis)
	require.Equal(t, msgs.Some(0.25), pose.UpperAxis)
	require.Equal(t, msgs.Some(-1.5), pose.Grip.Pose.GripperAxis)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestMCU() (*MCU, *fakeClock) {
	clock := &fakeClock{now: t0}
	conf := NewConfig()
	conf.TicksPerSecond = 100
	conf.ArmSpeed = 0
	m := conf.NewMCU()
	m.Clock = clock.Now
	return m, clock
}

func TestMCUEncoderSampling(t *testing.T) {
	m, clock := newTestMCU()
	ctx := context.Background()
	m.Update(clock.now)

	_, err := m.HandleRequest(ctx, msgs.SetSpeed{Target: 1})
	require.NoError(t, err)

	clock.now = t0.Add(500 * time.Millisecond)
	m.Update(clock.now)
	res, err := m.HandleRequest(ctx, msgs.GetMotorEncoderCounts{})
	require.NoError(t, err)
	require.Equal(t, msgs.MotorCountResponse{}, res)

	clock.now = t0.Add(time.Second)
	m.Update(clock.now)
	res, err = m.HandleRequest(ctx, msgs.GetMotorEncoderCounts{})
	require.NoError(t, err)
	counts := res.(msgs.MotorCountResponse).Counts
	for _, w := range counts.Wheels() {
		require.Equal(t, msgs.MotorDelta{Count: 100, Delta: 100}, *w)
	}
	require.Equal(t, counts, m.Counts())
}

func TestMCURequests(t *testing.T) {
	m, _ := newTestMCU()
	ctx := context.Background()
	errJammed := errors.New("jammed")

	_, err := m.HandleRequest(ctx, msgs.SetArm{})
	require.ErrorIs(t, err, comm.ErrUnimplemented)
	_, err = m.HandleRequest(ctx, msgs.UnknownRequest{Tag: 99})
	require.ErrorIs(t, err, comm.ErrUnimplemented)

	_, err = m.HandleRequest(ctx, msgs.SetSplitSpeed{Left: 0.5, Right: 5})
	require.NoError(t, err)
	left, right := m.drive.Targets()
	require.Equal(t, float32(0.5), left)
	require.Equal(t, float32(1), right)

	_, err = m.HandleRequest(ctx, msgs.Halt{})
	require.NoError(t, err)
	left, right = m.drive.Targets()
	require.Zero(t, left)
	require.Zero(t, right)

	_, err = m.HandleRequest(ctx, msgs.SetArmPose{Pose: msgs.KinematicArmPose{RotationAxis: msgs.Some(0.75)}})
	require.NoError(t, err)
	res, err := m.HandleRequest(ctx, msgs.GetKinematicArmPose{})
	require.NoError(t, err)
	pose := res.(msgs.KinematicArmPoseResponse).Pose
	require.Equal(t, msgs.Some(0.75), pose.RotationAxis)
	require.Equal(t, msgs.Some(0), pose.LowerAxis)
	require.True(t, pose.Grip.Valid)

	m.Faults.Inject(msgs.TagHaltArm, errJammed)
	_, err = m.HandleRequest(ctx, msgs.HaltArm{})
	require.ErrorIs(t, err, errJammed)
	m.Faults.Inject(msgs.TagHaltArm, nil)
	_, err = m.HandleRequest(ctx, msgs.HaltArm{})
	require.NoError(t, err)
}

func TestMCUOverClient(t *testing.T) {
	m, _ := newTestMCU()
	m.Faults.Inject(msgs.TagHaltMotors, errors.New("driver fault"))
	cliEnd, srvEnd := comm.NewPipe()
	ctx, cancel := context.WithCancel(context.Background())
	cli := comm.NewClient(cliEnd)
	runner := fx.NewRunnerWith(ctx).Go(comm.NewServer(srvEnd, m), cli)
	defer func() {
		cancel()
		runner.Wait()
	}()

	target := msgs.KinematicArmPose{
		LowerAxis: msgs.Some(0.1),
		Grip:      msgs.SomeGrip(msgs.GripperPose{PitchAxis: msgs.Some(0.2)}),
	}
	require.NoError(t, cli.SetArmPose(ctx, target))
	pose, err := cli.KinematicArmPose(ctx)
	require.NoError(t, err)
	require.Equal(t, msgs.Some(0.1), pose.LowerAxis)
	require.Equal(t, msgs.Some(0.2), pose.Grip.Pose.PitchAxis)
	require.Equal(t, msgs.Some(0), pose.Grip.Pose.RotationAxis)

	require.True(t, comm.IsStatus(cli.HaltMotors(ctx), msgs.StatusError))
	require.True(t, comm.IsStatus(cli.SetArm(ctx), msgs.StatusUnimplemented))
	require.NoError(t, cli.Halt(ctx))
}

func TestMCULoop(t *testing.T) {
	m, _ := newTestMCU()
	m.Clock = time.Now
	m.Config.UpdateInterval = 10 * time.Millisecond
	_, err := m.HandleRequest(context.Background(), msgs.SetSpeed{Target: 1})
	require.NoError(t, err)

	l := fx.NewLoop()
	l.Interval = time.Millisecond
	l.Add(m)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	l.Run(ctx)
	require.Greater(t, m.Counts().NorthWest.Delta, int64(0))
}
