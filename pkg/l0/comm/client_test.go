package comm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

type recorder struct {
	lock  sync.Mutex
	kinds []msgs.RequestKind
}

func (r *recorder) add(kind msgs.RequestKind) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recorder) received() []msgs.RequestKind {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]msgs.RequestKind(nil), r.kinds...)
}

var (
	testCounts = msgs.MotorCounts{
		NorthWest: msgs.MotorDelta{Count: 10, Delta: 1},
		NorthEast: msgs.MotorDelta{Count: 20, Delta: -2},
		SouthEast: msgs.MotorDelta{Count: 65535, Delta: 3},
		SouthWest: msgs.MotorDelta{Count: 0, Delta: 0},
	}
	testPose = msgs.KinematicArmPose{
		LowerAxis: msgs.Some(1),
		Grip:      msgs.SomeGrip(msgs.GripperPose{PitchAxis: msgs.Some(-0.5)}),
	}
	errBroken = errors.New("broken")
)

func (r *recorder) HandleRequest(ctx context.Context, kind msgs.RequestKind) (msgs.ResponseKind, error) {
	r.add(kind)
	switch kind.(type) {
	case msgs.GetMotorEncoderCounts:
		return msgs.MotorCountResponse{Counts: testCounts}, nil
	case msgs.GetKinematicArmPose:
		return msgs.KinematicArmPoseResponse{Pose: testPose}, nil
	case msgs.SetArm:
		return nil, ErrUnimplemented
	case msgs.HaltArm:
		return nil, errBroken
	}
	return nil, nil
}

func startClient(t *testing.T, h Handler) *Client {
	cliEnd, srvEnd := NewPipe()
	ctx, cancel := context.WithCancel(context.Background())
	cli := NewClient(cliEnd)
	runner := fx.NewRunnerWith(ctx).Go(NewServer(srvEnd, h), cli)
	t.Cleanup(func() {
		cancel()
		runner.Wait()
	})
	return cli
}

func TestClientCommands(t *testing.T) {
	h := &recorder{}
	cli := startClient(t, h)
	ctx := context.Background()

	require.NoError(t, cli.SetSpeed(ctx, 0.75))
	require.NoError(t, cli.SetLeftSpeed(ctx, -1))
	require.NoError(t, cli.SetRightSpeed(ctx, 1))
	require.NoError(t, cli.SetSplitSpeed(ctx, 0.5, -0.5))
	require.NoError(t, cli.HaltMotors(ctx))
	require.NoError(t, cli.Halt(ctx))
	require.NoError(t, cli.SetArmPose(ctx, testPose))

	require.Equal(t, []msgs.RequestKind{
		msgs.SetSpeed{Target: 0.75},
		msgs.SetLeftSpeed{Target: -1},
		msgs.SetRightSpeed{Target: 1},
		msgs.SetSplitSpeed{Left: 0.5, Right: -0.5},
		msgs.HaltMotors{},
		msgs.Halt{},
		msgs.SetArmPose{Pose: testPose},
	}, h.received())
}

func TestClientQueries(t *testing.T) {
	cli := startClient(t, &recorder{})
	ctx := context.Background()

	counts, err := cli.MotorEncoderCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, testCounts, counts)

	pose, err := cli.KinematicArmPose(ctx)
	require.NoError(t, err)
	require.Equal(t, testPose, pose)
}

func TestClientStatusErrors(t *testing.T) {
	cli := startClient(t, &recorder{})
	ctx := context.Background()

	err := cli.SetArm(ctx)
	require.True(t, IsStatus(err, msgs.StatusUnimplemented))

	err = cli.HaltArm(ctx)
	require.True(t, IsStatus(err, msgs.StatusError))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, msgs.TagHaltArm, se.Tag)

	res, err := cli.Do(ctx, msgs.UnknownRequest{Tag: 42, Payload: []byte{1, 2, 3}})
	require.True(t, IsStatus(err, msgs.StatusUnimplemented))
	require.NotNil(t, res)
	require.True(t, errors.As(err, &se))
	require.Equal(t, se.State, res.State)
	require.NotEqual(t, msgs.StateDecodeFailed, res.State)
	require.Nil(t, res.Data)
}

func TestClientSpeedOutOfRange(t *testing.T) {
	h := &recorder{}
	cli := startClient(t, h)
	ctx := context.Background()

	require.ErrorIs(t, cli.SetSpeed(ctx, 1.5), ErrSpeedOutOfRange)
	require.ErrorIs(t, cli.SetSplitSpeed(ctx, 0, -1.01), ErrSpeedOutOfRange)
	require.Empty(t, h.received())
}

func TestClientVersionMismatch(t *testing.T) {
	cli := startClient(t, &recorder{})
	cli.Version = msgs.ProtocolV1
	cli.Timeout = 50 * time.Millisecond
	err := cli.Halt(context.Background())
	require.ErrorIs(t, err, ErrVersionMismatch)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func encodeResponse(res msgs.Response) []byte {
	data, _ := res.MarshalBinary()
	return data
}

func TestClientSkipsUnmatchedReplies(t *testing.T) {
	cliEnd, mcuEnd := NewPipe()
	ctx, cancel := context.WithCancel(context.Background())
	cli := NewClient(cliEnd)
	cli.Timeout = 5 * time.Second
	runner := fx.NewRunnerWith(ctx).Go(cli)
	defer func() {
		cancel()
		runner.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		pkt, err := mcuEnd.ReadPacket()
		if err != nil {
			errCh <- err
			return
		}
		req, err := msgs.DecodeRequest(pkt.Data)
		if err != nil {
			errCh <- err
			return
		}
		replies := []*Packet{
			{Version: msgs.CurrentVersion, Data: encodeResponse(msgs.Response{State: req.State + 1})},
			{Version: msgs.ProtocolV1, Data: encodeResponse(msgs.Response{State: req.State})},
			{Version: msgs.CurrentVersion, Data: []byte{0xff}},
			{Version: msgs.CurrentVersion, Data: encodeResponse(msgs.Response{
				State: req.State,
				Data:  msgs.MotorCountResponse{Counts: testCounts},
			})},
		}
		for _, reply := range replies {
			if err := mcuEnd.WritePacket(reply); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- nil
	}()

	counts, err := cli.MotorEncoderCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, testCounts, counts)
	require.NoError(t, <-errCh)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	cli := startClient(t, HandleRequestFunc(func(ctx context.Context, kind msgs.RequestKind) (msgs.ResponseKind, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil, nil
	}))
	cli.Timeout = 20 * time.Millisecond
	require.ErrorIs(t, cli.Halt(context.Background()), context.DeadlineExceeded)

	close(release)
	require.NoError(t, cli.Halt(context.Background()))
}

func TestServerServe(t *testing.T) {
	encode := func(kind msgs.RequestKind, state int32) []byte {
		req := msgs.Request{Kind: kind, State: state}
		data, err := req.MarshalBinary()
		require.NoError(t, err)
		return data
	}
	valid := encode(msgs.SetSpeed{Target: 0.25}, 7)

	s := NewServer(nil, HandleRequestFunc(func(ctx context.Context, kind msgs.RequestKind) (msgs.ResponseKind, error) {
		switch kind.(type) {
		case msgs.SetArm:
			return nil, ErrUnimplemented
		case msgs.HaltArm:
			return nil, errBroken
		case msgs.GetMotorEncoderCounts:
			return msgs.UnknownResponse{Tag: 9, Payload: make([]byte, msgs.MaxResponseSize)}, nil
		case msgs.GetKinematicArmPose:
			return msgs.KinematicArmPoseResponse{Pose: testPose}, nil
		case msgs.HaltMotors:
			return msgs.UnknownResponse{Tag: msgs.TagMotorCountResponse}, nil
		}
		return nil, nil
	}))

	testCases := []struct {
		name string
		pkt  Packet
		res  msgs.Response
	}{
		{
			name: "ok",
			pkt:  Packet{Version: msgs.CurrentVersion, Data: valid},
			res:  msgs.Response{Status: msgs.StatusOK, State: 7},
		},
		{
			name: "query",
			pkt:  Packet{Version: msgs.CurrentVersion, Data: encode(msgs.GetKinematicArmPose{}, 8)},
			res: msgs.Response{
				Status: msgs.StatusOK,
				State:  8,
				Data:   msgs.KinematicArmPoseResponse{Pose: testPose},
			},
		},
		{
			name: "truncated",
			pkt:  Packet{Version: msgs.CurrentVersion, Data: valid[:len(valid)-1]},
			res:  msgs.DecodeFailure(),
		},
		{
			name: "empty",
			pkt:  Packet{Version: msgs.CurrentVersion},
			res:  msgs.DecodeFailure(),
		},
		{
			name: "trailing bytes",
			pkt:  Packet{Version: msgs.CurrentVersion, Data: append(append([]byte(nil), valid...), 0)},
			res:  msgs.DecodeFailure(),
		},
		{
			name: "version",
			pkt:  Packet{Version: msgs.ProtocolV1, Data: valid},
			res:  msgs.DecodeFailure(),
		},
		{
			name: "unknown tag",
			pkt:  Packet{Version: msgs.CurrentVersion, Data: []byte{200, 1, 2, 9, 0, 0, 0}},
			res:  msgs.Unimplemented(9),
		},
		{
			name: "unimplemented",
			pkt:  Packet{Version: msgs.CurrentVersion, Data: encode(msgs.SetArm{}, 10)},
			res:  msgs.Unimplemented(10),
		},
		{
			name: "handler error",
			pkt:  Packet{Version: msgs.CurrentVersion, Data: encode(msgs.HaltArm{}, 11)},
			res:  msgs.Response{Status: msgs.StatusError, State: 11},
		},
		{
			name: "response too large",
			pkt:  Packet{Version: msgs.CurrentVersion, Data: encode(msgs.GetMotorEncoderCounts{}, 12)},
			res:  msgs.Response{Status: msgs.StatusError, State: 12},
		},
		{
			name: "unencodable response",
			pkt:  Packet{Version: msgs.CurrentVersion, Data: encode(msgs.HaltMotors{}, 13)},
			res:  msgs.Response{Status: msgs.StatusError, State: 13},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pkt := tc.pkt
			require.Equal(t, tc.res, s.Serve(context.Background(), &pkt))
		})
	}
}

// Every valid request with its last byte removed is a decode failure.
func TestServerTruncatedRequests(t *testing.T) {
	s := NewServer(nil, &recorder{})
	kinds := []msgs.RequestKind{
		msgs.SetSpeed{Target: 0.75},
		msgs.SetSplitSpeed{Left: 1, Right: -1},
		msgs.Halt{},
		msgs.GetMotorEncoderCounts{},
		msgs.SetArmPose{Pose: testPose},
	}
	for _, kind := range kinds {
		req := msgs.Request{Kind: kind, State: 42}
		data, err := req.MarshalBinary()
		require.NoError(t, err)
		res := s.Serve(context.Background(), &Packet{Version: msgs.CurrentVersion, Data: data[:len(data)-1]})
		require.Equal(t, msgs.StatusDecodeError, res.Status)
		require.Equal(t, msgs.StateDecodeFailed, res.State)
	}
}

type scriptedRW struct {
	reads  []error
	writes []*Packet
}

func (s *scriptedRW) ReadPacket() (*Packet, error) {
	if len(s.reads) == 0 {
		return nil, io.EOF
	}
	err := s.reads[0]
	s.reads = s.reads[1:]
	return nil, err
}

func (s *scriptedRW) WritePacket(pkt *Packet) error {
	s.writes = append(s.writes, pkt)
	return nil
}

func TestServerFrameError(t *testing.T) {
	rw := &scriptedRW{reads: []error{&FrameError{Err: ErrChecksum}}}
	s := NewServer(rw, &recorder{})
	require.Equal(t, io.EOF, s.Run(context.Background()))
	require.Len(t, rw.writes, 1)
	require.Equal(t, msgs.CurrentVersion, rw.writes[0].Version)
	res, err := msgs.DecodeResponse(rw.writes[0].Data)
	require.NoError(t, err)
	require.Equal(t, msgs.DecodeFailure(), res)
}

func TestRunnableNames(t *testing.T) {
	a, b := NewPipe()
	defer a.Close()
	require.Equal(t, "l0-client(*comm.Pipe)", NewClient(a).Name())
	require.Equal(t, "l0-server(*comm.Pipe)", NewServer(b, &recorder{}).Name())

	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	require.Equal(t, "l0-server(stream pipe)", NewServer(NewStream(c1), &recorder{}).Name())
	require.Equal(t, "stream", NewStream(&bytes.Buffer{}).Name())
}
