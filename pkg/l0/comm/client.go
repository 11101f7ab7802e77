package comm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/time/rate"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// DefaultTimeout is the default time to wait for a response.
const DefaultTimeout = 500 * time.Millisecond

// replyBacklog is the number of received responses buffered for Do.
const replyBacklog = 4

// Client provides the host side of L0 protocol over a PacketReadWriter.
// Requests are serialized: Do waits for the response of one request
// before the next is sent.
type Client struct {
	// Timeout bounds the wait for a response when ctx has no deadline.
	Timeout time.Duration
	// Limiter paces requests if set, for MCUs with slow command handling.
	Limiter *rate.Limiter
	// Version is the protocol version sent and expected.
	Version msgs.ProtocolVersion

	rw      PacketReadWriter
	replyCh chan reply
	state   int32
	lock    sync.Mutex
}

type reply struct {
	res msgs.Response
	err error
}

// NewClient creates a client on rw, Run must be running for Do to
// receive responses.
func NewClient(rw PacketReadWriter) *Client {
	return &Client{
		Timeout: DefaultTimeout,
		Version: msgs.CurrentVersion,
		rw:      rw,
		replyCh: make(chan reply, replyBacklog),
	}
}

// Name implements framework Named.
func (c *Client) Name() string {
	return "l0-client(" + transportName(c.rw) + ")"
}

// Run implements Runnable and receives responses until ctx is done or
// the transport fails.
func (c *Client) Run(ctx context.Context) error {
	if closer, ok := c.rw.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, c.readLoop)
	}
	return fx.RunWithContext(ctx, c.readLoop)
}

func (c *Client) readLoop() error {
	for {
		pkt, err := c.rw.ReadPacket()
		if err != nil {
			if IsFrameError(err) {
				glog.Warningf("drop response: %v", err)
				continue
			}
			return err
		}
		var r reply
		if pkt.Version != c.Version {
			r.err = fmt.Errorf("%w: got %s, want %s", ErrVersionMismatch, pkt.Version, c.Version)
		} else {
			r.res, r.err = msgs.DecodeResponse(pkt.Data)
		}
		select {
		case c.replyCh <- r:
		default:
			glog.Warningf("drop unsolicited response: status=%s state=%d", r.res.Status, r.res.State)
		}
	}
}

func (c *Client) nextState() int32 {
	c.state++
	if c.state == msgs.StateDecodeFailed || c.state < 0 {
		c.state = 1
	}
	return c.state
}

// Do sends a request and waits for its response. A response with a
// status other than OK is returned together with a *StatusError.
// Responses of other states and responses which can't be decoded are
// skipped until the deadline.
func (c *Client) Do(ctx context.Context, kind msgs.RequestKind) (*msgs.Response, error) {
	if err := checkSpeed(kind); err != nil {
		return nil, err
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	req := msgs.Request{Kind: kind, State: c.nextState()}
	data, err := req.MarshalBinary()
	if err != nil {
		return nil, err
	}
	c.discardReplies()
	if err := c.rw.WritePacket(&Packet{Version: c.Version, Data: data}); err != nil {
		return nil, err
	}
	glog.V(2).Infof("SND %s state=%d", kind.RequestTag(), req.State)

	if _, ok := ctx.Deadline(); !ok && c.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	// undecodable replies can't be matched to req, the last one is
	// reported if no matching reply arrives in time.
	var badReply error
	for {
		select {
		case <-ctx.Done():
			if badReply != nil {
				return nil, fmt.Errorf("%w, last bad response: %w", ctx.Err(), badReply)
			}
			return nil, ctx.Err()
		case r := <-c.replyCh:
			if r.err != nil {
				glog.Warningf("drop bad response: %v", r.err)
				badReply = r.err
				continue
			}
			res := r.res
			if res.State != req.State && res.Status != msgs.StatusDecodeError {
				glog.V(2).Infof("drop stale response state=%d", res.State)
				continue
			}
			glog.V(2).Infof("RCV %s state=%d", res.Status, res.State)
			if res.Status != msgs.StatusOK {
				return &res, &StatusError{Status: res.Status, State: res.State, Tag: kind.RequestTag()}
			}
			return &res, nil
		}
	}
}

// discardReplies drops responses to requests which timed out.
func (c *Client) discardReplies() {
	for {
		select {
		case r := <-c.replyCh:
			glog.V(2).Infof("drop late response state=%d", r.res.State)
		default:
			return
		}
	}
}

func checkSpeed(kind msgs.RequestKind) error {
	var targets []float32
	switch k := kind.(type) {
	case msgs.SetSpeed:
		targets = []float32{k.Target}
	case msgs.SetLeftSpeed:
		targets = []float32{k.Target}
	case msgs.SetRightSpeed:
		targets = []float32{k.Target}
	case msgs.SetSplitSpeed:
		targets = []float32{k.Left, k.Right}
	}
	for _, target := range targets {
		if !msgs.ValidSpeed(target) {
			return fmt.Errorf("%w: %g", ErrSpeedOutOfRange, target)
		}
	}
	return nil
}

func (c *Client) command(ctx context.Context, kind msgs.RequestKind) error {
	_, err := c.Do(ctx, kind)
	return err
}

// SetSpeed sets all drive motors to target.
func (c *Client) SetSpeed(ctx context.Context, target float32) error {
	return c.command(ctx, msgs.SetSpeed{Target: target})
}

// SetLeftSpeed sets the left drive motors to target.
func (c *Client) SetLeftSpeed(ctx context.Context, target float32) error {
	return c.command(ctx, msgs.SetLeftSpeed{Target: target})
}

// SetRightSpeed sets the right drive motors to target.
func (c *Client) SetRightSpeed(ctx context.Context, target float32) error {
	return c.command(ctx, msgs.SetRightSpeed{Target: target})
}

// SetSplitSpeed sets both sides of the drivetrain.
func (c *Client) SetSplitSpeed(ctx context.Context, left, right float32) error {
	return c.command(ctx, msgs.SetSplitSpeed{Left: left, Right: right})
}

// HaltMotors stops the drivetrain.
func (c *Client) HaltMotors(ctx context.Context) error {
	return c.command(ctx, msgs.HaltMotors{})
}

// HaltArm stops the arm.
func (c *Client) HaltArm(ctx context.Context) error {
	return c.command(ctx, msgs.HaltArm{})
}

// Halt stops the drivetrain and the arm.
func (c *Client) Halt(ctx context.Context) error {
	return c.command(ctx, msgs.Halt{})
}

// SetArm sends the legacy arm command.
func (c *Client) SetArm(ctx context.Context) error {
	return c.command(ctx, msgs.SetArm{})
}

// SetArmPose moves the arm, absent axes are left unchanged.
func (c *Client) SetArmPose(ctx context.Context, pose msgs.KinematicArmPose) error {
	return c.command(ctx, msgs.SetArmPose{Pose: pose})
}

// MotorEncoderCounts queries the drivetrain encoders.
func (c *Client) MotorEncoderCounts(ctx context.Context) (msgs.MotorCounts, error) {
	res, err := c.Do(ctx, msgs.GetMotorEncoderCounts{})
	if err != nil {
		return msgs.MotorCounts{}, err
	}
	data, ok := res.Data.(msgs.MotorCountResponse)
	if !ok {
		return msgs.MotorCounts{}, fmt.Errorf("%w: %T", ErrUnexpectedData, res.Data)
	}
	return data.Counts, nil
}

// KinematicArmPose queries the arm pose.
func (c *Client) KinematicArmPose(ctx context.Context) (msgs.KinematicArmPose, error) {
	res, err := c.Do(ctx, msgs.GetKinematicArmPose{})
	if err != nil {
		return msgs.KinematicArmPose{}, err
	}
	data, ok := res.Data.(msgs.KinematicArmPoseResponse)
	if !ok {
		return msgs.KinematicArmPose{}, fmt.Errorf("%w: %T", ErrUnexpectedData, res.Data)
	}
	return data.Pose, nil
}
