package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/rover.go/pkg/bridge/mqtt"
	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/l0/comm"
	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// DefaultPollInterval matches the encoder sampling timer of the MCU.
const DefaultPollInterval = time.Second

// Requester sends requests to the MCU, implemented by comm.Client.
type Requester interface {
	Do(ctx context.Context, kind msgs.RequestKind) (*msgs.Response, error)
}

// Broker publishes and subscribes topics, implemented by mqtt.Queue.
type Broker interface {
	Publish(topic string, payload []byte, retain bool) error
	Subscribe(topic string, handler func(topic string, payload []byte)) (io.Closer, error)
}

// Meta is published retained on <type>/<id>/meta.
type Meta struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	Protocol     string `json:"protocol"`
	PollInterval string `json:"poll_interval"`
}

// Bridge polls the MCU for telemetry and relays raw requests from the
// broker.
type Bridge struct {
	Client       Requester
	Broker       Broker
	Prefix       string
	PollInterval time.Duration
	Clock        func() time.Time

	meta  Meta
	cmdCh chan []byte
}

// New creates a Bridge publishing under prefix <type>/<id>.
func New(cli Requester, broker Broker, typ, id string) *Bridge {
	return &Bridge{
		Client:       cli,
		Broker:       broker,
		Prefix:       typ + "/" + id,
		PollInterval: DefaultPollInterval,
		Clock:        time.Now,
		meta:         Meta{Type: typ, ID: id, Protocol: msgs.CurrentVersion.String()},
		cmdCh:        make(chan []byte, 8),
	}
}

func (b *Bridge) topic(name string) string {
	return b.Prefix + "/" + name
}

// Run implements Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	b.meta.PollInterval = b.PollInterval.String()
	meta, err := json.Marshal(&b.meta)
	if err != nil {
		return err
	}
	if err = b.Broker.Publish(b.topic(mqtt.TopicMeta), meta, true); err != nil {
		return fmt.Errorf("publish meta: %w", err)
	}
	defer b.Broker.Publish(b.topic(mqtt.TopicMeta), nil, true)
	sub, err := b.Broker.Subscribe(b.topic(mqtt.TopicCmd), b.enqueue)
	if err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}
	defer sub.Close()

	ticker := time.NewTicker(b.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.Poll(ctx); err != nil {
				glog.Warningf("poll: %v", err)
			}
		case data := <-b.cmdCh:
			b.Relay(ctx, data)
		}
	}
}

func (b *Bridge) enqueue(_ string, payload []byte) {
	select {
	case b.cmdCh <- append([]byte(nil), payload...):
	default:
		glog.Warningf("command queue full, drop %d bytes", len(payload))
	}
}

func (b *Bridge) publish(name string, msg proto.Message) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	return b.Broker.Publish(b.topic(name), data, false)
}

// Poll queries the MCU and publishes telemetry.
func (b *Bridge) Poll(ctx context.Context) error {
	var errs fx.AggregatedError
	now := b.Clock()
	res, err := b.Client.Do(ctx, msgs.GetMotorEncoderCounts{})
	if err == nil {
		if data, ok := res.Data.(msgs.MotorCountResponse); ok {
			err = b.publish(mqtt.TopicMotorTelemetry, NewMotorTelemetry(now, data.Counts))
		} else {
			err = fmt.Errorf("%w: %T", comm.ErrUnexpectedData, res.Data)
		}
	}
	errs.Add(err)
	res, err = b.Client.Do(ctx, msgs.GetKinematicArmPose{})
	if err == nil {
		if data, ok := res.Data.(msgs.KinematicArmPoseResponse); ok {
			err = b.publish(mqtt.TopicArmTelemetry, NewArmTelemetry(now, data.Pose))
		} else {
			err = fmt.Errorf("%w: %T", comm.ErrUnexpectedData, res.Data)
		}
	}
	errs.Add(err)
	return errs.Aggregate()
}

// Relay forwards an encoded request and publishes the encoded response
// with the state of the original request.
func (b *Bridge) Relay(ctx context.Context, data []byte) {
	res := b.forward(ctx, data)
	out, err := res.MarshalBinary()
	if err != nil {
		glog.Errorf("encode reply: %v", err)
		return
	}
	if err = b.Broker.Publish(b.topic(mqtt.TopicReply), out, false); err != nil {
		glog.Errorf("publish reply: %v", err)
	}
}

func (b *Bridge) forward(ctx context.Context, data []byte) msgs.Response {
	req, err := msgs.DecodeRequest(data)
	if err != nil {
		glog.Warningf("relay: %v", err)
		return msgs.DecodeFailure()
	}
	res, err := b.Client.Do(ctx, req.Kind)
	if res != nil {
		r := *res
		if r.Status != msgs.StatusDecodeError {
			r.State = req.State
		}
		return r
	}
	glog.Warningf("relay %s: %v", req.Kind.RequestTag(), err)
	return msgs.Response{Status: msgs.StatusError, State: req.State}
}
