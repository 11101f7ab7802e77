package mqtt

import (
	"fmt"
	"io"
	"sync"

	"github.com/robotalks/rover.go/pkg/l0/comm"
	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// ReadWriter implements comm.PacketReadWriter over MQTT topics. Each
// message carries the encoded L0 bytes of one packet, the version is
// implied to be msgs.CurrentVersion.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string
	// OwnQueue closes Queue on Close.
	OwnQueue bool

	sub      io.Closer
	packetCh chan []byte
	closed   chan struct{}
	once     sync.Once
}

// NewPacketReadWriter subscribes sub and creates the ReadWriter which
// publishes to pub.
func NewPacketReadWriter(q *Queue, sub, pub string) (*ReadWriter, error) {
	p := &ReadWriter{
		Queue:    q,
		SubTopic: sub,
		PubTopic: pub,
		packetCh: make(chan []byte, 4),
		closed:   make(chan struct{}),
	}
	s, err := q.Subscribe(sub, p.handleMsg)
	if err != nil {
		return nil, err
	}
	p.sub = s
	return p, nil
}

// ForRemote creates a ReadWriter talking to the bridge of the rover
// named prefix, e.g. rover/r1.
func ForRemote(q *Queue, prefix string) (*ReadWriter, error) {
	return NewPacketReadWriter(q, prefix+"/"+TopicReply, prefix+"/"+TopicCmd)
}

// Topics under <type>/<id>.
const (
	TopicCmd             = "cmd"
	TopicReply           = "reply"
	TopicMeta            = "meta"
	TopicMotorTelemetry  = "telemetry/motors"
	TopicArmTelemetry    = "telemetry/arm"
	TopicTelemetryFilter = "+/+/telemetry/#"
)

// ReadPacket implements comm.PacketReader.
func (p *ReadWriter) ReadPacket() (*comm.Packet, error) {
	select {
	case data := <-p.packetCh:
		if len(data) > comm.MaxPacketData {
			return nil, &comm.FrameError{Err: comm.ErrFrameTooLarge}
		}
		return &comm.Packet{Version: msgs.CurrentVersion, Data: data}, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

// WritePacket implements comm.PacketWriter.
func (p *ReadWriter) WritePacket(pkt *comm.Packet) error {
	if pkt.Version != msgs.CurrentVersion {
		return fmt.Errorf("%w: %s", comm.ErrVersionMismatch, pkt.Version)
	}
	return p.Queue.Publish(p.PubTopic, pkt.Data, false)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() (err error) {
	p.once.Do(func() {
		close(p.closed)
		err = p.sub.Close()
		if p.OwnQueue {
			p.Queue.Close()
		}
	})
	return
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	data := append([]byte(nil), payload...)
	select {
	case p.packetCh <- data:
	case <-p.closed:
	}
}
