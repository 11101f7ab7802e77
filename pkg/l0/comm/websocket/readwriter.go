package websocket

import (
	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/rover.go/pkg/l0/comm"
)

// ReadWriter implements comm.PacketReadWriter with one binary message
// per packet.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a websocket URL such as ws://host:port/mcu.
func Dial(url string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements comm.PacketReader.
func (p *ReadWriter) ReadPacket() (*comm.Packet, error) {
	var msg []byte
	if err := websocket.Message.Receive((*websocket.Conn)(p), &msg); err != nil {
		return nil, err
	}
	var pkt comm.Packet
	if err := pkt.UnmarshalBinary(msg); err != nil {
		glog.V(1).Infof("websocket: %v", err)
		return nil, &comm.FrameError{Err: err}
	}
	return &pkt, nil
}

// WritePacket implements comm.PacketWriter.
func (p *ReadWriter) WritePacket(pkt *comm.Packet) error {
	msg, err := pkt.MarshalBinary()
	if err != nil {
		return err
	}
	return websocket.Message.Send((*websocket.Conn)(p), msg)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}
