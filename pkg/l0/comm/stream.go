package comm

import (
	"bufio"
	"io"
	"net"
	"sync"

	"github.com/golang/glog"
)

// Stream implements PacketReadWriter over a byte stream such as a serial
// port or a TCP connection.
type Stream struct {
	rw     io.ReadWriter
	reader *bufio.Reader
	parser Parser

	writeLock sync.Mutex
}

// NewStream creates a Stream on rw.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{rw: rw, reader: bufio.NewReader(rw)}
}

// Name identifies the stream by its peer when it's a connection.
func (s *Stream) Name() string {
	if conn, ok := s.rw.(net.Conn); ok {
		return "stream " + conn.RemoteAddr().String()
	}
	return "stream"
}

// ReadPacket implements PacketReader.
func (s *Stream) ReadPacket() (*Packet, error) {
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			if err == io.EOF && s.parser.Pending() {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		pkt, err := s.parser.Parse(b)
		if err != nil {
			glog.V(1).Infof("stream: %v", err)
			return nil, err
		}
		if pkt != nil {
			return pkt, nil
		}
	}
}

// WritePacket implements PacketWriter.
func (s *Stream) WritePacket(pkt *Packet) error {
	frame, err := pkt.Frame()
	if err != nil {
		return err
	}
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	_, err = s.rw.Write(frame)
	return err
}

// Close implements io.Closer.
func (s *Stream) Close() error {
	if closer, ok := s.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
