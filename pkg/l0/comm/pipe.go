package comm

import (
	"io"
	"sync"
)

// Pipe is one end of an in-process packet transport created by NewPipe.
type Pipe struct {
	readCh  <-chan *Packet
	writeCh chan<- *Packet
	closed  chan struct{}
	once    *sync.Once
}

// NewPipe creates two connected ends, closing either end closes both.
func NewPipe() (*Pipe, *Pipe) {
	a, b := make(chan *Packet, 1), make(chan *Packet, 1)
	closed, once := make(chan struct{}), &sync.Once{}
	return &Pipe{readCh: a, writeCh: b, closed: closed, once: once},
		&Pipe{readCh: b, writeCh: a, closed: closed, once: once}
}

// ReadPacket implements PacketReader.
func (p *Pipe) ReadPacket() (*Packet, error) {
	select {
	case pkt := <-p.readCh:
		return pkt, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *Pipe) WritePacket(pkt *Packet) error {
	if len(pkt.Data) > MaxPacketData {
		return ErrFrameTooLarge
	}
	select {
	case <-p.closed:
		return io.ErrClosedPipe
	default:
	}
	cp := &Packet{Version: pkt.Version, Data: append([]byte(nil), pkt.Data...)}
	select {
	case p.writeCh <- cp:
		return nil
	case <-p.closed:
		return io.ErrClosedPipe
	}
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
