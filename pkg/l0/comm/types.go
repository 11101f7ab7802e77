package comm

import (
	"context"
	"fmt"

	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// PacketReader reads packets.
type PacketReader interface {
	// ReadPacket blocks until a packet arrives. A *FrameError means a
	// corrupt packet was skipped and reading may continue.
	ReadPacket() (*Packet, error)
}

// PacketWriter writes packets.
type PacketWriter interface {
	WritePacket(*Packet) error
}

// PacketReadWriter reads/writes packets.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// transportName names rw for logs, e.g. *comm.Stream.
func transportName(rw PacketReadWriter) string {
	if named, ok := rw.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", rw)
}

// Handler executes decoded requests on the MCU side.
type Handler interface {
	// HandleRequest performs the action and returns the data for query
	// kinds. ErrUnimplemented replies Unimplemented, other errors reply
	// ERROR.
	HandleRequest(context.Context, msgs.RequestKind) (msgs.ResponseKind, error)
}

// HandleRequestFunc is func form of Handler.
type HandleRequestFunc func(context.Context, msgs.RequestKind) (msgs.ResponseKind, error)

// HandleRequest implements Handler.
func (f HandleRequestFunc) HandleRequest(ctx context.Context, kind msgs.RequestKind) (msgs.ResponseKind, error) {
	return f(ctx, kind)
}
