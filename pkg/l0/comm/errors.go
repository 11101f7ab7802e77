package comm

import (
	"errors"
	"fmt"

	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

var (
	// ErrFrameTooLarge indicates a frame exceeded MaxFrameSize before its
	// delimiter arrived.
	ErrFrameTooLarge = errors.New("comm: frame too large")
	// ErrShortFrame indicates a frame without room for version and checksum.
	ErrShortFrame = errors.New("comm: frame too short")
	// ErrChecksum indicates the frame checksum doesn't match.
	ErrChecksum = errors.New("comm: checksum mismatch")
	// ErrInvalidCOBS indicates the frame is not valid COBS.
	ErrInvalidCOBS = errors.New("comm: invalid COBS encoding")
	// ErrVersionMismatch indicates the peer speaks another protocol version.
	ErrVersionMismatch = errors.New("comm: protocol version mismatch")
	// ErrSpeedOutOfRange indicates a drive target outside [-1.0, 1.0].
	ErrSpeedOutOfRange = errors.New("comm: speed target out of range")
	// ErrUnexpectedData indicates the response carries data of the wrong kind.
	ErrUnexpectedData = errors.New("comm: unexpected response data")
	// ErrUnimplemented is returned by a Handler for actions it doesn't
	// implement, the reply status is Unimplemented.
	ErrUnimplemented = errors.New("comm: unimplemented")
)

// FrameError wraps a failure to extract a packet from the transport.
// The transport remains usable after it.
type FrameError struct {
	Err error
}

// Error implements error.
func (e *FrameError) Error() string {
	return "comm: bad frame: " + e.Err.Error()
}

// Unwrap supports errors.Is/As.
func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFrameError indicates err is a recoverable framing error.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// StatusError is returned for responses whose status is not OK.
type StatusError struct {
	Status msgs.Status
	State  int32
	Tag    msgs.RequestTag
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("comm: %s replied %s (state %d)", e.Tag, e.Status, e.State)
}

// IsStatus indicates err is a StatusError with the given status.
func IsStatus(err error, status msgs.Status) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
