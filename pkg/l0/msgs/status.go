package msgs

import "fmt"

// Status is the outcome of a request.
type Status byte

// Statuses, this enum is closed.
const (
	// StatusOK means the MCU completed the request.
	StatusOK Status = iota
	// StatusError means the request was understood but failed at runtime.
	StatusError
	// StatusDecodeError means the request bytes could not be decoded,
	// the response state is StateDecodeFailed.
	StatusDecodeError
	// StatusUnimplemented means the request kind is not implemented by
	// the MCU, the response state is echoed.
	StatusUnimplemented

	numStatuses int = iota
)

// StateDecodeFailed is the response state when the request didn't decode.
const StateDecodeFailed int32 = -1

var statusNames = [...]string{
	StatusOK:            "OK",
	StatusError:         "ERROR",
	StatusDecodeError:   "DecodeError",
	StatusUnimplemented: "Unimplemented",
}

// IsValid indicates the status is defined.
func (s Status) IsValid() bool {
	return int(s) < numStatuses
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if s.IsValid() {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", byte(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
