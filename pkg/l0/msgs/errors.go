package msgs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is matched by every decode failure caused by the bytes
	// themselves, use errors.Is(err, ErrMalformed).
	ErrMalformed = errors.New("msgs: malformed message")
	// ErrTruncated indicates the buffer ended in the middle of a field.
	ErrTruncated = &malformedError{"truncated message"}
	// ErrTrailingBytes indicates bytes left over after a complete message.
	ErrTrailingBytes = &malformedError{"trailing bytes"}
	// ErrTooLarge indicates the input exceeds the message size ceiling.
	ErrTooLarge = &malformedError{"message too large"}

	// ErrResponseTooLarge is returned when encoding a Response would exceed
	// MaxResponseSize.
	ErrResponseTooLarge = errors.New("msgs: response exceeds size limit")
	// ErrRequestTooLarge is returned when encoding a Request would exceed
	// MaxRequestSize.
	ErrRequestTooLarge = errors.New("msgs: request exceeds size limit")
	// ErrNoKind is returned when encoding a Request without a kind.
	ErrNoKind = errors.New("msgs: request kind missing")
	// ErrShortBuffer is returned when the destination buffer is too small.
	ErrShortBuffer = errors.New("msgs: short buffer")
)

type malformedError struct {
	msg string
}

// Error implements error.
func (e *malformedError) Error() string {
	return "msgs: " + e.msg
}

// Is reports all malformed errors as ErrMalformed.
func (e *malformedError) Is(target error) bool {
	return target == ErrMalformed
}

// InvalidTagError reports a discriminant outside a closed enum.
type InvalidTagError struct {
	Type string
	Tag  byte
}

// Error implements error.
func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("msgs: invalid %s tag %d", e.Type, e.Tag)
}

// Is implements errors.Is.
func (e *InvalidTagError) Is(target error) bool {
	return target == ErrMalformed
}

// InvalidPresenceError reports an option marker which is neither 0 nor 1.
type InvalidPresenceError struct {
	Offset int
	Value  byte
}

// Error implements error.
func (e *InvalidPresenceError) Error() string {
	return fmt.Sprintf("msgs: invalid presence byte 0x%02x at offset %d", e.Value, e.Offset)
}

// Is implements errors.Is.
func (e *InvalidPresenceError) Is(target error) bool {
	return target == ErrMalformed
}
