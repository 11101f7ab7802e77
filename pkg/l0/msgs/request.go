package msgs

import "fmt"

// RequestTag is the wire discriminant of a RequestKind.
type RequestTag byte

// RequestTags, append-only.
const (
	TagSetSpeed RequestTag = iota
	TagSetLeftSpeed
	TagSetRightSpeed
	TagSetSplitSpeed
	TagHaltMotors
	TagHaltArm
	TagHalt
	TagSetArm
	TagGetMotorEncoderCounts
	TagGetKinematicArmPose
	TagSetArmPose

	numRequestTags int = iota
)

var requestTagNames = [...]string{
	TagSetSpeed:              "SetSpeed",
	TagSetLeftSpeed:          "SetLeftSpeed",
	TagSetRightSpeed:         "SetRightSpeed",
	TagSetSplitSpeed:         "SetSplitSpeed",
	TagHaltMotors:            "HaltMotors",
	TagHaltArm:               "HaltArm",
	TagHalt:                  "Halt",
	TagSetArm:                "SetArm",
	TagGetMotorEncoderCounts: "GetMotorEncoderCounts",
	TagGetKinematicArmPose:   "GetKinematicArmPose",
	TagSetArmPose:            "SetArmPose",
}

// IsKnown indicates the tag is defined by this version of the schema.
func (t RequestTag) IsKnown() bool {
	return int(t) < numRequestTags
}

// String implements fmt.Stringer.
func (t RequestTag) String() string {
	if t.IsKnown() {
		return requestTagNames[t]
	}
	return fmt.Sprintf("RequestTag(%d)", byte(t))
}

// RequestKind is the action requested from the MCU. It's implemented by
// the request types in this package only.
type RequestKind interface {
	RequestTag() RequestTag

	payloadSize() int
	encodePayload(*encoder)
}

// SetSpeed sets all drive motors to Target within [-1.0, 1.0].
type SetSpeed struct {
	Target float32
}

// SetLeftSpeed sets the left drive motors to Target within [-1.0, 1.0].
type SetLeftSpeed struct {
	Target float32
}

// SetRightSpeed sets the right drive motors to Target within [-1.0, 1.0].
type SetRightSpeed struct {
	Target float32
}

// SetSplitSpeed sets both drivetrain sides in the same message.
type SetSplitSpeed struct {
	Left  float32
	Right float32
}

// HaltMotors stops all drive actuators.
type HaltMotors struct{}

// HaltArm stops all arm actuators.
type HaltArm struct{}

// Halt stops both the drive and the arm actuators atomically.
type Halt struct{}

// SetArm is the legacy arm command superseded by SetArmPose.
type SetArm struct{}

// GetMotorEncoderCounts queries the drivetrain encoders.
type GetMotorEncoderCounts struct{}

// GetKinematicArmPose queries the arm pose.
type GetKinematicArmPose struct{}

// SetArmPose moves the arm to Pose, absent axes are left unchanged.
type SetArmPose struct {
	Pose KinematicArmPose
}

// UnknownRequest carries a request tag this schema version doesn't
// define. Payload is the raw bytes between the tag and the state.
type UnknownRequest struct {
	Tag     RequestTag
	Payload []byte
}

// RequestTag implements RequestKind.
func (SetSpeed) RequestTag() RequestTag { return TagSetSpeed }

// RequestTag implements RequestKind.
func (SetLeftSpeed) RequestTag() RequestTag { return TagSetLeftSpeed }

// RequestTag implements RequestKind.
func (SetRightSpeed) RequestTag() RequestTag { return TagSetRightSpeed }

// RequestTag implements RequestKind.
func (SetSplitSpeed) RequestTag() RequestTag { return TagSetSplitSpeed }

// RequestTag implements RequestKind.
func (HaltMotors) RequestTag() RequestTag { return TagHaltMotors }

// RequestTag implements RequestKind.
func (HaltArm) RequestTag() RequestTag { return TagHaltArm }

// RequestTag implements RequestKind.
func (Halt) RequestTag() RequestTag { return TagHalt }

// RequestTag implements RequestKind.
func (SetArm) RequestTag() RequestTag { return TagSetArm }

// RequestTag implements RequestKind.
func (GetMotorEncoderCounts) RequestTag() RequestTag { return TagGetMotorEncoderCounts }

// RequestTag implements RequestKind.
func (GetKinematicArmPose) RequestTag() RequestTag { return TagGetKinematicArmPose }

// RequestTag implements RequestKind.
func (SetArmPose) RequestTag() RequestTag { return TagSetArmPose }

// RequestTag implements RequestKind.
func (r UnknownRequest) RequestTag() RequestTag { return r.Tag }

func (SetSpeed) payloadSize() int              { return f32Size }
func (SetLeftSpeed) payloadSize() int          { return f32Size }
func (SetRightSpeed) payloadSize() int         { return f32Size }
func (SetSplitSpeed) payloadSize() int         { return 2 * f32Size }
func (HaltMotors) payloadSize() int            { return 0 }
func (HaltArm) payloadSize() int               { return 0 }
func (Halt) payloadSize() int                  { return 0 }
func (SetArm) payloadSize() int                { return 0 }
func (GetMotorEncoderCounts) payloadSize() int { return 0 }
func (GetKinematicArmPose) payloadSize() int   { return 0 }
func (r SetArmPose) payloadSize() int          { return r.Pose.size() }
func (r UnknownRequest) payloadSize() int      { return len(r.Payload) }

func (r SetSpeed) encodePayload(e *encoder)      { e.f32(r.Target) }
func (r SetLeftSpeed) encodePayload(e *encoder)  { e.f32(r.Target) }
func (r SetRightSpeed) encodePayload(e *encoder) { e.f32(r.Target) }
func (r SetSplitSpeed) encodePayload(e *encoder) {
	e.f32(r.Left)
	e.f32(r.Right)
}
func (HaltMotors) encodePayload(*encoder)            {}
func (HaltArm) encodePayload(*encoder)               {}
func (Halt) encodePayload(*encoder)                  {}
func (SetArm) encodePayload(*encoder)                {}
func (GetMotorEncoderCounts) encodePayload(*encoder) {}
func (GetKinematicArmPose) encodePayload(*encoder)   {}
func (r SetArmPose) encodePayload(e *encoder)        { r.Pose.encode(e) }
func (r UnknownRequest) encodePayload(e *encoder)    { e.raw(r.Payload) }

func decodeRequestKind(d *decoder, tag RequestTag) RequestKind {
	switch tag {
	case TagSetSpeed:
		return SetSpeed{Target: d.f32()}
	case TagSetLeftSpeed:
		return SetLeftSpeed{Target: d.f32()}
	case TagSetRightSpeed:
		return SetRightSpeed{Target: d.f32()}
	case TagSetSplitSpeed:
		var r SetSplitSpeed
		r.Left = d.f32()
		r.Right = d.f32()
		return r
	case TagHaltMotors:
		return HaltMotors{}
	case TagHaltArm:
		return HaltArm{}
	case TagHalt:
		return Halt{}
	case TagSetArm:
		return SetArm{}
	case TagGetMotorEncoderCounts:
		return GetMotorEncoderCounts{}
	case TagGetKinematicArmPose:
		return GetKinematicArmPose{}
	case TagSetArmPose:
		var r SetArmPose
		r.Pose.decode(d)
		return r
	}
	return UnknownRequest{Tag: tag, Payload: d.upTo(stateSize)}
}

// Request is an action request to the MCU. State is an opaque token
// returned unchanged in the matching Response.
type Request struct {
	Kind  RequestKind
	State int32
}

// Size returns the encoded size.
func (r *Request) Size() int {
	if r.Kind == nil {
		return 0
	}
	return tagSize + r.Kind.payloadSize() + stateSize
}

// MarshalTo encodes the request into buf without allocation and returns
// the number of bytes written.
func (r *Request) MarshalTo(buf []byte) (int, error) {
	if r.Kind == nil {
		return 0, ErrNoKind
	}
	if unknown, ok := r.Kind.(UnknownRequest); ok && unknown.Tag.IsKnown() {
		return 0, &InvalidTagError{Type: "UnknownRequest", Tag: byte(unknown.Tag)}
	}
	size := r.Size()
	if size > MaxRequestSize {
		return 0, ErrRequestTooLarge
	}
	if len(buf) < size {
		return 0, ErrShortBuffer
	}
	e := encoder{buf: buf}
	e.u8(byte(r.Kind.RequestTag()))
	r.Kind.encodePayload(&e)
	e.i32(r.State)
	return e.off, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *Request) MarshalBinary() ([]byte, error) {
	return AppendRequest(nil, r)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Request) UnmarshalBinary(data []byte) error {
	req, err := DecodeRequest(data)
	if err != nil {
		return err
	}
	*r = req
	return nil
}

// AppendRequest appends the encoded request to dst.
func AppendRequest(dst []byte, r *Request) ([]byte, error) {
	var buf [MaxRequestSize]byte
	n, err := r.MarshalTo(buf[:])
	if err != nil {
		return dst, err
	}
	return append(dst, buf[:n]...), nil
}

// DecodeRequest decodes a complete request. Unknown tags decode into
// UnknownRequest, malformed bytes return an error matching ErrMalformed.
func DecodeRequest(data []byte) (Request, error) {
	if len(data) > MaxRequestSize {
		return Request{}, ErrTooLarge
	}
	d := decoder{data: data}
	tag := RequestTag(d.u8())
	if d.err != nil {
		return Request{}, d.err
	}
	var req Request
	req.Kind = decodeRequestKind(&d, tag)
	req.State = d.i32()
	if err := d.finish(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Expects returns the ResponseTag of the data a request kind demands,
// ok is false for commands replying without data.
func Expects(kind RequestKind) (tag ResponseTag, ok bool) {
	switch kind.(type) {
	case GetMotorEncoderCounts:
		return TagMotorCountResponse, true
	case GetKinematicArmPose:
		return TagKinematicArmPose, true
	}
	return 0, false
}
