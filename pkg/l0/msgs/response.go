package msgs

import "fmt"

// ResponseTag is the wire discriminant of a ResponseKind.
type ResponseTag byte

// ResponseTags, append-only.
const (
	TagMotorCountResponse ResponseTag = iota
	TagKinematicArmPose

	numResponseTags int = iota
)

var responseTagNames = [...]string{
	TagMotorCountResponse: "MotorCountResponse",
	TagKinematicArmPose:   "KinematicArmPose",
}

// IsKnown indicates the tag is defined by this version of the schema.
func (t ResponseTag) IsKnown() bool {
	return int(t) < numResponseTags
}

// String implements fmt.Stringer.
func (t ResponseTag) String() string {
	if t.IsKnown() {
		return responseTagNames[t]
	}
	return fmt.Sprintf("ResponseTag(%d)", byte(t))
}

// ResponseKind is the data attached to a Response. It's implemented by
// the response types in this package only.
type ResponseKind interface {
	ResponseTag() ResponseTag

	payloadSize() int
	encodePayload(*encoder)
}

// MotorCountResponse replies GetMotorEncoderCounts.
type MotorCountResponse struct {
	Counts MotorCounts
}

// KinematicArmPoseResponse replies GetKinematicArmPose.
type KinematicArmPoseResponse struct {
	Pose KinematicArmPose
}

// UnknownResponse carries a response tag this schema version doesn't
// define. Payload is the raw bytes following the tag.
type UnknownResponse struct {
	Tag     ResponseTag
	Payload []byte
}

// ResponseTag implements ResponseKind.
func (MotorCountResponse) ResponseTag() ResponseTag { return TagMotorCountResponse }

// ResponseTag implements ResponseKind.
func (KinematicArmPoseResponse) ResponseTag() ResponseTag { return TagKinematicArmPose }

// ResponseTag implements ResponseKind.
func (r UnknownResponse) ResponseTag() ResponseTag { return r.Tag }

func (MotorCountResponse) payloadSize() int         { return motorCountsSize }
func (r KinematicArmPoseResponse) payloadSize() int { return r.Pose.size() }
func (r UnknownResponse) payloadSize() int          { return len(r.Payload) }

func (r MotorCountResponse) encodePayload(e *encoder)       { r.Counts.encode(e) }
func (r KinematicArmPoseResponse) encodePayload(e *encoder) { r.Pose.encode(e) }
func (r UnknownResponse) encodePayload(e *encoder)          { e.raw(r.Payload) }

func decodeResponseKind(d *decoder, tag ResponseTag) ResponseKind {
	switch tag {
	case TagMotorCountResponse:
		var r MotorCountResponse
		r.Counts.decode(d)
		return r
	case TagKinematicArmPose:
		var r KinematicArmPoseResponse
		r.Pose.decode(d)
		return r
	}
	return UnknownResponse{Tag: tag, Payload: d.upTo(0)}
}

// Response is the MCU reply to a Request. State is the request state if
// the request decoded, otherwise StateDecodeFailed. Data is nil unless
// the request kind is a query.
type Response struct {
	Status Status
	State  int32
	Data   ResponseKind
}

// DecodeFailure is the reply to bytes which are not a Request.
func DecodeFailure() Response {
	return Response{Status: StatusDecodeError, State: StateDecodeFailed}
}

// Unimplemented is the reply to a request kind the MCU doesn't implement.
func Unimplemented(state int32) Response {
	return Response{Status: StatusUnimplemented, State: state}
}

// Size returns the encoded size.
func (r *Response) Size() int {
	n := tagSize + stateSize + presenceSize
	if r.Data != nil {
		n += tagSize + r.Data.payloadSize()
	}
	return n
}

// MarshalTo encodes the response into buf without allocation and returns
// the number of bytes written.
func (r *Response) MarshalTo(buf []byte) (int, error) {
	if !r.Status.IsValid() {
		return 0, &InvalidTagError{Type: "Status", Tag: byte(r.Status)}
	}
	if unknown, ok := r.Data.(UnknownResponse); ok && unknown.Tag.IsKnown() {
		return 0, &InvalidTagError{Type: "UnknownResponse", Tag: byte(unknown.Tag)}
	}
	size := r.Size()
	if size > MaxResponseSize {
		return 0, ErrResponseTooLarge
	}
	if len(buf) < size {
		return 0, ErrShortBuffer
	}
	e := encoder{buf: buf}
	e.u8(byte(r.Status))
	e.i32(r.State)
	if r.Data == nil {
		e.u8(0)
		return e.off, nil
	}
	e.u8(1)
	e.u8(byte(r.Data.ResponseTag()))
	r.Data.encodePayload(&e)
	return e.off, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *Response) MarshalBinary() ([]byte, error) {
	return AppendResponse(nil, r)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Response) UnmarshalBinary(data []byte) error {
	res, err := DecodeResponse(data)
	if err != nil {
		return err
	}
	*r = res
	return nil
}

// AppendResponse appends the encoded response to dst.
func AppendResponse(dst []byte, r *Response) ([]byte, error) {
	var buf [MaxResponseSize]byte
	n, err := r.MarshalTo(buf[:])
	if err != nil {
		return dst, err
	}
	return append(dst, buf[:n]...), nil
}

// DecodeResponse decodes a complete response. Unknown data tags decode
// into UnknownResponse, malformed bytes return an error matching
// ErrMalformed.
func DecodeResponse(data []byte) (Response, error) {
	if len(data) > MaxResponseSize {
		return Response{}, ErrTooLarge
	}
	d := decoder{data: data}
	var res Response
	res.Status = Status(d.u8())
	if d.err == nil && !res.Status.IsValid() {
		return Response{}, &InvalidTagError{Type: "Status", Tag: byte(res.Status)}
	}
	res.State = d.i32()
	if d.present() {
		tag := ResponseTag(d.u8())
		if d.err == nil {
			res.Data = decodeResponseKind(&d, tag)
		}
	}
	if err := d.finish(); err != nil {
		return Response{}, err
	}
	return res, nil
}
