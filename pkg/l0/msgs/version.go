package msgs

import "fmt"

// ProtocolVersion identifies an incompatible revision of the wire schema.
// It's carried by the transport framing, the schema bytes don't include it.
type ProtocolVersion byte

const (
	// ProtocolV1 encoded the arm pose as flat u16 axes without a gripper.
	ProtocolV1 ProtocolVersion = 1
	// ProtocolV2 encodes the arm pose as optional f32 axes with a nested
	// optional gripper pose.
	ProtocolV2 ProtocolVersion = 2

	// CurrentVersion is the version implemented by this package.
	CurrentVersion = ProtocolV2
)

// String implements fmt.Stringer.
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("v%d", byte(v))
}

// IsSupported indicates payloads of this version can be decoded here.
// Struct layouts differ between versions so no reinterpretation across
// versions is attempted.
func (v ProtocolVersion) IsSupported() bool {
	return v == CurrentVersion
}
