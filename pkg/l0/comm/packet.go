package comm

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// Packet is an encoded L0 message with the protocol version it's
// encoded in.
type Packet struct {
	Version msgs.ProtocolVersion
	Data    []byte
}

// Packet sizing.
const (
	// MaxPacketData is the largest encoded message carried by a packet.
	MaxPacketData = msgs.MaxResponseSize

	versionSize  = 1
	checksumSize = 4
	maxRawSize   = versionSize + MaxPacketData + checksumSize

	// MaxFrameSize is the largest COBS frame, excluding the delimiter.
	MaxFrameSize = maxRawSize + (maxRawSize+253)/254

	frameDelimiter byte = 0
)

// MarshalBinary encodes version | data, used by message transports.
func (p *Packet) MarshalBinary() ([]byte, error) {
	if len(p.Data) > MaxPacketData {
		return nil, ErrFrameTooLarge
	}
	b := make([]byte, versionSize+len(p.Data))
	b[0] = byte(p.Version)
	copy(b[versionSize:], p.Data)
	return b, nil
}

// UnmarshalBinary decodes version | data.
func (p *Packet) UnmarshalBinary(b []byte) error {
	if len(b) < versionSize {
		return ErrShortFrame
	}
	if len(b) > versionSize+MaxPacketData {
		return ErrFrameTooLarge
	}
	p.Version = msgs.ProtocolVersion(b[0])
	p.Data = append([]byte(nil), b[versionSize:]...)
	return nil
}

// Frame returns the stream frame including the delimiter.
func (p *Packet) Frame() ([]byte, error) {
	if len(p.Data) > MaxPacketData {
		return nil, ErrFrameTooLarge
	}
	var raw [maxRawSize]byte
	raw[0] = byte(p.Version)
	n := versionSize + copy(raw[versionSize:], p.Data)
	binary.LittleEndian.PutUint32(raw[n:], crc32.ChecksumIEEE(raw[:n]))
	n += checksumSize
	frame := cobsEncode(make([]byte, 0, MaxFrameSize+1), raw[:n])
	return append(frame, frameDelimiter), nil
}

// WriteTo implements io.WriterTo by writing the stream frame.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	frame, err := p.Frame()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(frame)
	return int64(n), err
}

// DecodeFrame decodes a stream frame given without its delimiter.
func DecodeFrame(frame []byte) (*Packet, error) {
	if len(frame) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	var buf [MaxFrameSize]byte
	raw, err := cobsDecode(buf[:0], frame)
	if err != nil {
		return nil, err
	}
	if len(raw) < versionSize+checksumSize {
		return nil, ErrShortFrame
	}
	n := len(raw) - checksumSize
	if crc32.ChecksumIEEE(raw[:n]) != binary.LittleEndian.Uint32(raw[n:]) {
		return nil, ErrChecksum
	}
	if n-versionSize > MaxPacketData {
		return nil, ErrFrameTooLarge
	}
	return &Packet{
		Version: msgs.ProtocolVersion(raw[0]),
		Data:    append([]byte(nil), raw[versionSize:n]...),
	}, nil
}
