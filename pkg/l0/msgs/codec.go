package msgs

import (
	"encoding/binary"
	"math"
)

// Message size ceilings, both peers size their buffers with these.
const (
	MaxRequestSize  = 256
	MaxResponseSize = 256
)

const (
	tagSize      = 1
	presenceSize = 1
	stateSize    = 4
	f32Size      = 4
)

var byteOrder = binary.LittleEndian

// encoder writes into a pre-sized buffer, callers check the size up-front.
type encoder struct {
	buf []byte
	off int
}

func (e *encoder) u8(v byte) {
	e.buf[e.off] = v
	e.off++
}

func (e *encoder) u32(v uint32) {
	byteOrder.PutUint32(e.buf[e.off:], v)
	e.off += 4
}

func (e *encoder) i32(v int32) {
	e.u32(uint32(v))
}

func (e *encoder) i64(v int64) {
	byteOrder.PutUint64(e.buf[e.off:], uint64(v))
	e.off += 8
}

func (e *encoder) f32(v float32) {
	e.u32(math.Float32bits(v))
}

func (e *encoder) optF32(v OptFloat32) {
	if !v.Valid {
		e.u8(0)
		return
	}
	e.u8(1)
	e.f32(v.Value)
}

func (e *encoder) raw(p []byte) {
	e.off += copy(e.buf[e.off:], p)
}

// decoder reads fields in order and records the first error.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.data)-d.off < n {
		d.err = ErrTruncated
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() byte {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return byteOrder.Uint32(b)
	}
	return 0
}

func (d *decoder) i32() int32 {
	return int32(d.u32())
}

func (d *decoder) i64() int64 {
	if b := d.take(8); b != nil {
		return int64(byteOrder.Uint64(b))
	}
	return 0
}

func (d *decoder) f32() float32 {
	return math.Float32frombits(d.u32())
}

func (d *decoder) present() bool {
	off := d.off
	switch b := d.u8(); {
	case d.err != nil:
		return false
	case b == 0:
		return false
	case b == 1:
		return true
	default:
		d.err = &InvalidPresenceError{Offset: off, Value: b}
		return false
	}
}

func (d *decoder) optF32() (v OptFloat32) {
	if d.present() {
		v.Value = d.f32()
		v.Valid = d.err == nil
	}
	return
}

// upTo returns a copy of the bytes between the current offset and the
// last keep bytes of the buffer.
func (d *decoder) upTo(keep int) []byte {
	if d.err != nil {
		return nil
	}
	end := len(d.data) - keep
	if end < d.off {
		d.err = ErrTruncated
		return nil
	}
	if end == d.off {
		return nil
	}
	p := make([]byte, end-d.off)
	copy(p, d.data[d.off:end])
	d.off = end
	return p
}

func (d *decoder) finish() error {
	if d.err == nil && d.off != len(d.data) {
		d.err = ErrTrailingBytes
	}
	return d.err
}
