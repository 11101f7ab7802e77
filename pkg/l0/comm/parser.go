package comm

// Parser assembles stream frames one byte at a time into a fixed buffer.
// A corrupt or overlong frame is reported once and parsing resumes at the
// next delimiter.
type Parser struct {
	buf     [MaxFrameSize]byte
	n       int
	overrun bool
}

// Parse consumes one byte. It returns a packet when b completes a valid
// frame, or a *FrameError when it completes an invalid one.
func (p *Parser) Parse(b byte) (*Packet, error) {
	if b != frameDelimiter {
		if p.n < len(p.buf) {
			p.buf[p.n] = b
			p.n++
		} else {
			p.overrun = true
		}
		return nil, nil
	}
	frame, overrun := p.buf[:p.n], p.overrun
	p.Reset()
	if overrun {
		return nil, &FrameError{Err: ErrFrameTooLarge}
	}
	if len(frame) == 0 {
		// back-to-back delimiters are used to flush the line.
		return nil, nil
	}
	pkt, err := DecodeFrame(frame)
	if err != nil {
		return nil, &FrameError{Err: err}
	}
	return pkt, nil
}

// Pending indicates bytes of an incomplete frame are buffered.
func (p *Parser) Pending() bool {
	return p.n > 0 || p.overrun
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.n, p.overrun = 0, false
}
