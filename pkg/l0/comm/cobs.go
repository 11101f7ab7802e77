package comm

// cobsEncode appends the COBS encoding of src to dst, without the
// trailing delimiter.
func cobsEncode(dst, src []byte) []byte {
	codeAt := len(dst)
	dst = append(dst, 0)
	code := byte(1)
	for _, b := range src {
		if b != 0 {
			dst = append(dst, b)
			code++
			if code != 0xff {
				continue
			}
		}
		dst[codeAt] = code
		codeAt = len(dst)
		dst = append(dst, 0)
		code = 1
	}
	dst[codeAt] = code
	return dst
}

// cobsDecode appends the decoded frame, given without its delimiter, to dst.
func cobsDecode(dst, frame []byte) ([]byte, error) {
	for i := 0; i < len(frame); {
		code := frame[i]
		if code == 0 {
			return nil, ErrInvalidCOBS
		}
		i++
		count := int(code) - 1
		if i+count > len(frame) {
			return nil, ErrInvalidCOBS
		}
		dst = append(dst, frame[i:i+count]...)
		i += count
		if code != 0xff && i < len(frame) {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}
