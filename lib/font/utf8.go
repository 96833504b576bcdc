package font

// DecodeUTF8 decodes one code point from the start of b, accepting the
// original UTF-8 encoding of up to six bytes. Returns the code point and the
// number of bytes consumed. Invalid input returns -1 and consumes one byte.
// Empty input, or a NUL byte, returns 0 and consumes nothing.
func DecodeUTF8(b []byte) (int32, int) {
	if len(b) == 0 || b[0] == 0 {
		return 0, 0
	}
	c := b[0]
	var n int
	var v int32
	switch {
	case c < 0x80:
		return int32(c), 1
	case c < 0xc0:
		return -1, 1
	case c < 0xe0:
		n, v = 2, int32(c&0x1f)
	case c < 0xf0:
		n, v = 3, int32(c&0x0f)
	case c < 0xf8:
		n, v = 4, int32(c&0x07)
	case c < 0xfc:
		n, v = 5, int32(c&0x03)
	case c < 0xfe:
		n, v = 6, int32(c&0x01)
	default:
		return -1, 1
	}
	if len(b) < n {
		return -1, 1
	}
	for _, c := range b[1:n] {
		if c&0xc0 != 0x80 {
			return -1, 1
		}
		v = v<<6 | int32(c&0x3f)
	}
	return v, n
}
