package bitstream

import (
	"fmt"
	"math"
	"math/bits"
)

// A Writer accumulates bits, most significant bit first.
type Writer struct {
	data []byte
	bit  uint // bits used in the last byte, 0 means no partial byte
}

// Bits appends the low n bits of v, 0 <= n <= 32.
func (w *Writer) Bits(v uint32, n int) {
	if n < 0 || 32 < n {
		panic(fmt.Sprintf("bitstream: invalid bit count %d", n))
	}
	for n > 0 {
		if w.bit == 0 {
			w.data = append(w.data, 0)
		}
		avail := 8 - int(w.bit)
		take := avail
		if take > n {
			take = n
		}
		b := byte(v>>uint(n-take)) & (1<<uint(take) - 1)
		w.data[len(w.data)-1] |= b << uint(avail-take)
		n -= take
		w.bit = (w.bit + uint(take)) & 7
	}
}

// Flag appends a single bit.
func (w *Writer) Flag(f bool) {
	var v uint32
	if f {
		v = 1
	}
	w.Bits(v, 1)
}

// MaxUE is the largest value with an Exp-Golomb code that Reader accepts.
const MaxUE = 1<<32 - 2

// UE appends an unsigned Exp-Golomb code, v <= MaxUE.
func (w *Writer) UE(v uint32) {
	if v > MaxUE {
		panic(fmt.Sprintf("bitstream: Exp-Golomb value out of range: %d", v))
	}
	x := v + 1
	n := bits.Len32(x) - 1
	w.Bits(0, n)
	w.Bits(x, n+1)
}

// SE appends a signed Exp-Golomb code, v > math.MinInt32.
func (w *Writer) SE(v int32) {
	switch {
	case v > 0:
		w.UE(uint32(v)*2 - 1)
	case v == math.MinInt32:
		panic(fmt.Sprintf("bitstream: Exp-Golomb value out of range: %d", v))
	default:
		w.UE(uint32(-v) * 2)
	}
}

// BitLen returns the number of bits written.
func (w *Writer) BitLen() int {
	if w.bit == 0 {
		return len(w.data) * 8
	}
	return (len(w.data)-1)*8 + int(w.bit)
}

// ByteAligned returns true if the number of bits written is a multiple of 8.
func (w *Writer) ByteAligned() bool {
	return w.bit == 0
}

// TrailingBits appends a one bit followed by zero bits up to the next byte
// boundary, as in rbsp_trailing_bits.
func (w *Writer) TrailingBits() {
	w.Bits(1, 1)
	if w.bit != 0 {
		w.Bits(0, 8-int(w.bit))
	}
}

// Bytes returns the data written so far. A partial final byte is padded with
// zero bits.
func (w *Writer) Bytes() []byte {
	return w.data
}
