// Package bitstream reads and writes MSB-first bit strings, including the
// Exp-Golomb codes used in H.264 headers.
package bitstream

import (
	"errors"
	"fmt"
)

// ErrEOF is returned when reading past the end of the data.
var ErrEOF = errors.New("unexpected end of bitstream")

// A Reader reads bits from a byte slice, most significant bit first. Errors
// are sticky: once a read fails, all further reads return zero and Err
// returns the first error.
type Reader struct {
	data []byte
	pos  int // byte index
	bit  uint
	err  error
}

// NewReader returns a reader for the given data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// BitPos returns the number of bits consumed.
func (r *Reader) BitPos() int {
	return r.pos*8 + int(r.bit)
}

// BitLen returns the total number of bits in the input.
func (r *Reader) BitLen() int {
	return len(r.data) * 8
}

// Remaining returns the number of bits not yet consumed.
func (r *Reader) Remaining() int {
	return r.BitLen() - r.BitPos()
}

// ByteAligned returns true if the cursor is on a byte boundary.
func (r *Reader) ByteAligned() bool {
	return r.bit == 0
}

// Bits reads an n-bit unsigned value, 0 <= n <= 32.
func (r *Reader) Bits(n int) uint32 {
	if n < 0 || 32 < n {
		panic(fmt.Sprintf("bitstream: invalid bit count %d", n))
	}
	if r.err != nil {
		return 0
	}
	if n > r.Remaining() {
		r.err = ErrEOF
		return 0
	}
	var v uint32
	for n > 0 {
		avail := 8 - int(r.bit)
		take := avail
		if take > n {
			take = n
		}
		b := uint32(r.data[r.pos]) >> uint(avail-take) & (1<<uint(take) - 1)
		v = v<<uint(take) | b
		n -= take
		r.bit += uint(take)
		if r.bit == 8 {
			r.bit = 0
			r.pos++
		}
	}
	return v
}

// Flag reads a single bit.
func (r *Reader) Flag() bool {
	return r.Bits(1) != 0
}

// UE reads an unsigned Exp-Golomb code.
func (r *Reader) UE() uint32 {
	var n int
	for r.err == nil && !r.Flag() {
		n++
		if n > 31 {
			r.err = errors.New("Exp-Golomb code too long")
			return 0
		}
	}
	if r.err != nil {
		return 0
	}
	return (1<<uint(n) - 1) + r.Bits(n)
}

// SE reads a signed Exp-Golomb code.
func (r *Reader) SE() int32 {
	k := r.UE()
	if k&1 != 0 {
		return int32((k + 1) >> 1)
	}
	return -int32(k >> 1)
}
