package bitstream

import (
	"bytes"
	"math"
	"math/rand"
	"testing"
)

func TestUE(t *testing.T) {
	cases := []struct {
		value uint32
		bits  string
	}{
		{0, "1"},
		{1, "010"},
		{2, "011"},
		{3, "00100"},
		{6, "00111"},
		{7, "0001000"},
		{15624, "000000000000011110100001001"},
	}
	for _, c := range cases {
		var w Writer
		w.UE(c.value)
		if n := w.BitLen(); n != len(c.bits) {
			t.Errorf("UE(%d): wrote %d bits, expect %d", c.value, n, len(c.bits))
			continue
		}
		r := NewReader(w.Bytes())
		var s []byte
		for i := 0; i < len(c.bits); i++ {
			if r.Flag() {
				s = append(s, '1')
			} else {
				s = append(s, '0')
			}
		}
		if string(s) != c.bits {
			t.Errorf("UE(%d) = %s, expect %s", c.value, s, c.bits)
		}
		r = NewReader(w.Bytes())
		if v := r.UE(); v != c.value {
			t.Errorf("read UE = %d, expect %d", v, c.value)
		}
	}
}

func TestSE(t *testing.T) {
	var w Writer
	values := []int32{0, 1, -1, 2, -2, 100, -100, 32767, -32768}
	for _, v := range values {
		w.SE(v)
	}
	r := NewReader(w.Bytes())
	for _, v := range values {
		if x := r.SE(); x != v {
			t.Errorf("SE = %d, expect %d", x, v)
		}
	}
	if err := r.Err(); err != nil {
		t.Error(err)
	}
}

func TestExpGolombRange(t *testing.T) {
	var w Writer
	w.UE(MaxUE)
	w.SE(math.MaxInt32)
	w.SE(-math.MaxInt32)
	if n := w.BitLen(); n != 3*63 {
		t.Errorf("wrote %d bits, expect %d", n, 3*63)
	}
	r := NewReader(w.Bytes())
	if v := r.UE(); v != MaxUE {
		t.Errorf("UE = %#x, expect %#x", v, uint32(MaxUE))
	}
	if v := r.SE(); v != math.MaxInt32 {
		t.Errorf("SE = %d, expect %d", v, math.MaxInt32)
	}
	if v := r.SE(); v != -math.MaxInt32 {
		t.Errorf("SE = %d, expect %d", v, -math.MaxInt32)
	}
	if err := r.Err(); err != nil {
		t.Error(err)
	}

	mustPanic := func(name string, fn func(w *Writer)) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: no panic", name)
			}
		}()
		fn(new(Writer))
	}
	mustPanic("UE(MaxUint32)", func(w *Writer) { w.UE(math.MaxUint32) })
	mustPanic("SE(MinInt32)", func(w *Writer) { w.SE(math.MinInt32) })
}

func TestRandom(t *testing.T) {
	type field struct {
		value uint32
		size  int
	}
	r := rand.New(rand.NewSource(0x5eed))
	fields := make([]field, 1000)
	var w Writer
	for i := range fields {
		size := r.Intn(33)
		var value uint32
		if size > 0 {
			value = r.Uint32() >> uint(32-size)
		}
		fields[i] = field{value, size}
		w.Bits(value, size)
	}
	rd := NewReader(w.Bytes())
	for i, f := range fields {
		if v := rd.Bits(f.size); v != f.value {
			t.Fatalf("field %d: got %#x, expect %#x (size %d)", i, v, f.value, f.size)
		}
	}
	if err := rd.Err(); err != nil {
		t.Fatal(err)
	}
	if rd.Remaining() >= 8 {
		t.Errorf("%d bits remaining", rd.Remaining())
	}
}

func TestTrailingBits(t *testing.T) {
	var w Writer
	w.Bits(5, 3)
	w.TrailingBits()
	if !bytes.Equal(w.Bytes(), []byte{0xb0}) {
		t.Errorf("got %x, expect b0", w.Bytes())
	}
	w.TrailingBits()
	if !bytes.Equal(w.Bytes(), []byte{0xb0, 0x80}) {
		t.Errorf("got %x, expect b080", w.Bytes())
	}
}

func TestEOF(t *testing.T) {
	r := NewReader([]byte{0xff})
	r.Bits(6)
	r.Bits(3)
	if r.Err() != ErrEOF {
		t.Errorf("Err = %v, expect ErrEOF", r.Err())
	}
	if v := r.Bits(1); v != 0 {
		t.Errorf("read after error returned %d", v)
	}
}
