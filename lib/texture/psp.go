package texture

import "fmt"

const (
	pspBlockWidth  = 16 // bytes
	pspBlockHeight = 8  // rows
)

// AlignPSP converts an uncompressed texture to its PSP variant: rows are
// aligned to 16 bytes and the height is padded to a multiple of 8. If swizzle
// is set, each 16-byte by 8-row block is then stored contiguously.
func (t *Texture) AlignPSP(swizzle bool) error {
	if t.Format.IsCompressed() || t.Format.IsPSP() {
		return fmt.Errorf("PSP alignment: not supported for format %s", t.Format)
	}
	f := t.Format | PSP
	if swizzle {
		f |= Swizzled
	}
	for i, l := range t.Levels {
		stride := f.Stride(l.Width)
		rows := f.Rows(l.Height)
		data := make([]byte, stride*rows)
		n := t.Format.Stride(l.Width)
		for y := 0; y < l.Height; y++ {
			copy(data[y*stride:y*stride+n], l.Data[y*l.Stride:y*l.Stride+n])
		}
		if swizzle {
			data = Swizzle(data, stride, rows)
		}
		t.Levels[i] = Level{Width: l.Width, Height: l.Height, Stride: stride, Rows: rows, Data: data}
	}
	t.Format = f
	return nil
}

// Swizzle reorders PSP pixel data so each 16-byte by 8-row block is
// contiguous, with blocks in row-major order. The stride must be a multiple of
// 16 and rows a multiple of 8.
func Swizzle(data []byte, stride, rows int) []byte {
	out := make([]byte, stride*rows)
	pos := 0
	for by := 0; by < rows; by += pspBlockHeight {
		for bx := 0; bx < stride; bx += pspBlockWidth {
			for y := by; y < by+pspBlockHeight; y++ {
				off := y*stride + bx
				pos += copy(out[pos:pos+pspBlockWidth], data[off:off+pspBlockWidth])
			}
		}
	}
	return out
}

// Unswizzle reverses Swizzle.
func Unswizzle(data []byte, stride, rows int) []byte {
	out := make([]byte, stride*rows)
	pos := 0
	for by := 0; by < rows; by += pspBlockHeight {
		for bx := 0; bx < stride; bx += pspBlockWidth {
			for y := by; y < by+pspBlockHeight; y++ {
				off := y*stride + bx
				pos += copy(out[off:off+pspBlockWidth], data[pos:pos+pspBlockWidth])
			}
		}
	}
	return out
}
