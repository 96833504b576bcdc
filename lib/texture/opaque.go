package texture

import "fmt"

// OpaqueStride returns the number of bytes in one row of the opaque bitmap.
func OpaqueStride(width int) int {
	return (width + 7) / 8
}

// ComputeOpaque sets the opaque bitmap from the base level. Bit x%8 of byte
// x/8 in row y is set if the pixel at x, y has alpha 255.
func (t *Texture) ComputeOpaque() error {
	l := &t.Levels[0]
	var alpha func(row []byte, x int) byte
	switch t.Format {
	case RGBA8888:
		alpha = func(row []byte, x int) byte { return row[x*4+3] }
	case A8:
		alpha = func(row []byte, x int) byte { return row[x] }
	case Palette8:
		pal := t.Palette
		alpha = func(row []byte, x int) byte { return pal[row[x]].A }
	default:
		return fmt.Errorf("opaque bitmap: not supported for format %s", t.Format)
	}
	stride := OpaqueStride(l.Width)
	bits := make([]byte, stride*l.Height)
	for y := 0; y < l.Height; y++ {
		row := l.Data[y*l.Stride:]
		out := bits[y*stride : (y+1)*stride]
		for x := 0; x < l.Width; x++ {
			if alpha(row, x) == 255 {
				out[x>>3] |= 1 << uint(x&7)
			}
		}
	}
	t.Opaque = bits
	return nil
}
