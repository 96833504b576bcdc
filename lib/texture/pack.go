package texture

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

// ToA8 converts an RGBA8888 texture to A8, keeping the alpha channel.
func (t *Texture) ToA8() error {
	if err := t.checkRGBA("A8 conversion"); err != nil {
		return err
	}
	for i, l := range t.Levels {
		data := make([]byte, l.Width*l.Height)
		t.ForEachPixel(i, func(x, y int, pix []byte) {
			data[y*l.Width+x] = pix[3]
		})
		t.Levels[i] = Level{Width: l.Width, Height: l.Height, Stride: l.Width, Rows: l.Height, Data: data}
	}
	t.Format = A8
	return nil
}

// SetPalette converts the texture to Palette8 with the given palette and
// indexed images, one per level.
func (t *Texture) SetPalette(pal *[256]color.NRGBA, levels []*image.Paletted) error {
	if len(levels) != len(t.Levels) {
		return fmt.Errorf("palette: got %d levels, texture has %d", len(levels), len(t.Levels))
	}
	for i, im := range levels {
		l := &t.Levels[i]
		if im.Rect.Dx() != l.Width || im.Rect.Dy() != l.Height {
			return fmt.Errorf("palette: level %d has size %dx%d, expected %dx%d",
				i, im.Rect.Dx(), im.Rect.Dy(), l.Width, l.Height)
		}
	}
	for i, im := range levels {
		l := &t.Levels[i]
		data := make([]byte, l.Width*l.Height)
		for y := 0; y < l.Height; y++ {
			off := im.PixOffset(im.Rect.Min.X, im.Rect.Min.Y+y)
			copy(data[y*l.Width:(y+1)*l.Width], im.Pix[off:off+l.Width])
		}
		*l = Level{Width: l.Width, Height: l.Height, Stride: l.Width, Rows: l.Height, Data: data}
	}
	t.Palette = pal
	t.Format = Palette8
	return nil
}

// Pack16 converts an RGBA8888 texture to a 16-bit format. Pixels are stored
// little-endian.
func (t *Texture) Pack16(f Format) error {
	if err := t.checkRGBA("16-bit conversion"); err != nil {
		return err
	}
	var pack func(r, g, b, a uint16) uint16
	switch f {
	case RGB565:
		pack = func(r, g, b, _ uint16) uint16 {
			return (r>>3)<<11 | (g>>2)<<5 | b>>3
		}
	case RGBA5551:
		pack = func(r, g, b, a uint16) uint16 {
			return (r>>3)<<11 | (g>>3)<<6 | (b>>3)<<1 | a>>7
		}
	case RGBA4444:
		pack = func(r, g, b, a uint16) uint16 {
			return (r>>4)<<12 | (g>>4)<<8 | (b>>4)<<4 | a>>4
		}
	default:
		return fmt.Errorf("16-bit conversion: invalid format %s", f)
	}
	for i, l := range t.Levels {
		stride := l.Width * 2
		data := make([]byte, stride*l.Height)
		t.ForEachPixel(i, func(x, y int, pix []byte) {
			v := pack(uint16(pix[0]), uint16(pix[1]), uint16(pix[2]), uint16(pix[3]))
			binary.LittleEndian.PutUint16(data[y*stride+x*2:], v)
		})
		t.Levels[i] = Level{Width: l.Width, Height: l.Height, Stride: stride, Rows: l.Height, Data: data}
	}
	t.Format = f
	return nil
}
