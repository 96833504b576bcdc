package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/depp/assetprep/lib/binutil"
)

// Texture file layout.
const (
	fileVersion    = 1
	fileHeaderSize = 32
	filePixelStart = 64
)

var fileMagic = [4]byte{'T', 'E', 'X', 0}

// ErrNotTexture indicates that a file is not a texture file.
var ErrNotTexture = errors.New("not a texture file")

// Encode returns the contents of a texture file.
func (t *Texture) Encode() ([]byte, error) {
	if !t.Format.Valid() {
		return nil, fmt.Errorf("invalid format: %s", t.Format)
	}
	w, h := t.Width(), t.Height()
	if w > math.MaxUint16 || h > math.MaxUint16 {
		return nil, fmt.Errorf("texture too large: %dx%d", w, h)
	}
	if len(t.Levels) > 256 {
		return nil, fmt.Errorf("too many mipmaps: %d", len(t.Levels)-1)
	}
	if (t.Format.Base() == Palette8) != (t.Palette != nil) {
		return nil, errors.New("palette must be present if and only if format is PALETTE8")
	}
	scale := math.Round(t.Scale * 65536)
	if scale <= 0 || scale > math.MaxUint32 {
		return nil, fmt.Errorf("invalid scale: %v", t.Scale)
	}
	pixSize := t.DataSize()
	var bitmapOffset, bitmapSize int
	size := filePixelStart + pixSize
	if t.Opaque != nil {
		bitmapOffset = binutil.AlignUp(size, 4)
		bitmapSize = len(t.Opaque)
		size = bitmapOffset + bitmapSize
	}
	data := make([]byte, size)
	copy(data, fileMagic[:])
	data[4] = fileVersion
	data[5] = byte(t.Format)
	data[6] = byte(len(t.Levels) - 1)
	if t.Opaque != nil {
		data[7] = 1
	}
	binary.BigEndian.PutUint16(data[8:], uint16(w))
	binary.BigEndian.PutUint16(data[10:], uint16(h))
	binary.BigEndian.PutUint32(data[12:], uint32(scale))
	binary.BigEndian.PutUint32(data[16:], filePixelStart)
	binary.BigEndian.PutUint32(data[20:], uint32(pixSize))
	binary.BigEndian.PutUint32(data[24:], uint32(bitmapOffset))
	binary.BigEndian.PutUint32(data[28:], uint32(bitmapSize))
	pos := filePixelStart
	if t.Palette != nil {
		for _, c := range t.Palette {
			data[pos] = c.R
			data[pos+1] = c.G
			data[pos+2] = c.B
			data[pos+3] = c.A
			pos += 4
		}
	}
	for _, l := range t.Levels {
		pos += copy(data[pos:], t.levelBytes(l))
	}
	copy(data[bitmapOffset:], t.Opaque)
	return data, nil
}

// WriteFile writes the texture to a file.
func (t *Texture) WriteFile(filename string) error {
	data, err := t.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0666)
}

// Decode parses the contents of a texture file.
func Decode(data []byte) (*Texture, error) {
	if len(data) < fileHeaderSize || !bytes.Equal(data[:4], fileMagic[:]) {
		return nil, ErrNotTexture
	}
	if v := data[4]; v != fileVersion {
		return nil, fmt.Errorf("unsupported texture version: %d", v)
	}
	t := Texture{Format: Format(data[5])}
	if !t.Format.Valid() {
		return nil, fmt.Errorf("invalid texture format: 0x%02x", data[5])
	}
	nlevels := int(data[6]) + 1
	hasBitmap := data[7] != 0
	w := int(binary.BigEndian.Uint16(data[8:]))
	h := int(binary.BigEndian.Uint16(data[10:]))
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("invalid texture size: %dx%d", w, h)
	}
	t.Scale = float64(binary.BigEndian.Uint32(data[12:])) / 65536
	pixOffset := int(binary.BigEndian.Uint32(data[16:]))
	pixSize := int(binary.BigEndian.Uint32(data[20:]))
	bitmapOffset := int(binary.BigEndian.Uint32(data[24:]))
	bitmapSize := int(binary.BigEndian.Uint32(data[28:]))
	if pixOffset < fileHeaderSize || pixOffset > len(data) || pixSize > len(data)-pixOffset {
		return nil, errors.New("texture pixel data out of bounds")
	}
	pix := data[pixOffset : pixOffset+pixSize]
	if t.Format.Base() == Palette8 {
		if len(pix) < 256*4 {
			return nil, errors.New("texture palette truncated")
		}
		var pal [256]color.NRGBA
		for i := range pal {
			c := pix[i*4 : i*4+4]
			pal[i] = color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
		}
		t.Palette = &pal
		pix = pix[256*4:]
	}
	for i := 0; i < nlevels; i++ {
		lw, lh := LevelSize(w, h, i)
		n := t.Format.DataSize(lw, lh)
		if n > len(pix) {
			return nil, fmt.Errorf("texture level %d truncated", i)
		}
		l := Level{Width: lw, Height: lh, Data: pix[:n:n]}
		if !t.Format.IsCompressed() {
			l.Stride = t.Format.Stride(lw)
			l.Rows = t.Format.Rows(lh)
		}
		t.Levels = append(t.Levels, l)
		pix = pix[n:]
	}
	if len(pix) != 0 {
		return nil, fmt.Errorf("texture has %d bytes of extra pixel data", len(pix))
	}
	if hasBitmap {
		if bitmapSize != OpaqueStride(w)*h || bitmapOffset < fileHeaderSize ||
			bitmapOffset > len(data) || bitmapSize > len(data)-bitmapOffset {
			return nil, errors.New("texture opaque bitmap out of bounds")
		}
		t.Opaque = data[bitmapOffset : bitmapOffset+bitmapSize]
	}
	return &t, nil
}

// ReadFile reads a texture file.
func ReadFile(filename string) (*Texture, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	t, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}
