// Package font builds font files from glyph manifests and prepared textures.
package font

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/depp/assetprep/lib/binutil"
)

// Font file layout. All integers are big-endian.
const (
	fileVersion    = 1
	headerSize     = 24
	charInfoSize   = 16
	textureAlign   = 64
	maxCharInfoLen = math.MaxUint16
)

var magic = [4]byte{'F', 'O', 'N', 'T'}

// ErrNotFont indicates that a file is not a font file.
var ErrNotFont = errors.New("not a font file")

// A Char is the location and metrics of one character in the font texture.
// Kerning is in 1/256 pixel units.
type Char struct {
	Codepoint int32
	X, Y      uint16
	W, H      uint8
	Ascent    int8
	PreKern   int16
	PostKern  int16
}

// A Font is a set of characters and the texture containing their glyphs.
type Font struct {
	Height   int
	Baseline int
	Chars    []Char
	Texture  []byte
}

// Encode returns the contents of a font file.
func (f *Font) Encode() ([]byte, error) {
	if f.Height < 1 || f.Height > math.MaxUint8 {
		return nil, fmt.Errorf("invalid height: %d", f.Height)
	}
	if f.Baseline < 0 || f.Baseline > f.Height {
		return nil, fmt.Errorf("invalid baseline: %d", f.Baseline)
	}
	if len(f.Chars) > maxCharInfoLen {
		return nil, fmt.Errorf("too many characters: %d", len(f.Chars))
	}
	charEnd := headerSize + charInfoSize*len(f.Chars)
	texOffset := binutil.AlignUp(charEnd, textureAlign)
	data := make([]byte, texOffset+len(f.Texture))
	h := data[:headerSize:headerSize]
	copy(h, magic[:])
	h[4] = fileVersion
	h[5] = uint8(f.Height)
	h[6] = uint8(f.Baseline)
	binary.BigEndian.PutUint32(h[8:], headerSize)
	binary.BigEndian.PutUint16(h[12:], uint16(len(f.Chars)))
	binary.BigEndian.PutUint16(h[14:], charInfoSize)
	binary.BigEndian.PutUint32(h[16:], uint32(texOffset))
	binary.BigEndian.PutUint32(h[20:], uint32(len(f.Texture)))
	for i, c := range f.Chars {
		pos := headerSize + i*charInfoSize
		d := data[pos : pos+charInfoSize : pos+charInfoSize]
		binary.BigEndian.PutUint32(d[0:], uint32(c.Codepoint))
		binary.BigEndian.PutUint16(d[4:], c.X)
		binary.BigEndian.PutUint16(d[6:], c.Y)
		d[8] = c.W
		d[9] = c.H
		d[10] = uint8(c.Ascent)
		binary.BigEndian.PutUint16(d[12:], uint16(c.PreKern))
		binary.BigEndian.PutUint16(d[14:], uint16(c.PostKern))
	}
	copy(data[texOffset:], f.Texture)
	return data, nil
}

// Decode parses the contents of a font file.
func Decode(data []byte) (*Font, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic[:]) {
		return nil, ErrNotFont
	}
	if v := data[4]; v != fileVersion {
		return nil, fmt.Errorf("unsupported font version: %d", v)
	}
	f := Font{
		Height:   int(data[5]),
		Baseline: int(data[6]),
	}
	charOffset := int64(binary.BigEndian.Uint32(data[8:]))
	charCount := int64(binary.BigEndian.Uint16(data[12:]))
	if n := binary.BigEndian.Uint16(data[14:]); n != charInfoSize {
		return nil, fmt.Errorf("invalid character record size: %d, expected %d", n, charInfoSize)
	}
	texOffset := int64(binary.BigEndian.Uint32(data[16:]))
	texSize := int64(binary.BigEndian.Uint32(data[20:]))
	size := int64(len(data))
	if charOffset < headerSize || charOffset+charCount*charInfoSize > size {
		return nil, errors.New("character records out of bounds")
	}
	if texOffset < charOffset+charCount*charInfoSize || texOffset+texSize > size {
		return nil, errors.New("texture out of bounds")
	}
	f.Chars = make([]Char, charCount)
	for i := range f.Chars {
		d := data[charOffset+int64(i)*charInfoSize:]
		f.Chars[i] = Char{
			Codepoint: int32(binary.BigEndian.Uint32(d[0:])),
			X:         binary.BigEndian.Uint16(d[4:]),
			Y:         binary.BigEndian.Uint16(d[6:]),
			W:         d[8],
			H:         d[9],
			Ascent:    int8(d[10]),
			PreKern:   int16(binary.BigEndian.Uint16(d[12:])),
			PostKern:  int16(binary.BigEndian.Uint16(d[14:])),
		}
	}
	f.Texture = data[texOffset : texOffset+texSize]
	return &f, nil
}
