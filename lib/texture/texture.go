// Package texture contains the texture model and the image passes used by the
// texture converter: cropping, resampling, mipmaps, pixel packing, PSP
// swizzling, and the texture file format.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// A Level is the pixel data for one mipmap level.
type Level struct {
	Width  int    // Width in pixels.
	Height int    // Height in pixels.
	Stride int    // Bytes per row. Zero for block-compressed data.
	Rows   int    // Number of stored rows, at least Height. Zero for block-compressed data.
	Data   []byte // Pixel data.
}

// A Texture is an image with a pixel format, optional mipmaps, an optional
// palette, and an optional opaque bitmap. Passes modify the texture in place
// and may replace the pixel storage of any level.
type Texture struct {
	Format  Format
	Scale   float64
	Levels  []Level // Level 0 is the base level.
	Palette *[256]color.NRGBA
	Opaque  []byte // Opaque bitmap of the base level, or nil.
}

// ErrEmpty indicates an image with no pixels.
var ErrEmpty = errors.New("empty image")

// FromImage creates an RGBA8888 texture from an image.
func FromImage(im image.Image) (*Texture, error) {
	b := im.Bounds()
	if b.Empty() {
		return nil, ErrEmpty
	}
	ri := image.NewNRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(ri, ri.Rect, im, b.Min, draw.Src)
	return FromNRGBA(ri), nil
}

// FromNRGBA creates an RGBA8888 texture with a copy of the image's pixels.
func FromNRGBA(im *image.NRGBA) *Texture {
	return &Texture{
		Format: RGBA8888,
		Scale:  1,
		Levels: []Level{levelFromImage(im, true)},
	}
}

// levelFromImage returns a level containing the image's pixels. The image's
// storage is reused unless clone is set or the storage is not a whole number
// of rows.
func levelFromImage(im *image.NRGBA, clone bool) Level {
	xsz := im.Rect.Dx()
	ysz := im.Rect.Dy()
	off := im.PixOffset(im.Rect.Min.X, im.Rect.Min.Y)
	if !clone && len(im.Pix)-off >= im.Stride*ysz {
		return Level{
			Width:  xsz,
			Height: ysz,
			Stride: im.Stride,
			Rows:   ysz,
			Data:   im.Pix[off:],
		}
	}
	stride := xsz * 4
	data := make([]byte, stride*ysz)
	for y := 0; y < ysz; y++ {
		o := off + y*im.Stride
		copy(data[y*stride:(y+1)*stride], im.Pix[o:o+stride])
	}
	return Level{
		Width:  xsz,
		Height: ysz,
		Stride: stride,
		Rows:   ysz,
		Data:   data,
	}
}

// Width returns the width of the base level.
func (t *Texture) Width() int {
	return t.Levels[0].Width
}

// Height returns the height of the base level.
func (t *Texture) Height() int {
	return t.Levels[0].Height
}

// Mipmaps returns the number of mipmap levels, not counting the base level.
func (t *Texture) Mipmaps() int {
	return len(t.Levels) - 1
}

func (t *Texture) checkRGBA(op string) error {
	if t.Format != RGBA8888 {
		return fmt.Errorf("%s: texture format is %s, must be %s", op, t.Format, RGBA8888)
	}
	return nil
}

// Image returns an image which shares storage with the given level. The
// texture must be RGBA8888.
func (t *Texture) Image(level int) *image.NRGBA {
	if t.Format != RGBA8888 {
		panic("texture: Image called on " + t.Format.String() + " texture")
	}
	l := &t.Levels[level]
	return &image.NRGBA{
		Pix:    l.Data,
		Stride: l.Stride,
		Rect:   image.Rect(0, 0, l.Width, l.Height),
	}
}

// SetImage replaces the pixel data for a level with an image. The texture
// takes ownership of the image's storage.
func (t *Texture) SetImage(level int, im *image.NRGBA) {
	t.Levels[level] = levelFromImage(im, false)
}

// Images returns images for every level. The texture must be RGBA8888.
func (t *Texture) Images() []*image.NRGBA {
	ims := make([]*image.NRGBA, len(t.Levels))
	for i := range ims {
		ims[i] = t.Image(i)
	}
	return ims
}

// LevelSize returns the size of mipmap level l of a texture with the given base
// size.
func LevelSize(width, height, l int) (int, int) {
	w := width >> uint(l)
	h := height >> uint(l)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// DataSize returns the total size of the pixel data for all levels, including
// the palette.
func (t *Texture) DataSize() int {
	var n int
	if t.Palette != nil {
		n += 256 * 4
	}
	for _, l := range t.Levels {
		n += len(t.levelBytes(l))
	}
	return n
}

func (t *Texture) levelBytes(l Level) []byte {
	if t.Format.IsCompressed() {
		return l.Data[:t.Format.DataSize(l.Width, l.Height)]
	}
	if l.Stride*l.Rows > len(l.Data) {
		panic("texture: level data too short")
	}
	return l.Data[:l.Stride*l.Rows]
}

// ForEachPixel calls fn for every pixel of an RGBA8888 level, with a slice
// holding the pixel's R, G, B, A bytes.
func (t *Texture) ForEachPixel(level int, fn func(x, y int, pix []byte)) {
	if t.Format != RGBA8888 {
		panic("texture: ForEachPixel called on " + t.Format.String() + " texture")
	}
	l := &t.Levels[level]
	for y := 0; y < l.Height; y++ {
		row := l.Data[y*l.Stride : y*l.Stride+l.Width*4]
		for x := 0; x < l.Width; x++ {
			fn(x, y, row[x*4:x*4+4:x*4+4])
		}
	}
}
