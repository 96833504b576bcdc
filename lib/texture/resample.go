package texture

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ErrEnlarge indicates a resize request larger than the source image.
var ErrEnlarge = errors.New("cannot enlarge texture")

// Resample scales the source rectangle of src into the destination rectangle
// of dst using the Keys cubic filter.
func Resample(dst *image.NRGBA, dr image.Rectangle, src *image.NRGBA, sr image.Rectangle) {
	draw.CatmullRom.Scale(dst, dr, src, sr, draw.Src, nil)
}

// Shrink resizes an RGBA8888 texture to the given size. Requests equal to the
// current size do nothing. The texture must not have mipmaps.
func (t *Texture) Shrink(width, height int) error {
	if err := t.checkRGBA("resize"); err != nil {
		return err
	}
	if len(t.Levels) != 1 {
		return errors.New("resize: texture already has mipmaps")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize: invalid size %dx%d", width, height)
	}
	sw, sh := t.Width(), t.Height()
	if width == sw && height == sh {
		return nil
	}
	if width > sw || height > sh {
		return fmt.Errorf("%w: %dx%d is larger than %dx%d", ErrEnlarge, width, height, sw, sh)
	}
	src := t.Image(0)
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	Resample(dst, dst.Rect, src, src.Rect)
	t.SetImage(0, dst)
	return nil
}
