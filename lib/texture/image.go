package texture

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// ReadPNG reads an image file.
func ReadPNG(filename string) (image.Image, error) {
	ext := filepath.Ext(filename)
	if !strings.EqualFold(ext, ".png") {
		return nil, fmt.Errorf("file does not have .png extension: %q", filename)
	}
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	im, err := png.Decode(fp)
	if err != nil {
		return nil, fmt.Errorf("could not decode %q: %w", filename, err)
	}
	return im, nil
}

// HasTransparent returns true if the image contains any pixel with zero
// alpha.
func HasTransparent(im *image.NRGBA) bool {
	ysz := im.Rect.Dy()
	xsz := im.Rect.Dx()
	for y := 0; y < ysz; y++ {
		off := im.PixOffset(im.Rect.Min.X, im.Rect.Min.Y+y)
		row := im.Pix[off : off+xsz*4 : off+xsz*4]
		for x := 0; x < xsz; x++ {
			if row[x*4+3] == 0 {
				return true
			}
		}
	}
	return false
}

// IsOpaque returns true if every pixel in the image has alpha 255.
func IsOpaque(im *image.NRGBA) bool {
	alpha := byte(0xff)
	ysz := im.Rect.Dy()
	xsz := im.Rect.Dx()
	for y := 0; y < ysz; y++ {
		off := im.PixOffset(im.Rect.Min.X, im.Rect.Min.Y+y)
		row := im.Pix[off : off+xsz*4 : off+xsz*4]
		for x := 0; x < xsz; x++ {
			alpha &= row[x*4+3]
		}
	}
	return alpha == 0xff
}

// ClampAlpha sets alpha values at or below lo to 0 and alpha values at or
// above hi to 255, in every level.
func (t *Texture) ClampAlpha(lo, hi int) error {
	if err := t.checkRGBA("alpha clamp"); err != nil {
		return err
	}
	for i := range t.Levels {
		t.ForEachPixel(i, func(_, _ int, pix []byte) {
			switch a := int(pix[3]); {
			case a <= lo:
				pix[3] = 0
			case a >= hi:
				pix[3] = 255
			}
		})
	}
	return nil
}

// SetColorWhite sets the color of every pixel to white, keeping alpha. Used
// for alpha-only textures.
func (t *Texture) SetColorWhite() error {
	if err := t.checkRGBA("alpha coercion"); err != nil {
		return err
	}
	for i := range t.Levels {
		t.ForEachPixel(i, func(_, _ int, pix []byte) {
			pix[0] = 255
			pix[1] = 255
			pix[2] = 255
		})
	}
	return nil
}

// SetAlphaOpaque sets the alpha of every pixel to 255.
func (t *Texture) SetAlphaOpaque() error {
	if err := t.checkRGBA("alpha removal"); err != nil {
		return err
	}
	for i := range t.Levels {
		t.ForEachPixel(i, func(_, _ int, pix []byte) {
			pix[3] = 255
		})
	}
	return nil
}

// SwapRB converts an RGBA8888 texture to BGRA8888.
func (t *Texture) SwapRB() error {
	if err := t.checkRGBA("BGRA conversion"); err != nil {
		return err
	}
	for i := range t.Levels {
		t.ForEachPixel(i, func(_, _ int, pix []byte) {
			pix[0], pix[2] = pix[2], pix[0]
		})
	}
	t.Format = BGRA8888
	return nil
}
