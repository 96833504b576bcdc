package texture

import (
	"errors"
	"image"

	"github.com/depp/assetprep/lib/binutil"
)

// SquareSize returns the size of the square power-of-two canvas which holds
// an image of the given size.
func SquareSize(width, height int) int {
	w := binutil.NextPow2(width)
	h := binutil.NextPow2(height)
	if w > h {
		return w
	}
	return h
}

// Expand places an RGBA8888 texture on a larger canvas. The new area is
// transparent black, or opaque black if the texture has no transparent
// pixels. The image is placed at the origin, or in the center if center is
// set.
func (t *Texture) Expand(width, height int, center bool) error {
	if err := t.checkRGBA("expand"); err != nil {
		return err
	}
	if len(t.Levels) != 1 {
		return errors.New("expand: texture already has mipmaps")
	}
	src := t.Image(0)
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	if width < sw || height < sh {
		return errors.New("expand: canvas is smaller than image")
	}
	if width == sw && height == sh {
		return nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if !HasTransparent(src) {
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 255
		}
	}
	var x0, y0 int
	if center {
		x0 = (width - sw) / 2
		y0 = (height - sh) / 2
	}
	for y := 0; y < sh; y++ {
		d := dst.PixOffset(x0, y0+y)
		s := src.PixOffset(0, y)
		copy(dst.Pix[d:d+sw*4], src.Pix[s:s+sw*4])
	}
	t.SetImage(0, dst)
	return nil
}

// PadEdges returns a copy of the image enlarged to the given size by
// repeating the last column and row.
func PadEdges(im *image.NRGBA, width, height int) *image.NRGBA {
	sw, sh := im.Rect.Dx(), im.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		sy := y
		if sy >= sh {
			sy = sh - 1
		}
		srow := im.Pix[im.PixOffset(im.Rect.Min.X, im.Rect.Min.Y+sy):]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
		copy(drow, srow[:sw*4])
		last := srow[(sw-1)*4 : sw*4]
		for x := sw; x < width; x++ {
			copy(drow[x*4:x*4+4], last)
		}
	}
	return dst
}
