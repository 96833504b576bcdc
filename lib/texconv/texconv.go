// Package texconv converts images to textures. The conversion is a fixed
// sequence of optional passes over a texture.
package texconv

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"

	"github.com/depp/assetprep/lib/blockcomp"
	"github.com/depp/assetprep/lib/quantize"
	"github.com/depp/assetprep/lib/texture"
)

// Options controls the conversion from an image to a texture.
type Options struct {
	// Format is the output format, without PSP flags.
	Format texture.Format

	// AlphaClamp, if set, maps alpha values at or below the first value to
	// 0 and at or above the second value to 255.
	AlphaClamp *[2]int

	// Crop, if not empty, is the region of the source image to use.
	Crop image.Rectangle

	// Resize, if not zero, is the size to shrink the image to.
	Resize image.Point

	// MakeSquare expands block-compressed textures to a square power of two.
	// It is implied for PVRTC. If Center is set, the image is centered in
	// the new canvas.
	MakeSquare bool
	Center     bool

	// Mipmaps is the number of mipmap levels to generate. If negative,
	// generate a full chain.
	Mipmaps       int
	MipmapRegions []image.Rectangle
	TransparentAt int

	// OpaqueBitmap adds a bitmap of the fully opaque pixels in the base
	// level.
	OpaqueBitmap bool

	// FixedColors are the first palette entries for PALETTE8.
	FixedColors []color.NRGBA

	// PSP aligns the output for the PSP. If Swizzle is also set, the data
	// is swizzled.
	PSP     bool
	Swizzle bool

	// Scale is stored in the texture header. Zero means 1.
	Scale float64

	// Encoders for block compression.
	DXT   blockcomp.Encoder
	PVRTC blockcomp.Encoder
}

func (o *Options) check() error {
	f := o.Format
	if !f.Valid() || f != f.Base() {
		return fmt.Errorf("invalid output format: %s", f)
	}
	if o.PSP && f.IsCompressed() {
		return fmt.Errorf("PSP output is not supported for %s", f)
	}
	if o.Swizzle && !o.PSP {
		return errors.New("swizzling requires PSP output")
	}
	if o.AlphaClamp != nil {
		lo, hi := o.AlphaClamp[0], o.AlphaClamp[1]
		if lo < 0 || hi > 255 || lo >= hi {
			return fmt.Errorf("invalid alpha range: %d,%d", lo, hi)
		}
	}
	if o.Resize.X < 0 || o.Resize.Y < 0 {
		return fmt.Errorf("invalid size: %dx%d", o.Resize.X, o.Resize.Y)
	}
	if o.TransparentAt < 0 {
		return fmt.Errorf("invalid transparent mipmap level: %d", o.TransparentAt)
	}
	if o.Scale < 0 {
		return fmt.Errorf("invalid scale: %v", o.Scale)
	}
	if f.IsDXT() && o.DXT == nil {
		return errors.New("no DXT encoder")
	}
	if f.IsPVRTC() && o.PVRTC == nil {
		return errors.New("no PVRTC encoder")
	}
	return nil
}

// Convert converts an image to a texture.
func Convert(im image.Image, opts *Options) (*texture.Texture, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	t, err := texture.FromImage(im)
	if err != nil {
		return nil, err
	}
	if opts.Scale != 0 {
		t.Scale = opts.Scale
	}
	format := opts.Format
	if c := opts.AlphaClamp; c != nil {
		if err := t.ClampAlpha(c[0], c[1]); err != nil {
			return nil, err
		}
	}
	if format == texture.A8 {
		if err := t.SetColorWhite(); err != nil {
			return nil, err
		}
	}
	if !opts.Crop.Empty() {
		if err := t.Crop(opts.Crop); err != nil {
			return nil, err
		}
	}
	if opts.Resize != (image.Point{}) {
		if err := t.Shrink(opts.Resize.X, opts.Resize.Y); err != nil {
			return nil, err
		}
	}
	if format.IsPVRTC() || format.IsDXT() && opts.MakeSquare {
		format, err = makeSquare(t, format, opts.Center)
		if err != nil {
			return nil, err
		}
	}
	if opts.Mipmaps != 0 {
		err := t.GenerateMipmaps(texture.MipmapOptions{
			Count:         opts.Mipmaps,
			Regions:       opts.MipmapRegions,
			TransparentAt: opts.TransparentAt,
		})
		if err != nil {
			return nil, err
		}
	}
	switch format {
	case texture.A8:
		if err := t.ToA8(); err != nil {
			return nil, err
		}
	case texture.Palette8:
		if err := quantizeTexture(t, opts.FixedColors); err != nil {
			return nil, err
		}
	}
	if opts.OpaqueBitmap {
		if format != t.Format {
			return nil, fmt.Errorf("opaque bitmap is not supported for %s", format)
		}
		if err := t.ComputeOpaque(); err != nil {
			return nil, err
		}
	}
	switch {
	case format.IsDXT():
		if format != texture.DXT1 && !texture.HasTransparent(t.Image(0)) {
			logrus.Warnf("image has no transparent pixels, using %s instead of %s", texture.DXT1, format)
			format = texture.DXT1
		}
		if err := blockcomp.CompressDXT(t, format, opts.DXT); err != nil {
			return nil, err
		}
	case format.IsPVRTC():
		if err := blockcomp.CompressPVRTC(t, format, opts.PVRTC); err != nil {
			return nil, err
		}
	case format == texture.RGB565, format == texture.RGBA5551, format == texture.RGBA4444:
		if err := t.Pack16(format); err != nil {
			return nil, err
		}
	case format == texture.BGRA8888:
		if err := t.SwapRB(); err != nil {
			return nil, err
		}
	}
	if opts.PSP {
		if err := t.AlignPSP(opts.Swizzle); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// makeSquare expands the texture to a square power of two for block
// compression. If that would use more space than the compression saves, the
// texture is left alone and the format falls back to RGBA8888.
func makeSquare(t *texture.Texture, format texture.Format, center bool) (texture.Format, error) {
	w, h := t.Width(), t.Height()
	n := texture.SquareSize(w, h)
	if n*n > w*h*format.CompressionRatio() {
		logrus.Warnf("expanding %dx%d to %dx%d for %s wastes too much space, using %s",
			w, h, n, n, format, texture.RGBA8888)
		return texture.RGBA8888, nil
	}
	if err := t.Expand(n, n, center); err != nil {
		return 0, err
	}
	return format, nil
}

func quantizeTexture(t *texture.Texture, fixed []color.NRGBA) error {
	pal, err := quantize.GeneratePalette(t.Image(0), fixed)
	if err != nil {
		return err
	}
	levels := make([]*image.Paletted, len(t.Levels))
	for i := range levels {
		levels[i] = quantize.Map(t.Image(i), pal)
	}
	return t.SetPalette(pal, levels)
}
