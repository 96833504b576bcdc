// Package blockcomp compresses textures with DXT and PVRTC block compression.
// The compression itself is done by an Encoder, normally an external program.
// This package prepares the input and repairs the output.
package blockcomp

import (
	"fmt"
	"image"

	"github.com/depp/assetprep/lib/texture"
)

// An Encoder compresses a single image to a block-compressed format. The image
// size is a multiple of the block size. The result must be exactly
// format.DataSize bytes.
type Encoder interface {
	Encode(im *image.NRGBA, format texture.Format) ([]byte, error)
}

// CompressDXT compresses every level of an RGBA8888 texture with DXT1, DXT3,
// or DXT5. Levels are padded to whole blocks by repeating the edge pixels. For
// DXT1, borders are spread and alpha is discarded.
func CompressDXT(t *texture.Texture, format texture.Format, enc Encoder) error {
	if !format.IsDXT() {
		return fmt.Errorf("not a DXT format: %s", format)
	}
	return compress(t, format, enc, func(_ int, im *image.NRGBA) *image.NRGBA {
		if format == texture.DXT1 {
			SpreadBorders(im)
			for i := 3; i < len(im.Pix); i += 4 {
				im.Pix[i] = 255
			}
		}
		return im
	}, nil)
}

// CompressPVRTC compresses every level of a square, power-of-two RGBA8888
// texture with PVRTC. For PVRTC4, the modulation data is refit afterwards so
// transparent pixels stay transparent.
func CompressPVRTC(t *texture.Texture, format texture.Format, enc Encoder) error {
	if !format.IsPVRTC() {
		return fmt.Errorf("not a PVRTC format: %s", format)
	}
	if w, h := t.Width(), t.Height(); w != h || w&(w-1) != 0 {
		return fmt.Errorf("PVRTC requires a square power-of-two texture, size is %dx%d", w, h)
	}
	var fix func(int, *image.NRGBA, []byte) error
	if format == texture.PVRTC4 {
		fix = func(_ int, im *image.NRGBA, data []byte) error {
			return FixPVRTC4Alpha(data, im)
		}
	}
	return compress(t, format, enc, func(_ int, im *image.NRGBA) *image.NRGBA {
		return im
	}, fix)
}

func compress(t *texture.Texture, format texture.Format, enc Encoder,
	prepare func(int, *image.NRGBA) *image.NRGBA,
	fix func(int, *image.NRGBA, []byte) error) error {
	if t.Format != texture.RGBA8888 {
		return fmt.Errorf("cannot compress %s texture", t.Format)
	}
	bw, bh, bsize := format.BlockSize()
	out := make([]texture.Level, len(t.Levels))
	for i := range t.Levels {
		src := t.Image(i)
		w, h := src.Rect.Dx(), src.Rect.Dy()
		pw := (w + bw - 1) / bw * bw
		ph := (h + bh - 1) / bh * bh
		if format.IsPVRTC() {
			// PVRTC levels are at least 2x2 blocks.
			if pw < 2*bw {
				pw = 2 * bw
			}
			if ph < 2*bh {
				ph = 2 * bh
			}
		}
		// Always work on a copy, the level pixels are needed again for
		// the fixup.
		im := texture.PadEdges(src, pw, ph)
		im = prepare(i, im)
		data, err := enc.Encode(im, format)
		if err != nil {
			return fmt.Errorf("level %d: %w", i, err)
		}
		if n := format.DataSize(w, h); len(data) != n {
			return fmt.Errorf("level %d: encoder returned %d bytes, expected %d (%d blocks of %d bytes)",
				i, len(data), n, n/bsize, bsize)
		}
		if fix != nil {
			ref := texture.PadEdges(src, pw, ph)
			if err := fix(i, ref, data); err != nil {
				return fmt.Errorf("level %d: %w", i, err)
			}
		}
		out[i] = texture.Level{Width: w, Height: h, Data: data}
	}
	t.Levels = out
	t.Format = format
	return nil
}
