package texture

import (
	"errors"
	"fmt"
	"image"

	"github.com/depp/assetprep/lib/binutil"
)

// MaxMipmaps returns the number of mipmap levels below a base level of the
// given size, down to 1x1.
func MaxMipmaps(width, height int) int {
	var n int
	for width > 1 || height > 1 {
		width >>= 1
		height >>= 1
		n++
	}
	return n
}

// MipmapOptions controls mipmap generation.
type MipmapOptions struct {
	// Count is the number of levels to generate below the base level. If
	// negative, generate levels down to 1x1.
	Count int

	// Regions are rectangles in the base level that are resampled
	// independently of the rest of the image. A region is dropped once its
	// position or size becomes odd.
	Regions []image.Rectangle

	// TransparentAt, if positive, is the first level whose alpha is cleared.
	TransparentAt int
}

// GenerateMipmaps adds mipmap levels to an RGBA8888 texture. Each level is
// resampled from the previous level. Both dimensions must be powers of two.
func (t *Texture) GenerateMipmaps(opts MipmapOptions) error {
	if err := t.checkRGBA("mipmaps"); err != nil {
		return err
	}
	if len(t.Levels) != 1 {
		return errors.New("mipmaps: texture already has mipmaps")
	}
	w, h := t.Width(), t.Height()
	if !binutil.IsPow2(w) || !binutil.IsPow2(h) {
		return fmt.Errorf("mipmaps: size %dx%d is not a power of two", w, h)
	}
	limit := MaxMipmaps(w, h)
	n := opts.Count
	if n < 0 {
		n = limit
	} else if n > limit {
		return fmt.Errorf("mipmaps: %d levels requested, a %dx%d texture has at most %d", n, w, h, limit)
	}
	bounds := image.Rect(0, 0, w, h)
	regions := make([]image.Rectangle, 0, len(opts.Regions))
	for _, r := range opts.Regions {
		if r.Empty() || !r.In(bounds) {
			return fmt.Errorf("mipmaps: region %v is outside image bounds %v", r, bounds)
		}
		regions = append(regions, r)
	}
	prev := t.Image(0)
	for i := 1; i <= n; i++ {
		lw, lh := LevelSize(w, h, i)
		im := image.NewNRGBA(image.Rect(0, 0, lw, lh))
		Resample(im, im.Rect, prev, prev.Rect)
		pos := 0
		for _, r := range regions {
			if r.Min.X%2 != 0 || r.Min.Y%2 != 0 || r.Dx()%2 != 0 || r.Dy()%2 != 0 {
				continue
			}
			nr := image.Rect(r.Min.X/2, r.Min.Y/2, r.Max.X/2, r.Max.Y/2)
			Resample(im, nr, prev, r)
			regions[pos] = nr
			pos++
		}
		regions = regions[:pos]
		t.Levels = append(t.Levels, levelFromImage(im, false))
		prev = im
	}
	if opts.TransparentAt > 0 {
		for i := opts.TransparentAt; i < len(t.Levels); i++ {
			t.ForEachPixel(i, func(_, _ int, pix []byte) {
				pix[3] = 0
			})
		}
	}
	return nil
}
