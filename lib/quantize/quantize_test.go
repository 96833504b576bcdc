package quantize

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/depp/assetprep/lib/texture"
)

func makeImage(w, h int, colors ...color.NRGBA) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, c := range colors {
		im.SetNRGBA(i%w, i/w, c)
	}
	return im
}

func randomImage(r *rand.Rand, w, h int) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	r.Read(im.Pix)
	// Quantize some pixels to fully transparent.
	for i := 3; i < len(im.Pix); i += 4 {
		if im.Pix[i] < 32 {
			im.Pix[i] = 0
		}
	}
	return im
}

// checkMapping verifies that each pixel maps to the nearest palette entry,
// with ties going to the lowest index.
func checkMapping(t *testing.T, src *image.NRGBA, pal *[PaletteSize]color.NRGBA, idx *image.Paletted) {
	t.Helper()
	b := src.Rect
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := src.NRGBAAt(x, y)
			i := idx.ColorIndexAt(x, y)
			d := texture.Distance(c, pal[i])
			for j := 0; j < int(i); j++ {
				if texture.Distance(c, pal[j]) <= d {
					t.Errorf("(%d,%d): index %d, but %d is at least as close", x, y, i, j)
					return
				}
			}
			for j := int(i) + 1; j < PaletteSize; j++ {
				if texture.Distance(c, pal[j]) < d {
					t.Errorf("(%d,%d): index %d, but %d is closer", x, y, i, j)
					return
				}
			}
		}
	}
}

func TestTiny(t *testing.T) {
	colors := []color.NRGBA{
		{0, 0, 0, 255},
		{0, 0, 255, 255},
		{0, 255, 0, 255},
		{255, 0, 0, 255},
	}
	src := makeImage(2, 2, colors...)
	pal, idx, err := Quantize(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[color.NRGBA]bool)
	for _, c := range pal[:4] {
		seen[c] = true
	}
	for i, c := range colors {
		if !seen[c] {
			t.Errorf("color %v not in palette", c)
		}
		if p := pal[idx.Pix[i]]; p != c {
			t.Errorf("pixel %d maps to %v, expect %v", i, p, c)
		}
	}
}

func TestTransparent(t *testing.T) {
	src := makeImage(1, 2, color.NRGBA{}, color.NRGBA{128, 128, 128, 255})
	pal, idx, err := Quantize(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a := pal[idx.ColorIndexAt(0, 0)].A; a != 0 {
		t.Errorf("transparent pixel maps to alpha %d", a)
	}
}

func TestSingleColor(t *testing.T) {
	c := color.NRGBA{12, 34, 56, 255}
	src := makeImage(3, 3, c, c, c, c, c, c, c, c, c)
	fixed := []color.NRGBA{{A: 0}, {255, 255, 255, 255}}
	pal, idx, err := Quantize(src, fixed)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pal {
		switch {
		case i < len(fixed):
			if p != fixed[i] {
				t.Errorf("pal[%d] = %v, expect fixed %v", i, p, fixed[i])
			}
		case p != c:
			t.Errorf("pal[%d] = %v, expect %v", i, p, c)
		}
	}
	for i, x := range idx.Pix {
		if x != 2 {
			t.Errorf("index %d = %d, expect 2", i, x)
		}
	}
}

func TestIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(0x5eed))
	colors := make([]color.NRGBA, 200)
	for i := range colors {
		colors[i] = color.NRGBA{uint8(r.Intn(256)), uint8(r.Intn(256)), uint8(r.Intn(256)), uint8(r.Intn(256))}
	}
	src := makeImage(20, 10, colors...)
	fixed := []color.NRGBA{{1, 2, 3, 4}, {5, 6, 7, 8}}
	pal, idx, err := Quantize(src, fixed)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			if p, c := pal[idx.ColorIndexAt(x, y)], src.NRGBAAt(x, y); p != c {
				t.Errorf("(%d,%d) = %v, expect %v", x, y, p, c)
			}
		}
	}
}

func TestMedianCut(t *testing.T) {
	r := rand.New(rand.NewSource(0x1234))
	cases := []struct {
		name  string
		w, h  int
		fixed []color.NRGBA
	}{
		{"NoFixed", 64, 64, nil},
		{"Fixed", 32, 48, []color.NRGBA{{A: 0}, {255, 0, 255, 255}, {0, 0, 0, 255}}},
		{"Tall", 3, 500, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			src := randomImage(r, c.w, c.h)
			pal, idx, err := Quantize(src, c.fixed)
			if err != nil {
				t.Fatal(err)
			}
			for i, f := range c.fixed {
				if pal[i] != f {
					t.Errorf("pal[%d] = %v, expect %v", i, pal[i], f)
				}
			}
			var transparent bool
			for _, p := range pal {
				if p.A == 0 {
					transparent = true
				}
			}
			if !transparent {
				t.Error("no transparent palette entry")
			}
			checkMapping(t, src, pal, idx)
		})
	}
}

func TestFixedTransparent(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	cases := []struct {
		name  string
		pixel color.NRGBA
		fixed []color.NRGBA
	}{
		{"EqualsFixed", color.NRGBA{}, []color.NRGBA{{}, {255, 255, 255, 255}}},
		{"OtherFixed", color.NRGBA{10, 20, 30, 0}, []color.NRGBA{{}}},
		{"OpaqueFixed", color.NRGBA{10, 20, 30, 0}, []color.NRGBA{{255, 255, 255, 255}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			src := randomImage(r, 64, 64)
			for i := 3; i < len(src.Pix); i += 4 {
				src.Pix[i] = 255
			}
			src.SetNRGBA(0, 0, c.pixel)
			pal, idx, err := Quantize(src, c.fixed)
			if err != nil {
				t.Fatal(err)
			}
			if a := pal[idx.ColorIndexAt(0, 0)].A; a != 0 {
				t.Errorf("transparent pixel maps to alpha %d", a)
			}
			if c.pixel == c.fixed[0] && idx.ColorIndexAt(0, 0) != 0 {
				t.Errorf("index = %d, expect 0", idx.ColorIndexAt(0, 0))
			}
			checkMapping(t, src, pal, idx)
		})
	}
}

func TestNoForcedTransparent(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	src := randomImage(r, 32, 32)
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}
	pal, err := GeneratePalette(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pal {
		if p.A != 255 {
			t.Errorf("pal[%d] = %v, expect opaque", i, p)
		}
	}
}

func TestEmpty(t *testing.T) {
	src := image.NewNRGBA(image.Rectangle{})
	if _, _, err := Quantize(src, nil); err != ErrEmptyImage {
		t.Errorf("err = %v, expect ErrEmptyImage", err)
	}
}
