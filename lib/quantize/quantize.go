// Package quantize reduces RGBA images to 256-color palettes using an
// alpha-aware median cut.
package quantize

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/depp/assetprep/lib/texture"
)

// PaletteSize is the number of entries in a generated palette.
const PaletteSize = 256

// ErrEmptyImage indicates an image with no pixels.
var ErrEmptyImage = errors.New("cannot quantize empty image")

// Quantize generates a palette for an image and maps the image to it. The
// fixed colors occupy the first palette entries.
func Quantize(src *image.NRGBA, fixed []color.NRGBA) (*[PaletteSize]color.NRGBA, *image.Paletted, error) {
	pal, err := GeneratePalette(src, fixed)
	if err != nil {
		return nil, nil, err
	}
	return pal, Map(src, pal), nil
}

// An entry is a distinct color and the number of pixels with that color.
type entry struct {
	c     color.NRGBA
	count uint32
}

// A box is a range of the color table, together with bounds on its colors.
type box struct {
	min, max [4]uint8 // indexed by channel
	first    int
	ncolors  int
}

// Channel indexes, in tie-break order.
const (
	chanA = iota
	chanR
	chanG
	chanB
)

func channel(c color.NRGBA, i int) uint8 {
	switch i {
	case chanA:
		return c.A
	case chanR:
		return c.R
	case chanG:
		return c.G
	default:
		return c.B
	}
}

// colorTable returns the distinct colors in an image that are not in the fixed
// list, with their counts, in a deterministic order. It also reports whether
// any pixel in the image is fully transparent.
func colorTable(src *image.NRGBA, fixed []color.NRGBA) ([]entry, bool) {
	counts := make(map[color.NRGBA]uint32)
	xsz := src.Rect.Dx()
	ysz := src.Rect.Dy()
	for y := 0; y < ysz; y++ {
		off := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		row := src.Pix[off : off+xsz*4]
		for x := 0; x < xsz; x++ {
			p := row[x*4 : x*4+4]
			counts[color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}]++
		}
	}
	var transparent bool
	for c := range counts {
		if c.A == 0 {
			transparent = true
			break
		}
	}
	for _, c := range fixed {
		delete(counts, c)
	}
	table := make([]entry, 0, len(counts))
	for c, n := range counts {
		table = append(table, entry{c: c, count: n})
	}
	sort.Slice(table, func(i, j int) bool {
		return packColor(table[i].c) < packColor(table[j].c)
	})
	return table, transparent
}

func packColor(c color.NRGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

// GeneratePalette returns a palette for an image. The fixed colors come first,
// unchanged. If the image has few enough distinct colors, they are used
// directly. Otherwise, the remaining entries are chosen by median cut.
func GeneratePalette(src *image.NRGBA, fixed []color.NRGBA) (*[PaletteSize]color.NRGBA, error) {
	if src.Rect.Empty() {
		return nil, ErrEmptyImage
	}
	if len(fixed) > PaletteSize {
		return nil, fmt.Errorf("too many fixed colors: %d, maximum is %d", len(fixed), PaletteSize)
	}
	var pal [PaletteSize]color.NRGBA
	n := copy(pal[:], fixed)
	target := PaletteSize - n
	table, transparent := colorTable(src, fixed)
	if len(table) == 0 || target == 0 {
		fillRemaining(&pal, n)
		return &pal, nil
	}
	var gen []color.NRGBA
	if len(table) <= target {
		gen = make([]color.NRGBA, len(table))
		for i, e := range table {
			gen[i] = e.c
		}
	} else {
		gen = medianCut(table, target)
		// Transparent pixels must map to a transparent entry.
		if transparent && !hasTransparent(fixed) {
			forceTransparent(gen)
		}
	}
	copy(pal[n:], gen)
	fillRemaining(&pal, n+len(gen))
	return &pal, nil
}

// fillRemaining fills unused palette entries with the last used entry.
func fillRemaining(pal *[PaletteSize]color.NRGBA, n int) {
	if n == 0 {
		return
	}
	for i := n; i < PaletteSize; i++ {
		pal[i] = pal[n-1]
	}
}

func hasTransparent(colors []color.NRGBA) bool {
	for _, c := range colors {
		if c.A == 0 {
			return true
		}
	}
	return false
}

// forceTransparent makes the least opaque generated color fully transparent,
// if no generated color is.
func forceTransparent(gen []color.NRGBA) {
	best := 0
	for i, c := range gen {
		if c.A == 0 {
			return
		}
		if c.A < gen[best].A {
			best = i
		}
	}
	gen[best].A = 0
}

// medianCut partitions the color table into ncolors boxes and returns the
// representative color of each box.
func medianCut(table []entry, ncolors int) []color.NRGBA {
	boxes := make([]box, 1, ncolors)
	boxes[0] = box{
		max:     [4]uint8{255, 255, 255, 255},
		ncolors: len(table),
	}
	for len(boxes) < ncolors {
		bi := -1
		for i, b := range boxes {
			if b.ncolors >= 2 && (bi == -1 || b.ncolors > boxes[bi].ncolors) {
				bi = i
			}
		}
		if bi == -1 {
			break
		}
		b := &boxes[bi]
		colors := table[b.first : b.first+b.ncolors]
		b.shrink(colors)
		order := b.axisOrder()
		sort.SliceStable(colors, func(i, j int) bool {
			ci, cj := colors[i].c, colors[j].c
			for _, ch := range order {
				vi, vj := channel(ci, ch), channel(cj, ch)
				if vi != vj {
					return vi < vj
				}
			}
			return false
		})
		half := b.ncolors / 2
		nb := box{
			min:     b.min,
			max:     b.max,
			first:   b.first + half,
			ncolors: b.ncolors - half,
		}
		b.ncolors = half
		boxes = append(boxes, nb)
	}
	out := make([]color.NRGBA, len(boxes))
	for i, b := range boxes {
		out[i] = boxColor(table[b.first : b.first+b.ncolors])
	}
	return out
}

// shrink sets the box bounds to the bounds of its colors.
func (b *box) shrink(colors []entry) {
	for ch := 0; ch < 4; ch++ {
		lo, hi := uint8(255), uint8(0)
		for _, e := range colors {
			v := channel(e.c, ch)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		b.min[ch] = lo
		b.max[ch] = hi
	}
}

// axisOrder returns the channels in sort order: the channel with the largest
// extent first, then the rest in A, R, G, B order.
func (b *box) axisOrder() [4]int {
	axis := 0
	for ch := 1; ch < 4; ch++ {
		if b.max[ch]-b.min[ch] > b.max[axis]-b.min[axis] {
			axis = ch
		}
	}
	order := [4]int{axis}
	n := 1
	for ch := 0; ch < 4; ch++ {
		if ch != axis {
			order[n] = ch
			n++
		}
	}
	return order
}

// boxColor returns the representative color of a set of entries. Alpha is the
// pixel-weighted mean. Color is weighted by alpha, with each entry weighing at
// least 1 so transparent colors still contribute.
func boxColor(colors []entry) color.NRGBA {
	var asum, count, wsum uint64
	var csum [3]uint64
	for _, e := range colors {
		n := uint64(e.count)
		asum += uint64(e.c.A) * n
		count += n
		w := uint64(e.c.A) * n / 255
		if w < 1 {
			w = 1
		}
		wsum += w
		csum[0] += uint64(e.c.R) * w
		csum[1] += uint64(e.c.G) * w
		csum[2] += uint64(e.c.B) * w
	}
	return color.NRGBA{
		R: uint8((csum[0] + wsum/2) / wsum),
		G: uint8((csum[1] + wsum/2) / wsum),
		B: uint8((csum[2] + wsum/2) / wsum),
		A: uint8((asum + count/2) / count),
	}
}

// Map returns an image with each pixel mapped to the nearest palette color.
// Ties go to the lowest index.
func Map(src *image.NRGBA, pal *[PaletteSize]color.NRGBA) *image.Paletted {
	cpal := make(color.Palette, PaletteSize)
	for i, c := range pal {
		cpal[i] = c
	}
	xsz := src.Rect.Dx()
	ysz := src.Rect.Dy()
	dst := image.NewPaletted(image.Rect(0, 0, xsz, ysz), cpal)
	cache := make(map[color.NRGBA]uint8)
	for y := 0; y < ysz; y++ {
		off := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		row := src.Pix[off : off+xsz*4]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+xsz]
		for x := 0; x < xsz; x++ {
			p := row[x*4 : x*4+4]
			c := color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
			idx, ok := cache[c]
			if !ok {
				idx = Nearest(pal, c)
				cache[c] = idx
			}
			out[x] = idx
		}
	}
	return dst
}

// Nearest returns the index of the palette entry nearest to c.
func Nearest(pal *[PaletteSize]color.NRGBA, c color.NRGBA) uint8 {
	var best int
	bestd := ^uint32(0)
	for i, p := range pal {
		d := texture.Distance(c, p)
		if d < bestd {
			best = i
			bestd = d
			if d == 0 {
				break
			}
		}
	}
	return uint8(best)
}
