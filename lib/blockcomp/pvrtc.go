package blockcomp

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"github.com/depp/assetprep/lib/texture"
)

// PVRTC4 block layout. Each block is two little-endian 32-bit words: the
// modulation word, with two bits per pixel, and the color word, holding the
// mode flag in bit 0, color A in bits 1-15, and color B in bits 16-31.
const (
	pvrtcBlockSize = 8
	pvrtcModeFlag  = 1
)

// rgba16 is a color with 16x the range of the 5-bit (or 4-bit alpha) block
// colors, as produced by bilinear interpolation.
type rgba16 struct {
	r, g, b, a int
}

// blockColors returns colors A and B of a block, with 5-bit color and 4-bit
// alpha.
func blockColors(word uint32) (ca, cb rgba16) {
	a := word & 0xffff
	if a&0x8000 != 0 {
		ca = rgba16{
			r: int(a>>10) & 0x1f,
			g: int(a>>5) & 0x1f,
			b: int(a&0x1e) | int(a&0x1e)>>4,
			a: 0xf,
		}
	} else {
		ca = rgba16{
			r: int(a>>7)&0x1e | int(a>>11)&1,
			g: int(a>>3)&0x1e | int(a>>7)&1,
			b: int(a<<1)&0x1c | int(a>>2)&3,
			a: int(a>>11) & 0xe,
		}
	}
	b := word >> 16
	if b&0x8000 != 0 {
		cb = rgba16{
			r: int(b>>10) & 0x1f,
			g: int(b>>5) & 0x1f,
			b: int(b) & 0x1f,
			a: 0xf,
		}
	} else {
		cb = rgba16{
			r: int(b>>7)&0x1e | int(b>>11)&1,
			g: int(b>>3)&0x1e | int(b>>7)&1,
			b: int(b<<1)&0x1e | int(b>>3)&1,
			a: int(b>>11) & 0xe,
		}
	}
	return
}

// interpolate returns the bilinear blend of four corner colors at x/4, y/4.
func interpolate(p, q, r, s rgba16, x, y int) color.NRGBA {
	lerp := func(p, q, r, s int) int {
		hp := p*4 + (q-p)*x
		hr := r*4 + (s-r)*x
		return hp*4 + (hr-hp)*y
	}
	cr := lerp(p.r, q.r, r.r, s.r)
	cg := lerp(p.g, q.g, r.g, s.g)
	cb := lerp(p.b, q.b, r.b, s.b)
	ca := lerp(p.a, q.a, r.a, s.a)
	return color.NRGBA{
		R: uint8(cr>>6 + cr>>1),
		G: uint8(cg>>6 + cg>>1),
		B: uint8(cb>>6 + cb>>1),
		A: uint8(ca>>4 + ca),
	}
}

func mix(a, b color.NRGBA, wa, wb int) color.NRGBA {
	return color.NRGBA{
		R: uint8((int(a.R)*wa + int(b.R)*wb) / 8),
		G: uint8((int(a.G)*wa + int(b.G)*wb) / 8),
		B: uint8((int(a.B)*wa + int(b.B)*wb) / 8),
		A: uint8((int(a.A)*wa + int(b.A)*wb) / 8),
	}
}

// candidates returns the four colors a pixel can take given its interpolated
// A and B colors and the block mode.
func candidates(a, b color.NRGBA, punchThrough bool) [4]color.NRGBA {
	if punchThrough {
		mid := mix(a, b, 4, 4)
		punch := mid
		punch.A = 0
		return [4]color.NRGBA{a, mid, punch, b}
	}
	return [4]color.NRGBA{a, mix(a, b, 5, 3), mix(a, b, 3, 5), b}
}

// FixPVRTC4Alpha recomputes the modulation data of PVRTC4 data so each pixel
// uses the candidate color nearest the original pixel. Blocks which need a
// transparent pixel but cannot produce one are switched to punch-through mode.
// The image must be square with a power-of-two size of at least 8.
func FixPVRTC4Alpha(data []byte, im *image.NRGBA) error {
	size := im.Rect.Dx()
	if size != im.Rect.Dy() || size < 8 || size&(size-1) != 0 {
		return fmt.Errorf("PVRTC4 fixup: invalid image size %dx%d", im.Rect.Dx(), im.Rect.Dy())
	}
	n := size / 4
	if len(data) != n*n*pvrtcBlockSize {
		return fmt.Errorf("PVRTC4 fixup: data is %d bytes, expected %d", len(data), n*n*pvrtcBlockSize)
	}
	block := func(bx, by int) []byte {
		bx &= n - 1
		by &= n - 1
		off := texture.Morton(by, bx) * pvrtcBlockSize
		return data[off : off+pvrtcBlockSize]
	}
	for by := 0; by < n; by++ {
		for bx := 0; bx < n; bx++ {
			// Colors of the 3x3 neighborhood, indexed [dy+1][dx+1].
			var ca, cb [3][3]rgba16
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					w := binary.LittleEndian.Uint32(block(bx+dx, by+dy)[4:])
					ca[dy+1][dx+1], cb[dy+1][dx+1] = blockColors(w)
				}
			}
			fixBlock(block(bx, by), &ca, &cb, im, bx*4, by*4)
		}
	}
	return nil
}

func fixBlock(blk []byte, ca, cb *[3][3]rgba16, im *image.NRGBA, x0, y0 int) {
	cw := binary.LittleEndian.Uint32(blk[4:])
	mod, ok := fitModulation(ca, cb, im, x0, y0, cw&pvrtcModeFlag != 0)
	if !ok {
		cw |= pvrtcModeFlag
		mod, _ = fitModulation(ca, cb, im, x0, y0, true)
	}
	binary.LittleEndian.PutUint32(blk[0:], mod)
	binary.LittleEndian.PutUint32(blk[4:], cw)
}

// fitModulation returns the modulation word for a block. Returns false if a
// transparent pixel has no transparent candidate.
func fitModulation(ca, cb *[3][3]rgba16, im *image.NRGBA, x0, y0 int, punchThrough bool) (uint32, bool) {
	var mod uint32
	for py := 0; py < 4; py++ {
		// Pixel centers are offset by two pixels from block corners.
		cy, fy := 0, py+2
		if py >= 2 {
			cy, fy = 1, py-2
		}
		for px := 0; px < 4; px++ {
			cx, fx := 0, px+2
			if px >= 2 {
				cx, fx = 1, px-2
			}
			a := interpolate(ca[cy][cx], ca[cy][cx+1], ca[cy+1][cx], ca[cy+1][cx+1], fx, fy)
			b := interpolate(cb[cy][cx], cb[cy][cx+1], cb[cy+1][cx], cb[cy+1][cx+1], fx, fy)
			cands := candidates(a, b, punchThrough)
			orig := im.NRGBAAt(x0+px, y0+py)
			if orig.A == 0 && !punchThrough {
				var transparent bool
				for _, c := range cands {
					if c.A == 0 {
						transparent = true
					}
				}
				if !transparent {
					return 0, false
				}
			}
			var best uint32
			bestd := ^uint32(0)
			for i, c := range cands {
				if d := texture.Distance(orig, c); d < bestd {
					best = uint32(i)
					bestd = d
				}
			}
			mod |= best << uint(2*(py*4+px))
		}
	}
	return mod, true
}

// DecodePVRTC4 decodes PVRTC4 data for a square image. It is the decoder used
// by FixPVRTC4Alpha, exposed for inspection and tests.
func DecodePVRTC4(data []byte, size int) (*image.NRGBA, error) {
	if size < 8 || size&(size-1) != 0 {
		return nil, fmt.Errorf("invalid PVRTC4 size: %d", size)
	}
	n := size / 4
	if len(data) != n*n*pvrtcBlockSize {
		return nil, fmt.Errorf("PVRTC4 data is %d bytes, expected %d", len(data), n*n*pvrtcBlockSize)
	}
	word := func(bx, by, i int) uint32 {
		off := texture.Morton(by&(n-1), bx&(n-1))*pvrtcBlockSize + i*4
		return binary.LittleEndian.Uint32(data[off:])
	}
	im := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			// Block whose center is above and to the left of the pixel.
			sx, sy := x-2, y-2
			bx, by := sx>>2, sy>>2
			fx, fy := sx&3, sy&3
			var ca, cb [4]rgba16
			for i, d := range [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
				ca[i], cb[i] = blockColors(word(bx+d[0], by+d[1], 1))
			}
			a := interpolate(ca[0], ca[1], ca[2], ca[3], fx, fy)
			b := interpolate(cb[0], cb[1], cb[2], cb[3], fx, fy)
			obx, oby := x>>2, y>>2
			cw := word(obx, oby, 1)
			mw := word(obx, oby, 0)
			m := mw >> uint(2*((y&3)*4+(x&3))) & 3
			im.SetNRGBA(x, y, candidates(a, b, cw&pvrtcModeFlag != 0)[m])
		}
	}
	return im, nil
}
