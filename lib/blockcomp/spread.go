package blockcomp

import "image"

// Neighbor weights for border spreading.
const (
	weightOrtho = 10
	weightDiag  = 7
)

var neighbors = [8]struct{ dx, dy, w int }{
	{-1, -1, weightDiag}, {0, -1, weightOrtho}, {1, -1, weightDiag},
	{-1, 0, weightOrtho}, {1, 0, weightOrtho},
	{-1, 1, weightDiag}, {0, 1, weightOrtho}, {1, 1, weightDiag},
}

// SpreadBorders fills the color of transparent pixels from nearby
// non-transparent pixels, so block compression does not pull dark fringes into
// the visible edges of the image. The alpha channel is not changed.
func SpreadBorders(im *image.NRGBA) {
	xsz := im.Rect.Dx()
	ysz := im.Rect.Dy()
	alpha := make([]byte, xsz*ysz)
	for y := 0; y < ysz; y++ {
		row := im.Pix[im.PixOffset(im.Rect.Min.X, im.Rect.Min.Y+y):]
		for x := 0; x < xsz; x++ {
			alpha[y*xsz+x] = row[x*4+3]
		}
	}
	for spreadStep(im) {
	}
	for y := 0; y < ysz; y++ {
		row := im.Pix[im.PixOffset(im.Rect.Min.X, im.Rect.Min.Y+y):]
		for x := 0; x < xsz; x++ {
			row[x*4+3] = alpha[y*xsz+x]
		}
	}
}

type spreadUpdate struct {
	off     int
	r, g, b byte
}

// spreadStep fills every transparent pixel which has a non-transparent
// neighbor, and marks it with alpha 1. Neighbors are read from the state
// before the step. Returns false if nothing changed.
func spreadStep(im *image.NRGBA) bool {
	xsz := im.Rect.Dx()
	ysz := im.Rect.Dy()
	var updates []spreadUpdate
	for y := 0; y < ysz; y++ {
		for x := 0; x < xsz; x++ {
			off := im.PixOffset(im.Rect.Min.X+x, im.Rect.Min.Y+y)
			if im.Pix[off+3] != 0 {
				continue
			}
			var r, g, b, total int
			for _, n := range neighbors {
				nx, ny := x+n.dx, y+n.dy
				if nx < 0 || nx >= xsz || ny < 0 || ny >= ysz {
					continue
				}
				p := im.Pix[im.PixOffset(im.Rect.Min.X+nx, im.Rect.Min.Y+ny):]
				w := int(p[3]) * n.w
				r += int(p[0]) * w
				g += int(p[1]) * w
				b += int(p[2]) * w
				total += w
			}
			if total == 0 {
				continue
			}
			updates = append(updates, spreadUpdate{
				off: off,
				r:   byte((r + total/2) / total),
				g:   byte((g + total/2) / total),
				b:   byte((b + total/2) / total),
			})
		}
	}
	for _, u := range updates {
		p := im.Pix[u.off : u.off+4]
		p[0] = u.r
		p[1] = u.g
		p[2] = u.b
		p[3] = 1
	}
	return len(updates) != 0
}
