package texture

import "image/color"

// Distance returns the alpha-aware squared distance between two colors.
//
// Alpha differences are always weighted fully. Color differences are weighted
// by the product of the alphas, plus one so that distinct transparent colors
// remain distinguishable. The sum is divided by 4 so that it fits in 32 bits.
func Distance(c1, c2 color.NRGBA) uint32 {
	da := int64(c1.A) - int64(c2.A)
	dr := int64(c1.R) - int64(c2.R)
	dg := int64(c1.G) - int64(c2.G)
	db := int64(c1.B) - int64(c2.B)
	wc := int64(c1.A)*int64(c2.A) + 1
	d := da*da*(255*255+1) + (dr*dr+dg*dg+db*db)*wc
	return uint32(d / 4)
}
