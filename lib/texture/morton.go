package texture

// Morton returns the Morton (Z-order) index of a coordinate pair. Bit i of a
// goes to bit 2i of the result and bit i of b goes to bit 2i+1.
func Morton(a, b int) int {
	return int(spreadBits(uint32(a)) | spreadBits(uint32(b))<<1)
}

func spreadBits(x uint32) uint32 {
	x &= 0xffff
	x = (x | x<<8) & 0x00ff00ff
	x = (x | x<<4) & 0x0f0f0f0f
	x = (x | x<<2) & 0x33333333
	x = (x | x<<1) & 0x55555555
	return x
}
