package texture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/depp/assetprep/lib/binutil"
)

// A Format is a texture pixel format, as stored in the format byte of a
// texture file.
type Format uint8

const (
	// RGBA8888 is 32-bit color with alpha, bytes in R, G, B, A order.
	RGBA8888 Format = 0x00
	// RGB565 is 16-bit color without alpha.
	RGB565 Format = 0x01
	// RGBA5551 is 16-bit color with 1-bit alpha.
	RGBA5551 Format = 0x02
	// RGBA4444 is 16-bit color with 4-bit alpha.
	RGBA4444 Format = 0x03
	// BGRA8888 is 32-bit color with alpha, bytes in B, G, R, A order.
	BGRA8888 Format = 0x04
	// DXT1 is S3TC DXT1 block compression, 4 bits per pixel.
	DXT1 Format = 0x20
	// DXT3 is S3TC DXT3 block compression, 8 bits per pixel.
	DXT3 Format = 0x21
	// DXT5 is S3TC DXT5 block compression, 8 bits per pixel.
	DXT5 Format = 0x22
	// PVRTC2 is PVRTC block compression, 2 bits per pixel.
	PVRTC2 Format = 0x24
	// PVRTC4 is PVRTC block compression, 4 bits per pixel.
	PVRTC4 Format = 0x25
	// A8 is 8-bit alpha only.
	A8 Format = 0x40
	// Palette8 is 8-bit indexed color with a 256-entry RGBA8888 palette.
	Palette8 Format = 0x80

	// PSP is set for PSP variants of uncompressed formats, which have
	// 16-byte aligned rows and heights padded to a multiple of 8.
	PSP Format = 0x10
	// Swizzled is set, together with PSP, when the pixel data is swizzled.
	Swizzled Format = 0x08
)

type formatInfo struct {
	name  string
	bits  int // bits per pixel, including the palette index for Palette8
	ratio int // compression ratio relative to RGBA8888, block formats only
	bw    int // block width, block formats only
	bh    int // block height, block formats only
	bsize int // block size in bytes, block formats only
}

var formats = map[Format]formatInfo{
	RGBA8888: {name: "RGBA8888", bits: 32},
	RGB565:   {name: "RGB565", bits: 16},
	RGBA5551: {name: "RGBA5551", bits: 16},
	RGBA4444: {name: "RGBA4444", bits: 16},
	BGRA8888: {name: "BGRA8888", bits: 32},
	A8:       {name: "A8", bits: 8},
	Palette8: {name: "PALETTE8", bits: 8},
	DXT1:     {name: "S3TC_DXT1", bits: 4, ratio: 8, bw: 4, bh: 4, bsize: 8},
	DXT3:     {name: "S3TC_DXT3", bits: 8, ratio: 4, bw: 4, bh: 4, bsize: 16},
	DXT5:     {name: "S3TC_DXT5", bits: 8, ratio: 4, bw: 4, bh: 4, bsize: 16},
	PVRTC2:   {name: "PVRTC2", bits: 2, ratio: 16, bw: 8, bh: 4, bsize: 8},
	PVRTC4:   {name: "PVRTC4", bits: 4, ratio: 8, bw: 4, bh: 4, bsize: 8},
}

// Base returns the format without the PSP and swizzle flags.
func (f Format) Base() Format {
	if f.IsPSP() {
		return f &^ (PSP | Swizzled)
	}
	return f
}

// IsPSP returns true if this is a PSP variant of a format.
func (f Format) IsPSP() bool {
	_, ok := formats[f]
	if ok {
		return false
	}
	b := f &^ (PSP | Swizzled)
	_, ok = formats[b]
	return ok && f&PSP != 0 && !b.IsCompressed()
}

// IsSwizzled returns true if this is a swizzled PSP format.
func (f Format) IsSwizzled() bool {
	return f.IsPSP() && f&Swizzled != 0
}

// Valid returns true if this is a known format.
func (f Format) Valid() bool {
	_, ok := formats[f.Base()]
	return ok && (f == f.Base() || f.IsPSP())
}

// String returns the name of the format.
func (f Format) String() string {
	info, ok := formats[f.Base()]
	if !ok {
		return "Format(0x" + strconv.FormatUint(uint64(f), 16) + ")"
	}
	if f.IsSwizzled() {
		return "PSP_" + info.name + "_SWIZZLED"
	}
	if f.IsPSP() {
		return "PSP_" + info.name
	}
	return info.name
}

// Set sets the format to a string value.
func (f *Format) Set(s string) error {
	name := strings.ToUpper(s)
	var flags Format
	if strings.HasPrefix(name, "PSP_") {
		name = name[4:]
		flags = PSP
		if strings.HasSuffix(name, "_SWIZZLED") {
			name = name[:len(name)-9]
			flags |= Swizzled
		}
	}
	for v, info := range formats {
		if name == info.name || "S3TC_"+name == info.name {
			if flags != 0 && v.IsCompressed() {
				break
			}
			*f = v | flags
			return nil
		}
	}
	return fmt.Errorf("unknown format: %q", s)
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}

// IsCompressed returns true for block-compressed formats.
func (f Format) IsCompressed() bool {
	return formats[f.Base()].bsize != 0
}

// IsDXT returns true for S3TC formats.
func (f Format) IsDXT() bool {
	b := f.Base()
	return b == DXT1 || b == DXT3 || b == DXT5
}

// IsPVRTC returns true for PVRTC formats.
func (f Format) IsPVRTC() bool {
	b := f.Base()
	return b == PVRTC2 || b == PVRTC4
}

// BitsPerPixel returns the storage size of a pixel, in bits.
func (f Format) BitsPerPixel() int {
	return formats[f.Base()].bits
}

// CompressionRatio returns the storage reduction of a block-compressed format
// relative to RGBA8888. Returns 1 for other formats.
func (f Format) CompressionRatio() int {
	if r := formats[f.Base()].ratio; r != 0 {
		return r
	}
	return 1
}

// BlockSize returns the block dimensions and size in bytes of a
// block-compressed format.
func (f Format) BlockSize() (width, height, size int) {
	info := formats[f.Base()]
	return info.bw, info.bh, info.bsize
}

// Stride returns the number of bytes in one row of an uncompressed level with
// the given width. PSP formats align rows to 16 bytes.
func (f Format) Stride(width int) int {
	n := (width*formats[f.Base()].bits + 7) / 8
	if f.IsPSP() {
		n = binutil.AlignUp(n, 16)
	}
	return n
}

// Rows returns the number of stored rows in an uncompressed level with the
// given height. PSP formats pad the height to a multiple of 8.
func (f Format) Rows(height int) int {
	if f.IsPSP() {
		return binutil.AlignUp(height, 8)
	}
	return height
}

// DataSize returns the number of bytes needed to store one level of the given
// size. For PVRTC, the level is padded to the minimum 2x2 block grid.
func (f Format) DataSize(width, height int) int {
	info := formats[f.Base()]
	if info.bsize == 0 {
		return f.Stride(width) * f.Rows(height)
	}
	bx := (width + info.bw - 1) / info.bw
	by := (height + info.bh - 1) / info.bh
	if f.IsPVRTC() {
		if bx < 2 {
			bx = 2
		}
		if by < 2 {
			by = 2
		}
	}
	return bx * by * info.bsize
}
