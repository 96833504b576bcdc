package blockcomp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PVR version 3 container header.
const (
	pvrMagic      = 0x03525650
	pvrHeaderSize = 52
)

// ErrNotPVR indicates that data is not a PVR version 3 file.
var ErrNotPVR = errors.New("not a PVR v3 file")

// A PVRHeader is the header of a PVR version 3 file.
type PVRHeader struct {
	Flags        uint32
	PixelFormat  uint64
	ColorSpace   uint32
	ChannelType  uint32
	Height       uint32
	Width        uint32
	Depth        uint32
	Surfaces     uint32
	Faces        uint32
	Mipmaps      uint32
	MetadataSize uint32
}

// ParsePVR parses a PVR version 3 file and returns the header and the texture
// data following the header and metadata.
func ParsePVR(data []byte) (*PVRHeader, []byte, error) {
	if len(data) < pvrHeaderSize || binary.LittleEndian.Uint32(data) != pvrMagic {
		return nil, nil, ErrNotPVR
	}
	le := binary.LittleEndian
	h := PVRHeader{
		Flags:        le.Uint32(data[4:]),
		PixelFormat:  le.Uint64(data[8:]),
		ColorSpace:   le.Uint32(data[16:]),
		ChannelType:  le.Uint32(data[20:]),
		Height:       le.Uint32(data[24:]),
		Width:        le.Uint32(data[28:]),
		Depth:        le.Uint32(data[32:]),
		Surfaces:     le.Uint32(data[36:]),
		Faces:        le.Uint32(data[40:]),
		Mipmaps:      le.Uint32(data[44:]),
		MetadataSize: le.Uint32(data[48:]),
	}
	if uint64(h.MetadataSize) > uint64(len(data)-pvrHeaderSize) {
		return nil, nil, fmt.Errorf("PVR metadata size %d exceeds file size", h.MetadataSize)
	}
	return &h, data[pvrHeaderSize+int(h.MetadataSize):], nil
}
