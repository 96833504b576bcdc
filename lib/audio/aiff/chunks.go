package aiff

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/depp/extended"
)

// Compression types for 16-bit PCM audio.
const (
	PCMType     = "NONE"
	PCMName     = "not compressed"
	PCMSwapType = "sowt" // little-endian samples, AIFF-C only
	PCMSwapName = ""
)

const (
	commonSize     = 18 // COMM in AIFF, and the fixed part in AIFF-C
	soundDataFixed = 8  // offset and block size before SSND samples
)

// A Common is the common chunk, COMM.
type Common struct {
	NumChannels     int
	NumFrames       int
	SampleSize      int
	SampleRate      extended.Extended
	Compression     [4]byte
	CompressionName string
}

// IsCompressed returns true if the compression type requires AIFF-C.
func (c *Common) IsCompressed() bool {
	return string(c.Compression[:]) != PCMType
}

func (c *Common) decode(data []byte, aifc bool) error {
	switch {
	case !aifc && len(data) != commonSize:
		return fmt.Errorf("COMM size is %d, expected %d", len(data), commonSize)
	case aifc && len(data) < commonSize+5:
		return fmt.Errorf("COMM size is %d, expected at least %d", len(data), commonSize+5)
	}
	c.NumChannels = int(binary.BigEndian.Uint16(data[0:]))
	c.NumFrames = int(binary.BigEndian.Uint32(data[2:]))
	c.SampleSize = int(binary.BigEndian.Uint16(data[6:]))
	c.SampleRate = extended.FromBytesBigEndian(data[8:commonSize])
	if !aifc {
		copy(c.Compression[:], PCMType)
		c.CompressionName = PCMName
		return nil
	}
	copy(c.Compression[:], data[commonSize:])
	name := data[commonSize+5:]
	n := int(data[commonSize+4])
	if n > len(name) {
		return errors.New("COMM compression name is truncated")
	}
	c.CompressionName = string(name[:n])
	return nil
}

func (c *Common) encode(aifc bool) ([]byte, error) {
	size := commonSize
	if aifc {
		if len(c.CompressionName) > 255 {
			return nil, fmt.Errorf("compression name too long: %q", c.CompressionName)
		}
		// Pascal string, padded to an even length.
		size += 4 + (len(c.CompressionName)+2)&^1
	} else if c.IsCompressed() {
		return nil, fmt.Errorf("compression type %q requires AIFF-C", c.Compression[:])
	}
	data := make([]byte, size)
	binary.BigEndian.PutUint16(data[0:], uint16(c.NumChannels))
	binary.BigEndian.PutUint32(data[2:], uint32(c.NumFrames))
	binary.BigEndian.PutUint16(data[6:], uint16(c.SampleSize))
	c.SampleRate.PutBytesBigEndian(data[8:commonSize])
	if aifc {
		copy(data[commonSize:], c.Compression[:])
		data[commonSize+4] = byte(len(c.CompressionName))
		copy(data[commonSize+5:], c.CompressionName)
	}
	return data, nil
}

// A SoundData is the sound data chunk, SSND.
type SoundData struct {
	Offset    uint32
	BlockSize uint32
	Data      []byte
}

func (c *SoundData) decode(data []byte) error {
	if len(data) < soundDataFixed {
		return fmt.Errorf("SSND size is %d, expected at least %d", len(data), soundDataFixed)
	}
	c.Offset = binary.BigEndian.Uint32(data[0:])
	c.BlockSize = binary.BigEndian.Uint32(data[4:])
	c.Data = append([]byte(nil), data[soundDataFixed:]...)
	return nil
}

func (c *SoundData) encode() []byte {
	data := make([]byte, soundDataFixed+len(c.Data))
	binary.BigEndian.PutUint32(data[0:], c.Offset)
	binary.BigEndian.PutUint32(data[4:], c.BlockSize)
	copy(data[soundDataFixed:], c.Data)
	return data
}

// Samples returns the sample data, skipping the offset.
func (c *SoundData) Samples() ([]byte, error) {
	if int64(c.Offset) > int64(len(c.Data)) {
		return nil, fmt.Errorf("sound data offset %d is past the end of the data", c.Offset)
	}
	return c.Data[c.Offset:], nil
}
