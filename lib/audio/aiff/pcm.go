package aiff

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/depp/extended"
)

// SampleRate returns a positive sample rate in the 80-bit extended format.
func SampleRate(rate float64) extended.Extended {
	var d [10]byte
	i := math.Float64bits(rate)
	sign := uint32(i >> 63)
	exp := uint32(i>>52) & (1<<11 - 1)
	frac := i & (1<<52 - 1)
	binary.BigEndian.PutUint16(d[:], uint16(sign<<15|(exp+16383-1023)))
	binary.BigEndian.PutUint64(d[2:], 1<<63|frac<<11)
	return extended.FromBytesBigEndian(d[:])
}

// Rate returns the sample rate in Hz.
func (c *Common) Rate() float64 {
	var d [10]byte
	c.SampleRate.PutBytesBigEndian(d[:])
	se := binary.BigEndian.Uint16(d[:])
	v := math.Ldexp(float64(binary.BigEndian.Uint64(d[2:])), int(se&0x7fff)-16383-63)
	if se&0x8000 != 0 {
		v = -v
	}
	return v
}

// PCM16LE returns the audio as interleaved signed 16-bit little-endian
// samples. The file must contain uncompressed 16-bit audio.
func (a *AIFF) PCM16LE() ([]byte, error) {
	c := &a.Common
	if c.SampleSize != 16 {
		return nil, fmt.Errorf("sample size is %d, but only 16 is supported", c.SampleSize)
	}
	var swap bool
	switch ct := string(c.Compression[:]); ct {
	case PCMType:
		swap = true
	case PCMSwapType:
	default:
		return nil, fmt.Errorf("unsupported compression: %q", ct)
	}
	samples, err := a.Data.Samples()
	if err != nil {
		return nil, err
	}
	n := c.NumFrames * c.NumChannels * 2
	if n > len(samples) {
		return nil, fmt.Errorf("sound data has %d bytes, expected %d", len(samples), n)
	}
	out := make([]byte, n)
	copy(out, samples)
	if swap {
		swap16(out)
	}
	return out, nil
}

// NewPCM16 returns an AIFF file containing the given interleaved signed
// 16-bit little-endian samples.
func NewPCM16(channels int, rate float64, samples []byte) *AIFF {
	data := make([]byte, len(samples)&^1)
	copy(data, samples)
	swap16(data)
	a := AIFF{
		Common: Common{
			NumChannels:     channels,
			NumFrames:       len(data) / (2 * channels),
			SampleSize:      16,
			SampleRate:      SampleRate(rate),
			CompressionName: PCMName,
		},
		Data: &SoundData{Data: data},
	}
	copy(a.Common.Compression[:], PCMType)
	return &a
}

func swap16(data []byte) {
	for i := 0; i+1 < len(data); i += 2 {
		data[i], data[i+1] = data[i+1], data[i]
	}
}
