// Package stream multiplexes H.264 video and PCM audio into frame-interleaved
// stream files.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Stream file layout. All integers are big-endian.
const (
	HeaderSize      = 32
	IndexEntrySize  = 8
	FramePrefixSize = 16
	segmentAlign    = 4
)

// Audio format: interleaved stereo signed 16-bit little-endian.
const (
	AudioRate     = 44100
	AudioChannels = 2
	BytesPerFrame = 2 * AudioChannels
)

var magic = [4]byte{'S', 'T', 'R', 0}

// ErrNotStream indicates that a file is not a stream file.
var ErrNotStream = errors.New("not a stream file")

// A Rate is a frame rate in frames per second, as a fraction.
type Rate struct {
	Num, Den uint32
}

// ParseRate parses a frame rate written as "N" or "N/D".
func ParseRate(s string) (Rate, error) {
	num, den := s, "1"
	if i := strings.IndexByte(s, '/'); i != -1 {
		num, den = s[:i], s[i+1:]
	}
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid frame rate %q: %w", s, err)
	}
	d, err := strconv.ParseUint(den, 10, 32)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid frame rate %q: %w", s, err)
	}
	if n == 0 || d == 0 {
		return Rate{}, fmt.Errorf("invalid frame rate %q: must be positive", s)
	}
	return Rate{uint32(n), uint32(d)}, nil
}

func (r Rate) String() string {
	if r.Den == 1 {
		return strconv.FormatUint(uint64(r.Num), 10)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// SampleEnd returns the index of the first audio sample after the given
// video frame. Frame i contains samples SampleEnd(i-1) up to SampleEnd(i).
func (r Rate) SampleEnd(frame int) uint64 {
	n := uint64(frame+1) * AudioRate * uint64(r.Den)
	return (n + uint64(r.Num) - 1) / uint64(r.Num)
}

// A Header is the stream file header.
type Header struct {
	Width, Height int
	FrameCount    int
	Rate          Rate
	MaxVideoAU    int // largest video segment, in bytes
	MaxAudioBytes int // largest audio segment, in bytes
}

func (h *Header) encode(d []byte) error {
	if h.Width > math.MaxUint16 || h.Height > math.MaxUint16 {
		return fmt.Errorf("image size too large: %dx%d", h.Width, h.Height)
	}
	copy(d, magic[:])
	binary.BigEndian.PutUint16(d[4:], HeaderSize)
	binary.BigEndian.PutUint16(d[6:], uint16(h.Width))
	binary.BigEndian.PutUint16(d[8:], uint16(h.Height))
	binary.BigEndian.PutUint16(d[10:], 0)
	binary.BigEndian.PutUint32(d[12:], uint32(h.FrameCount))
	binary.BigEndian.PutUint32(d[16:], h.Rate.Num)
	binary.BigEndian.PutUint32(d[20:], h.Rate.Den)
	binary.BigEndian.PutUint32(d[24:], uint32(h.MaxVideoAU))
	binary.BigEndian.PutUint32(d[28:], uint32(h.MaxAudioBytes))
	return nil
}

func (h *Header) decode(d []byte) error {
	if len(d) < HeaderSize || [4]byte{d[0], d[1], d[2], d[3]} != magic {
		return ErrNotStream
	}
	if n := binary.BigEndian.Uint16(d[4:]); n != HeaderSize {
		return fmt.Errorf("invalid header size: %d, expected %d", n, HeaderSize)
	}
	*h = Header{
		Width:         int(binary.BigEndian.Uint16(d[6:])),
		Height:        int(binary.BigEndian.Uint16(d[8:])),
		FrameCount:    int(binary.BigEndian.Uint32(d[12:])),
		Rate:          Rate{binary.BigEndian.Uint32(d[16:]), binary.BigEndian.Uint32(d[20:])},
		MaxVideoAU:    int(binary.BigEndian.Uint32(d[24:])),
		MaxAudioBytes: int(binary.BigEndian.Uint32(d[28:])),
	}
	if h.Rate.Num == 0 || h.Rate.Den == 0 {
		return fmt.Errorf("invalid frame rate: %d/%d", h.Rate.Num, h.Rate.Den)
	}
	return nil
}

// A FramePrefix is the start of each frame record, giving the size of the
// video and audio segments which follow.
type FramePrefix struct {
	VideoLen, VideoPad int
	AudioLen, AudioPad int
}

func newFramePrefix(video, audio int) FramePrefix {
	return FramePrefix{
		VideoLen: video,
		VideoPad: pad(video),
		AudioLen: audio,
		AudioPad: pad(audio),
	}
}

func pad(n int) int {
	return -n & (segmentAlign - 1)
}

// Size returns the size of the frame record, including the prefix.
func (p *FramePrefix) Size() int64 {
	return FramePrefixSize + int64(p.VideoLen) + int64(p.VideoPad) +
		int64(p.AudioLen) + int64(p.AudioPad)
}

func (p *FramePrefix) encode(d []byte) {
	binary.BigEndian.PutUint32(d[0:], uint32(p.VideoLen))
	binary.BigEndian.PutUint32(d[4:], uint32(p.VideoPad))
	binary.BigEndian.PutUint32(d[8:], uint32(p.AudioLen))
	binary.BigEndian.PutUint32(d[12:], uint32(p.AudioPad))
}

func (p *FramePrefix) decode(d []byte) {
	p.VideoLen = int(binary.BigEndian.Uint32(d[0:]))
	p.VideoPad = int(binary.BigEndian.Uint32(d[4:]))
	p.AudioLen = int(binary.BigEndian.Uint32(d[8:]))
	p.AudioPad = int(binary.BigEndian.Uint32(d[12:]))
}

// An IndexEntry is the location of a frame record in the file.
type IndexEntry struct {
	Offset uint32
	Size   uint32
}
