package stream

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/depp/assetprep/lib/h264"
	"github.com/sirupsen/logrus"
)

// FindAccessUnits splits an H.264 elementary stream into access units. Each
// access unit starts with an access unit delimiter. Returns the access units
// and the number of bytes before the first one.
func FindAccessUnits(video []byte) (aus [][]byte, skipped int) {
	start := bytes.Index(video, h264.DelimiterPrefix)
	if start == -1 {
		return nil, len(video)
	}
	pos := start
	for {
		n := bytes.Index(video[pos+len(h264.DelimiterPrefix):], h264.DelimiterPrefix)
		if n == -1 {
			aus = append(aus, video[pos:])
			return aus, start
		}
		end := pos + len(h264.DelimiterPrefix) + n
		aus = append(aus, video[pos:end])
		pos = end
	}
}

// AudioSegment returns the audio for one video frame. Audio past the end of
// the input is silence.
func AudioSegment(audio []byte, rate Rate, frame int) []byte {
	var start uint64
	if frame > 0 {
		start = rate.SampleEnd(frame-1) * BytesPerFrame
	}
	end := rate.SampleEnd(frame) * BytesPerFrame
	seg := make([]byte, end-start)
	if start < uint64(len(audio)) {
		copy(seg, audio[start:])
	}
	return seg
}

type frame struct {
	prefix FramePrefix
	video  []byte
	audio  []byte
}

// Mux writes a stream file containing the given H.264 elementary stream and
// PCM audio. The video is rewritten, see h264.Rewriter. There is one frame
// for each access unit in the video.
func Mux(w io.Writer, video, audio []byte, rate Rate) error {
	if rate.Num == 0 || rate.Den == 0 {
		return fmt.Errorf("invalid frame rate: %v", rate)
	}
	aus, skipped := FindAccessUnits(video)
	if skipped != 0 {
		logrus.Warnf("skipping %d bytes before the first access unit", skipped)
	}
	if len(aus) > math.MaxInt32 {
		return fmt.Errorf("too many frames: %d", len(aus))
	}
	var rw h264.Rewriter
	frames := make([]frame, len(aus))
	h := Header{
		FrameCount: len(aus),
		Rate:       rate,
	}
	for i, au := range aus {
		v, err := rw.Rewrite(au)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		a := AudioSegment(audio, rate, i)
		frames[i] = frame{
			prefix: newFramePrefix(len(v), len(a)),
			video:  v,
			audio:  a,
		}
		if len(v) > h.MaxVideoAU {
			h.MaxVideoAU = len(v)
		}
		if len(a) > h.MaxAudioBytes {
			h.MaxAudioBytes = len(a)
		}
	}
	h.Width, h.Height = rw.Size()
	if n := len(audio) / BytesPerFrame; len(aus) > 0 && uint64(n) > rate.SampleEnd(len(aus)-1) {
		logrus.Warnf("audio is longer than video, dropping %d samples",
			uint64(n)-rate.SampleEnd(len(aus)-1))
	}

	hdr := make([]byte, HeaderSize+IndexEntrySize*len(frames))
	if err := h.encode(hdr); err != nil {
		return err
	}
	offset := int64(len(hdr))
	for i, f := range frames {
		size := f.prefix.Size()
		if offset+size > math.MaxUint32 {
			return fmt.Errorf("frame %d: stream file too large", i)
		}
		e := hdr[HeaderSize+IndexEntrySize*i:]
		binary.BigEndian.PutUint32(e[0:], uint32(offset))
		binary.BigEndian.PutUint32(e[4:], uint32(size))
		offset += size
	}
	bw := bufio.NewWriter(w)
	bw.Write(hdr)
	var zero [segmentAlign]byte
	for _, f := range frames {
		var p [FramePrefixSize]byte
		f.prefix.encode(p[:])
		bw.Write(p[:])
		bw.Write(f.video)
		bw.Write(zero[:f.prefix.VideoPad])
		bw.Write(f.audio)
		bw.Write(zero[:f.prefix.AudioPad])
	}
	return bw.Flush()
}
