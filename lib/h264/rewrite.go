package h264

import (
	"errors"
	"fmt"
)

// A Rewriter rewrites the access units of a stream. Every SPS gets HRD
// parameters, user data SEI messages are removed, and a picture timing SEI
// is inserted before each slice.
type Rewriter struct {
	sps            *SPS
	width, height  int
	framesSinceIDR int
}

// SPS returns the last SPS in the stream, after rewriting, or nil if no SPS
// has been seen.
func (rw *Rewriter) SPS() *SPS {
	return rw.sps
}

// Size returns the frame size from the SPS.
func (rw *Rewriter) Size() (width, height int) {
	return rw.width, rw.height
}

// Rewrite rewrites one access unit and returns the result.
func (rw *Rewriter) Rewrite(au []byte) ([]byte, error) {
	out := make([]byte, 0, len(au)+64)
	for _, nal := range SplitNAL(au) {
		switch NALType(nal) {
		case NALSEI:
			if seiPayloadType(nal) == seiUserData {
				continue
			}
		case NALSPS:
			data, s, err := RewriteSPS(nal)
			if err != nil {
				return nil, fmt.Errorf("SPS: %w", err)
			}
			width, height := s.Size()
			if rw.sps != nil && (width != rw.width || height != rw.height) {
				return nil, fmt.Errorf("frame size changed from %dx%d to %dx%d",
					rw.width, rw.height, width, height)
			}
			rw.sps = s
			rw.width = width
			rw.height = height
			nal = data
		case NALSlice, NALSliceIDR:
			if rw.sps == nil {
				return nil, errors.New("slice before first SPS")
			}
			if NALType(nal) == NALSliceIDR {
				rw.framesSinceIDR = 0
			}
			out = append(out, StartCode...)
			out = append(out, PicTimingSEI(rw.sps, rw.framesSinceIDR)...)
			rw.framesSinceIDR++
		}
		out = append(out, StartCode...)
		out = append(out, nal...)
	}
	return out, nil
}
