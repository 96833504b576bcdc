// Package h264 rewrites H.264 Annex B elementary streams. It parses and
// re-emits sequence parameter sets with fixed HRD parameters and inserts
// picture timing SEI messages before each slice.
package h264

import "bytes"

// NAL unit types.
const (
	NALSlice     = 1
	NALSliceIDR  = 5
	NALSEI       = 6
	NALSPS       = 7
	NALPPS       = 8
	NALDelimiter = 9
	nalTypeMask  = 0x1f
	seiUserData  = 5
	seiPicTiming = 1
)

// StartCode is the start code written before each NAL unit.
var StartCode = []byte{0, 0, 0, 1}

// DelimiterPrefix is the start of every access unit: a start code followed by
// an access unit delimiter header.
var DelimiterPrefix = []byte{0, 0, 0, 1, NALDelimiter}

var startCode3 = []byte{0, 0, 1}

// NALType returns the type of a NAL unit, given its contents without the
// start code.
func NALType(nal []byte) int {
	if len(nal) == 0 {
		return 0
	}
	return int(nal[0] & nalTypeMask)
}

// SplitNAL splits Annex B data into NAL units, without start codes. Zero
// bytes trailing a NAL unit belong to the byte stream and are removed. Data
// before the first start code is discarded.
func SplitNAL(data []byte) [][]byte {
	var nals [][]byte
	i := bytes.Index(data, startCode3)
	if i == -1 {
		return nil
	}
	data = data[i+3:]
	for len(data) != 0 {
		var nal []byte
		i := bytes.Index(data, startCode3)
		if i == -1 {
			nal, data = data, nil
		} else {
			nal, data = data[:i], data[i+3:]
		}
		nal = bytes.TrimRight(nal, "\x00")
		if len(nal) != 0 {
			nals = append(nals, nal)
		}
	}
	return nals
}

// StripEmulation removes emulation prevention bytes, converting NAL unit
// payload data to RBSP data. The 03 in every 00 00 03 sequence is removed.
func StripEmulation(data []byte) []byte {
	out := make([]byte, 0, len(data))
	var zeros int
	for _, b := range data {
		if zeros >= 2 && b == 3 {
			zeros = 0
			continue
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

// InsertEmulation inserts emulation prevention bytes, converting RBSP data to
// NAL unit payload data. A 03 is inserted wherever 00 00 would be followed by
// a byte less than 04.
func InsertEmulation(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/16)
	var zeros int
	for _, b := range data {
		if zeros >= 2 && b < 4 {
			out = append(out, 3)
			zeros = 0
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

// seiPayloadType returns the payload type of the first message in an SEI
// NAL unit, or -1 if the message is truncated.
func seiPayloadType(nal []byte) int {
	rbsp := StripEmulation(nal[1:])
	var t int
	for _, b := range rbsp {
		t += int(b)
		if b != 0xff {
			return t
		}
	}
	return -1
}
