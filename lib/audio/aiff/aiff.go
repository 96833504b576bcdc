// Package aiff reads and writes the PCM subset of AIFF and AIFF-C audio files.
package aiff

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// StandardVersion is the recognized AIFF-C version number.
const StandardVersion = 0xA2805140

// ErrNotAIFF indicates that the file is not an AIFF file.
var ErrNotAIFF = errors.New("not an AIFF file")

var errUnexpectedEOF = errors.New("unexpected end of file in AIFF data")

// An AIFF is a decoded AIFF or AIFF-C file. Only the common and sound data
// chunks are kept.
type AIFF struct {
	Common Common
	Data   *SoundData
}

// IsCompressed returns true if the file must be written as AIFF-C.
func (a *AIFF) IsCompressed() bool {
	return a.Common.IsCompressed()
}

// Parse parses an AIFF or AIFF-C file. Chunks other than COMM, FVER, and SSND
// are skipped.
func Parse(data []byte) (*AIFF, error) {
	if len(data) < 12 || string(data[0:4]) != "FORM" {
		return nil, ErrNotAIFF
	}
	var aifc bool
	switch string(data[8:12]) {
	case "AIFF":
	case "AIFC":
		aifc = true
	default:
		return nil, ErrNotAIFF
	}
	if n := binary.BigEndian.Uint32(data[4:8]); int64(n) > int64(len(data)-8) {
		return nil, errors.New("AIFF file shorter than header indicates")
	}
	var a AIFF
	var hasCommon, hasVersion bool
	for rest := data[12:]; len(rest) > 0; {
		if len(rest) < 8 {
			return nil, errUnexpectedEOF
		}
		id := string(rest[0:4])
		n := binary.BigEndian.Uint32(rest[4:8])
		rest = rest[8:]
		if int64(n) > int64(len(rest)) {
			return nil, errUnexpectedEOF
		}
		body := rest[:n]
		rest = rest[n:]
		if n&1 != 0 && len(rest) > 0 {
			rest = rest[1:]
		}
		var err error
		switch id {
		case "COMM":
			if hasCommon {
				return nil, errors.New("multiple COMM chunks")
			}
			hasCommon = true
			err = a.Common.decode(body, aifc)
		case "FVER":
			if hasVersion {
				return nil, errors.New("multiple FVER chunks")
			}
			hasVersion = true
			err = checkVersion(body, aifc)
		case "SSND":
			if a.Data != nil {
				return nil, errors.New("multiple SSND chunks")
			}
			a.Data = new(SoundData)
			err = a.Data.decode(body)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid %q chunk: %w", id, err)
		}
	}
	if !hasCommon {
		return nil, errors.New("missing COMM chunk")
	}
	if a.Data == nil {
		return nil, errors.New("missing SSND chunk")
	}
	return &a, nil
}

func checkVersion(data []byte, aifc bool) error {
	if !aifc {
		return errors.New("FVER in AIFF file")
	}
	if len(data) != 4 {
		return fmt.Errorf("size is %d, expected 4", len(data))
	}
	return nil
}

// Write returns the contents of an AIFF file, or AIFF-C if aifc is true.
func (a *AIFF) Write(aifc bool) ([]byte, error) {
	if a.Data == nil {
		return nil, errors.New("missing sound data")
	}
	comm, err := a.Common.encode(aifc)
	if err != nil {
		return nil, err
	}
	type chunk struct {
		id   string
		data []byte
	}
	var chunks []chunk
	if aifc {
		var v [4]byte
		binary.BigEndian.PutUint32(v[:], StandardVersion)
		chunks = append(chunks, chunk{"FVER", v[:]})
	}
	chunks = append(chunks, chunk{"COMM", comm}, chunk{"SSND", a.Data.encode()})
	form := "AIFF"
	if aifc {
		form = "AIFC"
	}
	out := append(make([]byte, 0, 12), "FORM\x00\x00\x00\x00"+form...)
	for _, ck := range chunks {
		out = append(out, ck.id...)
		out = binary.BigEndian.AppendUint32(out, uint32(len(ck.data)))
		out = append(out, ck.data...)
		if len(ck.data)&1 != 0 {
			out = append(out, 0)
		}
	}
	binary.BigEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out, nil
}
