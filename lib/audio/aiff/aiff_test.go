package aiff

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"
)

func TestSampleRate(t *testing.T) {
	for _, rate := range []float64{8000, 22050, 44100, 48000, 96000} {
		c := Common{SampleRate: SampleRate(rate)}
		if r := c.Rate(); r != rate {
			t.Errorf("Rate(SampleRate(%v)) = %v", rate, r)
		}
	}
	// 44100 Hz, as it appears in files written by common tools.
	want := []byte{0x40, 0x0e, 0xac, 0x44, 0, 0, 0, 0, 0, 0}
	var d [10]byte
	SampleRate(44100).PutBytesBigEndian(d[:])
	if !bytes.Equal(d[:], want) {
		t.Errorf("SampleRate(44100) = %x, expect %x", d, want)
	}
}

func TestPCMRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	pcm := make([]byte, 4*1000)
	r.Read(pcm)
	a := NewPCM16(2, 44100, pcm)
	data, err := a.Write(false)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[8:12]) != "AIFF" {
		t.Errorf("form type = %q, expect AIFF", data[8:12])
	}
	a2, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if a2.Common.NumChannels != 2 || a2.Common.NumFrames != 1000 || a2.Common.Rate() != 44100 {
		t.Errorf("common = %+v", a2.Common)
	}
	// Samples are stored big-endian.
	if x, y := binary.BigEndian.Uint16(a2.Data.Data), binary.LittleEndian.Uint16(pcm); x != y {
		t.Errorf("first sample = %#04x, expect %#04x", x, y)
	}
	out, err := a2.PCM16LE()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, pcm) {
		t.Error("samples differ after round trip")
	}
}

func TestSowt(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	a := NewPCM16(2, 44100, pcm)
	copy(a.Common.Compression[:], PCMSwapType)
	a.Common.CompressionName = PCMSwapName
	a.Data.Data = append([]byte(nil), pcm...)
	if _, err := a.Write(false); err == nil {
		t.Error("sowt written as AIFF: no error")
	}
	data, err := a.Write(true)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[8:12]) != "AIFC" {
		t.Errorf("form type = %q, expect AIFC", data[8:12])
	}
	a2, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	out, err := a2.PCM16LE()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, pcm) {
		t.Errorf("samples = %x, expect %x", out, pcm)
	}
}

func TestParseErrors(t *testing.T) {
	good, err := NewPCM16(1, 44100, make([]byte, 10)).Write(false)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		data []byte
	}{
		{"Short", []byte("FORM")},
		{"Magic", []byte("RIFF\x00\x00\x00\x04WAVE")},
		{"Truncated", good[:len(good)-4]},
		{"VersionInAIFF", insertChunk(good, "FVER", []byte{0xa2, 0x80, 0x51, 0x40})},
		{"TwoCommon", insertChunk(good, "COMM", good[20:38])},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Parse(c.data); err == nil {
				t.Error("no error")
			}
		})
	}
	if _, err := Parse(good); err != nil {
		t.Error(err)
	}
}

// insertChunk returns a copy of an AIFF file with a chunk inserted after the
// COMM chunk.
func insertChunk(file []byte, id string, data []byte) []byte {
	const pos = 12 + 8 + 18
	var out []byte
	out = append(out, file[:pos]...)
	out = append(out, id...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	if len(data)&1 != 0 {
		out = append(out, 0)
	}
	out = append(out, file[pos:]...)
	binary.BigEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

func TestSkipChunks(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	good, err := NewPCM16(2, 44100, pcm).Write(false)
	if err != nil {
		t.Fatal(err)
	}
	data := insertChunk(good, "MARK", []byte{0, 1, 0})
	data = insertChunk(data, "ANNO", []byte("note"))
	a, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	out, err := a.PCM16LE()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, pcm) {
		t.Errorf("samples = %x, expect %x", out, pcm)
	}
	rewritten, err := a.Write(false)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rewritten, good) {
		t.Error("rewritten file contains skipped chunks")
	}
}
