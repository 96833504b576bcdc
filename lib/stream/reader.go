package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// A Reader reads frames from a stream file.
type Reader struct {
	Header
	r     io.ReaderAt
	index []IndexEntry
}

// NewReader reads the header and index of a stream file.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	var hb [HeaderSize]byte
	if _, err := r.ReadAt(hb[:], 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrNotStream
		}
		return nil, err
	}
	sr := Reader{r: r}
	if err := sr.Header.decode(hb[:]); err != nil {
		return nil, err
	}
	isize := int64(sr.FrameCount) * IndexEntrySize
	if HeaderSize+isize > size {
		return nil, errors.New("frame index extends past end of file")
	}
	buf := make([]byte, isize)
	if _, err := r.ReadAt(buf, HeaderSize); err != nil {
		return nil, err
	}
	sr.index = make([]IndexEntry, sr.FrameCount)
	pos := HeaderSize + isize
	for i := range sr.index {
		e := IndexEntry{
			Offset: binary.BigEndian.Uint32(buf[i*IndexEntrySize:]),
			Size:   binary.BigEndian.Uint32(buf[i*IndexEntrySize+4:]),
		}
		if int64(e.Offset) < pos || int64(e.Offset)+int64(e.Size) > size {
			return nil, fmt.Errorf("frame %d: invalid location: offset %d, size %d", i, e.Offset, e.Size)
		}
		if e.Size < FramePrefixSize {
			return nil, fmt.Errorf("frame %d: record too small: %d bytes", i, e.Size)
		}
		pos = int64(e.Offset) + int64(e.Size)
		sr.index[i] = e
	}
	return &sr, nil
}

// Index returns the location of a frame record.
func (sr *Reader) Index(i int) IndexEntry {
	return sr.index[i]
}

// Frame returns the video and audio data for a frame.
func (sr *Reader) Frame(i int) (video, audio []byte, err error) {
	e := sr.index[i]
	data := make([]byte, e.Size)
	if _, err := sr.r.ReadAt(data, int64(e.Offset)); err != nil {
		return nil, nil, err
	}
	var p FramePrefix
	p.decode(data)
	if p.Size() > int64(e.Size) || p.VideoPad != pad(p.VideoLen) || p.AudioPad != pad(p.AudioLen) {
		return nil, nil, fmt.Errorf("frame %d: invalid segment sizes: video %d+%d, audio %d+%d, record size %d",
			i, p.VideoLen, p.VideoPad, p.AudioLen, p.AudioPad, e.Size)
	}
	pos := FramePrefixSize
	video = data[pos : pos+p.VideoLen]
	pos += p.VideoLen + p.VideoPad
	audio = data[pos : pos+p.AudioLen]
	return video, audio, nil
}

// WriteVideo writes the video of every frame, which is an H.264 elementary
// stream.
func (sr *Reader) WriteVideo(w io.Writer) error {
	return sr.each(w, func(video, _ []byte) []byte { return video })
}

// WriteAudio writes the audio of every frame, which is raw PCM.
func (sr *Reader) WriteAudio(w io.Writer) error {
	return sr.each(w, func(_, audio []byte) []byte { return audio })
}

func (sr *Reader) each(w io.Writer, fn func(video, audio []byte) []byte) error {
	for i := range sr.index {
		v, a, err := sr.Frame(i)
		if err != nil {
			return err
		}
		if _, err := w.Write(fn(v, a)); err != nil {
			return err
		}
	}
	return nil
}
