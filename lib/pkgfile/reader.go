package pkgfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/flate"
)

// A Reader reads files from a package.
type Reader struct {
	r       io.ReaderAt
	entries []Entry
	names   []string
}

// NewReader reads the index of a package.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	var hb [HeaderSize]byte
	if _, err := r.ReadAt(hb[:], 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrNotPackage
		}
		return nil, err
	}
	var h Header
	if err := h.decode(hb[:]); err != nil {
		return nil, err
	}
	isize := int64(h.EntryCount) * EntrySize
	if HeaderSize+isize+int64(h.NameTableSize) > size {
		return nil, errors.New("package index extends past end of file")
	}
	buf := make([]byte, isize+int64(h.NameTableSize))
	if _, err := r.ReadAt(buf, HeaderSize); err != nil {
		return nil, err
	}
	names := buf[isize:]
	pr := Reader{
		r:       r,
		entries: make([]Entry, h.EntryCount),
		names:   make([]string, h.EntryCount),
	}
	for i := range pr.entries {
		e := &pr.entries[i]
		e.decode(buf[i*EntrySize:])
		if int64(e.NameOffset) >= int64(len(names)) {
			return nil, fmt.Errorf("entry %d: name offset out of range", i)
		}
		n := bytes.IndexByte(names[e.NameOffset:], 0)
		if n == -1 {
			return nil, fmt.Errorf("entry %d: name is not terminated", i)
		}
		pr.names[i] = string(names[e.NameOffset : int(e.NameOffset)+n])
		if int64(e.Offset)+int64(e.StoredSize) > size {
			return nil, fmt.Errorf("entry %d (%q): data extends past end of file", i, pr.names[i])
		}
		if !e.Deflated() && e.StoredSize != e.OriginalSize {
			return nil, fmt.Errorf("entry %d (%q): stored size %d does not match size %d",
				i, pr.names[i], e.StoredSize, e.OriginalSize)
		}
		if i > 0 && compareNames(pr.entries[i-1].Hash, pr.names[i-1], e.Hash, pr.names[i]) >= 0 {
			return nil, fmt.Errorf("entry %d (%q): index is not sorted", i, pr.names[i])
		}
	}
	return &pr, nil
}

// Len returns the number of files in the package.
func (r *Reader) Len() int {
	return len(r.entries)
}

// Entry returns the index entry for a file.
func (r *Reader) Entry(i int) Entry {
	return r.entries[i]
}

// Name returns the pathname of a file.
func (r *Reader) Name(i int) string {
	return r.names[i]
}

// Lookup returns the index of the file with the given pathname, ignoring the
// case of ASCII letters.
func (r *Reader) Lookup(name string) (int, bool) {
	h := Hash(name)
	i := sort.Search(len(r.entries), func(i int) bool {
		return compareNames(r.entries[i].Hash, r.names[i], h, name) >= 0
	})
	if i < len(r.entries) && compareNames(r.entries[i].Hash, r.names[i], h, name) == 0 {
		return i, true
	}
	return 0, false
}

// Open returns a reader for the contents of a file.
func (r *Reader) Open(i int) io.ReadCloser {
	e := &r.entries[i]
	sr := io.NewSectionReader(r.r, int64(e.Offset), int64(e.StoredSize))
	if e.Deflated() {
		return flate.NewReader(sr)
	}
	return io.NopCloser(sr)
}

// ReadFile returns the contents of a file.
func (r *Reader) ReadFile(i int) ([]byte, error) {
	e := &r.entries[i]
	rd := r.Open(i)
	defer rd.Close()
	data := make([]byte, e.OriginalSize)
	if _, err := io.ReadFull(rd, data); err != nil {
		return nil, fmt.Errorf("%s: %w", r.names[i], err)
	}
	var b [1]byte
	if n, _ := rd.Read(b[:]); n != 0 {
		return nil, fmt.Errorf("%s: data is longer than %d bytes", r.names[i], e.OriginalSize)
	}
	return data, nil
}

// A PackageFile is an open package file.
type PackageFile struct {
	*Reader
	fp *os.File
}

// Open opens a package file.
func Open(filename string) (*PackageFile, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	st, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, err
	}
	r, err := NewReader(fp, st.Size())
	if err != nil {
		fp.Close()
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &PackageFile{Reader: r, fp: fp}, nil
}

// Close closes the package file.
func (f *PackageFile) Close() error {
	return f.fp.Close()
}
