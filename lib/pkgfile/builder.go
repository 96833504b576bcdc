package pkgfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/klauspost/compress/flate"
	"github.com/sirupsen/logrus"

	"github.com/depp/assetprep/lib/binutil"
)

// Default builder options.
const (
	DefaultAlignment       = 4
	DefaultCompressMinSize = 16
	MaxAlignment           = 65536
)

// Options controls how a package is built.
type Options struct {
	// Alignment of file data, a power of two.
	Alignment int

	// Files smaller than CompressMinSize are not compressed.
	CompressMinSize int64

	// Compressed data is discarded unless it saves at least this fraction
	// of the original size.
	CompressMinRatio float64
}

// DefaultOptions returns the default builder options.
func DefaultOptions() Options {
	return Options{
		Alignment:       DefaultAlignment,
		CompressMinSize: DefaultCompressMinSize,
	}
}

func (o *Options) check() error {
	if !binutil.IsPow2(o.Alignment) || o.Alignment > MaxAlignment {
		return fmt.Errorf("invalid alignment %d, must be a power of two no larger than %d", o.Alignment, MaxAlignment)
	}
	if o.CompressMinSize < 0 {
		return fmt.Errorf("invalid minimum compression size: %d", o.CompressMinSize)
	}
	if math.IsNaN(o.CompressMinRatio) || o.CompressMinRatio < 0 || o.CompressMinRatio > 1 {
		return fmt.Errorf("invalid minimum compression ratio: %v", o.CompressMinRatio)
	}
	return nil
}

// An Output is a file that a package is written to. Writing must start at
// offset 0. *os.File implements Output.
type Output interface {
	io.Writer
	io.Seeker
	io.WriterAt
	Truncate(size int64) error
}

type buildEntry struct {
	Entry
	file *File
	name string
}

// countWriter counts the bytes written to an io.Writer.
type countWriter struct {
	w io.Writer
	n int64
}

func (w *countWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.n += int64(n)
	return n, err
}

// Build writes a package containing the given files.
func Build(w Output, files []File, opts Options) error {
	if err := opts.check(); err != nil {
		return err
	}
	entries := make([]buildEntry, len(files))
	for i := range files {
		f := &files[i]
		if err := checkStoredPath(f.Name); err != nil {
			return err
		}
		if f.Name == "" {
			return errors.New("empty stored path")
		}
		entries[i] = buildEntry{
			Entry: Entry{Hash: Hash(f.Name)},
			file:  f,
			name:  f.Name,
		}
		if f.Deflate {
			entries[i].Flags = FlagDeflated
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		return compareNames(a.Hash, a.name, b.Hash, b.name) < 0
	})
	for i := 1; i < len(entries); i++ {
		a, b := &entries[i-1], &entries[i]
		if compareNames(a.Hash, a.name, b.Hash, b.name) == 0 {
			return fmt.Errorf("duplicate path in package: %q and %q", a.name, b.name)
		}
	}

	// Header, index, and name table.
	var names []byte
	for i := range entries {
		e := &entries[i]
		if len(names) > nameOffsetMask {
			return errors.New("name table too large")
		}
		e.NameOffset = uint32(len(names))
		names = append(names, e.name...)
		names = append(names, 0)
	}
	indexEnd := HeaderSize + EntrySize*len(entries)
	head := make([]byte, indexEnd+len(names))
	hdr := Header{
		EntryCount:    uint32(len(entries)),
		NameTableSize: uint32(len(names)),
	}
	hdr.encode(head)
	for i := range entries {
		entries[i].encode(head[HeaderSize+i*EntrySize:])
	}
	copy(head[indexEnd:], names)
	if _, err := w.Write(head); err != nil {
		return err
	}

	// File data.
	pos := int64(len(head))
	for i := range entries {
		e := &entries[i]
		pad := binutil.Pad(int(pos%int64(opts.Alignment)), opts.Alignment)
		if pad > 0 {
			if _, err := w.Write(make([]byte, pad)); err != nil {
				return err
			}
			pos += int64(pad)
		}
		if pos > math.MaxUint32 {
			return errors.New("package too large")
		}
		e.Offset = uint32(pos)
		if err := writeFile(w, e, i, opts); err != nil {
			return fmt.Errorf("%s: %w", e.file.Path, err)
		}
		pos += int64(e.StoredSize)
	}

	// Final index.
	index := make([]byte, EntrySize*len(entries))
	for i := range entries {
		entries[i].encode(index[i*EntrySize:])
	}
	_, err := w.WriteAt(index, HeaderSize)
	return err
}

// writeFile writes the data for one entry at the current position and fills
// in the entry sizes and flags.
func writeFile(w Output, e *buildEntry, index int, opts Options) error {
	fp, err := os.Open(e.file.Path)
	if err != nil {
		return err
	}
	defer fp.Close()
	st, err := fp.Stat()
	if err != nil {
		return err
	}
	size := st.Size()
	if size > math.MaxUint32 {
		return fmt.Errorf("file too large: %d bytes", size)
	}
	e.OriginalSize = uint32(size)
	if e.Deflated() && size >= opts.CompressMinSize && size > 0 {
		ok, err := writeDeflated(w, fp, e, size, opts.CompressMinRatio)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		// Discard the compressed data and mark the entry as stored.
		if err := w.Truncate(int64(e.Offset)); err != nil {
			return err
		}
		if _, err := w.Seek(int64(e.Offset), io.SeekStart); err != nil {
			return err
		}
		if _, err := fp.Seek(0, io.SeekStart); err != nil {
			return err
		}
		e.Flags &^= FlagDeflated
		var b [EntrySize]byte
		e.encode(b[:])
		if _, err := w.WriteAt(b[:], int64(HeaderSize+index*EntrySize)); err != nil {
			return err
		}
	}
	e.Flags &^= FlagDeflated
	n, err := io.Copy(w, fp)
	if err != nil {
		return err
	}
	if n != size {
		return fmt.Errorf("file changed size while reading: %d bytes, expected %d", n, size)
	}
	e.StoredSize = uint32(size)
	logrus.Debugf("%s: stored, %d bytes", e.name, size)
	return nil
}

// writeDeflated writes compressed data for an entry. Returns false if the
// compression ratio is too poor, in which case the output must be discarded.
func writeDeflated(w io.Writer, r io.Reader, e *buildEntry, size int64, minRatio float64) (bool, error) {
	cw := countWriter{w: w}
	zw, err := flate.NewWriter(&cw, flate.BestCompression)
	if err != nil {
		return false, err
	}
	n, err := io.Copy(zw, r)
	if err != nil {
		return false, err
	}
	if err := zw.Close(); err != nil {
		return false, err
	}
	if n != size {
		return false, fmt.Errorf("file changed size while reading: %d bytes, expected %d", n, size)
	}
	ratio := 1 - float64(cw.n)/float64(size)
	if ratio < minRatio || cw.n >= size || cw.n > math.MaxUint32 {
		logrus.Debugf("%s: compressed to %d bytes, ratio %.3f too low", e.name, cw.n, ratio)
		return false, nil
	}
	e.StoredSize = uint32(cw.n)
	logrus.Debugf("%s: deflated, %d -> %d bytes", e.name, size, cw.n)
	return true, nil
}

// BuildFile writes a package to the named file.
func BuildFile(filename string, files []File, opts Options) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Build(fp, files, opts); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
