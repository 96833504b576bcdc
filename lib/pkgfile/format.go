// Package pkgfile reads and writes resource packages. A package is an index
// of files sorted by pathname hash, a table of pathnames, and the file data,
// which may be compressed with DEFLATE.
package pkgfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Package layout. All integers are big-endian.
const (
	HeaderSize = 16
	EntrySize  = 20

	// FlagDeflated marks an entry whose data is compressed with DEFLATE.
	FlagDeflated = 1 << 24

	nameOffsetMask = FlagDeflated - 1
)

var magic = [4]byte{'P', 'K', 'G', 0}

// ErrNotPackage indicates that a file is not a package.
var ErrNotPackage = errors.New("not a package file")

// A Header is the header at the start of a package.
type Header struct {
	EntryCount    uint32
	NameTableSize uint32
}

func (h *Header) encode(b []byte) {
	copy(b, magic[:])
	binary.BigEndian.PutUint16(b[4:], HeaderSize)
	binary.BigEndian.PutUint16(b[6:], EntrySize)
	binary.BigEndian.PutUint32(b[8:], h.EntryCount)
	binary.BigEndian.PutUint32(b[12:], h.NameTableSize)
}

func (h *Header) decode(b []byte) error {
	if len(b) < HeaderSize || !bytes.Equal(b[:4], magic[:]) {
		return ErrNotPackage
	}
	if n := binary.BigEndian.Uint16(b[4:]); n != HeaderSize {
		return fmt.Errorf("invalid header size: %d, expected %d", n, HeaderSize)
	}
	if n := binary.BigEndian.Uint16(b[6:]); n != EntrySize {
		return fmt.Errorf("invalid entry size: %d, expected %d", n, EntrySize)
	}
	h.EntryCount = binary.BigEndian.Uint32(b[8:])
	h.NameTableSize = binary.BigEndian.Uint32(b[12:])
	return nil
}

// An Entry is one file in the package index.
type Entry struct {
	Hash         uint32
	NameOffset   uint32 // Offset of the pathname in the name table.
	Flags        uint32
	Offset       uint32 // Offset of the data from the start of the package.
	StoredSize   uint32 // Size of the data in the package.
	OriginalSize uint32 // Size of the data after decompression.
}

// Deflated returns true if the entry data is compressed.
func (e *Entry) Deflated() bool {
	return e.Flags&FlagDeflated != 0
}

func (e *Entry) encode(b []byte) {
	binary.BigEndian.PutUint32(b[0:], e.Hash)
	binary.BigEndian.PutUint32(b[4:], e.NameOffset&nameOffsetMask|e.Flags&^nameOffsetMask)
	binary.BigEndian.PutUint32(b[8:], e.Offset)
	binary.BigEndian.PutUint32(b[12:], e.StoredSize)
	binary.BigEndian.PutUint32(b[16:], e.OriginalSize)
}

func (e *Entry) decode(b []byte) {
	nf := binary.BigEndian.Uint32(b[4:])
	*e = Entry{
		Hash:         binary.BigEndian.Uint32(b[0:]),
		NameOffset:   nf & nameOffsetMask,
		Flags:        nf &^ nameOffsetMask,
		Offset:       binary.BigEndian.Uint32(b[8:]),
		StoredSize:   binary.BigEndian.Uint32(b[12:]),
		OriginalSize: binary.BigEndian.Uint32(b[16:]),
	}
}

// Hash returns the hash of a pathname, as stored in the package index. ASCII
// letters are hashed as lower case.
func Hash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		c := name[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		h = (h>>5 | h<<27) ^ uint32(c)
	}
	return h
}

// lower returns a string with ASCII letters converted to lower case.
func lower(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if c := b[j]; 'A' <= c && c <= 'Z' {
					b[j] = c + ('a' - 'A')
				}
			}
			return string(b)
		}
	}
	return s
}

// compareNames orders entries by hash, then by lower-case name.
func compareNames(h1 uint32, n1 string, h2 uint32, n2 string) int {
	switch {
	case h1 < h2:
		return -1
	case h1 > h2:
		return 1
	}
	l1, l2 := lower(n1), lower(n2)
	switch {
	case l1 < l2:
		return -1
	case l1 > l2:
		return 1
	}
	return 0
}
