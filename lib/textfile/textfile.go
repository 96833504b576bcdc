// Package textfile reads line-oriented text input files.
package textfile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxLineLength is the length of the longest accepted line, in bytes.
const MaxLineLength = 16 << 20

// NewReader returns a reader which strips a leading byte order mark. Input
// with a UTF-16 byte order mark is converted to UTF-8.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}

// Scan calls fn for each line in the input. Line numbers start at 1. Errors
// returned by fn are prefixed with the name and line number.
func Scan(r io.Reader, name string, fn func(line []byte) error) error {
	sc := bufio.NewScanner(NewReader(r))
	sc.Buffer(make([]byte, 0, 64<<10), MaxLineLength)
	for lineno := 1; sc.Scan(); lineno++ {
		if err := fn(sc.Bytes()); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineno, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// ReadLines calls fn for each line in the named file.
func ReadLines(filename string, fn func(line []byte) error) error {
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	return Scan(fp, filename, fn)
}
