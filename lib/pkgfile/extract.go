package pkgfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Match reports whether a pathname matches a pattern. In the pattern, "?"
// matches any character except "/", "*" matches any sequence of characters
// except "/", and "**" matches any sequence of characters. ASCII letters match
// regardless of case.
func Match(pattern, name string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '?':
			if name == "" || name[0] == '/' {
				return false
			}
			_, n := utf8.DecodeRuneInString(name)
			pattern, name = pattern[1:], name[n:]
		case '*':
			if strings.HasPrefix(pattern, "**") {
				rest := strings.TrimLeft(pattern, "*")
				for i := 0; i <= len(name); i++ {
					if Match(rest, name[i:]) {
						return true
					}
				}
				return false
			}
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if Match(rest, name[i:]) {
					return true
				}
				if i < len(name) && name[i] == '/' {
					return false
				}
			}
			return false
		default:
			if name == "" || lowerByte(name[0]) != lowerByte(pattern[0]) {
				return false
			}
			pattern, name = pattern[1:], name[1:]
		}
	}
	return name == ""
}

func lowerByte(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// Sanitize removes leading slashes and ".." components from a pathname so
// it stays inside the output directory. Returns true if ".." components or
// leading slashes were removed.
func Sanitize(name string) (string, bool) {
	parts := strings.Split(name, "/")
	out := parts[:0]
	var changed bool
	for i, p := range parts {
		switch {
		case p == "..":
			changed = true
		case p == "" && i == 0 && len(parts) > 1:
			changed = true
		case p == "" || p == ".":
		default:
			out = append(out, p)
		}
	}
	return strings.Join(out, "/"), changed
}

// An Extractor writes files from a package to a directory.
type Extractor struct {
	Reader *Reader
	OutDir string

	warned bool
}

// Select returns the indexes of the files matching any of the patterns. With
// no patterns, all files are selected.
func (x *Extractor) Select(patterns []string) []int {
	var idx []int
	for i := 0; i < x.Reader.Len(); i++ {
		name := x.Reader.Name(i)
		ok := len(patterns) == 0
		for _, p := range patterns {
			if Match(p, name) {
				ok = true
				break
			}
		}
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// Extract writes a file to the output directory and returns the path written.
func (x *Extractor) Extract(i int) (string, error) {
	name := x.Reader.Name(i)
	clean, changed := Sanitize(name)
	if changed && !x.warned {
		logrus.Warnf("removed unsafe path components from %q", name)
		x.warned = true
	}
	if clean == "" {
		return "", fmt.Errorf("invalid pathname: %q", name)
	}
	outpath := filepath.Join(x.OutDir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(outpath), 0777); err != nil {
		return "", err
	}
	rd := x.Reader.Open(i)
	defer rd.Close()
	fp, err := os.Create(outpath)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(fp, rd)
	if err != nil {
		fp.Close()
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if err := fp.Close(); err != nil {
		return "", err
	}
	if e := x.Reader.Entry(i); n != int64(e.OriginalSize) {
		return "", fmt.Errorf("%s: got %d bytes, expected %d", name, n, e.OriginalSize)
	}
	return outpath, nil
}
