package pkgfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/depp/assetprep/lib/textfile"
)

const deflatePrefix = "deflate:"

// A Rule is one line of a control file.
type Rule struct {
	Stored  string // Pathname in the package, may contain one %.
	Real    string // Pathname on disk, may contain one %.
	Deflate bool
}

// A File is an input file for a package.
type File struct {
	Name    string // Pathname in the package.
	Path    string // Pathname on disk.
	Deflate bool
}

// ReadControl reads a control file.
func ReadControl(filename string) ([]Rule, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ParseControl(fp, filename)
}

// ParseControl parses the contents of a control file. Each line is a path, or
// a stored path and real path separated by "=". Blank lines and lines starting
// with "#" are ignored.
func ParseControl(r io.Reader, name string) ([]Rule, error) {
	var rules []Rule
	err := textfile.Scan(r, name, func(line []byte) error {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			return nil
		}
		rule, err := parseRule(string(line))
		if err != nil {
			return err
		}
		rules = append(rules, rule)
		return nil
	})
	return rules, err
}

func parseRule(line string) (Rule, error) {
	var r Rule
	stored, realPath, hasReal, err := splitRule(line)
	if err != nil {
		return r, err
	}
	var deflate bool
	r.Stored, deflate, err = parsePath(stored)
	if err != nil {
		return r, err
	}
	r.Deflate = deflate
	if hasReal {
		r.Real, deflate, err = parsePath(realPath)
		if err != nil {
			return r, err
		}
		r.Deflate = r.Deflate || deflate
	} else {
		r.Real = r.Stored
	}
	ns := strings.Count(r.Stored, "%")
	nr := strings.Count(r.Real, "%")
	switch {
	case ns > 1:
		return r, fmt.Errorf("more than one wildcard in %q", r.Stored)
	case nr > 1:
		return r, fmt.Errorf("more than one wildcard in %q", r.Real)
	case ns != nr:
		return r, errors.New("stored path and real path must both have a wildcard, or neither")
	}
	if err := checkStoredPath(r.Stored); err != nil {
		return r, err
	}
	return r, nil
}

// splitRule splits a line at the first "=" outside quotes.
func splitRule(line string) (string, string, bool, error) {
	var quoted bool
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case c == '=' && !quoted:
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true, nil
		}
	}
	if quoted {
		return "", "", false, errors.New("unterminated quote")
	}
	return line, "", false, nil
}

// parsePath parses one side of a rule, which may have a "deflate:" prefix
// and may be quoted. The prefix may be inside or outside the quotes.
func parsePath(s string) (string, bool, error) {
	var deflate bool
	if strings.HasPrefix(s, deflatePrefix) {
		deflate = true
		s = s[len(deflatePrefix):]
	}
	if strings.HasPrefix(s, `"`) {
		u, err := unquote(s)
		if err != nil {
			return "", false, err
		}
		s = u
		if strings.HasPrefix(s, deflatePrefix) {
			deflate = true
			s = s[len(deflatePrefix):]
		}
	} else if strings.ContainsAny(s, "\"\\") {
		return "", false, fmt.Errorf("unexpected quote or backslash in %q", s)
	}
	if s == "" {
		return "", false, errors.New("empty path")
	}
	return s, deflate, nil
}

// unquote removes the surrounding quotes from a string and processes
// backslash escapes. A backslash escapes the following character.
func unquote(s string) (string, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			i++
			if i >= len(s) {
				return "", fmt.Errorf("unterminated escape in %s", s)
			}
			b.WriteByte(s[i])
		case '"':
			if i != len(s)-1 {
				return "", fmt.Errorf("unexpected text after quoted string: %s", s)
			}
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", fmt.Errorf("unterminated quoted string: %s", s)
}

func checkStoredPath(name string) error {
	switch {
	case strings.HasPrefix(name, "/"):
		return fmt.Errorf("stored path is absolute: %q", name)
	case strings.IndexByte(name, 0) != -1:
		return fmt.Errorf("stored path contains NUL byte: %q", name)
	}
	return nil
}

// Expand converts rules to the list of files they name. Real paths are
// relative to dir. A wildcard in the real path matches any string, including
// "/", and the matched string replaces the wildcard in the stored path.
func Expand(rules []Rule, dir string) ([]File, error) {
	var files []File
	for _, r := range rules {
		i := strings.IndexByte(r.Real, '%')
		if i == -1 {
			files = append(files, File{
				Name:    r.Stored,
				Path:    resolve(dir, r.Real),
				Deflate: r.Deflate,
			})
			continue
		}
		matches, err := glob(dir, r.Real[:i], r.Real[i+1:])
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", r.Real)
		}
		j := strings.IndexByte(r.Stored, '%')
		for _, m := range matches {
			middle := m[i : len(m)-(len(r.Real)-i-1)]
			files = append(files, File{
				Name:    r.Stored[:j] + middle + r.Stored[j+1:],
				Path:    resolve(dir, m),
				Deflate: r.Deflate,
			})
		}
	}
	return files, nil
}

// glob returns the slash-separated paths of the regular files under dir that
// start with prefix and end with suffix, sorted.
func glob(dir, prefix, suffix string) ([]string, error) {
	root := path.Dir(prefix + "x")
	var matches []string
	err := filepath.WalkDir(resolve(dir, root), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel := filepath.ToSlash(p)
		if !path.IsAbs(prefix) {
			r, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(r)
		}
		if len(rel) >= len(prefix)+len(suffix) && strings.HasPrefix(rel, prefix) && strings.HasSuffix(rel, suffix) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func resolve(dir, name string) string {
	p := filepath.FromSlash(name)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
