// Package scratch manages temporary directories used to pass data to external
// programs.
package scratch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Root returns the directory in which scratch directories are created. TMPDIR
// is ignored if it contains an apostrophe, since paths are passed to external
// tools.
func Root() string {
	dir := os.Getenv("TMPDIR")
	if dir == "" || strings.ContainsRune(dir, '\'') {
		return "/tmp"
	}
	return dir
}

// A Dir is a scratch directory. Files created through the directory are
// removed, in reverse order of creation, by Remove.
type Dir struct {
	path  string
	files []string
}

// New creates a new scratch directory with a unique name.
func New(prefix string) (*Dir, error) {
	path := filepath.Join(Root(), prefix+"-"+uuid.NewString())
	if err := os.Mkdir(path, 0700); err != nil {
		return nil, err
	}
	return &Dir{path: path}, nil
}

// Path returns the path to the directory.
func (d *Dir) Path() string {
	return d.path
}

// File returns the path to a file in the directory and registers it for
// removal.
func (d *Dir) File(name string) string {
	p := filepath.Join(d.path, name)
	d.files = append(d.files, p)
	return p
}

// WriteFile writes a file in the directory.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	p := d.File(name)
	return p, os.WriteFile(p, data, 0600)
}

// Remove removes the registered files and the directory. Files which do not
// exist are ignored. The first error is returned, but removal continues.
func (d *Dir) Remove() error {
	var first error
	for i := len(d.files) - 1; i >= 0; i-- {
		if err := os.Remove(d.files[i]); err != nil && !os.IsNotExist(err) && first == nil {
			first = err
		}
	}
	d.files = nil
	if err := os.Remove(d.path); err != nil && !os.IsNotExist(err) && first == nil {
		first = err
	}
	return first
}
