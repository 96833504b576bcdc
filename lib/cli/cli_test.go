package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

func TestLongFlags(t *testing.T) {
	in := []string{"-alignment=4", "--verbose", "-", "-h", "-dv", "file", "--", "-xy", "-foo.png"}
	expect := []string{"--alignment=4", "--verbose", "-", "-h", "--dv", "file", "--", "-xy", "-foo.png"}
	if out := LongFlags(in); !reflect.DeepEqual(out, expect) {
		t.Errorf("LongFlags(%q) = %q, expect %q", in, out, expect)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, ExitSuccess},
		{errors.New("failed"), ExitFailure},
		{Usagef("bad flag %q", "x"), ExitUsage},
		{fmt.Errorf("wrapped: %w", Usagef("bad")), ExitUsage},
		{&FileError{"a.png", errors.New("bad")}, ExitFailure},
	}
	for _, c := range cases {
		if code := ExitCode(c.err); code != c.code {
			t.Errorf("ExitCode(%v) = %d, expect %d", c.err, code, c.code)
		}
	}
}

func TestRun(t *testing.T) {
	var value int
	var gotArgs []string
	cmd := &cobra.Command{
		Use:  "test",
		Args: Args(cobra.ExactArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			gotArgs = args
			if value < 0 {
				return errors.New("negative")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&value, "value", 0, "a value")
	cmd.SetOut(new(discard))
	cmd.SetErr(new(discard))
	if code := Run(cmd, []string{"-value=3", "in"}); code != ExitSuccess {
		t.Fatalf("exit code %d", code)
	}
	if value != 3 || !reflect.DeepEqual(gotArgs, []string{"in"}) {
		t.Errorf("value = %d, args = %q", value, gotArgs)
	}
	if code := Run(cmd, []string{"a", "b"}); code != ExitUsage {
		t.Errorf("wrong arg count: exit code %d, expect %d", code, ExitUsage)
	}
	if code := Run(cmd, []string{"-bogus", "a"}); code != ExitUsage {
		t.Errorf("unknown flag: exit code %d, expect %d", code, ExitUsage)
	}
	if code := Run(cmd, []string{"-value=-1", "a"}); code != ExitFailure {
		t.Errorf("failure: exit code %d, expect %d", code, ExitFailure)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestPath(t *testing.T) {
	t.Setenv("BUILD_WORKING_DIRECTORY", "/work")
	if p := Path("a/b.png"); p != filepath.Join("/work", "a/b.png") {
		t.Errorf("Path = %q", p)
	}
	if p := Path("/abs"); p != "/abs" {
		t.Errorf("Path = %q", p)
	}
	if p := Path(""); p != "" {
		t.Errorf("Path = %q", p)
	}
	os.Unsetenv("BUILD_WORKING_DIRECTORY")
	if p := Path("rel"); p != "rel" {
		t.Errorf("Path = %q", p)
	}
}

func TestTrimExt(t *testing.T) {
	if s, ok := TrimExt("dir/Image.PNG", ".png"); !ok || s != "dir/Image" {
		t.Errorf("TrimExt = %q, %t", s, ok)
	}
	if s, ok := TrimExt("image.jpg", ".png"); ok || s != "image.jpg" {
		t.Errorf("TrimExt = %q, %t", s, ok)
	}
}
