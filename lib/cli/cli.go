// Package cli contains the scaffolding shared by the command-line tools: flag
// syntax, exit codes, logging setup, and path resolution.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// A UsageError indicates that the command was invoked incorrectly.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Usagef returns a UsageError with a formatted message.
func Usagef(format string, a ...interface{}) error {
	return &UsageError{fmt.Errorf(format, a...)}
}

// ExitCode returns the process exit code for the result of running a command.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *UsageError
	if errors.As(err, &e) {
		return ExitUsage
	}
	return ExitFailure
}

// Args wraps a cobra argument validator so that its errors are usage errors.
func Args(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &UsageError{err}
		}
		return nil
	}
}

// LongFlags rewrites single-dash long options ("-alignment=4") into the
// double-dash form understood by pflag ("--alignment=4"). Arguments after
// "--" and single-letter options such as "-h" are not modified.
func LongFlags(args []string) []string {
	out := make([]string, len(args))
	rewrite := true
	for i, arg := range args {
		if arg == "--" {
			rewrite = false
		}
		if rewrite && len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
			arg = "-" + arg
		}
		out[i] = arg
	}
	return out
}

// SetupLogging configures the standard logger for command-line use.
func SetupLogging() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logrus.SetLevel(logrus.InfoLevel)
}

// SetVerbose enables debug logging.
func SetVerbose(verbose bool) {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// Run executes the command with the given arguments and returns the exit code.
func Run(cmd *cobra.Command, args []string) int {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{err}
	})
	cmd.SetArgs(LongFlags(args))
	err := cmd.Execute()
	if err != nil {
		logrus.Error(err)
		var e *UsageError
		if errors.As(err, &e) {
			fmt.Fprintln(os.Stderr, cmd.UsageString())
		}
	}
	return ExitCode(err)
}

// Main runs the command with the process arguments and exits.
func Main(cmd *cobra.Command) {
	SetupLogging()
	os.Exit(Run(cmd, os.Args[1:]))
}

// Path returns the path to a file named on the command line. When run under
// Bazel, relative paths are resolved against the directory the user invoked
// Bazel from.
func Path(filename string) string {
	if filename == "" || filename == "-" || filepath.IsAbs(filename) {
		return filename
	}
	if wd := os.Getenv("BUILD_WORKING_DIRECTORY"); wd != "" {
		return filepath.Join(wd, filename)
	}
	return filename
}

// A FileError is an error associated with an input or output file.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%q: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// TrimExt removes the extension ext from name, ignoring case. Returns false if
// name does not have that extension.
func TrimExt(name, ext string) (string, bool) {
	if len(name) < len(ext) || !strings.EqualFold(name[len(name)-len(ext):], ext) {
		return name, false
	}
	return name[:len(name)-len(ext)], true
}
