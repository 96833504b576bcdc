// Extract-pkg lists and extracts the files in a package.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/depp/assetprep/lib/cli"
	"github.com/depp/assetprep/lib/pkgfile"
)

var (
	flagList    bool
	flagOutDir  string
	flagVerbose bool
)

var cmdRoot = cobra.Command{
	Use:   "extract-pkg [options] INPUT [pattern...]",
	Short: "Extract-pkg extracts files from a package.",
	Long: "Extract-pkg extracts files from a package. Patterns select files by name, " +
		"where ? matches any character except /, * matches any sequence without /, " +
		"and ** matches any sequence. With no patterns, all files are selected.",
	Args: cli.Args(cobra.MinimumNArgs(1)),
	RunE: func(_ *cobra.Command, args []string) error {
		cli.SetVerbose(flagVerbose)
		return extract(cli.Path(args[0]), args[1:])
	},
}

func init() {
	f := cmdRoot.Flags()
	f.BoolVar(&flagList, "list", false, "list files instead of extracting them")
	f.StringVar(&flagOutDir, "outdir", ".", "extract files to `dir`")
	f.BoolVar(&flagVerbose, "verbose", false, "show file sizes and extracted paths")
}

func extract(input string, patterns []string) error {
	pf, err := pkgfile.Open(input)
	if err != nil {
		return err
	}
	defer pf.Close()
	x := pkgfile.Extractor{
		Reader: pf.Reader,
		OutDir: cli.Path(flagOutDir),
	}
	sel := x.Select(patterns)
	if len(sel) == 0 && len(patterns) != 0 {
		logrus.Warn("no files match")
	}
	for _, i := range sel {
		if flagList {
			name := pf.Name(i)
			if flagVerbose {
				e := pf.Entry(i)
				var mark string
				if e.Deflated() {
					mark = " deflate"
				}
				fmt.Fprintf(os.Stdout, "%10d %10d%s %s\n", e.OriginalSize, e.StoredSize, mark, name)
			} else {
				fmt.Fprintln(os.Stdout, name)
			}
			continue
		}
		out, err := x.Extract(i)
		if err != nil {
			return &cli.FileError{Name: input, Err: err}
		}
		logrus.Debugf("extracted %s", out)
	}
	return nil
}

func main() {
	cli.Main(&cmdRoot)
}
