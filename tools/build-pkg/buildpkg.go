// Build-pkg builds a package file from a control file.
package main

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/depp/assetprep/lib/cli"
	"github.com/depp/assetprep/lib/pkgfile"
)

var opts = pkgfile.DefaultOptions()

var cmdRoot = cobra.Command{
	Use:   "build-pkg [options] CONTROL OUT",
	Short: "Build-pkg builds a package from the files listed in a control file.",
	Args:  cli.Args(cobra.ExactArgs(2)),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := checkOptions(&opts); err != nil {
			return err
		}
		return buildPackage(cli.Path(args[0]), cli.Path(args[1]))
	},
}

func init() {
	f := cmdRoot.Flags()
	f.IntVar(&opts.Alignment, "alignment", opts.Alignment, "align file data to `N` bytes")
	f.Int64Var(&opts.CompressMinSize, "compress-min-size", opts.CompressMinSize, "do not compress files smaller than `N` bytes")
	f.Float64Var(&opts.CompressMinRatio, "compress-min-ratio", opts.CompressMinRatio, "discard compressed data saving less than fraction `F`")
}

func checkOptions(o *pkgfile.Options) error {
	if o.Alignment <= 0 || o.Alignment&(o.Alignment-1) != 0 || o.Alignment > pkgfile.MaxAlignment {
		return cli.Usagef("invalid -alignment: %d, must be a power of two no larger than %d", o.Alignment, pkgfile.MaxAlignment)
	}
	if o.CompressMinSize < 0 {
		return cli.Usagef("invalid -compress-min-size: %d", o.CompressMinSize)
	}
	if !(o.CompressMinRatio >= 0 && o.CompressMinRatio <= 1) {
		return cli.Usagef("invalid -compress-min-ratio: %v, must be between 0 and 1", o.CompressMinRatio)
	}
	return nil
}

func buildPackage(control, out string) error {
	rules, err := pkgfile.ReadControl(control)
	if err != nil {
		return err
	}
	files, err := pkgfile.Expand(rules, filepath.Dir(control))
	if err != nil {
		return &cli.FileError{Name: control, Err: err}
	}
	logrus.Debugf("packing %d files", len(files))
	return pkgfile.BuildFile(out, files, opts)
}

func main() {
	cli.Main(&cmdRoot)
}
