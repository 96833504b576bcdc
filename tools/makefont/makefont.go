// Makefont builds a font file from a glyph manifest and a texture.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/depp/assetprep/lib/cli"
	"github.com/depp/assetprep/lib/font"
)

var (
	flagTexture  string
	flagCharlist string
)

var cmdRoot = cobra.Command{
	Use:   "makefont -texture=FILE -charlist=FILE OUTFILE",
	Short: "Makefont builds a font from a glyph manifest and a texture.",
	Args:  cli.Args(cobra.ExactArgs(1)),
	RunE: func(_ *cobra.Command, args []string) error {
		if flagTexture == "" {
			return cli.Usagef("missing required flag -texture")
		}
		if flagCharlist == "" {
			return cli.Usagef("missing required flag -charlist")
		}
		return makeFont(cli.Path(args[0]), cli.Path(flagCharlist), cli.Path(flagTexture))
	},
}

func init() {
	f := cmdRoot.Flags()
	f.StringVar(&flagTexture, "texture", "", "read glyph texture from `file`")
	f.StringVar(&flagCharlist, "charlist", "", "read glyph manifest from `file`")
}

func makeFont(outfile, charlist, texfile string) error {
	fn, err := font.ReadManifest(charlist)
	if err != nil {
		return err
	}
	fn.Texture, err = os.ReadFile(texfile)
	if err != nil {
		return err
	}
	data, err := fn.Encode()
	if err != nil {
		return &cli.FileError{Name: charlist, Err: err}
	}
	logrus.Debugf("font: %d characters, height %d, texture %d bytes", len(fn.Chars), fn.Height, len(fn.Texture))
	return os.WriteFile(outfile, data, 0666)
}

func main() {
	cli.Main(&cmdRoot)
}
