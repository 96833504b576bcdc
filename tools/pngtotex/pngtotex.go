// Pngtotex converts PNG images to texture files.
package main

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/depp/assetprep/lib/blockcomp"
	"github.com/depp/assetprep/lib/cli"
	"github.com/depp/assetprep/lib/texconv"
	"github.com/depp/assetprep/lib/texture"
)

type options struct {
	format       texture.Format
	formatSet    bool
	palette8     bool
	alpha        bool
	alphaClamp   string
	bgra         bool
	rgb565       bool
	rgba5551     bool
	rgba4444     bool
	crop         string
	dxt1         bool
	dxt3         bool
	dxt5         bool
	pvrtc2       bool
	pvrtc4       bool
	hq           bool
	makeSquare   bool
	squareCenter bool
	mipmaps      int
	regions      []string
	transparent  int
	opaqueBitmap bool
	outdir       string
	psp          bool
	pvrtextool   string
	dxtcomp      string
	resize       string
	scale        float64
	verbose      bool
}

var opts options

var cmdRoot = cobra.Command{
	Use:   "pngtotex [options] file.png...",
	Short: "Pngtotex converts PNG images to textures.",
	Args:  cli.Args(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli.SetVerbose(opts.verbose)
		opts.formatSet = cmd.Flags().Changed("format")
		copts, err := opts.convertOptions()
		if err != nil {
			return err
		}
		for _, arg := range args {
			if err := convertFile(cli.Path(arg), copts); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	addFlags(cmdRoot.Flags())
}

func addFlags(f *pflag.FlagSet) {
	f.Var(&opts.format, "format", "output format `name`, such as RGBA4444 or PSP_RGB565_SWIZZLED")
	f.BoolVarP(&opts.palette8, "palette8", "8", false, "output 8-bit paletted texture")
	f.BoolVar(&opts.alpha, "alpha", false, "output 8-bit alpha-only texture")
	f.StringVar(&opts.alphaClamp, "a", "", "clamp alpha values at or below `LO,HI` to 0 and 255")
	f.BoolVar(&opts.bgra, "bgra", false, "output BGRA pixel order")
	f.BoolVar(&opts.rgb565, "rgb565", false, "output 16-bit RGB 5:6:5")
	f.BoolVar(&opts.rgba5551, "rgba5551", false, "output 16-bit RGBA 5:5:5:1")
	f.BoolVar(&opts.rgba4444, "rgba4444", false, "output 16-bit RGBA 4:4:4:4")
	f.StringVar(&opts.crop, "crop", "", "crop to region `X,Y+WxH`")
	f.BoolVar(&opts.dxt1, "dxt1", false, "output DXT1 compressed texture")
	f.BoolVar(&opts.dxt3, "dxt3", false, "output DXT3 compressed texture")
	f.BoolVar(&opts.dxt5, "dxt5", false, "output DXT5 compressed texture")
	f.BoolVar(&opts.pvrtc2, "pvrtc2", false, "output 2-bit PVRTC compressed texture")
	f.BoolVar(&opts.pvrtc4, "pvrtc4", false, "output 4-bit PVRTC compressed texture")
	f.BoolVar(&opts.hq, "hq", false, "use the best PVRTC compression quality")
	f.BoolVar(&opts.makeSquare, "make-square", false, "expand compressed textures to a square power of two")
	f.BoolVar(&opts.squareCenter, "make-square-center", false, "like -make-square, but center the image")
	f.IntVar(&opts.mipmaps, "mipmaps", 0, "generate `N` mipmap levels, or all levels if N is omitted")
	f.Lookup("mipmaps").NoOptDefVal = "-1"
	f.StringSliceVar(&opts.regions, "mipmap-regions", nil, "resample regions `x:y:w:h,...` separately in mipmaps")
	f.IntVar(&opts.transparent, "mipmaps-transparent-at", 0, "make mipmap level `N` and smaller transparent")
	f.BoolVar(&opts.opaqueBitmap, "opaque-bitmap", false, "include a bitmap of opaque pixels")
	f.StringVar(&opts.outdir, "outdir", "", "write output files to `dir`")
	f.BoolVar(&opts.psp, "psp", false, "align and swizzle texture for the PSP")
	f.StringVar(&opts.pvrtextool, "pvrtextool", blockcomp.DefaultPVRTexTool, "PVRTC compressor `program`")
	f.StringVar(&opts.dxtcomp, "dxtcomp", blockcomp.DefaultDXTComp, "DXT compressor `program`")
	f.StringVar(&opts.resize, "resize", "", "shrink image to `WxH`")
	f.Float64Var(&opts.scale, "scale", 1, "texture scale factor")
	f.BoolVar(&opts.verbose, "verbose", false, "show debug messages")
}

func (o *options) selectFormat() (texture.Format, error) {
	flags := []struct {
		set    bool
		name   string
		format texture.Format
	}{
		{o.palette8, "8", texture.Palette8},
		{o.alpha, "alpha", texture.A8},
		{o.bgra, "bgra", texture.BGRA8888},
		{o.rgb565, "rgb565", texture.RGB565},
		{o.rgba5551, "rgba5551", texture.RGBA5551},
		{o.rgba4444, "rgba4444", texture.RGBA4444},
		{o.dxt1, "dxt1", texture.DXT1},
		{o.dxt3, "dxt3", texture.DXT3},
		{o.dxt5, "dxt5", texture.DXT5},
		{o.pvrtc2, "pvrtc2", texture.PVRTC2},
		{o.pvrtc4, "pvrtc4", texture.PVRTC4},
	}
	format := texture.RGBA8888
	var name string
	if o.formatSet {
		format = o.format
		name = "format"
	}
	for _, f := range flags {
		if !f.set {
			continue
		}
		if name != "" {
			return 0, cli.Usagef("conflicting formats: -%s and -%s", name, f.name)
		}
		name = f.name
		format = f.format
	}
	return format, nil
}

func (o *options) convertOptions() (*texconv.Options, error) {
	format, err := o.selectFormat()
	if err != nil {
		return nil, err
	}
	c := texconv.Options{
		Format:        format.Base(),
		MakeSquare:    o.makeSquare || o.squareCenter,
		Center:        o.squareCenter,
		Mipmaps:       o.mipmaps,
		TransparentAt: o.transparent,
		OpaqueBitmap:  o.opaqueBitmap,
		PSP:           o.psp || format.IsPSP(),
		Swizzle:       o.psp || format.IsSwizzled(),
		Scale:         o.scale,
		DXT:           &blockcomp.DXTComp{Program: o.dxtcomp},
		PVRTC:         &blockcomp.PVRTexTool{Program: o.pvrtextool, HighQuality: o.hq},
	}
	if o.alphaClamp != "" {
		i := strings.IndexByte(o.alphaClamp, ',')
		if i == -1 {
			return nil, cli.Usagef("invalid -a: %q, must be LO,HI", o.alphaClamp)
		}
		lo, err1 := strconv.Atoi(o.alphaClamp[:i])
		hi, err2 := strconv.Atoi(o.alphaClamp[i+1:])
		if err1 != nil || err2 != nil {
			return nil, cli.Usagef("invalid -a: %q, must be LO,HI", o.alphaClamp)
		}
		c.AlphaClamp = &[2]int{lo, hi}
	}
	if o.crop != "" {
		r, err := texture.ParseRect(o.crop)
		if err != nil {
			return nil, &cli.UsageError{Err: fmt.Errorf("invalid -crop: %w", err)}
		}
		c.Crop = r
	}
	if o.resize != "" {
		w, h, err := texture.ParseSize(o.resize)
		if err != nil {
			return nil, &cli.UsageError{Err: fmt.Errorf("invalid -resize: %w", err)}
		}
		c.Resize = image.Pt(w, h)
	}
	for _, s := range o.regions {
		r, err := texture.ParseRegion(s)
		if err != nil {
			return nil, &cli.UsageError{Err: fmt.Errorf("invalid -mipmap-regions: %w", err)}
		}
		c.MipmapRegions = append(c.MipmapRegions, r)
	}
	if o.mipmaps < -1 {
		return nil, cli.Usagef("invalid -mipmaps: %d", o.mipmaps)
	}
	if o.scale <= 0 {
		return nil, cli.Usagef("invalid -scale: %v", o.scale)
	}
	return &c, nil
}

// outputPath returns the texture file path for an input image.
func outputPath(input, outdir string) string {
	base, _ := cli.TrimExt(input, ".png")
	out := base + ".tex"
	if outdir != "" {
		out = filepath.Join(cli.Path(outdir), filepath.Base(out))
	}
	return out
}

func convertFile(filename string, copts *texconv.Options) error {
	im, err := texture.ReadPNG(filename)
	if err != nil {
		return err
	}
	t, err := texconv.Convert(im, copts)
	if err != nil {
		return &cli.FileError{Name: filename, Err: err}
	}
	out := outputPath(filename, opts.outdir)
	logrus.Debugf("writing %s: %s %dx%d, %d levels", out, t.Format, t.Width(), t.Height(), t.Mipmaps())
	return t.WriteFile(out)
}

func main() {
	cli.Main(&cmdRoot)
}
