package blockcomp

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/depp/assetprep/lib/scratch"
	"github.com/depp/assetprep/lib/texture"
)

// Default names of the external compressors.
const (
	DefaultDXTComp    = "dxtcomp"
	DefaultPVRTexTool = "PVRTexToolCLI"
)

func runTool(name string, args ...string) error {
	logrus.Debugf("running %s %v", name, args)
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) != 0 {
			return fmt.Errorf("%s failed: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// DXTComp runs the dxtcomp program, passing raw RGBA pixels through a scratch
// directory.
type DXTComp struct {
	Program string
}

// Encode implements Encoder.
func (c *DXTComp) Encode(im *image.NRGBA, format texture.Format) (data []byte, err error) {
	var mode string
	switch format {
	case texture.DXT1:
		mode = "-1"
	case texture.DXT3:
		mode = "-3"
	case texture.DXT5:
		mode = "-5"
	default:
		return nil, fmt.Errorf("dxtcomp: unsupported format %s", format)
	}
	prog := c.Program
	if prog == "" {
		prog = DefaultDXTComp
	}
	dir, err := scratch.New("dxtcomp")
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := dir.Remove(); e != nil && err == nil {
			err = e
		}
	}()
	w, h := im.Rect.Dx(), im.Rect.Dy()
	in, err := dir.WriteFile("in.rgba", rawPixels(im))
	if err != nil {
		return nil, err
	}
	out := dir.File("out.dxt")
	if err := runTool(prog, mode, in, out, strconv.Itoa(w), strconv.Itoa(h)); err != nil {
		return nil, err
	}
	return os.ReadFile(out)
}

func rawPixels(im *image.NRGBA) []byte {
	w, h := im.Rect.Dx(), im.Rect.Dy()
	data := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		off := im.PixOffset(im.Rect.Min.X, im.Rect.Min.Y+y)
		copy(data[y*w*4:(y+1)*w*4], im.Pix[off:off+w*4])
	}
	return data
}

// PVRTexTool runs PVRTexToolCLI, passing a PNG file through a scratch
// directory and stripping the PVR header from the result.
type PVRTexTool struct {
	Program     string
	HighQuality bool
}

// Encode implements Encoder.
func (c *PVRTexTool) Encode(im *image.NRGBA, format texture.Format) (data []byte, err error) {
	var fname string
	switch format {
	case texture.PVRTC2:
		fname = "PVRTC1_2"
	case texture.PVRTC4:
		fname = "PVRTC1_4"
	default:
		return nil, fmt.Errorf("PVRTexTool: unsupported format %s", format)
	}
	quality := "pvrtcnormal"
	if c.HighQuality {
		quality = "pvrtcbest"
	}
	prog := c.Program
	if prog == "" {
		prog = DefaultPVRTexTool
	}
	dir, err := scratch.New("pvrtc")
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := dir.Remove(); e != nil && err == nil {
			err = e
		}
	}()
	var buf bytes.Buffer
	if err := png.Encode(&buf, im); err != nil {
		return nil, err
	}
	in, err := dir.WriteFile("in.png", buf.Bytes())
	if err != nil {
		return nil, err
	}
	out := dir.File("out.pvr")
	if err := runTool(prog, "-i", in, "-o", out, "-f", fname, "-q", quality); err != nil {
		return nil, err
	}
	fdata, err := os.ReadFile(out)
	if err != nil {
		return nil, err
	}
	hdr, pix, err := ParsePVR(fdata)
	if err != nil {
		return nil, fmt.Errorf("PVRTexTool output: %w", err)
	}
	if w, h := im.Rect.Dx(), im.Rect.Dy(); int(hdr.Width) != w || int(hdr.Height) != h {
		return nil, fmt.Errorf("PVRTexTool output has size %dx%d, expected %dx%d", hdr.Width, hdr.Height, w, h)
	}
	n := format.DataSize(im.Rect.Dx(), im.Rect.Dy())
	if len(pix) < n {
		return nil, fmt.Errorf("PVRTexTool output has %d bytes of data, expected %d", len(pix), n)
	}
	return pix[:n], nil
}
