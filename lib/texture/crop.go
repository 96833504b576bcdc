package texture

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Crop reduces an RGBA8888 texture to the given rectangle. The pixels are
// moved to the front of the existing storage.
func (t *Texture) Crop(r image.Rectangle) error {
	if err := t.checkRGBA("crop"); err != nil {
		return err
	}
	if len(t.Levels) != 1 {
		return fmt.Errorf("crop: texture already has mipmaps")
	}
	l := &t.Levels[0]
	bounds := image.Rect(0, 0, l.Width, l.Height)
	if r.Empty() || !r.In(bounds) {
		return fmt.Errorf("crop: region %v is outside image bounds %v", r, bounds)
	}
	xsz := r.Dx()
	ysz := r.Dy()
	stride := xsz * 4
	for y := 0; y < ysz; y++ {
		src := (r.Min.Y+y)*l.Stride + r.Min.X*4
		copy(l.Data[y*stride:y*stride+stride], l.Data[src:src+stride])
	}
	*l = Level{
		Width:  xsz,
		Height: ysz,
		Stride: stride,
		Rows:   ysz,
		Data:   l.Data[:stride*ysz],
	}
	return nil
}

// ParseRect parses a rectangle in X,Y+WxH form.
func ParseRect(s string) (image.Rectangle, error) {
	i := strings.IndexByte(s, '+')
	if i == -1 {
		return image.Rectangle{}, fmt.Errorf("invalid rectangle %q, must be X,Y+WxH", s)
	}
	x, y, err := parsePair(s[:i], ',')
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("invalid rectangle %q: %w", s, err)
	}
	w, h, err := ParseSize(s[i+1:])
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("invalid rectangle %q: %w", s, err)
	}
	return image.Rect(x, y, x+w, y+h), nil
}

// ParseSize parses an image size in WxH form.
func ParseSize(s string) (int, int, error) {
	w, h, err := parsePair(s, 'x')
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q", s)
	}
	return w, h, nil
}

// ParseRegion parses a rectangle in x:y:w:h form.
func ParseRegion(s string) (image.Rectangle, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid region %q, must be x:y:w:h", s)
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 16)
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid region %q: %w", s, err)
		}
		v[i] = int(n)
	}
	if v[2] == 0 || v[3] == 0 {
		return image.Rectangle{}, fmt.Errorf("invalid region %q: empty", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

func parsePair(s string, sep byte) (int, int, error) {
	i := strings.IndexByte(s, sep)
	if i == -1 {
		return 0, 0, fmt.Errorf("missing %q in %q", sep, s)
	}
	a, err := strconv.ParseUint(s[:i], 10, 16)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseUint(s[i+1:], 10, 16)
	if err != nil {
		return 0, 0, err
	}
	return int(a), int(b), nil
}
