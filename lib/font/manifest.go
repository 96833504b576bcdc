package font

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/depp/assetprep/lib/textfile"
)

// ReadManifest reads a glyph manifest file.
func ReadManifest(filename string) (*Font, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ParseManifest(fp, filename)
}

type parser struct {
	font     Font
	chars    map[int32]int
	height   bool
	baseline bool
}

// ParseManifest parses a glyph manifest. The manifest has one directive per
// line: "height N", "baseline N", or "char C x y w h ascent prekern postkern".
// The character C is a quoted character or U+HEX. Text after "#" is ignored,
// unless the "#" is a quoted character.
func ParseManifest(r io.Reader, name string) (*Font, error) {
	p := parser{chars: make(map[int32]int)}
	if err := textfile.Scan(r, name, p.line); err != nil {
		return nil, err
	}
	if !p.height {
		return nil, fmt.Errorf("%s: missing height", name)
	}
	if !p.baseline {
		return nil, fmt.Errorf("%s: missing baseline", name)
	}
	if p.font.Baseline > p.font.Height {
		return nil, fmt.Errorf("%s: baseline %d is greater than height %d", name, p.font.Baseline, p.font.Height)
	}
	return &p.font, nil
}

func stripComment(line []byte) []byte {
	if i := bytes.IndexByte(line, '#'); i != -1 {
		line = line[:i]
	}
	return line
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func (p *parser) line(line []byte) error {
	line = bytes.TrimLeft(line, " \t\r\v\f")
	i := 0
	for i < len(line) && !isSpace(line[i]) {
		i++
	}
	cmd := string(stripComment(line[:i]))
	rest := line[i:]
	switch cmd {
	case "":
		return nil
	case "height", "baseline":
		args := bytes.Fields(stripComment(rest))
		if len(args) != 1 {
			return fmt.Errorf("%s has %d arguments, expected 1", cmd, len(args))
		}
		v, err := strconv.ParseUint(string(args[0]), 10, 8)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", cmd, err)
		}
		if cmd == "height" {
			if v == 0 {
				return errors.New("height must be positive")
			}
			p.font.Height = int(v)
			p.height = true
		} else {
			p.font.Baseline = int(v)
			p.baseline = true
		}
		return nil
	case "char":
		c, err := parseCharLine(rest)
		if err != nil {
			return err
		}
		if i, ok := p.chars[c.Codepoint]; ok {
			p.font.Chars[i] = c
		} else {
			p.chars[c.Codepoint] = len(p.font.Chars)
			p.font.Chars = append(p.font.Chars, c)
		}
		return nil
	default:
		return fmt.Errorf("unknown directive: %q", cmd)
	}
}

// parseChar parses the character at the start of a char directive and
// returns it with the rest of the line.
func parseChar(b []byte) (int32, []byte, error) {
	b = bytes.TrimLeft(b, " \t\r\v\f")
	if len(b) == 0 {
		return 0, nil, errors.New("missing character")
	}
	switch q := b[0]; q {
	case '\'', '"':
		c, n := DecodeUTF8(b[1:])
		switch {
		case c < 0:
			return 0, nil, fmt.Errorf("invalid UTF-8 in character: %q", b)
		case n == 0:
			return 0, nil, errors.New("empty character")
		}
		b = b[1+n:]
		if len(b) == 0 || b[0] != q {
			return 0, nil, fmt.Errorf("expected closing %c after character", q)
		}
		return c, b[1:], nil
	}
	i := 0
	for i < len(b) && !isSpace(b[i]) && b[i] != '#' {
		i++
	}
	tok := string(b[:i])
	if len(tok) < 3 || (tok[:2] != "U+" && tok[:2] != "u+") {
		return 0, nil, fmt.Errorf("invalid character %q, must be quoted or U+HEX", tok)
	}
	v, err := strconv.ParseUint(tok[2:], 16, 31)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid character %q: %w", tok, err)
	}
	return int32(v), b[i:], nil
}

func parseCharLine(b []byte) (Char, error) {
	var c Char
	cp, rest, err := parseChar(b)
	if err != nil {
		return c, err
	}
	c.Codepoint = cp
	if len(rest) != 0 && !isSpace(rest[0]) && rest[0] != '#' {
		return c, fmt.Errorf("unexpected text after character: %q", rest)
	}
	args := bytes.Fields(stripComment(rest))
	if len(args) != 7 {
		return c, fmt.Errorf("char has %d metrics, expected 7", len(args))
	}
	fields := []struct {
		name     string
		min, max int64
	}{
		{"x", 0, math.MaxUint16},
		{"y", 0, math.MaxUint16},
		{"w", 0, math.MaxUint8},
		{"h", 0, math.MaxUint8},
		{"ascent", math.MinInt8, math.MaxInt8},
	}
	var v [5]int64
	for i, f := range fields {
		n, err := strconv.ParseInt(string(args[i]), 10, 32)
		if err != nil {
			return c, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		if n < f.min || n > f.max {
			return c, fmt.Errorf("%s is out of range: %d, must be in %d..%d", f.name, n, f.min, f.max)
		}
		v[i] = n
	}
	c.X = uint16(v[0])
	c.Y = uint16(v[1])
	c.W = uint8(v[2])
	c.H = uint8(v[3])
	c.Ascent = int8(v[4])
	if c.PreKern, err = parseKern("prekern", args[5]); err != nil {
		return c, err
	}
	if c.PostKern, err = parseKern("postkern", args[6]); err != nil {
		return c, err
	}
	return c, nil
}

// parseKern parses a kerning value in pixels, stored as 8.8 fixed point.
func parseKern(name string, b []byte) (int16, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	v := math.Round(f * 256)
	if math.IsNaN(v) || v < math.MinInt16 || v > math.MaxInt16 {
		return 0, fmt.Errorf("%s is out of range: %s, must be in [-128, 128)", name, b)
	}
	return int16(v), nil
}
