package font

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeUTF8(t *testing.T) {
	cases := []struct {
		in string
		c  int32
		n  int
	}{
		{"", 0, 0},
		{"\x00a", 0, 0},
		{"a", 'a', 1},
		{"é!", 'é', 2},
		{"€", '€', 3},
		{"😀", 0x1f600, 4},
		{"\xf8\x88\x80\x80\x80", 0x200000, 5},
		{"\xfc\x84\x80\x80\x80\x80", 0x4000000, 6},
		{"\x80", -1, 1},
		{"\xc3", -1, 1},
		{"\xc3(", -1, 1},
		{"\xff", -1, 1},
	}
	for _, c := range cases {
		v, n := DecodeUTF8([]byte(c.in))
		if v != c.c || n != c.n {
			t.Errorf("DecodeUTF8(%q) = %#x, %d, expect %#x, %d", c.in, v, n, c.c, c.n)
		}
	}
}

const manifest = `# Test font
height 12
baseline 9  # below the cap height
char 'A' 0 0 8 10 9 0 1.5
char "#" 8 0 6 10 9 -0.25 0
char '#' 16 0 6 10 9 0.5 0 # duplicate replaces the previous record
char U+20AC 24 0 8 11 9 0 0
char ' ' 40 0 0 0 0 0 4
char 'B' 32 0 8 10 9 0 1
char 'A' 48 0 8 10 9 0 2
`

func TestParseManifest(t *testing.T) {
	f, err := ParseManifest(strings.NewReader(manifest), "manifest")
	if err != nil {
		t.Fatal(err)
	}
	if f.Height != 12 || f.Baseline != 9 {
		t.Errorf("height %d baseline %d", f.Height, f.Baseline)
	}
	want := []Char{
		{Codepoint: 'A', X: 48, W: 8, H: 10, Ascent: 9, PostKern: 512},
		{Codepoint: '#', X: 16, W: 6, H: 10, Ascent: 9, PreKern: 128},
		{Codepoint: 0x20ac, X: 24, W: 8, H: 11, Ascent: 9},
		{Codepoint: ' ', X: 40, PostKern: 1024},
		{Codepoint: 'B', X: 32, W: 8, H: 10, Ascent: 9, PostKern: 256},
	}
	if !reflect.DeepEqual(f.Chars, want) {
		t.Errorf("got:\n%+v\nexpect:\n%+v", f.Chars, want)
	}
}

func TestParseManifestErrors(t *testing.T) {
	cases := []struct {
		name, text string
	}{
		{"NoHeight", "baseline 1\n"},
		{"NoBaseline", "height 1\n"},
		{"BaselineHigh", "height 4\nbaseline 5\n"},
		{"HeightZero", "height 0\nbaseline 0\n"},
		{"HeightRange", "height 256\nbaseline 0\n"},
		{"Unknown", "height 4\nbaseline 2\nwidth 3\n"},
		{"XRange", "height 4\nbaseline 2\nchar 'a' 65536 0 1 1 0 0 0\n"},
		{"WRange", "height 4\nbaseline 2\nchar 'a' 0 0 256 1 0 0 0\n"},
		{"AscentRange", "height 4\nbaseline 2\nchar 'a' 0 0 1 1 128 0 0\n"},
		{"PreKernRange", "height 4\nbaseline 2\nchar 'a' 0 0 1 1 0 128 0\n"},
		{"PostKernRange", "height 4\nbaseline 2\nchar 'a' 0 0 1 1 0 0 -128.01\n"},
		{"FieldCount", "height 4\nbaseline 2\nchar 'a' 0 0 1 1 0 0\n"},
		{"Unclosed", "height 4\nbaseline 2\nchar 'ab' 0 0 1 1 0 0 0\n"},
		{"Empty", "height 4\nbaseline 2\nchar '' 0 0 1 1 0 0 0\n"},
		{"BadUTF8", "height 4\nbaseline 2\nchar '\x80' 0 0 1 1 0 0 0\n"},
		{"Bare", "height 4\nbaseline 2\nchar a 0 0 1 1 0 0 0\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseManifest(strings.NewReader(c.text), "manifest"); err == nil {
				t.Error("no error")
			}
		})
	}
	// The boundary values are accepted.
	ok := "height 255\nbaseline 255\nchar U+0 65535 65535 255 255 -128 -128 127.996\n"
	if _, err := ParseManifest(strings.NewReader(ok), "manifest"); err != nil {
		t.Error(err)
	}
}

func TestRoundTrip(t *testing.T) {
	f, err := ParseManifest(strings.NewReader(manifest), "manifest")
	if err != nil {
		t.Fatal(err)
	}
	f.Texture = []byte("texture data")
	data, err := f.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data[:4], []byte("FONT")) {
		t.Errorf("magic = %q", data[:4])
	}
	if off := headerSize + charInfoSize*len(f.Chars); len(data) != 128+len(f.Texture) || off > 128 {
		t.Errorf("file size = %d, expect texture at 128", len(data))
	}
	f2, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f, f2) {
		t.Errorf("got:\n%+v\nexpect:\n%+v", f2, f)
	}
	data2, err := f2.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, data2) {
		t.Error("re-encoded file differs")
	}
	if _, err := Decode([]byte("not a font file, at all.")); err != ErrNotFont {
		t.Errorf("err = %v, expect ErrNotFont", err)
	}
}
