package pkgfile

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	cases := []struct {
		name string
		hash uint32
	}{
		{"", 0},
		{"a", 0x61},
		{"ab", 0x08000061},
		{"AB", 0x08000061},
	}
	for _, c := range cases {
		if h := Hash(c.name); h != c.hash {
			t.Errorf("Hash(%q) = %#x, expect %#x", c.name, h, c.hash)
		}
	}
}

func TestParseControl(t *testing.T) {
	const input = "# comment\n" +
		"\n" +
		"plain.txt\n" +
		"  stored.bin = real/file.bin  \n" +
		"deflate:data.bin\n" +
		"\"deflate:quoted.bin\"\n" +
		"\"a = b\" = deflate:\"c\\\"d\"\n" +
		"img/% = assets/images/%.png\n"
	rules, err := ParseControl(strings.NewReader(input), "control")
	if err != nil {
		t.Fatal(err)
	}
	want := []Rule{
		{Stored: "plain.txt", Real: "plain.txt"},
		{Stored: "stored.bin", Real: "real/file.bin"},
		{Stored: "data.bin", Real: "data.bin", Deflate: true},
		{Stored: "quoted.bin", Real: "quoted.bin", Deflate: true},
		{Stored: "a = b", Real: `c"d`, Deflate: true},
		{Stored: "img/%", Real: "assets/images/%.png"},
	}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("got:\n%+v\nexpect:\n%+v", rules, want)
	}
}

func TestParseControlErrors(t *testing.T) {
	for _, line := range []string{
		`"unterminated`,
		`a%b% = c%`,
		`a% = b`,
		`a = b%`,
		`/abs`,
		`a = `,
		`bad"quote`,
	} {
		_, err := ParseControl(strings.NewReader("ok\n"+line+"\n"), "control")
		if err == nil {
			t.Errorf("%q: no error", line)
		} else if !strings.HasPrefix(err.Error(), "control:2: ") {
			t.Errorf("%q: error %q has no line number", line, err)
		}
	}
}

func writeFiles(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0777); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, data, 0666); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string][]byte{
		"assets/a.png":       nil,
		"assets/sub/b.png":   nil,
		"assets/c.txt":       nil,
		"assets/images.png":  nil,
		"other/readme":       nil,
		"assetsx/ignore.png": nil,
	})
	rules := []Rule{
		{Stored: "tex/%.tex", Real: "assets/%.png", Deflate: true},
		{Stored: "README", Real: "other/readme"},
	}
	files, err := Expand(rules, dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []File{
		{Name: "tex/a.tex", Path: filepath.Join(dir, "assets/a.png"), Deflate: true},
		{Name: "tex/images.tex", Path: filepath.Join(dir, "assets/images.png"), Deflate: true},
		{Name: "tex/sub/b.tex", Path: filepath.Join(dir, "assets/sub/b.png"), Deflate: true},
		{Name: "README", Path: filepath.Join(dir, "other/readme")},
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("got:\n%+v\nexpect:\n%+v", files, want)
	}
	if _, err := Expand([]Rule{{Stored: "%", Real: "none/%"}}, dir); err == nil {
		t.Error("expand of missing directory succeeded")
	}
}

func buildPackage(t *testing.T, files []File, opts Options) (*PackageFile, []byte) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.pkg")
	if err := BuildFile(out, files, opts); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	pf, err := Open(out)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pf.Close() })
	return pf, data
}

func TestDeflate(t *testing.T) {
	const size = 1 << 20
	r := rand.New(rand.NewSource(0x1234))
	random := make([]byte, size)
	r.Read(random)
	cases := []struct {
		name     string
		data     []byte
		minRatio float64
		deflated bool
	}{
		{"Compressible", bytes.Repeat([]byte{'A'}, size), 0, true},
		{"Incompressible", random, 0.99, false},
		{"PoorRatio", append(bytes.Repeat([]byte{'A'}, size/2), random[:size/2]...), 0.99, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, map[string][]byte{
				"data.bin": c.data,
				"a.txt":    []byte("hello"),
			})
			rules, err := ParseControl(strings.NewReader("\"deflate:data.bin\"\ndeflate:a.txt\n"), "control")
			if err != nil {
				t.Fatal(err)
			}
			files, err := Expand(rules, dir)
			if err != nil {
				t.Fatal(err)
			}
			opts := DefaultOptions()
			opts.CompressMinRatio = c.minRatio
			pf, _ := buildPackage(t, files, opts)
			i, ok := pf.Lookup("DATA.BIN")
			if !ok {
				t.Fatal("data.bin not found")
			}
			e := pf.Entry(i)
			if e.Deflated() != c.deflated {
				t.Errorf("deflated = %t, expect %t", e.Deflated(), c.deflated)
			}
			if c.deflated {
				if e.StoredSize >= e.OriginalSize {
					t.Errorf("stored size %d >= original size %d", e.StoredSize, e.OriginalSize)
				}
			} else if e.StoredSize != size || e.OriginalSize != size {
				t.Errorf("stored size %d, original size %d, expect %d", e.StoredSize, e.OriginalSize, size)
			}
			data, err := pf.ReadFile(i)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(data, c.data) {
				t.Error("data does not match")
			}
			// Smaller than the minimum compression size.
			i, ok = pf.Lookup("a.txt")
			if !ok {
				t.Fatal("a.txt not found")
			}
			if e := pf.Entry(i); e.Deflated() {
				t.Error("small file deflated")
			}
		})
	}
}

func TestLayout(t *testing.T) {
	r := rand.New(rand.NewSource(0x5678))
	dir := t.TempDir()
	contents := make(map[string][]byte)
	var files []File
	for i := 0; i < 50; i++ {
		name := "file" + strings.Repeat("x", r.Intn(5)) + string(rune('a'+i%26)) + "/" + string(rune('A'+i/26))
		if _, ok := contents[strings.ToLower(name)]; ok {
			continue
		}
		data := make([]byte, r.Intn(200))
		r.Read(data)
		contents[strings.ToLower(name)] = data
		p := filepath.Join(dir, "f", string(rune('0'+len(files)/10)), string(rune('0'+len(files)%10)))
		writeFiles(t, dir, map[string][]byte{
			"f/" + string(rune('0'+len(files)/10)) + "/" + string(rune('0'+len(files)%10)): data,
		})
		files = append(files, File{Name: name, Path: p, Deflate: r.Intn(2) == 0})
	}
	opts := DefaultOptions()
	opts.Alignment = 64
	pf, _ := buildPackage(t, files, opts)
	if pf.Len() != len(files) {
		t.Fatalf("package has %d files, expect %d", pf.Len(), len(files))
	}
	for i := 0; i < pf.Len(); i++ {
		e := pf.Entry(i)
		if e.Offset%64 != 0 {
			t.Errorf("%s: offset %d not aligned", pf.Name(i), e.Offset)
		}
		if e.Hash != Hash(pf.Name(i)) {
			t.Errorf("%s: wrong hash", pf.Name(i))
		}
		if i > 0 {
			p := pf.Entry(i - 1)
			if p.Hash > e.Hash || p.Hash == e.Hash && strings.ToLower(pf.Name(i-1)) >= strings.ToLower(pf.Name(i)) {
				t.Errorf("entries %d and %d out of order", i-1, i)
			}
		}
		data, err := pf.ReadFile(i)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(data, contents[strings.ToLower(pf.Name(i))]) {
			t.Errorf("%s: data does not match", pf.Name(i))
		}
		if j, ok := pf.Lookup(pf.Name(i)); !ok || j != i {
			t.Errorf("Lookup(%q) = %d, %t", pf.Name(i), j, ok)
		}
	}
	if _, ok := pf.Lookup("missing"); ok {
		t.Error("found missing file")
	}
}

func TestEmpty(t *testing.T) {
	pf, data := buildPackage(t, nil, DefaultOptions())
	want := []byte{'P', 'K', 'G', 0, 0, 16, 0, 20, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(data, want) {
		t.Errorf("got %x, expect %x", data, want)
	}
	if pf.Len() != 0 {
		t.Errorf("package has %d files", pf.Len())
	}
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string][]byte{"a": []byte("a")})
	p := filepath.Join(dir, "a")
	out := filepath.Join(dir, "out.pkg")
	if err := BuildFile(out, []File{{Name: "x", Path: p}, {Name: "X", Path: p}}, DefaultOptions()); err == nil {
		t.Error("duplicate names accepted")
	}
	opts := DefaultOptions()
	opts.Alignment = 3
	if err := BuildFile(out, []File{{Name: "x", Path: p}}, opts); err == nil {
		t.Error("alignment 3 accepted")
	}
	if _, err := NewReader(bytes.NewReader([]byte("hello")), 5); err != ErrNotPackage {
		t.Errorf("err = %v, expect ErrNotPackage", err)
	}
}

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, name string
		match         bool
	}{
		{"a.txt", "a.txt", true},
		{"a.txt", "A.TXT", true},
		{"a.txt", "b.txt", false},
		{"?.txt", "a.txt", true},
		{"?.txt", "/.txt", false},
		{"*.txt", "abc.txt", true},
		{"*.txt", "dir/abc.txt", false},
		{"dir/*", "dir/abc.txt", true},
		{"dir/*", "dir/sub/abc.txt", false},
		{"**.txt", "dir/sub/abc.txt", true},
		{"dir/**", "dir/sub/abc.txt", true},
		{"**/abc.txt", "dir/sub/abc.txt", true},
		{"*", "", true},
		{"?", "", false},
	}
	for _, c := range cases {
		if m := Match(c.pattern, c.name); m != c.match {
			t.Errorf("Match(%q, %q) = %t, expect %t", c.pattern, c.name, m, c.match)
		}
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, out string
		changed bool
	}{
		{"a/b", "a/b", false},
		{"../a", "a", true},
		{"a/../b", "a/b", true},
		{"a/../../b/..", "a/b", true},
		{"/etc/passwd", "etc/passwd", true},
		{"./a", "a", false},
	}
	for _, c := range cases {
		out, changed := Sanitize(c.in)
		if out != c.out || changed != c.changed {
			t.Errorf("Sanitize(%q) = %q, %t, expect %q, %t", c.in, out, changed, c.out, c.changed)
		}
	}
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"src/a":  bytes.Repeat([]byte("abc"), 100),
		"src/b":  []byte("bbb"),
		"src/ev": []byte("evil"),
	}
	writeFiles(t, dir, files)
	pf, _ := buildPackage(t, []File{
		{Name: "dir/a.txt", Path: filepath.Join(dir, "src/a"), Deflate: true},
		{Name: "b.bin", Path: filepath.Join(dir, "src/b")},
		{Name: "../evil.txt", Path: filepath.Join(dir, "src/ev")},
	}, DefaultOptions())
	outdir := filepath.Join(dir, "out", "x")
	x := Extractor{Reader: pf.Reader, OutDir: outdir}
	sel := x.Select([]string{"**.txt"})
	if len(sel) != 2 {
		t.Fatalf("selected %d files, expect 2", len(sel))
	}
	for _, i := range x.Select(nil) {
		if _, err := x.Extract(i); err != nil {
			t.Fatal(err)
		}
	}
	check := func(name string, want []byte) {
		data, err := os.ReadFile(filepath.Join(outdir, name))
		if err != nil {
			t.Error(err)
			return
		}
		if !bytes.Equal(data, want) {
			t.Errorf("%s: data does not match", name)
		}
	}
	check("dir/a.txt", files["src/a"])
	check("b.bin", files["src/b"])
	check("evil.txt", files["src/ev"])
	if _, err := os.Stat(filepath.Join(dir, "out", "evil.txt")); err == nil {
		t.Error("file written outside output directory")
	}
}
