package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveUsesLineStarts(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.py", []byte("ab\ncd\n\nxyz"))
	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{1, LineCol{1, 2}},
		{2, LineCol{1, 3}}, // the newline itself
		{3, LineCol{2, 1}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{9, LineCol{4, 3}},
	}
	for _, tc := range cases {
		got, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if got != tc.want {
			t.Errorf("offset %d: got %+v, want %+v", tc.off, got, tc.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("a.py", []byte("first\nsecond\n")))
	if got := f.GetLine(1); got != "first" {
		t.Fatalf("line 1 = %q", got)
	}
	if got := f.GetLine(2); got != "second" {
		t.Fatalf("line 2 = %q", got)
	}
	if got := f.GetLine(3); got != "" {
		t.Fatalf("line 3 = %q", got)
	}
	if got := f.GetLine(9); got != "" {
		t.Fatalf("line 9 = %q", got)
	}
}

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.py")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
	if latest, ok := fs.GetLatest(path); !ok || latest != id {
		t.Fatalf("GetLatest = %d,%v", latest, ok)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 6}
	b := Span{File: 1, Start: 2, End: 5}
	if got := a.Cover(b); got.Start != 2 || got.End != 6 {
		t.Fatalf("cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("cross-file cover changed span: %v", got)
	}
}

func TestInternerStableIDs(t *testing.T) {
	in := NewInterner()
	a := in.Intern("x")
	b := in.Intern("y")
	if in.Intern("x") != a || a == b {
		t.Fatalf("ids not stable: %d %d", a, b)
	}
	if s := in.MustLookup(b); s != "y" {
		t.Fatalf("lookup = %q", s)
	}
	if _, ok := in.Lookup(99); ok {
		t.Fatalf("unknown id resolved")
	}
}
