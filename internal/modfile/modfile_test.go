package modfile

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/lexer"
	"viper/internal/parser"
	"viper/internal/sema"
	"viper/internal/source"
)

func mustLower(t *testing.T, src string) *ir.Module {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("geo.py", []byte(src)))
	bag := diag.NewBag(50)
	rep := diag.BagReporter{Bag: bag}
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(context.Background(), fs, lexer.New(f, lexer.Options{Reporter: rep}), b, parser.Options{Reporter: rep})
	if !res.OK() {
		t.Fatalf("parse: %v", bag.Items())
	}
	lowered := sema.Lower(context.Background(), res.File, b, sema.Options{Reporter: rep, Strict: true, SymtabOnly: true, Name: "geo", Path: "geo.py"})
	if !lowered.OK {
		t.Fatalf("lower: %v", bag.Items())
	}
	return lowered.Value
}

const geo = `class Point:
    x: f64
    y: f64

origin: i32 = 0

@ccallable
def scale(p: Point, k: f64) -> f64:
    return p.x * k

def area(w: i32, h: i32) -> i32:
    return w * h
`

func TestFromModule(t *testing.T) {
	f := FromModule(mustLower(t, geo), "0.1.0")
	if f.Module != "geo" || f.Schema != schema {
		t.Fatalf("header = %+v", f)
	}
	if len(f.Funcs) != 2 || f.Funcs[0].Name != "area" || f.Funcs[1].Name != "scale" {
		t.Fatalf("funcs = %+v", f.Funcs)
	}
	area := f.Funcs[0]
	if len(area.Params) != 2 || area.Params[0] != (Var{"w", "i32"}) || area.Result != "i32" {
		t.Errorf("area = %+v", area)
	}
	if !f.Funcs[1].CCallable {
		t.Errorf("scale must be marked ccallable")
	}
	if len(f.Classes) != 1 || len(f.Classes[0].Fields) != 2 || f.Classes[0].Fields[1].Name != "y" {
		t.Errorf("classes = %+v", f.Classes)
	}
	if len(f.Globals) != 1 || f.Globals[0] != (Var{"origin", "i32"}) {
		t.Errorf("globals = %+v", f.Globals)
	}
}

func TestSaveLoad(t *testing.T) {
	f := FromModule(mustLower(t, geo), "0.1.0")
	path := filepath.Join(t.TempDir(), "geo"+Ext)
	if err := Save(path, f); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Compiler != "0.1.0" || len(got.Funcs) != len(f.Funcs) || got.Funcs[1].Params[0].Type != "Point" {
		t.Fatalf("loaded = %+v", got)
	}
}

func TestDecodeRejectsOtherSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&File{Schema: schema + 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(&buf); !errors.Is(err, ErrSchema) {
		t.Fatalf("want ErrSchema, got %v", err)
	}
}

func TestCompatible(t *testing.T) {
	cases := []struct {
		written, current string
		ok               bool
	}{
		{"1.2.0", "1.4.1", true},
		{"1.4.1", "1.4.1", true},
		{"1.5.0", "1.4.1", false},
		{"2.0.0", "1.9.0", false},
		{"0.1.3", "0.1.0-dev", false},
		{"0.1.0-dev", "0.1.2", true},
		{"0.2.0", "0.1.9", false},
	}
	for _, tc := range cases {
		err := Compatible(tc.written, tc.current)
		if (err == nil) != tc.ok {
			t.Errorf("Compatible(%s, %s) = %v, want ok=%v", tc.written, tc.current, err, tc.ok)
		}
		if err != nil && !errors.Is(err, ErrIncompatible) {
			t.Errorf("error must wrap ErrIncompatible: %v", err)
		}
	}
	if err := Compatible("x", "1.0.0"); err == nil || errors.Is(err, ErrIncompatible) {
		t.Errorf("malformed version must be a parse error, got %v", err)
	}
}

func TestPathFor(t *testing.T) {
	if got := PathFor("dir/geo.py"); got != "dir/geo.vmod" {
		t.Errorf("PathFor = %s", got)
	}
}
