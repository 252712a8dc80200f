package backend

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/lexer"
	"viper/internal/parser"
	"viper/internal/passes"
	"viper/internal/sema"
	"viper/internal/source"
)

func TestSelectAliases(t *testing.T) {
	cases := map[string]string{
		"native": "llvm",
		"llvm":   "llvm",
		"c":      "c",
		"cpp":    "c",
		"source": "c",
		"x86":    "x86",
		"asm":    "x86",
	}
	for sel, want := range cases {
		b, err := Select(sel)
		if err != nil {
			t.Fatalf("Select(%q): %v", sel, err)
		}
		if b.Name() != want {
			t.Errorf("Select(%q).Name() = %s, want %s", sel, b.Name(), want)
		}
	}
}

func TestSelectUnknown(t *testing.T) {
	_, err := Select("wasm")
	var cfg *diag.ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("want *diag.ConfigError, got %v", err)
	}
	if cfg.Option != "backend" || !slices.Contains(cfg.Valid, "native") {
		t.Errorf("config error = %+v", cfg)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if !slices.IsSorted(names) || len(names) != len(selectors) {
		t.Fatalf("Names() = %v", names)
	}
}

func TestLoweringEndsWithGlobalStmts(t *testing.T) {
	for _, sel := range []string{"native", "c", "x86"} {
		b, _ := Select(sel)
		low := b.Lowering()
		if len(low) == 0 || low[len(low)-1] != passes.GlobalStmts {
			t.Errorf("%s lowering = %v", sel, low)
		}
		if slices.Index(low, passes.ArraySlice) > slices.Index(low, passes.ArrayOp) {
			t.Errorf("%s: sections must be lowered before element-wise ops", sel)
		}
		// callers may append without touching the shared list
		low[0] = "changed"
		if again := b.Lowering(); again[0] == "changed" {
			t.Errorf("%s: Lowering returned a shared slice", sel)
		}
	}
}

func lowerForBackend(t *testing.T, b Backend, src string) (*ir.Module, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("t.py", []byte(src)))
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	lx := lexer.New(f, lexer.Options{Reporter: rep})
	ab := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(context.Background(), fs, lx, ab, parser.Options{Reporter: rep})
	if !res.OK() {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	lowered := sema.Lower(context.Background(), res.File, ab, sema.Options{Reporter: rep, Strict: true, Path: "t.py"})
	if !lowered.OK {
		t.Fatalf("lowering failed: %v", bag.Items())
	}
	mgr, err := passes.NewManager(b.Lowering(), passes.Options{Reporter: rep})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Run(context.Background(), lowered.Value); err != nil {
		t.Fatal(err)
	}
	return lowered.Value, bag
}

func TestGenerateEachBackend(t *testing.T) {
	src := "def main() -> None:\n    x: i32 = 6\n    print(x * 7)\n\nmain()\n"
	wantExt := map[string]string{"llvm": ".ll", "c": ".c", "x86": ".s"}
	for _, sel := range []string{"native", "c", "x86"} {
		b, _ := Select(sel)
		m, _ := lowerForBackend(t, b, src)
		bag := diag.NewBag(100)
		res, err := b.Generate(context.Background(), m, Target{Triple: DefaultTriple}, diag.BagReporter{Bag: bag})
		if err != nil {
			t.Fatalf("%s: %v", sel, err)
		}
		if !res.OK {
			t.Fatalf("%s: generation failed: %v", sel, bag.Items())
		}
		art := res.Value
		if art.Kind != ArtifactText || art.Ext != wantExt[b.Name()] {
			t.Errorf("%s: artifact = %+v", sel, art)
		}
		if !strings.Contains(art.Text, "main") {
			t.Errorf("%s: output has no main\n%s", sel, art.Text)
		}
	}
}

func TestGenerateFailsOnUnsupported(t *testing.T) {
	b, _ := Select("x86")
	m, _ := lowerForBackend(t, b, "def f(x: f64) -> f64:\n    return x\n")
	bag := diag.NewBag(100)
	res, err := b.Generate(context.Background(), m, Target{}, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatal(err)
	}
	if res.OK || !bag.HasErrors() {
		t.Fatalf("want a failed result with diagnostics")
	}
}
