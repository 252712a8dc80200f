package llvm

import (
	"context"
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

func lower(t *testing.T, src string, lowering ...string) *ir.Module {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("t.py", []byte(src)))
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	lx := lexer.New(f, lexer.Options{Reporter: rep})
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(context.Background(), fs, lx, b, parser.Options{Reporter: rep})
	if !res.OK() || bag.HasErrors() {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	lowered := sema.Lower(context.Background(), res.File, b, sema.Options{Reporter: rep, Strict: true, Path: "t.py"})
	if !lowered.OK {
		t.Fatalf("lowering failed: %v", bag.Items())
	}
	mgr, err := passes.NewManager(lowering, passes.Options{Reporter: rep})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Run(context.Background(), lowered.Value); err != nil {
		t.Fatal(err)
	}
	return lowered.Value
}

var fullLowering = []string{
	passes.ImpliedLoops, passes.ClassConstructor, passes.ArraySlice, passes.ArrayOp,
	passes.PrintArr, passes.LoopLowering, passes.GlobalStmts,
}

const program = `class Point:
    x: i32
    y: f64

def fact(n: i64) -> i64:
    if n <= 1:
        return 1
    return n * fact(n - 1)

@ccallable
def mix(a: i32, b: f32) -> f64:
    return f64(a) / 2.0 + f64(b)

def main() -> None:
    p: Point = Point(3, 0.5)
    arr: i32[3] = [1, 2, 3]
    total: i32 = 0
    for v in arr:
        if v % 2 == 0 and v > 0:
            continue
        total += v ** 2
    print(fact(5), p.y, total, "x" + "y", total > 3, sep="-")

main()
`

func emit(t *testing.T, m *ir.Module) (string, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(100)
	out, err := EmitModule(context.Background(), m, Options{Triple: "x86_64-pc-linux-gnu", Reporter: diag.BagReporter{Bag: bag}})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return out, bag
}

func TestEmitProgram(t *testing.T) {
	out, bag := emit(t, lower(t, program, fullLowering...))
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	for _, want := range []string{
		`target triple = "x86_64-pc-linux-gnu"`,
		"define i32 @main()",
		"define internal i64 @f.fact(",
		"define double @mix(",
		"%class.Point = type { i32, double }",
		"declare void @viper_print_i64(",
		"declare i8* @viper_str_concat(",
		"declare i64 @viper_ipow(",
		"phi i1",
		"call void @f._viper_main()",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q\n%s", want, out)
		}
	}
}

func TestEmitIsDeterministic(t *testing.T) {
	a, _ := emit(t, lower(t, program, fullLowering...))
	b, _ := emit(t, lower(t, program, fullLowering...))
	if a != b {
		t.Fatalf("two runs produced different IR")
	}
}

func TestEmitDefaultReturn(t *testing.T) {
	out, bag := emit(t, lower(t, "def f(x: i32) -> i32:\n    while x > 0:\n        x -= 1\n        if x == 3:\n            break\n", fullLowering...))
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if !strings.Contains(out, "ret i32 0") {
		t.Errorf("falling off the end must return zero\n%s", out)
	}
	if strings.Contains(out, "@f._viper_main") {
		t.Errorf("no module code, no entry call")
	}
}

func TestEmitReportsUnloweredConstructs(t *testing.T) {
	m := lower(t, "def f() -> None:\n    a: i32[3] = [1, 2, 3]\n    b: i32[3] = a + a\n    print(b[0])\n")
	_, bag := emit(t, m)
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.GenUnsupported {
			found = true
		}
	}
	if !found {
		t.Fatalf("want %s, got %v", diag.GenUnsupported.ID(), bag.Items())
	}
}

func TestEmitHonoursCancel(t *testing.T) {
	m := lower(t, program, fullLowering...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := EmitModule(ctx, m, Options{}); err == nil {
		t.Fatal("want context error")
	}
}
