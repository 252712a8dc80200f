package x86

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

func lower(t *testing.T, src string, before ...string) *ir.Module {
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
	mgr, err := passes.NewManager(append(before, passes.LoopLowering, passes.GlobalStmts), passes.Options{Reporter: rep})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Run(context.Background(), lowered.Value); err != nil {
		t.Fatal(err)
	}
	return lowered.Value
}

func emit(t *testing.T, m *ir.Module) (string, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(100)
	out, err := EmitModule(context.Background(), m, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return out, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

const program = `def gcd(a: i64, b: i64) -> i64:
    while b != 0:
        t: i64 = a % b
        a = b
        b = t
    return a

@ccallable
def clamp(x: i32, lo: i32, hi: i32) -> i32:
    if x < lo:
        return lo
    if x > hi or x == 1000:
        return hi
    return x

def main() -> None:
    total: i64 = 0
    for i in range(10):
        if i == 7:
            break
        total += gcd(i64(i), 6) ** 2
    print("total", total, clamp(-5, 0, 10) < 0, sep="=")

main()
`

func TestEmitProgram(t *testing.T) {
	out, bag := emit(t, lower(t, program))
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	for _, want := range []string{
		"\t.globl main\n",
		"\t.globl clamp\n",
		"f_gcd:\n",
		"call viper_imod@PLT",
		"call viper_ipow@PLT",
		"call viper_print_bool@PLT",
		"movslq %eax, %rax",
		`.asciz "total"`,
		`.asciz "="`,
		"call f__viper_main",
		".note.GNU-stack",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q\n%s", want, out)
		}
	}
	if strings.Contains(out, ".globl f_gcd") {
		t.Errorf("internal functions must stay local")
	}
}

func TestEmitIsDeterministic(t *testing.T) {
	a, _ := emit(t, lower(t, program))
	b, _ := emit(t, lower(t, program))
	if a != b {
		t.Fatalf("two runs produced different assembly")
	}
}

func TestEmitRejectsFloats(t *testing.T) {
	_, bag := emit(t, lower(t, "def f(x: f64) -> f64:\n    return x * 2.0\n"))
	if !hasCode(bag, diag.GenBadType) {
		t.Fatalf("want %s, got %v", diag.GenBadType.ID(), bag.Items())
	}
}

func TestEmitRejectsTrueDivision(t *testing.T) {
	_, bag := emit(t, lower(t, "def f(x: i32) -> None:\n    print(x / 2)\n"))
	if !hasCode(bag, diag.GenUnsupported) && !hasCode(bag, diag.GenBadType) {
		t.Fatalf("want a backend error, got %v", bag.Items())
	}
}

func TestEmitTooManyArgs(t *testing.T) {
	src := "def f(a: i32, b: i32, c: i32, d: i32, e: i32, g: i32, h: i32) -> i32:\n    return a\n"
	_, bag := emit(t, lower(t, src))
	if !hasCode(bag, diag.GenTooManyArgs) {
		t.Fatalf("want %s, got %v", diag.GenTooManyArgs.ID(), bag.Items())
	}
}

func TestEmitReportsOncePerStatement(t *testing.T) {
	src := "def main() -> None:\n    a: i32[5] = [1, 2, 3, 4, 5]\n    print(a[0])\n"
	_, bag := emit(t, lower(t, src, passes.ImpliedLoops))
	n := 0
	for _, d := range bag.Items() {
		if d.Code == diag.GenUnsupported && strings.Contains(d.Message, "stores into elements") {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("want one store diagnostic, got %d: %v", n, bag.Items())
	}
}

func TestGasQuote(t *testing.T) {
	cases := map[string]string{
		"plain":  `"plain"`,
		"a\"b\\": `"a\"b\\"`,
		"\n":     `"\012"`,
		"é":      `"\303\251"`,
	}
	for in, want := range cases {
		if got := gasQuote(in); got != want {
			t.Errorf("gasQuote(%q) = %s, want %s", in, got, want)
		}
	}
}
