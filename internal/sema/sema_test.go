package sema

import (
	"context"
	"strings"
	"testing"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/lexer"
	"viper/internal/parser"
	"viper/internal/source"
)

// mustLower parses src (which must be syntactically valid) and lowers it.
func mustLower(t *testing.T, src string, opts Options) (diag.Result[*ir.Module], *diag.Bag) {
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
	opts.Reporter = rep
	return Lower(context.Background(), res.File, b, opts), bag
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func expectOK(t *testing.T, src string, opts Options) *ir.Module {
	t.Helper()
	res, bag := mustLower(t, src, opts)
	if !res.OK || bag.HasErrors() {
		t.Fatalf("lowering failed: %v", bag.Items())
	}
	if err := ir.Verify(res.Value); err != nil {
		t.Fatalf("verify: %v", err)
	}
	return res.Value
}

func expectError(t *testing.T, src string, opts Options, code diag.Code) *diag.Bag {
	t.Helper()
	res, bag := mustLower(t, src, opts)
	if res.OK {
		t.Fatalf("expected lowering to fail with %s", code.ID())
	}
	for _, c := range codes(bag) {
		if c == code {
			return bag
		}
	}
	t.Fatalf("expected %s, got %v", code.ID(), bag.Items())
	return nil
}

func TestEmptyFile(t *testing.T) {
	m := expectOK(t, "", Options{Strict: true})
	if len(m.Funcs) != 0 || len(m.Body) != 0 || len(m.Globals) != 0 {
		t.Fatalf("empty file produced a non-empty module")
	}
}

func TestUndeclaredNameReportedOnce(t *testing.T) {
	src := "def f() -> i32:\n    x: i32 = 1\n    return x + y\n"
	res, bag := mustLower(t, src, Options{Strict: true})
	if res.OK {
		t.Fatalf("lowering must fail")
	}
	items := bag.Items()
	if len(items) != 1 {
		t.Fatalf("want exactly one diagnostic, got %v", items)
	}
	d := items[0]
	if d.Code != diag.SemaUndefinedName {
		t.Fatalf("want %s, got %s", diag.SemaUndefinedName.ID(), d.Code.ID())
	}
	at := uint32(strings.LastIndex(src, "y"))
	if d.Primary.Start != at || d.Primary.End != at+1 {
		t.Fatalf("span %d:%d, want %d:%d", d.Primary.Start, d.Primary.End, at, at+1)
	}
	// частичный модуль остаётся верифицируемым
	if err := ir.Verify(res.Value); err != nil {
		t.Fatalf("partial module does not verify: %v", err)
	}
}

const richProgram = `class Point:
    x: i32
    y: i32

def add(a: i32, b: i32 = 2) -> i32:
    return a + b

@inline
def sq(v: f64) -> f64:
    return v * v

def main() -> None:
    p: Point = Point(1, y=2)
    s: i32 = add(p.x, b=p.y)
    t: i32 = add(s)
    arr: i32[5] = [i * 2 for i in range(5)]
    part: i32[2] = arr[1:3]
    total: i64 = 0
    for e in arr:
        total += i64(e)
    i: i32 = 0
    while i < 10 and s != 0:
        if 0 <= i < 5:
            i += 1
            continue
        break
    print(s, t, total, sq(2.0), sep=", ")
    print(part)

main()
`

func TestLowerWellTypedProgram(t *testing.T) {
	m := expectOK(t, richProgram, Options{Strict: true})
	if len(m.Funcs) != 3 || len(m.Classes) != 1 {
		t.Fatalf("funcs=%d classes=%d", len(m.Funcs), len(m.Classes))
	}
	if !m.FuncByName("sq").Flags.HasFlag(ir.FuncInline) {
		t.Fatalf("@inline flag lost")
	}
	add := m.FuncByName("add")
	if len(add.Defaults) != 2 || add.Defaults[0].IsValid() || !add.Defaults[1].IsValid() {
		t.Fatalf("defaults not recorded per parameter: %v", add.Defaults)
	}
	if len(m.Body) != 1 || m.Stmt(m.Body[0]).Kind != ir.StmtExpr {
		t.Fatalf("module body should hold the main() call")
	}

	var sawComp, sawSection, sawCast, sawConstruct, sawChain bool
	for _, f := range m.Funcs {
		ir.WalkBodyExprs(m, f.Body, func(_ ir.ExprID, e *ir.Expr) bool {
			switch d := e.Data.(type) {
			case ir.CompData:
				sawComp = true
			case ir.SectionData:
				sawSection = d.Lower == 1 && d.Upper == 3 && d.Step == 1
			case ir.CastData:
				sawCast = true
			case ir.ConstructData:
				sawConstruct = len(d.Args) == 2
			case ir.BoolOpData:
				if l := m.Expr(d.Left); l.Kind == ir.ExprCompare {
					if r := m.Expr(d.Right); r.Kind == ir.ExprCompare {
						sawChain = true
					}
				}
			}
			return true
		})
	}
	if !sawComp || !sawSection || !sawCast || !sawConstruct || !sawChain {
		t.Fatalf("comp=%v section=%v cast=%v construct=%v chain=%v", sawComp, sawSection, sawCast, sawConstruct, sawChain)
	}
}

func TestForwardReferencesAndGlobals(t *testing.T) {
	src := "limit = 3\n\ndef f() -> i32:\n    return g() + limit\n\ndef g() -> i32:\n    return 1\n"
	m := expectOK(t, src, Options{Strict: true})
	if len(m.Globals) != 1 {
		t.Fatalf("want one inferred global, got %d", len(m.Globals))
	}
}

func TestStrictAndRelaxedCoercion(t *testing.T) {
	src := "def f(a: i32) -> i64:\n    return a\n"
	expectError(t, src, Options{Strict: true}, diag.SemaTypeMismatch)
	m := expectOK(t, src, Options{Strict: false})
	ret := m.Stmt(m.FuncByName("f").Body[0]).Data.(ir.ReturnData)
	if m.Expr(ret.Value).Kind != ir.ExprCast {
		t.Fatalf("relaxed widening must be an explicit cast, got %s", m.Expr(ret.Value).Kind)
	}
	expectOK(t, "def f(a: i64) -> i64:\n    return a + 1\n", Options{Strict: true})
	expectOK(t, "x: f64 = 1\ny: i8 = -128\n", Options{Strict: true})
}

func TestDiagnostics(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"redeclared function", "def f() -> None:\n    pass\n\ndef f() -> None:\n    pass\n", diag.SemaRedeclared},
		{"literal range", "x: i8 = 200\n", diag.SemaIntLiteralRange},
		{"break outside loop", "def f() -> None:\n    break\n", diag.SemaBreakOutsideLoop},
		{"return outside function", "return\n", diag.SemaReturnOutsideFunc},
		{"variadic", "def f(*args: i32) -> None:\n    pass\n", diag.SemaVariadicParam},
		{"missing annotation", "def f(a) -> None:\n    pass\n", diag.SemaMissingAnnotation},
		{"unknown type", "x: int128 = 1\n", diag.SemaUnknownType},
		{"bad condition", "def f(a: i32) -> None:\n    if a:\n        pass\n", diag.SemaBadCondition},
		{"arg count", "def f(a: i32) -> None:\n    pass\n\nf(1, 2)\n", diag.SemaArgCount},
		{"unknown keyword", "def f(a: i32) -> None:\n    pass\n\nf(b=1)\n", diag.SemaUnknownKeyword},
		{"positional-only by keyword", "def f(a: i32, /) -> None:\n    pass\n\nf(a=1)\n", diag.SemaUnknownKeyword},
		{"keyword-only positionally", "def f(*, a: i32) -> None:\n    pass\n\nf(1)\n", diag.SemaArgCount},
		{"unknown field", "class P:\n    x: i32\n\np: P = P(1)\nprint(p.z)\n", diag.SemaUnknownField},
		{"bad operand", "x = \"a\" - 1\n", diag.SemaBadOperand},
		{"not indexable", "x: i32 = 1\ny = x[0]\n", diag.SemaNotIndexable},
		{"index out of range", "a: i32[3] = [1, 2, 3]\nb = a[3]\n", diag.SemaArrayLength},
		{"bad cast", "x = i32(\"s\")\n", diag.SemaBadCast},
		{"bad return", "def f() -> i32:\n    return\n", diag.SemaBadReturn},
		{"iterate scalar", "x: i32 = 3\nfor i in x:\n    pass\n", diag.SemaBadIterable},
		{"star args", "def f(a: i32) -> None:\n    pass\n\nf(*a)\n", diag.SemaUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, tc.src, Options{Strict: true}, tc.code)
		})
	}
}

func TestInvalidOperandsDoNotCascade(t *testing.T) {
	src := "def f() -> i32:\n    a = missing * 2 + 1\n    return a - missing2\n"
	res, bag := mustLower(t, src, Options{Strict: true})
	if res.OK {
		t.Fatalf("lowering must fail")
	}
	for _, d := range bag.Items() {
		if d.Code != diag.SemaUndefinedName {
			t.Fatalf("cascading diagnostic %s: %s", d.Code.ID(), d.Message)
		}
	}
	if bag.Len() != 2 {
		t.Fatalf("want two undefined names, got %v", bag.Items())
	}
}

func TestShadowingWarns(t *testing.T) {
	src := "g: i32 = 1\n\ndef f() -> None:\n    g = 2\n"
	res, bag := mustLower(t, src, Options{Strict: true})
	if !res.OK {
		t.Fatalf("shadowing is not an error: %v", bag.Items())
	}
	if cs := codes(bag); len(cs) != 1 || cs[0] != diag.SemaShadowing {
		t.Fatalf("want one shadowing warning, got %v", bag.Items())
	}
}

func TestSymtabOnlySkipsBodies(t *testing.T) {
	src := "def f(a: i32, b: f64) -> i32:\n    return undefined_name\n\nprint(nothing)\n"
	res, bag := mustLower(t, src, Options{Strict: true, SymtabOnly: true})
	if !res.OK {
		t.Fatalf("symtab-only lowering must not look at bodies: %v", bag.Items())
	}
	m := res.Value
	f := m.FuncByName("f")
	if f == nil || len(f.Params) != 2 || len(f.Body) != 0 || len(m.Body) != 0 {
		t.Fatalf("unexpected symtab-only module")
	}
	if got := m.Types.String(f.Result); got != "i32" {
		t.Fatalf("result type %s", got)
	}
}

func TestMainGuardIsInlined(t *testing.T) {
	src := "def main() -> None:\n    print(1)\n\nif __name__ == \"__main__\":\n    main()\n"
	m := expectOK(t, src, Options{Strict: true})
	if len(m.Body) != 1 || m.Stmt(m.Body[0]).Kind != ir.StmtExpr {
		t.Fatalf("main guard body should be lowered in place")
	}
}

func TestSliceNormalization(t *testing.T) {
	cases := []struct {
		n, lo      int64
		hasLo      bool
		hi         int64
		hasHi      bool
		step       int64
		wantLo     int64
		wantHi     int64
		wantLength int64
	}{
		{5, 0, false, 0, false, 1, 0, 5, 5},
		{5, -2, true, 0, false, 1, 3, 5, 2},
		{5, 0, false, 0, false, -1, 4, -1, 5},
		{5, 1, true, 100, true, 2, 1, 5, 2},
		{5, 3, true, 0, true, -1, 3, 0, 3},
	}
	for _, tc := range cases {
		lo, hi := sliceIndices(tc.n, tc.lo, tc.hasLo, tc.hi, tc.hasHi, tc.step)
		if lo != tc.wantLo || hi != tc.wantHi {
			t.Fatalf("sliceIndices(%+v) = %d, %d", tc, lo, hi)
		}
		if got := ir.SectionLen(lo, hi, tc.step); got != tc.wantLength {
			t.Fatalf("length %d, want %d", got, tc.wantLength)
		}
	}
}

func TestParseIntLiterals(t *testing.T) {
	for raw, want := range map[string]int64{"0": 0, "007": 7, "1_000": 1000, "0x1F": 31, "0o17": 15, "0b101": 5} {
		got, err := parseInt(raw)
		if err != nil || got != want {
			t.Fatalf("parseInt(%q) = %d, %v", raw, got, err)
		}
	}
}
