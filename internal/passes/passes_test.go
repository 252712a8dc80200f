package passes

import (
	"context"
	"errors"
	"slices"
	"testing"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/lexer"
	"viper/internal/parser"
	"viper/internal/sema"
	"viper/internal/source"
)

func lower(t *testing.T, src string) *ir.Module {
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
	lowered := sema.Lower(context.Background(), res.File, b, sema.Options{Reporter: rep, Strict: true})
	if !lowered.OK || bag.HasErrors() {
		t.Fatalf("lowering failed: %v", bag.Items())
	}
	return lowered.Value
}

func apply(t *testing.T, m *ir.Module, names ...string) *diag.Bag {
	t.Helper()
	bag := diag.NewBag(100)
	mgr, err := NewManager(names, Options{Reporter: diag.BagReporter{Bag: bag}})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	res, err := mgr.Run(context.Background(), m)
	if err != nil {
		t.Fatalf("run %v: %v", names, err)
	}
	if !res.OK {
		t.Fatalf("run %v reported errors: %v", names, bag.Items())
	}
	return bag
}

// bodies returns the module body followed by every function body.
func bodies(m *ir.Module) [][]ir.StmtID {
	out := [][]ir.StmtID{m.Body}
	for _, f := range m.Funcs {
		out = append(out, f.Body)
	}
	return out
}

func countExprs(m *ir.Module, pred func(*ir.Expr) bool) int {
	n := 0
	for _, body := range bodies(m) {
		ir.WalkBodyExprs(m, body, func(_ ir.ExprID, e *ir.Expr) bool {
			if pred(e) {
				n++
			}
			return true
		})
	}
	return n
}

func countStmts(m *ir.Module, kind ir.StmtKind) int {
	n := 0
	for _, body := range bodies(m) {
		ir.WalkStmts(m, body, func(_ ir.StmtID, s *ir.Stmt) bool {
			if s.Kind == kind {
				n++
			}
			return true
		})
	}
	return n
}

func kindIs(k ir.ExprKind) func(*ir.Expr) bool {
	return func(e *ir.Expr) bool { return e.Kind == k }
}

const program = `class Point:
    x: i32
    y: i32

@inline
def sq(v: f64) -> f64:
    return v * v

def helper(a: i32) -> i32:
    return a + 1

def unused() -> i32:
    return 7

def main() -> None:
    p: Point = Point(1, y=2)
    arr: i32[5] = [i * 2 for i in range(5)]
    other: i32[5] = [1, 2, 3, 4, 5]
    part: i32[2] = arr[1:3]
    arr[0:2] = part
    total: i32[5] = arr + other * 2
    neg: i32[5] = -total
    acc: i64 = 0
    for e in arr:
        acc += i64(e)
    for j in range(0, 10, 3):
        acc += i64(helper(j))
    print(sq(2.0), acc, p.x)
    print(total, neg, sep=", ")

main()
`

func TestLookupResolvesAliases(t *testing.T) {
	p, ok := Lookup("do_loops")
	if !ok || p.Name() != LoopLowering {
		t.Fatalf("do_loops must resolve to %s", LoopLowering)
	}
	if Known("no_such_pass") {
		t.Fatalf("unknown name reported as known")
	}
	all := AllNames()
	if !slices.IsSorted(all) || !slices.Contains(all, "inlining") || !slices.Contains(all, GlobalStmts) {
		t.Fatalf("AllNames = %v", all)
	}
	if len(Names()) != 9 {
		t.Fatalf("want 9 canonical passes, got %v", Names())
	}
}

func TestUnknownPassIsConfigError(t *testing.T) {
	_, err := NewManager([]string{LoopLowering, "bogus"}, Options{})
	var cfg *diag.ConfigError
	if !errors.As(err, &cfg) || cfg.Value != "bogus" {
		t.Fatalf("want ConfigError for bogus, got %v", err)
	}
}

func TestEachPassKeepsModuleValid(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			m := lower(t, program)
			apply(t, m, name)
			if !m.WasApplied(name) {
				t.Fatalf("%s not recorded in Applied", name)
			}
		})
	}
}

func TestFullPipelineLeavesOnlyLowLevelIR(t *testing.T) {
	m := lower(t, program)
	apply(t, m,
		InlineFunctionCalls, ImpliedLoops, ClassConstructor, ArraySlice,
		ArrayOp, PrintArr, UnusedFunctions, LoopLowering, GlobalStmts)

	leftovers := map[string]int{
		"comp":      countExprs(m, kindIs(ir.ExprComp)),
		"array":     countExprs(m, kindIs(ir.ExprArray)),
		"construct": countExprs(m, kindIs(ir.ExprConstruct)),
		"section":   countExprs(m, kindIs(ir.ExprSection)),
		"elementwise": countExprs(m, func(e *ir.Expr) bool {
			return isElementwise(m, e)
		}),
		"for": countStmts(m, ir.StmtFor),
	}
	for what, n := range leftovers {
		if n != 0 {
			t.Errorf("%d %s nodes left", n, what)
		}
	}
	if m.FuncByName("unused") != nil {
		t.Errorf("unused function survived")
	}
	if m.FuncByName("sq") != nil {
		t.Errorf("inlined function sq is unreachable and should be removed")
	}
	if len(m.Body) != 0 || m.Func(m.Entry) == nil || m.Func(m.Entry).Name != MainName {
		t.Errorf("module code not moved into %s", MainName)
	}
	if err := m.Symbols.Validate(); err != nil {
		t.Errorf("symbol table: %v", err)
	}
}

func TestUnusedFunctions(t *testing.T) {
	m := lower(t, program)
	apply(t, m, UnusedFunctions)
	var names []string
	for _, f := range m.Funcs {
		names = append(names, f.Name)
	}
	slices.Sort(names)
	if !slices.Equal(names, []string{"helper", "main", "sq"}) {
		t.Fatalf("surviving functions = %v", names)
	}
	if err := (unusedFunctions{}).Run(context.Background(), m, diag.NopReporter{}); err != nil {
		t.Fatal(err)
	}
	if len(m.Funcs) != 3 {
		t.Fatalf("second run removed more functions: %d left", len(m.Funcs))
	}
	if err := ir.Verify(m); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestUnusedFunctionsKeepsLibraries(t *testing.T) {
	m := lower(t, "def a() -> i32:\n    return 1\n\ndef b() -> i32:\n    return a()\n")
	apply(t, m, UnusedFunctions)
	if len(m.Funcs) != 2 {
		t.Fatalf("a module without entry points must keep its functions, got %d", len(m.Funcs))
	}
}

func TestLoopLoweringProducesWhileLoops(t *testing.T) {
	m := lower(t, program)
	whiles := countStmts(m, ir.StmtWhile)
	apply(t, m, LoopLowering)
	if n := countStmts(m, ir.StmtFor); n != 0 {
		t.Fatalf("%d for loops left", n)
	}
	if got := countStmts(m, ir.StmtWhile); got != whiles+2 {
		t.Fatalf("want %d while loops, got %d", whiles+2, got)
	}
}

func TestLoopLoweringContinueStillAdvances(t *testing.T) {
	src := `def f() -> i32:
    s: i32 = 0
    for i in range(10):
        if i == 3:
            continue
        s += i
    return s
`
	m := lower(t, src)
	apply(t, m, LoopLowering)
	f := m.FuncByName("f")
	// the continue must be preceded by the counter increment
	found := false
	ir.WalkStmts(m, f.Body, func(_ ir.StmtID, s *ir.Stmt) bool {
		d, ok := s.Data.(ir.IfData)
		if !ok || len(d.Then) != 2 {
			return true
		}
		if m.Stmt(d.Then[0]).Kind == ir.StmtAssign && m.Stmt(d.Then[1]).Kind == ir.StmtContinue {
			found = true
		}
		return true
	})
	if !found {
		t.Fatalf("continue is not preceded by an increment")
	}
}

func TestImpliedLoopsAndConstructors(t *testing.T) {
	m := lower(t, program)
	apply(t, m, ImpliedLoops, ClassConstructor)
	if n := countExprs(m, kindIs(ir.ExprComp)); n != 0 {
		t.Fatalf("%d comprehensions left", n)
	}
	if n := countExprs(m, kindIs(ir.ExprArray)); n != 0 {
		t.Fatalf("%d array displays left", n)
	}
	if n := countExprs(m, kindIs(ir.ExprConstruct)); n != 0 {
		t.Fatalf("%d constructor calls left", n)
	}
	fields := countExprs(m, func(e *ir.Expr) bool { return e.Kind == ir.ExprField })
	if fields < 3 {
		t.Fatalf("constructor must store each field, saw %d field refs", fields)
	}
}

func TestArraySliceAndArrayOp(t *testing.T) {
	m := lower(t, program)
	apply(t, m, ArraySlice, ArrayOp)
	if n := countExprs(m, kindIs(ir.ExprSection)); n != 0 {
		t.Fatalf("%d sections left", n)
	}
	if n := countExprs(m, func(e *ir.Expr) bool { return isElementwise(m, e) }); n != 0 {
		t.Fatalf("%d element-wise expressions left", n)
	}
}

func TestArrayOpSelfReferenceUsesTemporary(t *testing.T) {
	src := `def f() -> None:
    a: i32[3] = [1, 2, 3]
    a = a + a[0]
    print(a[2])
`
	m := lower(t, src)
	before := len(m.FuncByName("f").Locals)
	apply(t, m, ArrayOp)
	if got := len(m.FuncByName("f").Locals); got <= before+1 {
		t.Fatalf("expected a temporary array besides the loop counter, locals %d -> %d", before, got)
	}
}

func TestPrintArrRemovesArrayPrints(t *testing.T) {
	m := lower(t, program)
	apply(t, m, PrintArr)
	arrays := 0
	for _, body := range bodies(m) {
		ir.WalkStmts(m, body, func(_ ir.StmtID, s *ir.Stmt) bool {
			if d, ok := s.Data.(ir.PrintData); ok {
				for _, a := range d.Args {
					if m.Types.IsArray(m.Expr(a).Type) {
						arrays++
					}
				}
			}
			return true
		})
	}
	if arrays != 0 {
		t.Fatalf("%d array print arguments left", arrays)
	}
}

func TestInlineFunctionCalls(t *testing.T) {
	m := lower(t, program)
	sq := m.FuncByName("sq").Sym
	apply(t, m, InlineFunctionCalls)
	calls := countExprs(m, func(e *ir.Expr) bool {
		d, ok := e.Data.(ir.CallData)
		return ok && d.Callee == sq
	})
	if calls != 0 {
		t.Fatalf("%d calls to sq left", calls)
	}
}

func TestInlineKeepsLeftOperandFirst(t *testing.T) {
	src := `def a() -> i32:
    print("a")
    return 2

def b() -> i32:
    print("b")
    return 3

@inline
def sq(v: i32) -> i32:
    return v * v

def main() -> None:
    print(a() + sq(b()))

main()
`
	m := lower(t, src)
	fa, fb := m.FuncByName("a").Sym, m.FuncByName("b").Sym
	apply(t, m, InlineFunctionCalls)

	var order []string
	ir.WalkBodyExprs(m, m.FuncByName("main").Body, func(_ ir.ExprID, e *ir.Expr) bool {
		if d, ok := e.Data.(ir.CallData); ok {
			switch d.Callee {
			case fa:
				order = append(order, "a")
			case fb:
				order = append(order, "b")
			}
		}
		return true
	})
	if !slices.Equal(order, []string{"a", "b"}) {
		t.Fatalf("call order after inlining = %v, want [a b]", order)
	}
}

func TestInlineRefusesRecursion(t *testing.T) {
	src := `@inline
def fact(n: i32) -> i32:
    r: i32 = 1
    if n > 1:
        r = n * fact(n - 1)
    return r

def main() -> None:
    print(fact(5))

main()
`
	m := lower(t, src)
	bag := apply(t, m, InlineFunctionCalls)
	warned := false
	for _, d := range bag.Items() {
		if d.Code == diag.PassCannotInline {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("want %s, got %v", diag.PassCannotInline.ID(), bag.Items())
	}
	if m.FuncByName("fact") == nil {
		t.Fatalf("fact must stay")
	}
}

func TestGlobalStmts(t *testing.T) {
	m := lower(t, "x: i32 = 1\nprint(x)\n")
	apply(t, m, GlobalStmts)
	entry := m.Func(m.Entry)
	if entry == nil || !entry.Flags.HasFlag(ir.FuncGenerated) {
		t.Fatalf("entry function not generated")
	}
	if len(m.Body) != 0 || len(entry.Body) != 2 {
		t.Fatalf("body=%d entry=%d", len(m.Body), len(entry.Body))
	}
	if len(m.Globals) != 1 {
		t.Fatalf("x must stay a global")
	}

	empty := lower(t, "def f() -> None:\n    pass\n")
	apply(t, empty, GlobalStmts)
	if empty.Entry.IsValid() {
		t.Fatalf("no module code, no entry")
	}
}

func TestManagerSkipApplied(t *testing.T) {
	m := lower(t, program)
	apply(t, m, LoopLowering)
	mgr, err := NewManager([]string{LoopLowering, GlobalStmts}, Options{SkipApplied: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Run(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(m.Applied, []string{LoopLowering, GlobalStmts}) {
		t.Fatalf("Applied = %v", m.Applied)
	}
}

func TestManagerStopsOnCancel(t *testing.T) {
	m := lower(t, program)
	mgr, err := NewManager([]string{LoopLowering}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mgr.Run(ctx, m); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if len(m.Applied) != 0 {
		t.Fatalf("nothing should have run")
	}
}
