package ir

import (
	"errors"
	"strings"
	"testing"

	"viper/internal/ast"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

type fixture struct {
	m   *Module
	i32 types.TypeID
}

func newFixture() *fixture {
	tys := types.NewInterner()
	tbl := symbols.NewTable(symbols.Hints{}, nil)
	root := tbl.NewScope(symbols.ScopeModule, symbols.NoScopeID, symbols.NoSymbolID, source.Span{})
	return &fixture{m: NewModule("t", "t.py", tys, tbl, root), i32: tys.Builtins().I32}
}

// addFunc declares `def name(params: i32...) -> i32` with an empty body.
func (fx *fixture) addFunc(name string, params ...string) *Func {
	m := fx.m
	tbl := m.Symbols
	ptys := make([]types.TypeID, len(params))
	for i := range ptys {
		ptys[i] = fx.i32
	}
	sym := tbl.Declare(m.Scope, symbols.Symbol{
		Name: tbl.Strings.Intern(name),
		Kind: symbols.SymbolFunction,
		Type: m.Types.RegisterFn(ptys, fx.i32),
	})
	scope := tbl.NewScope(symbols.ScopeFunction, m.Scope, sym, source.Span{})
	tbl.Symbols.Get(sym).Owns = scope
	f := &Func{Sym: sym, Name: name, Scope: scope, Result: fx.i32}
	for i, p := range params {
		f.Params = append(f.Params, tbl.Declare(scope, symbols.Symbol{
			Name:  tbl.Strings.Intern(p),
			Kind:  symbols.SymbolParam,
			Type:  fx.i32,
			Index: i,
		}))
	}
	m.Funcs = append(m.Funcs, f)
	return f
}

func (fx *fixture) ret(f *Func, value ExprID) {
	f.Body = append(f.Body, fx.m.NewStmt(Stmt{Kind: StmtReturn, Data: ReturnData{Value: value}}))
}

func mustVerify(t *testing.T, m *Module) {
	t.Helper()
	if err := Verify(m); err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
}

func mustFail(t *testing.T, m *Module, want string) {
	t.Helper()
	err := Verify(m)
	var verr *VerifyError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *VerifyError, got %v", err)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("expected violation containing %q, got:\n%v", want, err)
	}
}

func TestVerifyAcceptsWellFormedModule(t *testing.T) {
	fx := newFixture()
	m := fx.m
	add := fx.addFunc("add", "a", "b")
	sum := m.Binary(ast.OpAdd, fx.i32,
		m.NameRef(add.Params[0], add.Scope, source.Span{}),
		m.NameRef(add.Params[1], add.Scope, source.Span{}), source.Span{})
	fx.ret(add, sum)

	call := m.NewExpr(Expr{Kind: ExprCall, Type: fx.i32, Data: CallData{
		Callee: add.Sym,
		Args:   []ExprID{m.ConstInt(fx.i32, 1, source.Span{}), m.ConstInt(fx.i32, 2, source.Span{})},
	}})
	m.Body = append(m.Body, m.NewStmt(Stmt{Kind: StmtPrint, Data: PrintData{Args: []ExprID{call}}}))
	mustVerify(t, m)
}

func TestVerifyRejectsNameOutsideScopeChain(t *testing.T) {
	fx := newFixture()
	m := fx.m
	f := fx.addFunc("f", "x")
	g := fx.addFunc("g")
	// g reads f's parameter
	fx.ret(g, m.NameRef(f.Params[0], g.Scope, source.Span{}))
	fx.ret(f, m.NameRef(f.Params[0], f.Scope, source.Span{}))
	mustFail(t, m, "not visible")
}

func TestVerifyRejectsDeadScopeReference(t *testing.T) {
	fx := newFixture()
	m := fx.m
	f := fx.addFunc("f")
	fx.ret(f, m.ConstInt(fx.i32, 0, source.Span{}))
	call := m.NewExpr(Expr{Kind: ExprCall, Type: fx.i32, Data: CallData{Callee: f.Sym}})
	m.Body = append(m.Body, m.NewStmt(Stmt{Kind: StmtExpr, Data: ExprStmtData{Value: call}}))
	mustVerify(t, m)

	m.RemoveFunc(f)
	mustFail(t, m, "removed function f")
}

func TestVerifyRejectsInconsistentTypes(t *testing.T) {
	fx := newFixture()
	m := fx.m
	f := fx.addFunc("f")
	f64 := m.Types.Builtins().F64
	// i32 + i32 recorded as f64
	bad := m.Binary(ast.OpAdd, f64, m.ConstInt(fx.i32, 1, source.Span{}), m.ConstInt(fx.i32, 2, source.Span{}), source.Span{})
	fx.ret(f, m.NewExpr(Expr{Kind: ExprCast, Type: fx.i32, Data: CastData{Value: bad}}))
	mustFail(t, m, "want i32, got f64")
}

func TestVerifyRejectsBreakOutsideLoopAndBadHandles(t *testing.T) {
	fx := newFixture()
	m := fx.m
	m.Body = append(m.Body, m.NewStmt(Stmt{Kind: StmtBreak}))
	mustFail(t, m, "Break outside loop")

	fx = newFixture()
	fx.m.Body = append(fx.m.Body, StmtID(99))
	mustFail(t, fx.m, "statement handle 99 out of range")
}

func TestRewriteBlocksReachesNestedBodies(t *testing.T) {
	fx := newFixture()
	m := fx.m
	boolT := m.Types.Builtins().Bool
	cond := m.NewExpr(Expr{Kind: ExprConst, Type: boolT, Data: ConstData{Kind: ConstBool, Bool: true}})
	brk := m.NewStmt(Stmt{Kind: StmtBreak})
	loop := m.NewStmt(Stmt{Kind: StmtWhile, Data: WhileData{Cond: cond, Body: []StmtID{brk}}})
	m.Body = []StmtID{loop}

	seen := 0
	m.Body = RewriteBlocks(m, m.Body, func(id StmtID) []StmtID {
		if m.Stmt(id).Kind == StmtBreak {
			seen++
			return []StmtID{m.NewStmt(Stmt{Kind: StmtContinue}), id}
		}
		return []StmtID{id}
	})
	if seen != 1 {
		t.Fatalf("break visited %d times", seen)
	}
	body := m.Stmt(m.Body[0]).Data.(WhileData).Body
	if len(body) != 2 || m.Stmt(body[0]).Kind != StmtContinue {
		t.Fatalf("nested block was not rewritten: %v", body)
	}
	mustVerify(t, m)
}

func TestClonerSubstitutesSymbols(t *testing.T) {
	fx := newFixture()
	m := fx.m
	f := fx.addFunc("f", "x")
	g := fx.addFunc("g", "y")
	body := m.Binary(ast.OpMul, fx.i32, m.NameRef(f.Params[0], f.Scope, source.Span{}), m.ConstInt(fx.i32, 2, source.Span{}), source.Span{})

	c := Cloner{M: m, Subst: map[symbols.SymbolID]symbols.SymbolID{f.Params[0]: g.Params[0]}, Scope: g.Scope}
	copied := c.Expr(body)
	if copied == body {
		t.Fatalf("clone returned the original handle")
	}
	left := m.Expr(m.Expr(copied).Data.(BinaryData).Left).Data.(NameData)
	if left.Sym != g.Params[0] || left.Scope != g.Scope {
		t.Fatalf("name not substituted: %+v", left)
	}
	orig := m.Expr(m.Expr(body).Data.(BinaryData).Left).Data.(NameData)
	if orig.Sym != f.Params[0] {
		t.Fatalf("original tree was modified")
	}
	fx.ret(f, body)
	fx.ret(g, copied)
	mustVerify(t, m)
}

func TestMapExprRewritesBottomUp(t *testing.T) {
	fx := newFixture()
	m := fx.m
	one := m.ConstInt(fx.i32, 1, source.Span{})
	root := m.Binary(ast.OpAdd, fx.i32, one, m.ConstInt(fx.i32, 2, source.Span{}), source.Span{})
	var order []ExprKind
	MapExpr(m, root, func(id ExprID) ExprID {
		order = append(order, m.Expr(id).Kind)
		if id == one {
			return m.ConstInt(fx.i32, 10, source.Span{})
		}
		return id
	})
	if len(order) != 3 || order[2] != ExprBinary {
		t.Fatalf("unexpected visit order %v", order)
	}
	if v, ok := ConstIntValue(m, m.Expr(root).Data.(BinaryData).Left); !ok || v != 10 {
		t.Fatalf("operand not replaced")
	}
}

func TestSectionLen(t *testing.T) {
	cases := []struct {
		lo, hi, step, want int64
	}{
		{0, 10, 1, 10},
		{0, 10, 3, 4},
		{2, 2, 1, 0},
		{9, -1, -1, 10},
		{9, 0, -2, 5},
		{0, 5, -1, 0},
	}
	for _, tc := range cases {
		if got := SectionLen(tc.lo, tc.hi, tc.step); got != tc.want {
			t.Errorf("SectionLen(%d, %d, %d) = %d, want %d", tc.lo, tc.hi, tc.step, got, tc.want)
		}
	}
}
