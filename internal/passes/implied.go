package passes

import (
	"context"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
)

// impliedLoops expands array displays and comprehensions into element
// stores. `x = [e for i in range(a, b, s)]` becomes
//
//	k = 0
//	for i' in range(a, b, s):
//	    x[k] = e
//	    k = k + 1
//
// where i' is the comprehension variable moved into the enclosing function
// under a fresh name; the comprehension scope is then dead. Displays and
// comprehensions used anywhere else are first computed into a temporary.
type impliedLoops struct{}

func (impliedLoops) Name() string { return ImpliedLoops }

func (impliedLoops) Run(_ context.Context, m *ir.Module, _ diag.Reporter) error {
	lifter{
		match: func(e *ir.Expr) bool { return e.Kind == ir.ExprComp || e.Kind == ir.ExprArray },
		store: storeImplied,
	}.run(m)
	return nil
}

func storeImplied(l *lifter, target, value ir.ExprID, sp source.Span) []ir.StmtID {
	if root := rootSym(l.m, target); root.IsValid() && mentions(l.m, value, root) {
		return l.viaTemp(target, value, sp)
	}
	e := *l.m.Expr(value)
	elemTy := l.m.Types.Elem(e.Type)
	i32 := l.builtins().I32
	var out []ir.StmtID
	switch d := e.Data.(type) {
	case ir.ArrayData:
		for i, el := range d.Elems {
			slot := l.m.Index(elemTy, l.clone(target), l.intConst(i32, int64(i), sp), sp)
			out = append(out, l.m.Assign(slot, el, sp))
		}
	case ir.CompData:
		counterTy := l.typeOf(d.Range.Stop)
		k := l.temp("k", counterTy, sp)
		l.dissolve(d)
		slot := l.m.Index(elemTy, l.clone(target), l.name(k, sp), sp)
		body := []ir.StmtID{
			l.m.Assign(slot, d.Elt, sp),
			l.increment(k, l.intConst(counterTy, 1, sp), sp),
		}
		loop := l.m.NewStmt(ir.Stmt{Kind: ir.StmtFor, Span: sp, Data: ir.ForData{
			Var:   d.Var,
			Scope: l.scope,
			Range: d.Range,
			Body:  body,
		}})
		out = append(out, l.m.Assign(l.name(k, sp), l.intConst(counterTy, 0, sp), sp), loop)
	}
	return l.block(out)
}

// dissolve moves the comprehension variable into the enclosing scope under a
// fresh name, re-homes the element's references and kills the scope.
func (r *rewriter) dissolve(d ir.CompData) {
	tbl := r.m.Symbols
	base := tbl.Name(d.Var)
	tbl.Rename(d.Var, tbl.Fresh(r.scope, base))
	tbl.Move(d.Var, r.scope)
	if r.fn != nil {
		r.fn.Locals = append(r.fn.Locals, d.Var)
	} else {
		tbl.Symbols.Get(d.Var).Flags |= symbols.SymbolFlagGlobal
		r.m.Globals = append(r.m.Globals, d.Var)
	}
	rehomeExpr(r.m, d.Elt, d.Scope, r.scope)
	tbl.MarkDead(d.Scope)
}
