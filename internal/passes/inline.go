package passes

import (
	"context"
	"fmt"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
)

// inlineCalls replaces calls to @inline functions with a copy of the callee
// body. Parameters and locals are renamed to fresh variables of the caller;
// arguments are assigned to the renamed parameters first and the trailing
// return value, if any, is stored where the call's value was used.
//
// A callee qualifies when it is not directly recursive, holds no
// comprehension and returns only from its last statement. Calls in the right
// operand of and/or, in while conditions and in comprehension elements are
// left alone. An inlined body is itself inlined into, except for callees
// already being expanded.
type inlineCalls struct{}

func (inlineCalls) Name() string { return InlineFunctionCalls }

func (inlineCalls) Run(_ context.Context, m *ir.Module, rep diag.Reporter) error {
	in := &inliner{m: m, cands: make(map[symbols.SymbolID]*ir.Func), active: make(map[symbols.SymbolID]bool)}
	for _, f := range m.Funcs {
		if !f.Flags.HasFlag(ir.FuncInline) {
			continue
		}
		if why := inlineBlocker(m, f); why != "" {
			diag.ReportWarning(rep, diag.PassCannotInline, f.Span,
				fmt.Sprintf("function %s cannot be inlined: %s", f.Name, why)).Emit()
			continue
		}
		in.cands[f.Sym] = f
	}
	if len(in.cands) == 0 {
		return nil
	}
	eachBody(m, func(r *rewriter, body []ir.StmtID) []ir.StmtID {
		if r.fn != nil {
			in.active[r.fn.Sym] = true
			defer delete(in.active, r.fn.Sym)
		}
		l := &lifter{
			rewriter: r,
			lazy:     true,
			match:    in.match,
			store:    in.expand,
			special:  in.exprStmt,
		}
		return l.block(body)
	})
	return nil
}

type inliner struct {
	m      *ir.Module
	cands  map[symbols.SymbolID]*ir.Func
	active map[symbols.SymbolID]bool
}

// inlineBlocker explains why f cannot be inlined, or returns "".
func inlineBlocker(m *ir.Module, f *ir.Func) string {
	if ir.ContainsExpr(m, f.Body, func(e *ir.Expr) bool {
		d, ok := e.Data.(ir.CallData)
		return ok && d.Callee == f.Sym
	}) {
		return "it is recursive"
	}
	if ir.ContainsExpr(m, f.Body, func(e *ir.Expr) bool { return e.Kind == ir.ExprComp }) {
		return "it contains a comprehension"
	}
	returns := 0
	ir.WalkStmts(m, f.Body, func(_ ir.StmtID, s *ir.Stmt) bool {
		if s.Kind == ir.StmtReturn {
			returns++
		}
		return true
	})
	last := ir.NoStmtID
	if n := len(f.Body); n > 0 {
		last = f.Body[n-1]
	}
	endsInReturn := last.IsValid() && m.Stmt(last).Kind == ir.StmtReturn
	switch {
	case returns > 1 || (returns == 1 && !endsInReturn):
		return "it returns from more than one place"
	case f.Result != m.Types.Builtins().None && !endsInReturn:
		return "it does not end in a return"
	}
	return ""
}

func (in *inliner) match(e *ir.Expr) bool {
	d, ok := e.Data.(ir.CallData)
	if !ok {
		return false
	}
	_, ok = in.cands[d.Callee]
	return ok && !in.active[d.Callee]
}

// exprStmt inlines a call whose value is discarded.
func (in *inliner) exprStmt(l *lifter, id ir.StmtID) ([]ir.StmtID, bool) {
	s := *l.m.Stmt(id)
	d, ok := s.Data.(ir.ExprStmtData)
	if !ok || !l.matches(d.Value) {
		return nil, false
	}
	return in.expand(l, ir.NoExprID, d.Value, s.Span), true
}

func (in *inliner) expand(l *lifter, target, call ir.ExprID, sp source.Span) []ir.StmtID {
	m := l.m
	tbl := m.Symbols
	d := m.Expr(call).Data.(ir.CallData)
	args := append([]ir.ExprID(nil), d.Args...)
	callee := in.cands[d.Callee]

	subst := make(map[symbols.SymbolID]symbols.SymbolID, len(callee.Params)+len(callee.Locals))
	var out []ir.StmtID
	for i, p := range callee.Params {
		ps := *tbl.Symbols.Get(p)
		fresh := l.temp(tbl.Name(p), ps.Type, ps.Span)
		subst[p] = fresh
		out = append(out, m.Assign(l.name(fresh, sp), args[i], sp))
	}
	for _, local := range callee.Locals {
		ls := *tbl.Symbols.Get(local)
		subst[local] = l.temp(tbl.Name(local), ls.Type, ls.Span)
	}

	c := &ir.Cloner{M: m, Subst: subst, Scope: l.scope}
	body := callee.Body
	ret := ir.NoExprID
	if n := len(body); n > 0 {
		if rd, ok := m.Stmt(body[n-1]).Data.(ir.ReturnData); ok {
			ret = rd.Value
			body = body[:n-1]
		}
	}
	out = append(out, c.Block(body)...)
	switch {
	case ret.IsValid() && target.IsValid():
		out = append(out, m.Assign(target, c.Expr(ret), sp))
	case ret.IsValid() && hasCall(m, ret):
		v := c.Expr(ret)
		out = append(out, m.NewStmt(ir.Stmt{Kind: ir.StmtExpr, Span: sp, Data: ir.ExprStmtData{Value: v}}))
	}

	in.active[callee.Sym] = true
	out = l.block(out)
	delete(in.active, callee.Sym)
	return out
}
