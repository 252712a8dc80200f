package passes

import (
	"context"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
)

// loopLowering rewrites every for loop into a hidden counter, a while loop
// and an explicit increment:
//
//	for i in range(a, b, s):      c = a
//	    body                      while c < b:
//	                                  i = c
//	                                  body
//	                                  c = c + s
//
// Loops over an array walk an i32 index the same way. A continue inside the
// body bumps the counter first. Non-constant stop and step are evaluated once
// into temporaries.
type loopLowering struct{}

func (loopLowering) Name() string { return LoopLowering }

func (loopLowering) Run(_ context.Context, m *ir.Module, _ diag.Reporter) error {
	eachBody(m, func(r *rewriter, body []ir.StmtID) []ir.StmtID {
		return ir.RewriteBlocks(m, body, func(id ir.StmtID) []ir.StmtID {
			s := *m.Stmt(id)
			d, ok := s.Data.(ir.ForData)
			if !ok {
				return []ir.StmtID{id}
			}
			if d.Iter.IsValid() {
				return r.lowerArrayLoop(d, s.Span)
			}
			return r.lowerRangeLoop(d, s.Span)
		})
	})
	return nil
}

func (r *rewriter) lowerRangeLoop(d ir.ForData, sp source.Span) []ir.StmtID {
	m := r.m
	ty := m.Symbols.Symbols.Get(d.Var).Type
	c := r.temp("c", ty, sp)

	start := d.Range.Start
	if !start.IsValid() {
		start = r.intConst(ty, 0, sp)
	}
	out := []ir.StmtID{m.Assign(r.name(c, sp), start, sp)}

	// bound returns a fresh reference to a value that is read every iteration
	bound := func(id ir.ExprID, base string) func() ir.ExprID {
		if _, ok := ir.ConstIntValue(m, id); ok {
			return func() ir.ExprID { return r.clone(id) }
		}
		t := r.temp(base, ty, sp)
		out = append(out, m.Assign(r.name(t, sp), id, sp))
		return func() ir.ExprID { return r.name(t, sp) }
	}
	stop := bound(d.Range.Stop, "stop")
	step := func() ir.ExprID { return r.intConst(ty, 1, sp) }
	stepSign := int64(1)
	if d.Range.Step.IsValid() {
		step = bound(d.Range.Step, "step")
		stepSign = 0
		if v, ok := ir.ConstIntValue(m, d.Range.Step); ok {
			stepSign = v
		}
	}

	var cond ir.ExprID
	switch {
	case stepSign > 0:
		cond = m.Compare(ast.CmpLt, r.name(c, sp), stop(), sp)
	case stepSign < 0:
		cond = m.Compare(ast.CmpGt, r.name(c, sp), stop(), sp)
	default:
		// (step > 0 and c < stop) or (step < 0 and c > stop)
		zero := func() ir.ExprID { return r.intConst(ty, 0, sp) }
		up := r.boolOp(ast.BoolAnd, m.Compare(ast.CmpGt, step(), zero(), sp), m.Compare(ast.CmpLt, r.name(c, sp), stop(), sp), sp)
		down := r.boolOp(ast.BoolAnd, m.Compare(ast.CmpLt, step(), zero(), sp), m.Compare(ast.CmpGt, r.name(c, sp), stop(), sp), sp)
		cond = r.boolOp(ast.BoolOr, up, down, sp)
	}

	incr := func() ir.StmtID { return r.increment(c, step(), sp) }
	body := []ir.StmtID{m.Assign(r.loopVar(d, sp), r.name(c, sp), sp)}
	body = append(body, r.continueAfter(d.Body, incr)...)
	body = append(body, incr())
	loop := m.NewStmt(ir.Stmt{Kind: ir.StmtWhile, Span: sp, Data: ir.WhileData{Cond: cond, Body: body}})
	return append(out, loop)
}

func (r *rewriter) lowerArrayLoop(d ir.ForData, sp source.Span) []ir.StmtID {
	m := r.m
	var out []ir.StmtID
	arrTy := r.typeOf(d.Iter)
	arr := d.Iter
	if !r.stable(arr) {
		t := r.temp("arr", arrTy, sp)
		out = append(out, m.Assign(r.name(t, sp), arr, sp))
		arr = r.name(t, sp)
	}
	i32 := r.builtins().I32
	c := r.temp("c", i32, sp)
	out = append(out, m.Assign(r.name(c, sp), r.intConst(i32, 0, sp), sp))

	n := int64(m.Types.ArrayLen(arrTy))
	cond := m.Compare(ast.CmpLt, r.name(c, sp), r.intConst(i32, n, sp), sp)
	elem := m.Index(m.Types.Elem(arrTy), r.clone(arr), r.name(c, sp), sp)
	incr := func() ir.StmtID { return r.increment(c, r.intConst(i32, 1, sp), sp) }
	body := []ir.StmtID{m.Assign(r.loopVar(d, sp), elem, sp)}
	body = append(body, r.continueAfter(d.Body, incr)...)
	body = append(body, incr())
	loop := m.NewStmt(ir.Stmt{Kind: ir.StmtWhile, Span: sp, Data: ir.WhileData{Cond: cond, Body: body}})
	return append(out, loop)
}

func (r *rewriter) loopVar(d ir.ForData, sp source.Span) ir.ExprID {
	return r.m.NameRef(d.Var, d.Scope, sp)
}

// continueAfter prefixes every continue that belongs to the loop being
// lowered with incr. Nested loops own their continues.
func (r *rewriter) continueAfter(body []ir.StmtID, incr func() ir.StmtID) []ir.StmtID {
	out := make([]ir.StmtID, 0, len(body))
	for _, id := range body {
		s := *r.m.Stmt(id)
		switch d := s.Data.(type) {
		case ir.IfData:
			d.Then = r.continueAfter(d.Then, incr)
			d.Else = r.continueAfter(d.Else, incr)
			r.m.Stmt(id).Data = d
		case nil:
			if s.Kind == ir.StmtContinue {
				out = append(out, incr())
			}
		}
		out = append(out, id)
	}
	return out
}
