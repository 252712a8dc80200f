package passes

import (
	"context"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
)

// arrayOp expands whole-array arithmetic into element loops:
//
//	c = a + b * 2      for k in range(N):
//	                       c[k] = a[k] + b[k] * 2
//
// Indexing an element-wise expression distributes the index over it, and an
// element-wise expression used anywhere else is computed into a temporary.
// Scalar operands that are not constants or names are evaluated once before
// the loop.
type arrayOp struct{}

func (arrayOp) Name() string { return ArrayOp }

func (arrayOp) Run(_ context.Context, m *ir.Module, _ diag.Reporter) error {
	lifter{
		match:     func(e *ir.Expr) bool { return isElementwise(m, e) },
		store:     storeElementwise,
		rewrite:   distributeIndex,
		indexable: func(e *ir.Expr) bool { return isElementwise(m, e) },
	}.run(m)
	return nil
}

func isElementwise(m *ir.Module, e *ir.Expr) bool {
	return (e.Kind == ir.ExprBinary || e.Kind == ir.ExprUnary) && m.Types.IsArray(e.Type)
}

// distributeIndex rewrites (a + b)[i] into a[i] + b[i].
func distributeIndex(l *lifter, id ir.ExprID) ir.ExprID {
	e := *l.m.Expr(id)
	d, ok := e.Data.(ir.IndexData)
	if !ok {
		return id
	}
	base := l.m.Expr(d.Value)
	if base == nil || !isElementwise(l.m, base) {
		return id
	}
	if !l.stable(d.Index) {
		// the index is read once per operand
		t := l.temp("i", l.typeOf(d.Index), e.Span)
		l.pre = append(l.pre, l.m.Assign(l.name(t, e.Span), d.Index, e.Span))
		d.Index = l.name(t, e.Span)
	}
	l.changed = true
	return l.elementAt(d.Value, func() ir.ExprID { return l.clone(d.Index) }, e.Span)
}

func storeElementwise(l *lifter, target, value ir.ExprID, sp source.Span) []ir.StmtID {
	if root := rootSym(l.m, target); root.IsValid() && readsShifted(l.m, value, root) {
		return l.viaTemp(target, value, sp)
	}
	var out []ir.StmtID
	value = l.hoistOperands(value, &out)
	ty := l.typeOf(value)
	n := int64(l.m.Types.ArrayLen(ty))
	elemTy := l.m.Types.Elem(l.typeOf(target))
	loop := l.countedLoop(n, sp, func(k symbols.SymbolID) []ir.StmtID {
		at := func() ir.ExprID { return l.name(k, sp) }
		slot := l.m.Index(elemTy, l.clone(target), at(), sp)
		return []ir.StmtID{l.m.Assign(slot, l.elementAt(value, at, sp), sp)}
	})
	return l.block(append(out, loop))
}

// readsShifted reports whether sym is read by value other than as a whole
// element-wise operand, e.g. a = a[::-1] + 1 or a = a + a[0].
func readsShifted(m *ir.Module, value ir.ExprID, sym symbols.SymbolID) bool {
	e := m.Expr(value)
	if e == nil {
		return false
	}
	if isElementwise(m, e) {
		for _, c := range ir.ExprChildren(e) {
			if readsShifted(m, c, sym) {
				return true
			}
		}
		return false
	}
	if e.Kind == ir.ExprName {
		return false
	}
	return mentions(m, value, sym)
}

// hoistOperands computes operands that would be re-evaluated per element
// (calls, displays, non-trivial scalars) into temporaries.
func (l *lifter) hoistOperands(id ir.ExprID, out *[]ir.StmtID) ir.ExprID {
	e := *l.m.Expr(id)
	if isElementwise(l.m, &e) {
		children := ir.ExprChildren(&e)
		mapped := make([]ir.ExprID, len(children))
		for i, c := range children {
			mapped[i] = l.hoistOperands(c, out)
		}
		ir.SetChildren(l.m.Expr(id), mapped)
		return id
	}
	if l.stable(id) {
		return id
	}
	if d, ok := e.Data.(ir.SectionData); ok && l.stable(d.Value) {
		return id
	}
	t := l.temp("t", e.Type, e.Span)
	*out = append(*out, l.m.Assign(l.name(t, e.Span), id, e.Span))
	return l.name(t, e.Span)
}

// elementAt builds element at() of an element-wise tree. Scalars are used as
// they are; array leaves are indexed. The tree is consumed.
func (l *lifter) elementAt(id ir.ExprID, at func() ir.ExprID, sp source.Span) ir.ExprID {
	e := *l.m.Expr(id)
	tys := l.m.Types
	if !tys.IsArray(e.Type) {
		return id
	}
	elemTy := tys.Elem(e.Type)
	switch d := e.Data.(type) {
	case ir.BinaryData:
		left := l.elementAt(d.Left, at, sp)
		right := l.elementAt(d.Right, at, sp)
		return l.m.Binary(d.Op, elemTy, left, right, e.Span)
	case ir.UnaryData:
		operand := l.elementAt(d.Operand, at, sp)
		return l.m.NewExpr(ir.Expr{Kind: ir.ExprUnary, Type: elemTy, Span: e.Span, Data: ir.UnaryData{Op: d.Op, Operand: operand}})
	}
	return l.m.Index(elemTy, id, at(), sp)
}
