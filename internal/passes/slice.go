package passes

import (
	"context"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
)

// arraySlice removes sections. An indexed section becomes a direct index
// into its base, a[lo:hi:st][k] => a[lo + k*st]; a section assignment and a
// section read into a variable become element loops over the selected
// indices. Sections used anywhere else are copied into a temporary first.
type arraySlice struct{}

func (arraySlice) Name() string { return ArraySlice }

func (arraySlice) Run(_ context.Context, m *ir.Module, _ diag.Reporter) error {
	lifter{
		match:   func(e *ir.Expr) bool { return e.Kind == ir.ExprSection },
		store:   storeSection,
		rewrite: flattenSection,
		special: sectionTarget,
	}.run(m)
	return nil
}

// flattenSection rewrites an index into a section as an index into its base.
func flattenSection(l *lifter, id ir.ExprID) ir.ExprID {
	e := *l.m.Expr(id)
	d, ok := e.Data.(ir.IndexData)
	if !ok {
		return id
	}
	base := *l.m.Expr(d.Value)
	sec, ok := base.Data.(ir.SectionData)
	if !ok {
		return id
	}
	l.changed = true
	idx := l.sectionIndex(sec, d.Index, e.Span)
	flat := l.m.Index(e.Type, sec.Value, idx, e.Span)
	return flattenSection(l, flat)
}

// sectionIndex computes lo + k*step in i32, folding constants.
func (r *rewriter) sectionIndex(sec ir.SectionData, k ir.ExprID, sp source.Span) ir.ExprID {
	i32 := r.builtins().I32
	if v, ok := ir.ConstIntValue(r.m, k); ok {
		return r.intConst(i32, sec.Lower+v*sec.Step, sp)
	}
	if r.typeOf(k) != i32 {
		k = r.m.NewExpr(ir.Expr{Kind: ir.ExprCast, Type: i32, Span: sp, Data: ir.CastData{Value: k}})
	}
	if sec.Step != 1 {
		k = r.m.Binary(ast.OpMul, i32, k, r.intConst(i32, sec.Step, sp), sp)
	}
	if sec.Lower != 0 {
		k = r.m.Binary(ast.OpAdd, i32, r.intConst(i32, sec.Lower, sp), k, sp)
	}
	return k
}

// sectionTarget expands `a[lo:hi:st] = v`.
func sectionTarget(l *lifter, id ir.StmtID) ([]ir.StmtID, bool) {
	s := *l.m.Stmt(id)
	d, ok := s.Data.(ir.AssignData)
	if !ok || l.m.Expr(d.Target).Kind != ir.ExprSection {
		return nil, false
	}
	target := l.path(d.Target)
	pre := l.take()
	return append(pre, storeSection(l, target, d.Value, s.Span)...), true
}

// storeSection writes the array value element by element into target. One
// of the two is a section; the other is copied into a temporary when it is
// not a plain storage path or when it reads the target.
func storeSection(l *lifter, target, value ir.ExprID, sp source.Span) []ir.StmtID {
	if root := rootSym(l.m, target); root.IsValid() && mentions(l.m, value, root) {
		return l.viaTemp(target, value, sp)
	}
	if sec, ok := l.m.Expr(value).Data.(ir.SectionData); ok && !isPath(l.m, sec.Value) {
		// (a+b)[1:3]: materialize the base, then select from it
		base := l.temp("arr", l.typeOf(sec.Value), sp)
		first := l.m.Assign(l.name(base, sp), sec.Value, sp)
		sec.Value = l.name(base, sp)
		l.m.Expr(value).Data = sec
		return l.block([]ir.StmtID{first, l.m.Assign(target, value, sp)})
	}
	if !isPath(l.m, value) {
		return l.viaTemp(target, value, sp)
	}
	ty := l.typeOf(target)
	n := int64(l.m.Types.ArrayLen(ty))
	elemTy := l.m.Types.Elem(ty)
	loop := l.countedLoop(n, sp, func(k symbols.SymbolID) []ir.StmtID {
		slot := l.m.Index(elemTy, l.clone(target), l.name(k, sp), sp)
		elem := l.m.Index(elemTy, l.clone(value), l.name(k, sp), sp)
		return []ir.StmtID{l.m.Assign(slot, elem, sp)}
	})
	return l.block([]ir.StmtID{loop})
}

// isPath reports whether id is a name, or a field, index or section of a
// path, with no calls along the way.
func isPath(m *ir.Module, id ir.ExprID) bool {
	e := m.Expr(id)
	if e == nil {
		return false
	}
	switch d := e.Data.(type) {
	case ir.NameData:
		return true
	case ir.FieldData:
		return isPath(m, d.Value)
	case ir.SectionData:
		return isPath(m, d.Value)
	case ir.IndexData:
		return isPath(m, d.Value) && !hasCall(m, d.Index)
	}
	return false
}

func hasCall(m *ir.Module, id ir.ExprID) bool {
	found := false
	ir.WalkExpr(m, id, func(_ ir.ExprID, e *ir.Expr) bool {
		if e.Kind == ir.ExprCall {
			found = true
		}
		return !found
	})
	return found
}
