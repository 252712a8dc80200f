package passes

import (
	"context"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
)

// classConstructor turns `p = P(a, b)` into field stores `p.x = a; p.y = b`.
// Constructions used elsewhere are first built in a temporary.
type classConstructor struct{}

func (classConstructor) Name() string { return ClassConstructor }

func (classConstructor) Run(_ context.Context, m *ir.Module, _ diag.Reporter) error {
	lifter{
		match: func(e *ir.Expr) bool { return e.Kind == ir.ExprConstruct },
		store: storeConstruct,
	}.run(m)
	return nil
}

func storeConstruct(l *lifter, target, value ir.ExprID, sp source.Span) []ir.StmtID {
	if root := rootSym(l.m, target); root.IsValid() && mentions(l.m, value, root) {
		// p = P(p.y, p.x) must read p before the first store
		return l.viaTemp(target, value, sp)
	}
	e := *l.m.Expr(value)
	info, _ := l.m.Types.ClassInfo(e.Type)
	d := e.Data.(ir.ConstructData)
	out := make([]ir.StmtID, 0, len(d.Args))
	for i, a := range d.Args {
		slot := l.field(info.Fields[i].Type, l.clone(target), i, sp)
		out = append(out, l.m.Assign(slot, a, sp))
	}
	return l.block(out)
}
