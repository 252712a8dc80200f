package passes

import (
	"viper/internal/ast"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// rewriter carries what a pass needs while it rewrites one statement list:
// the function that owns fresh temporaries and the scope new name references
// occur in. fn is nil for module-level statements.
type rewriter struct {
	m     *ir.Module
	fn    *ir.Func
	scope symbols.ScopeID
}

func newRewriter(m *ir.Module, fn *ir.Func) *rewriter {
	return &rewriter{m: m, fn: fn, scope: m.ScopeOf(fn)}
}

// eachBody rewrites the module body and then every function body.
func eachBody(m *ir.Module, visit func(r *rewriter, body []ir.StmtID) []ir.StmtID) {
	m.Body = visit(newRewriter(m, nil), m.Body)
	funcs := append([]*ir.Func(nil), m.Funcs...)
	for _, f := range funcs {
		f.Body = visit(newRewriter(m, f), f.Body)
	}
}

func (r *rewriter) builtins() types.Builtins { return r.m.Types.Builtins() }

func (r *rewriter) typeOf(id ir.ExprID) types.TypeID {
	if e := r.m.Expr(id); e != nil {
		return e.Type
	}
	return types.NoTypeID
}

func (r *rewriter) spanOf(id ir.ExprID) source.Span {
	if e := r.m.Expr(id); e != nil {
		return e.Span
	}
	return source.Span{}
}

// temp declares a fresh variable for generated code.
func (r *rewriter) temp(base string, ty types.TypeID, sp source.Span) symbols.SymbolID {
	return r.m.DeclareLocal(r.fn, base, ty, sp)
}

func (r *rewriter) name(sym symbols.SymbolID, sp source.Span) ir.ExprID {
	return r.m.NameRef(sym, r.scope, sp)
}

func (r *rewriter) intConst(ty types.TypeID, v int64, sp source.Span) ir.ExprID {
	return r.m.ConstInt(ty, v, sp)
}

func (r *rewriter) boolConst(v bool, sp source.Span) ir.ExprID {
	return r.m.NewExpr(ir.Expr{Kind: ir.ExprConst, Type: r.builtins().Bool, Span: sp, Data: ir.ConstData{Kind: ir.ConstBool, Bool: v}})
}

func (r *rewriter) not(cond ir.ExprID, sp source.Span) ir.ExprID {
	return r.m.NewExpr(ir.Expr{Kind: ir.ExprUnary, Type: r.builtins().Bool, Span: sp, Data: ir.UnaryData{Op: ast.OpNot, Operand: cond}})
}

func (r *rewriter) boolOp(op ast.BoolOp, a, b ir.ExprID, sp source.Span) ir.ExprID {
	return r.m.NewExpr(ir.Expr{Kind: ir.ExprBoolOp, Type: r.builtins().Bool, Span: sp, Data: ir.BoolOpData{Op: op, Left: a, Right: b}})
}

func (r *rewriter) field(ty types.TypeID, value ir.ExprID, idx int, sp source.Span) ir.ExprID {
	return r.m.NewExpr(ir.Expr{Kind: ir.ExprField, Type: ty, Span: sp, Data: ir.FieldData{Value: value, Field: idx}})
}

// increment builds `sym = sym + step`.
func (r *rewriter) increment(sym symbols.SymbolID, step ir.ExprID, sp source.Span) ir.StmtID {
	ty := r.m.Symbols.Symbols.Get(sym).Type
	sum := r.m.Binary(ast.OpAdd, ty, r.name(sym, sp), step, sp)
	return r.m.Assign(r.name(sym, sp), sum, sp)
}

// countedLoop builds `for k in range(n): body` with a fresh i32 counter.
// body receives the counter and returns the loop body.
func (r *rewriter) countedLoop(n int64, sp source.Span, body func(k symbols.SymbolID) []ir.StmtID) ir.StmtID {
	i32 := r.builtins().I32
	k := r.temp("k", i32, sp)
	return r.m.NewStmt(ir.Stmt{Kind: ir.StmtFor, Span: sp, Data: ir.ForData{
		Var:   k,
		Scope: r.scope,
		Range: ir.Range{Stop: r.intConst(i32, n, sp)},
		Body:  body(k),
	}})
}

func (r *rewriter) clone(id ir.ExprID) ir.ExprID {
	return (&ir.Cloner{M: r.m}).Expr(id)
}

// stable reports whether evaluating id twice is harmless and cheap: a
// constant, a name, or a field/index path over them with constant indices.
func (r *rewriter) stable(id ir.ExprID) bool {
	e := r.m.Expr(id)
	if e == nil {
		return false
	}
	switch d := e.Data.(type) {
	case ir.ConstData, ir.NameData:
		return true
	case ir.FieldData:
		return r.stable(d.Value)
	case ir.IndexData:
		_, constIdx := ir.ConstIntValue(r.m, d.Index)
		return constIdx && r.stable(d.Value)
	}
	return false
}

// rootSym returns the variable an assignment target ultimately writes.
func rootSym(m *ir.Module, target ir.ExprID) symbols.SymbolID {
	for {
		e := m.Expr(target)
		if e == nil {
			return symbols.NoSymbolID
		}
		switch d := e.Data.(type) {
		case ir.NameData:
			return d.Sym
		case ir.IndexData:
			target = d.Value
		case ir.FieldData:
			target = d.Value
		case ir.SectionData:
			target = d.Value
		default:
			return symbols.NoSymbolID
		}
	}
}

// mentions reports whether sym is referenced anywhere under id.
func mentions(m *ir.Module, id ir.ExprID, sym symbols.SymbolID) bool {
	found := false
	ir.WalkExpr(m, id, func(_ ir.ExprID, e *ir.Expr) bool {
		if d, ok := e.Data.(ir.NameData); ok && d.Sym == sym {
			found = true
		}
		return !found
	})
	return found
}

// rehomeExpr rewrites, in place, name references under id that occur in scope
// from so they occur in scope to. Comprehensions nested directly in from are
// re-parented under to; their elements keep their own scope.
func rehomeExpr(m *ir.Module, id ir.ExprID, from, to symbols.ScopeID) {
	e := m.Expr(id)
	if e == nil {
		return
	}
	switch d := e.Data.(type) {
	case ir.NameData:
		if d.Scope == from {
			e.Data = ir.NameData{Sym: d.Sym, Scope: to}
		}
		return
	case ir.CompData:
		if sc := m.Symbols.Scopes.Get(d.Scope); sc != nil && sc.Parent == from {
			m.Symbols.Reparent(d.Scope, to)
		}
		for _, b := range []ir.ExprID{d.Range.Start, d.Range.Stop, d.Range.Step} {
			if b.IsValid() {
				rehomeExpr(m, b, from, to)
			}
		}
		return
	}
	for _, c := range ir.ExprChildren(e) {
		rehomeExpr(m, c, from, to)
	}
}

// rehomeBlock applies rehomeExpr to every statement of body, including the
// scope recorded by for loops.
func rehomeBlock(m *ir.Module, body []ir.StmtID, from, to symbols.ScopeID) {
	ir.WalkStmts(m, body, func(_ ir.StmtID, s *ir.Stmt) bool {
		if d, ok := s.Data.(ir.ForData); ok && d.Scope == from {
			d.Scope = to
			s.Data = d
		}
		for _, e := range ir.StmtExprs(s) {
			rehomeExpr(m, e, from, to)
		}
		return true
	})
}

// lifter moves selected subexpressions out of a statement: each matching
// expression is computed into a temporary by statements placed before the
// statement that used it. Assignments whose whole value matches are expanded
// in place instead.
//
// Comprehension elements are never lifted from, since they run once per
// counter value. With lazy set, the right operand of and/or and while
// conditions are left untouched; otherwise they are restructured so the
// lifted code still runs only when the original would have evaluated it.
type lifter struct {
	*rewriter
	match   func(e *ir.Expr) bool
	store   func(l *lifter, target, value ir.ExprID, sp source.Span) []ir.StmtID
	rewrite func(l *lifter, id ir.ExprID) ir.ExprID
	// indexable exempts matching nodes that are indexed directly; rewrite
	// is expected to take them apart.
	indexable func(e *ir.Expr) bool
	special   func(l *lifter, id ir.StmtID) ([]ir.StmtID, bool)
	lazy      bool

	pre     []ir.StmtID
	changed bool
}

func (l *lifter) take() []ir.StmtID {
	pre := l.pre
	l.pre = nil
	return pre
}

// block rewrites a statement list; pending pre-statements of the caller are
// kept aside meanwhile.
func (l *lifter) block(body []ir.StmtID) []ir.StmtID {
	saved := l.pre
	l.pre = nil
	out := ir.RewriteBlocks(l.m, body, l.stmt)
	l.pre = saved
	return out
}

func (l *lifter) matches(id ir.ExprID) bool {
	e := l.m.Expr(id)
	return e != nil && l.match != nil && l.match(e)
}

//nolint:gocyclo // one case per statement kind
func (l *lifter) stmt(id ir.StmtID) []ir.StmtID {
	if l.special != nil {
		if out, ok := l.special(l, id); ok {
			l.changed = true
			return out
		}
	}
	s := *l.m.Stmt(id)
	switch d := s.Data.(type) {
	case ir.AssignData:
		if l.matches(d.Value) {
			l.changed = true
			target := l.path(d.Target)
			pre := l.take()
			out := l.store(l, target, d.Value, s.Span)
			return append(pre, out...)
		}
		d.Value = l.expr(d.Value)
		d.Target = l.path(d.Target)
		s.Data = d
	case ir.ExprStmtData:
		d.Value = l.expr(d.Value)
		s.Data = d
	case ir.IfData:
		d.Cond = l.expr(d.Cond)
		s.Data = d
	case ir.WhileData:
		if l.lazy {
			return []ir.StmtID{id}
		}
		cond := l.expr(d.Cond)
		pre := l.take()
		if len(pre) > 0 {
			// while c: body  =>  while True: pre; if not c: break; body
			brk := l.m.NewStmt(ir.Stmt{Kind: ir.StmtBreak, Span: s.Span})
			guard := l.m.NewStmt(ir.Stmt{Kind: ir.StmtIf, Span: s.Span, Data: ir.IfData{
				Cond: l.not(cond, s.Span),
				Then: []ir.StmtID{brk},
			}})
			cond = l.boolConst(true, s.Span)
			d.Body = append(append(pre, guard), d.Body...)
		}
		d.Cond = cond
		l.m.Stmt(id).Data = d
		return []ir.StmtID{id}
	case ir.ForData:
		d.Range = l.rangeExprs(d.Range)
		d.Iter = l.opt(d.Iter)
		s.Data = d
	case ir.ReturnData:
		d.Value = l.opt(d.Value)
		s.Data = d
	case ir.PrintData:
		d.Args = l.exprs(d.Args)
		d.Sep = l.opt(d.Sep)
		d.End = l.opt(d.End)
		s.Data = d
	default:
		return []ir.StmtID{id}
	}
	l.m.Stmt(id).Data = s.Data
	return append(l.take(), id)
}

func (l *lifter) opt(id ir.ExprID) ir.ExprID {
	if !id.IsValid() {
		return id
	}
	return l.expr(id)
}

// path lifts from the index expressions of a storage path (a target, or the
// base of an index) but never from the path nodes themselves.
func (l *lifter) path(id ir.ExprID) ir.ExprID {
	e := *l.m.Expr(id)
	switch d := e.Data.(type) {
	case ir.IndexData:
		d.Value = l.path(d.Value)
		d.Index = l.expr(d.Index)
		l.m.Expr(id).Data = d
	case ir.FieldData:
		d.Value = l.path(d.Value)
		l.m.Expr(id).Data = d
	case ir.SectionData:
		d.Value = l.path(d.Value)
		l.m.Expr(id).Data = d
	default:
		if l.indexable == nil || !l.indexable(&e) {
			return l.expr(id)
		}
		children := ir.ExprChildren(&e)
		mapped := make([]ir.ExprID, len(children))
		for i, c := range children {
			mapped[i] = l.path(c)
		}
		ir.SetChildren(l.m.Expr(id), mapped)
		return id
	}
	if l.rewrite != nil {
		return l.rewrite(l, id)
	}
	return id
}

func (l *lifter) expr(id ir.ExprID) ir.ExprID {
	e := l.m.Expr(id)
	if e == nil {
		return id
	}
	sp := e.Span
	switch d := e.Data.(type) {
	case ir.CompData:
		d.Range = l.rangeExprs(d.Range)
		l.m.Expr(id).Data = d
	case ir.IndexData:
		return l.path(id)
	case ir.BoolOpData:
		left := l.expr(d.Left)
		if l.lazy {
			d.Left = left
			l.m.Expr(id).Data = d
			break
		}
		outer := l.take()
		right := l.expr(d.Right)
		inner := l.take()
		l.pre = outer
		if len(inner) == 0 {
			d.Left, d.Right = left, right
			l.m.Expr(id).Data = d
			break
		}
		// a and b  =>  t = a; if t: inner; t = b
		t := l.temp("cond", l.builtins().Bool, sp)
		l.pre = append(l.pre, l.m.Assign(l.name(t, sp), left, sp))
		cond := l.name(t, sp)
		if d.Op == ast.BoolOr {
			cond = l.not(cond, sp)
		}
		then := append(inner, l.m.Assign(l.name(t, sp), right, sp))
		l.pre = append(l.pre, l.m.NewStmt(ir.Stmt{Kind: ir.StmtIf, Span: sp, Data: ir.IfData{Cond: cond, Then: then}}))
		return l.name(t, sp)
	default:
		if children := ir.ExprChildren(e); len(children) > 0 {
			ir.SetChildren(l.m.Expr(id), l.exprs(children))
		}
	}
	if l.rewrite != nil {
		id = l.rewrite(l, id)
	}
	if !l.matches(id) {
		return id
	}
	l.changed = true
	src := *l.m.Expr(id)
	t := l.temp("tmp", src.Type, src.Span)
	out := l.store(l, l.name(t, src.Span), id, src.Span)
	l.pre = append(l.pre, out...)
	return l.name(t, src.Span)
}

// exprs lifts from operands evaluated left to right. Code lifted out of one
// operand would run before the operands to its left, so those are first
// spilled into temporaries when they call functions or read memory.
func (l *lifter) exprs(ids []ir.ExprID) []ir.ExprID {
	out := make([]ir.ExprID, len(ids))
	for i, c := range ids {
		mark := len(l.pre)
		out[i] = l.expr(c)
		if len(l.pre) == mark || i == 0 {
			continue
		}
		lifted := append([]ir.StmtID(nil), l.pre[mark:]...)
		l.pre = l.pre[:mark]
		for j := range i {
			out[j] = l.spill(out[j])
		}
		l.pre = append(l.pre, lifted...)
	}
	return out
}

func (l *lifter) rangeExprs(r ir.Range) ir.Range {
	var ids []ir.ExprID
	for _, b := range []ir.ExprID{r.Start, r.Stop, r.Step} {
		if b.IsValid() {
			ids = append(ids, b)
		}
	}
	lifted := l.exprs(ids)
	for _, b := range []*ir.ExprID{&r.Start, &r.Stop, &r.Step} {
		if b.IsValid() {
			*b, lifted = lifted[0], lifted[1:]
		}
	}
	return r
}

// spill moves an order-sensitive scalar operand into a temporary assigned
// at the current end of the pre-statements.
func (l *lifter) spill(id ir.ExprID) ir.ExprID {
	e := l.m.Expr(id)
	if e == nil || !l.orderSensitive(id) {
		return id
	}
	ty := e.Type
	tt := l.m.Types
	if ty == l.builtins().None || tt.IsArray(ty) || tt.IsClass(ty) {
		return id
	}
	sp := e.Span
	t := l.temp("arg", ty, sp)
	l.pre = append(l.pre, l.m.Assign(l.name(t, sp), id, sp))
	return l.name(t, sp)
}

// orderSensitive reports whether id calls a function or reads an element
// or field, which code lifted from a later operand could change.
func (l *lifter) orderSensitive(id ir.ExprID) bool {
	found := false
	ir.WalkExpr(l.m, id, func(_ ir.ExprID, e *ir.Expr) bool {
		switch e.Kind {
		case ir.ExprCall, ir.ExprIndex, ir.ExprField:
			found = true
		}
		return !found
	})
	return found
}

// run applies the lifter to every body of the module.
func (l lifter) run(m *ir.Module) bool {
	changed := false
	eachBody(m, func(r *rewriter, body []ir.StmtID) []ir.StmtID {
		ll := l
		ll.rewriter = r
		out := ll.block(body)
		changed = changed || ll.changed
		return out
	})
	return changed
}

// viaTemp computes value into a fresh temporary first and then stores the
// temporary into target. Used when target is read by value.
func (l *lifter) viaTemp(target, value ir.ExprID, sp source.Span) []ir.StmtID {
	t := l.temp("tmp", l.typeOf(value), sp)
	first := l.m.Assign(l.name(t, sp), value, sp)
	second := l.m.Assign(target, l.name(t, sp), sp)
	return l.block([]ir.StmtID{first, second})
}
