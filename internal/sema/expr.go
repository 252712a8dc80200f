package sema

import (
	"math"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// expr lowers one expression. hint is the type the context expects, used
// only to type literals; NoTypeID means no expectation.
//
//nolint:gocyclo // one case per expression kind
func (l *lowerer) expr(id ast.ExprID, hint types.TypeID) ir.ExprID {
	e := l.b.Exprs.Get(id)
	if e == nil {
		return l.errorExpr(source.Span{})
	}
	switch e.Kind {
	case ast.ExprBad:
		return l.errorExpr(e.Span)
	case ast.ExprConst:
		return l.literal(l.b.Exprs.Const(id), hint, false, e.Span)
	case ast.ExprName:
		return l.nameRef(l.b.Exprs.Name(id).Name, e.Span)
	case ast.ExprUnary:
		return l.unary(l.b.Exprs.Unary(id), hint, e.Span)
	case ast.ExprBinary:
		d := l.b.Exprs.Binary(id)
		return l.binary(d.Op, d.Left, d.Right, hint, e.Span)
	case ast.ExprBoolOp:
		d := l.b.Exprs.BoolOpOf(id)
		left := l.condition(d.Left, "operand of "+boolOpWord(d.Op))
		right := l.condition(d.Right, "operand of "+boolOpWord(d.Op))
		return l.m.NewExpr(ir.Expr{Kind: ir.ExprBoolOp, Type: l.builtins().Bool, Span: e.Span,
			Data: ir.BoolOpData{Op: d.Op, Left: left, Right: right}})
	case ast.ExprCompare:
		return l.compare(l.b.Exprs.Compare(id), e.Span)
	case ast.ExprCall:
		return l.call(id, hint, e.Span)
	case ast.ExprAttribute:
		return l.attribute(l.b.Exprs.Attribute(id), e.Span)
	case ast.ExprSubscript:
		return l.subscript(l.b.Exprs.Subscript(id), e.Span)
	case ast.ExprSlice:
		l.errorf(diag.SemaUnsupported, e.Span, "a slice is only valid inside a subscript")
		return l.errorExpr(e.Span)
	case ast.ExprList:
		return l.list(l.b.Exprs.List(id).Elts, hint, e.Span)
	case ast.ExprListComp:
		return l.comprehension(l.b.Exprs.ListComp(id), hint, e.Span)
	}
	l.errorf(diag.SemaUnsupported, e.Span, "unsupported expression %s", e.Kind)
	return l.errorExpr(e.Span)
}

func boolOpWord(op ast.BoolOp) string {
	if op == ast.BoolAnd {
		return "'and'"
	}
	return "'or'"
}

// literal lowers a constant. Numbers take the hinted width when it is an
// integer (or float) type; a negated literal is folded so that the most
// negative value of each width is accepted.
func (l *lowerer) literal(c *ast.ExprConstData, hint types.TypeID, negate bool, sp source.Span) ir.ExprID {
	b := l.builtins()
	mk := func(ty types.TypeID, d ir.ConstData) ir.ExprID {
		return l.m.NewExpr(ir.Expr{Kind: ir.ExprConst, Type: ty, Span: sp, Data: d})
	}
	switch c.Kind {
	case ast.ConstInt:
		v, err := parseInt(c.Raw)
		if err != nil {
			// единственный случай, где ParseInt падает на валидном токене: переполнение
			if negate && c.Raw == "9223372036854775808" {
				return mk(b.I64, ir.ConstData{Kind: ir.ConstInt, Int: math.MinInt64})
			}
			l.errorf(diag.SemaIntLiteralRange, sp, "integer literal %s does not fit in 64 bits", c.Raw)
			return l.errorExpr(sp)
		}
		if negate {
			v = -v
		}
		hint = l.scalar(hint)
		if l.tys.IsFloat(hint) {
			return mk(hint, ir.ConstData{Kind: ir.ConstFloat, Float: float64(v)})
		}
		ty := b.I32
		if l.tys.IsInt(hint) {
			ty = hint
		}
		if !l.tys.FitsInt(ty, v) {
			if ty == b.I32 && !l.tys.IsInt(hint) {
				ty = b.I64
			} else {
				l.errorf(diag.SemaIntLiteralRange, sp, "integer literal %d does not fit in %s", v, l.typeName(ty))
				return l.errorExpr(sp)
			}
		}
		return mk(ty, ir.ConstData{Kind: ir.ConstInt, Int: v})
	case ast.ConstFloat:
		v, err := parseFloat(c.Raw)
		if err != nil {
			l.errorf(diag.SemaIntLiteralRange, sp, "malformed float literal %s", c.Raw)
			return l.errorExpr(sp)
		}
		if negate {
			v = -v
		}
		ty := b.F64
		if h := l.scalar(hint); l.tys.IsFloat(h) {
			ty = h
		}
		return mk(ty, ir.ConstData{Kind: ir.ConstFloat, Float: v})
	case ast.ConstStr:
		return mk(b.String, ir.ConstData{Kind: ir.ConstStr, Str: c.Str})
	case ast.ConstTrue, ast.ConstFalse:
		return mk(b.Bool, ir.ConstData{Kind: ir.ConstBool, Bool: c.Kind == ast.ConstTrue})
	default:
		return mk(b.None, ir.ConstData{Kind: ir.ConstNone})
	}
}

// nameRef resolves a variable reference from the current scope.
func (l *lowerer) nameRef(name source.StringID, sp source.Span) ir.ExprID {
	id := l.res.Resolve(name)
	if !id.IsValid() {
		l.errorf(diag.SemaUndefinedName, sp, "name %q is not defined", l.name(name))
		return l.errorExpr(sp)
	}
	switch sym := l.sym(id); sym.Kind {
	case symbols.SymbolVariable, symbols.SymbolParam:
		return l.m.NameRef(id, l.res.Current(), sp)
	default:
		l.errorf(diag.SemaUnsupported, sp, "%s %q cannot be used as a value", sym.Kind, l.name(name))
		return l.errorExpr(sp)
	}
}

func (l *lowerer) unary(d *ast.ExprUnaryData, hint types.TypeID, sp source.Span) ir.ExprID {
	if c := l.b.Exprs.Const(d.Operand); c != nil && (c.Kind == ast.ConstInt || c.Kind == ast.ConstFloat) {
		switch d.Op {
		case ast.OpNeg:
			return l.literal(c, hint, true, sp)
		case ast.OpPos:
			return l.literal(c, hint, false, sp)
		}
	}
	if d.Op == ast.OpNot {
		hint = l.builtins().Bool
	}
	operand := l.expr(d.Operand, hint)
	ot := l.typeOf(operand)
	ty, ok := l.tys.UnaryResult(d.Op, ot)
	if !ok {
		l.errorf(diag.SemaBadOperand, sp, "bad operand type for unary %s: %s", d.Op.Symbol(), l.typeName(ot))
		return l.errorExpr(sp)
	}
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprUnary, Type: ty, Span: sp, Data: ir.UnaryData{Op: d.Op, Operand: operand}})
}

// operands lowers both sides of an operator. A literal side is lowered
// second so it can take the other side's type.
func (l *lowerer) operands(left, right ast.ExprID, hint types.TypeID) (ir.ExprID, ir.ExprID) {
	var a, b ir.ExprID
	if l.isLiteral(left) && !l.isLiteral(right) {
		b = l.expr(right, hint)
		a = l.expr(left, l.scalar(l.typeOf(b)))
	} else {
		a = l.expr(left, hint)
		b = l.expr(right, l.scalar(l.typeOf(a)))
	}
	return l.unify(a, b)
}

func (l *lowerer) binary(op ast.BinaryOp, left, right ast.ExprID, hint types.TypeID, sp source.Span) ir.ExprID {
	if op == ast.OpDiv && l.tys.IsFloat(l.scalar(hint)) {
		// 1/2 в контексте f64: литералы сразу float
		hint = l.scalar(hint)
	} else if op == ast.OpDiv {
		hint = types.NoTypeID
	}
	a, b := l.operands(left, right, hint)
	ta, tb := l.typeOf(a), l.typeOf(b)
	ty, ok := l.tys.BinaryResult(op, ta, tb)
	if !ok {
		l.errorf(diag.SemaBadOperand, sp, "unsupported operand types for %s: %s and %s", op.Symbol(), l.typeName(ta), l.typeName(tb))
		return l.errorExpr(sp)
	}
	if types.IsInvalid(ty) {
		return l.errorExpr(sp)
	}
	return l.m.Binary(op, ty, a, b, sp)
}

// compare lowers a chain a < b < c into (a < b) and (b < c), copying the
// shared middle operand.
func (l *lowerer) compare(d *ast.ExprCompareData, sp source.Span) ir.ExprID {
	result := ir.NoExprID
	prev := ir.NoExprID
	for i, op := range d.Ops {
		var a, b ir.ExprID
		if prev.IsValid() {
			a = (&ir.Cloner{M: l.m}).Expr(prev)
			b = l.expr(d.Operands[i+1], l.typeOf(a))
			a, b = l.unify(a, b)
		} else {
			a, b = l.operands(d.Operands[i], d.Operands[i+1], types.NoTypeID)
		}
		prev = b
		ta, tb := l.typeOf(a), l.typeOf(b)
		var cmp ir.ExprID
		if !l.tys.Comparable(op, ta, tb) {
			l.errorf(diag.SemaBadOperand, sp, "cannot compare %s and %s with %s", l.typeName(ta), l.typeName(tb), op.Symbol())
			cmp = l.errorExpr(sp)
		} else {
			cmp = l.m.Compare(op, a, b, sp)
		}
		if !result.IsValid() {
			result = cmp
			continue
		}
		result = l.m.NewExpr(ir.Expr{Kind: ir.ExprBoolOp, Type: l.builtins().Bool, Span: sp,
			Data: ir.BoolOpData{Op: ast.BoolAnd, Left: result, Right: cmp}})
	}
	return result
}

// condition lowers an expression that must be bool.
func (l *lowerer) condition(id ast.ExprID, what string) ir.ExprID {
	c := l.expr(id, l.builtins().Bool)
	if ty := l.typeOf(c); !types.IsInvalid(ty) && ty != l.builtins().Bool {
		l.errorf(diag.SemaBadCondition, l.m.Expr(c).Span, "%s must be bool, got %s", what, l.typeName(ty))
		return l.errorExpr(l.m.Expr(c).Span)
	}
	return c
}

func (l *lowerer) attribute(d *ast.ExprAttributeData, sp source.Span) ir.ExprID {
	if n := l.b.Exprs.Name(d.Value); n != nil {
		if sym := l.res.Resolve(n.Name); sym.IsValid() && l.sym(sym).Kind == symbols.SymbolModule {
			l.errorf(diag.SemaUnsupported, sp, "attributes of module %s are not supported", l.name(n.Name))
			return l.errorExpr(sp)
		}
	}
	value := l.expr(d.Value, types.NoTypeID)
	vt := l.typeOf(value)
	if types.IsInvalid(vt) {
		return l.errorExpr(sp)
	}
	if !l.tys.IsClass(vt) {
		l.errorf(diag.SemaUnknownField, d.AttrSpan, "%s has no attribute %q", l.typeName(vt), l.name(d.Attr))
		return l.errorExpr(sp)
	}
	idx, fty, ok := l.tys.FieldIndex(vt, l.name(d.Attr))
	if !ok {
		l.errorf(diag.SemaUnknownField, d.AttrSpan, "class %s has no field %q", l.typeName(vt), l.name(d.Attr))
		return l.errorExpr(sp)
	}
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprField, Type: fty, Span: sp, Data: ir.FieldData{Value: value, Field: idx}})
}

func (l *lowerer) subscript(d *ast.ExprSubscriptData, sp source.Span) ir.ExprID {
	value := l.expr(d.Value, types.NoTypeID)
	vt := l.typeOf(value)
	if sl := l.b.Exprs.Slice(d.Index); sl != nil {
		return l.section(value, sl, sp)
	}
	index := l.expr(d.Index, l.builtins().I32)
	it := l.typeOf(index)
	if types.IsInvalid(vt) {
		return l.errorExpr(sp)
	}
	if !l.tys.IsArray(vt) {
		l.errorf(diag.SemaNotIndexable, sp, "%s is not indexable", l.typeName(vt))
		return l.errorExpr(sp)
	}
	if !types.IsInvalid(it) && !l.tys.IsInt(it) {
		l.errorf(diag.SemaTypeMismatch, l.m.Expr(index).Span, "array index must be an integer, got %s", l.typeName(it))
		return l.errorExpr(sp)
	}
	if v, ok := ir.ConstIntValue(l.m, index); ok {
		n := int64(l.tys.ArrayLen(vt))
		if v < 0 {
			v += n
		}
		if v < 0 || v >= n {
			l.errorf(diag.SemaArrayLength, l.m.Expr(index).Span, "index out of range for %s", l.typeName(vt))
			return l.errorExpr(sp)
		}
		index = l.m.ConstInt(it, v, l.m.Expr(index).Span)
	}
	return l.m.Index(l.tys.Elem(vt), value, index, sp)
}

// section lowers a[lo:hi:step]. Bounds must be constants; they are
// normalized the way Python's slice.indices does.
func (l *lowerer) section(value ir.ExprID, sl *ast.ExprSliceData, sp source.Span) ir.ExprID {
	vt := l.typeOf(value)
	bound := func(id ast.ExprID) (int64, bool, bool) {
		if !id.IsValid() {
			return 0, false, true
		}
		v, ok := l.astConstInt(id)
		if !ok {
			l.errorf(diag.SemaUnsupported, l.b.Exprs.Get(id).Span, "slice bounds must be integer constants")
		}
		return v, true, ok
	}
	lo, hasLo, ok1 := bound(sl.Lower)
	hi, hasHi, ok2 := bound(sl.Upper)
	step, hasStep, ok3 := bound(sl.Step)
	if !ok1 || !ok2 || !ok3 || types.IsInvalid(vt) {
		return l.errorExpr(sp)
	}
	if !l.tys.IsArray(vt) {
		l.errorf(diag.SemaNotIndexable, sp, "%s cannot be sliced", l.typeName(vt))
		return l.errorExpr(sp)
	}
	if !hasStep {
		step = 1
	}
	if step == 0 {
		l.errorf(diag.SemaArrayLength, sp, "slice step cannot be zero")
		return l.errorExpr(sp)
	}
	n := int64(l.tys.ArrayLen(vt))
	lo, hi = sliceIndices(n, lo, hasLo, hi, hasHi, step)
	count := ir.SectionLen(lo, hi, step)
	if count == 0 {
		l.errorf(diag.SemaArrayLength, sp, "slice selects no elements of %s", l.typeName(vt))
		return l.errorExpr(sp)
	}
	ty := l.tys.Intern(types.MakeArray(l.tys.Elem(vt), uint32(count)))
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprSection, Type: ty, Span: sp,
		Data: ir.SectionData{Value: value, Lower: lo, Upper: hi, Step: step}})
}

func sliceIndices(n, lo int64, hasLo bool, hi int64, hasHi bool, step int64) (int64, int64) {
	clamp := func(v, low, high int64) int64 {
		if v < 0 {
			v += n
		}
		return min(max(v, low), high)
	}
	if step > 0 {
		start, stop := int64(0), n
		if hasLo {
			start = clamp(lo, 0, n)
		}
		if hasHi {
			stop = clamp(hi, 0, n)
		}
		return start, stop
	}
	start, stop := n-1, int64(-1)
	if hasLo {
		start = clamp(lo, -1, n-1)
	}
	if hasHi {
		stop = clamp(hi, -1, n-1)
	}
	return start, stop
}

// list lowers an array display; the first element fixes the element type
// unless the context supplies one.
func (l *lowerer) list(elts []ast.ExprID, hint types.TypeID, sp source.Span) ir.ExprID {
	if len(elts) == 0 {
		l.errorf(diag.SemaArrayLength, sp, "empty list displays are not supported")
		return l.errorExpr(sp)
	}
	elem := types.NoTypeID
	if l.tys.IsArray(hint) {
		elem = l.tys.Elem(hint)
	}
	vals := make([]ir.ExprID, 0, len(elts))
	for _, el := range elts {
		v := l.expr(el, elem)
		if types.IsInvalid(elem) {
			elem = l.typeOf(v)
		} else {
			v = l.coerce(v, elem, l.b.Exprs.Get(el).Span, "list element")
		}
		vals = append(vals, v)
	}
	if types.IsInvalid(elem) {
		return l.errorExpr(sp)
	}
	if elem == l.builtins().None {
		l.errorf(diag.SemaTypeMismatch, sp, "arrays of None are not supported")
		return l.errorExpr(sp)
	}
	ty := l.tys.Intern(types.MakeArray(elem, uint32(len(vals))))
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprArray, Type: ty, Span: sp, Data: ir.ArrayData{Elems: vals}})
}

// comprehension lowers [e for i in range(...)]. The range must be constant so
// the result has a fixed length.
func (l *lowerer) comprehension(d *ast.ExprListCompData, hint types.TypeID, sp source.Span) ir.ExprID {
	target := l.b.Exprs.Name(d.Target)
	rng, ok := l.rangeCall(d.Iter, types.NoTypeID)
	if !ok || target == nil {
		if ok {
			l.errorf(diag.SemaUnsupported, l.b.Exprs.Get(d.Target).Span, "comprehension target must be a name")
		}
		return l.errorExpr(sp)
	}
	count, constant := ir.ConstRangeLen(l.m, rng)
	if !constant {
		l.errorf(diag.SemaArrayLength, l.b.Exprs.Get(d.Iter).Span, "comprehension range must have constant bounds")
		return l.errorExpr(sp)
	}
	if count == 0 {
		l.errorf(diag.SemaArrayLength, l.b.Exprs.Get(d.Iter).Span, "comprehension range is empty")
		return l.errorExpr(sp)
	}
	counterTy := l.typeOf(rng.Stop)
	scope := l.res.Push(symbols.ScopeComprehension, symbols.NoSymbolID, sp)
	v := l.res.Declare(symbols.Symbol{Name: target.Name, Kind: symbols.SymbolVariable, Type: counterTy, Span: l.b.Exprs.Get(d.Target).Span})
	elemHint := types.NoTypeID
	if l.tys.IsArray(hint) {
		elemHint = l.tys.Elem(hint)
	}
	elt := l.expr(d.Elt, elemHint)
	l.res.Leave()
	et := l.typeOf(elt)
	if types.IsInvalid(et) {
		return l.errorExpr(sp)
	}
	if et == l.builtins().None {
		l.errorf(diag.SemaTypeMismatch, sp, "arrays of None are not supported")
		return l.errorExpr(sp)
	}
	ty := l.tys.Intern(types.MakeArray(et, uint32(count)))
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprComp, Type: ty, Span: sp,
		Data: ir.CompData{Elt: elt, Var: v, Scope: scope, Range: rng}})
}

// rangeCall lowers the iterable of a for loop or comprehension when it is a
// call of the builtin range. counter is the loop variable's type, if known.
func (l *lowerer) rangeCall(id ast.ExprID, counter types.TypeID) (ir.Range, bool) {
	e := l.b.Exprs.Get(id)
	call := l.b.Exprs.Call(id)
	if call == nil || !l.isBuiltin(call.Func, "range") {
		if e.Kind != ast.ExprBad {
			l.errorf(diag.SemaBadIterable, e.Span, "only range(...) can be iterated here")
		}
		return ir.Range{}, false
	}
	if len(call.Args) < 1 || len(call.Args) > 3 {
		l.errorf(diag.SemaArgCount, e.Span, "range expected 1 to 3 arguments, got %d", len(call.Args))
		return ir.Range{}, false
	}
	for _, a := range call.Args {
		if a.Kind != ast.ArgPositional {
			l.errorf(diag.SemaUnsupported, a.Span, "range takes positional arguments only")
			return ir.Range{}, false
		}
	}
	if types.IsInvalid(counter) || !l.tys.IsInt(counter) {
		counter = l.builtins().I32
	}
	bound := func(a ast.CallArg) ir.ExprID {
		v := l.expr(a.Value, counter)
		if t := l.typeOf(v); !types.IsInvalid(t) && !l.tys.IsInt(t) {
			l.errorf(diag.SemaTypeMismatch, a.Span, "range bound must be an integer, got %s", l.typeName(t))
			return l.errorExpr(a.Span)
		}
		return l.coerce(v, counter, a.Span, "range bound")
	}
	var r ir.Range
	switch len(call.Args) {
	case 1:
		r.Stop = bound(call.Args[0])
	default:
		r.Start = bound(call.Args[0])
		r.Stop = bound(call.Args[1])
		if len(call.Args) == 3 {
			r.Step = bound(call.Args[2])
			if v, ok := ir.ConstIntValue(l.m, r.Step); ok && v == 0 {
				l.errorf(diag.SemaArgCount, call.Args[2].Span, "range step must not be zero")
				return ir.Range{}, false
			}
		}
	}
	return r, true
}

// isBuiltin reports whether callee is the unshadowed builtin name.
func (l *lowerer) isBuiltin(callee ast.ExprID, name string) bool {
	n := l.b.Exprs.Name(callee)
	return n != nil && l.name(n.Name) == name && !l.res.Resolve(n.Name).IsValid()
}
