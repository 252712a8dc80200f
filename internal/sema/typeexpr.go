package sema

import (
	"math"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/symbols"
	"viper/internal/types"
)

// resolveType turns an annotation expression into a type: a primitive name,
// None, a class name, or T[N] for a fixed array.
func (l *lowerer) resolveType(id ast.ExprID) types.TypeID {
	e := l.b.Exprs.Get(id)
	if e == nil {
		return types.NoTypeID
	}
	switch e.Kind {
	case ast.ExprBad:
		return types.NoTypeID
	case ast.ExprConst:
		if c := l.b.Exprs.Const(id); c.Kind == ast.ConstNone {
			return l.builtins().None
		}
	case ast.ExprName:
		name := l.b.Exprs.Name(id).Name
		if ty, ok := l.tys.Named(l.name(name)); ok {
			return ty
		}
		if sym := l.tbl.Lookup(l.m.Scope, name); sym.IsValid() {
			if s := l.sym(sym); s.Kind == symbols.SymbolClass {
				return s.Type
			}
		}
		l.errorf(diag.SemaUnknownType, e.Span, "unknown type %q", l.name(name))
		return types.NoTypeID
	case ast.ExprSubscript:
		sub := l.b.Exprs.Subscript(id)
		elem := l.resolveType(sub.Value)
		n, ok := l.astConstInt(sub.Index)
		if !ok {
			l.errorf(diag.SemaArrayLength, l.b.Exprs.Get(sub.Index).Span, "array length must be an integer constant")
			return types.NoTypeID
		}
		if n <= 0 || n > math.MaxInt32 {
			l.errorf(diag.SemaArrayLength, l.b.Exprs.Get(sub.Index).Span, "array length %d is out of range", n)
			return types.NoTypeID
		}
		if types.IsInvalid(elem) {
			return types.NoTypeID
		}
		if elem == l.builtins().None {
			l.errorf(diag.SemaUnknownType, e.Span, "arrays of None are not supported")
			return types.NoTypeID
		}
		return l.tys.Intern(types.MakeArray(elem, uint32(n)))
	}
	l.errorf(diag.SemaUnknownType, e.Span, "%s is not a type", e.Kind)
	return types.NoTypeID
}

// astConstInt folds an integer literal with an optional leading minus
// straight from the syntax tree.
func (l *lowerer) astConstInt(id ast.ExprID) (int64, bool) {
	e := l.b.Exprs.Get(id)
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case ast.ExprConst:
		c := l.b.Exprs.Const(id)
		if c.Kind != ast.ConstInt {
			return 0, false
		}
		v, err := parseInt(c.Raw)
		return v, err == nil
	case ast.ExprUnary:
		u := l.b.Exprs.Unary(id)
		if u.Op != ast.OpNeg {
			return 0, false
		}
		v, ok := l.astConstInt(u.Operand)
		return -v, ok
	}
	return 0, false
}

// isLiteral reports whether id is a numeric literal, possibly negated. Such
// operands take their type from the other side of an operator.
func (l *lowerer) isLiteral(id ast.ExprID) bool {
	e := l.b.Exprs.Get(id)
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.ExprConst:
		k := l.b.Exprs.Const(id).Kind
		return k == ast.ConstInt || k == ast.ConstFloat
	case ast.ExprUnary:
		u := l.b.Exprs.Unary(id)
		return (u.Op == ast.OpNeg || u.Op == ast.OpPos) && l.isLiteral(u.Operand)
	}
	return false
}
