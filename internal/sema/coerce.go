package sema

import (
	"strconv"
	"strings"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/types"
)

func (l *lowerer) typeOf(id ir.ExprID) types.TypeID {
	if e := l.m.Expr(id); e != nil {
		return e.Type
	}
	return types.NoTypeID
}

// coerce makes id usable where want is expected. Integer and float literals
// are retyped in place; relaxed mode also widens through an explicit cast.
// A mismatch is reported once and yields an error placeholder.
func (l *lowerer) coerce(id ir.ExprID, want types.TypeID, sp source.Span, what string) ir.ExprID {
	got := l.typeOf(id)
	if l.retypeLiteral(id, want) {
		return id
	}
	switch l.tys.Assignable(want, got, l.opts.Strict) {
	case types.CoerceIdentity:
		return id
	case types.CoerceWiden:
		return l.cast(id, want)
	}
	l.errorf(diag.SemaTypeMismatch, sp, "%s: expected %s, got %s", what, l.typeName(want), l.typeName(got))
	return l.errorExpr(sp)
}

// unify brings two operands to a common type for a binary operator or a
// comparison. Literals adopt the other side's type; relaxed mode widens the
// narrower operand.
func (l *lowerer) unify(a, b ir.ExprID) (ir.ExprID, ir.ExprID) {
	ta, tb := l.typeOf(a), l.typeOf(b)
	if ta == tb || types.IsInvalid(ta) || types.IsInvalid(tb) {
		return a, b
	}
	scalarA, scalarB := l.scalar(ta), l.scalar(tb)
	if l.retypeLiteral(b, scalarA) || l.retypeLiteral(a, scalarB) {
		return a, b
	}
	if l.opts.Strict || l.tys.IsArray(ta) || l.tys.IsArray(tb) {
		return a, b
	}
	switch {
	case l.tys.Assignable(ta, tb, false) == types.CoerceWiden:
		return a, l.cast(b, ta)
	case l.tys.Assignable(tb, ta, false) == types.CoerceWiden:
		return l.cast(a, tb), b
	}
	return a, b
}

// scalar is the element type of an array and the type itself otherwise.
func (l *lowerer) scalar(ty types.TypeID) types.TypeID {
	if l.tys.IsArray(ty) {
		return l.tys.Elem(ty)
	}
	return ty
}

// retypeLiteral changes the type of an integer or float constant to want
// when the value is representable there.
func (l *lowerer) retypeLiteral(id ir.ExprID, want types.TypeID) bool {
	e := l.m.Expr(id)
	if e == nil || e.Type == want || types.IsInvalid(want) {
		return false
	}
	switch d := e.Data.(type) {
	case ir.ConstData:
		switch {
		case d.Kind == ir.ConstInt && l.tys.IsInt(want) && l.tys.FitsInt(want, d.Int):
			e.Type = want
			return true
		case d.Kind == ir.ConstInt && l.tys.IsFloat(want):
			e.Type = want
			e.Data = ir.ConstData{Kind: ir.ConstFloat, Float: float64(d.Int)}
			return true
		case d.Kind == ir.ConstFloat && l.tys.IsFloat(want):
			e.Type = want
			return true
		}
	case ir.UnaryData:
		if !l.retypeLiteral(d.Operand, want) {
			return false
		}
		e.Type = want
		return true
	}
	return false
}

func (l *lowerer) cast(id ir.ExprID, to types.TypeID) ir.ExprID {
	sp := l.m.Expr(id).Span
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprCast, Type: to, Span: sp, Data: ir.CastData{Value: id}})
}

// parseInt decodes an integer literal: decimal, 0b/0o/0x prefixed, with
// optional underscores. Leading zeros in decimal are not octal.
func parseInt(raw string) (int64, error) {
	s := strings.ReplaceAll(raw, "_", "")
	if len(s) > 1 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			return strconv.ParseInt(s, 0, 64)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, "_", ""), 64)
}
