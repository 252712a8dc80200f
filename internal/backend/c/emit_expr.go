package c

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"viper/internal/ast"
	"viper/internal/ir"
	"viper/internal/types"
)

//nolint:gocyclo // one case per expression kind
func (e *emitter) expr(id ir.ExprID) string {
	x := e.m.Expr(id)
	switch d := x.Data.(type) {
	case ir.ConstData:
		return e.constant(x.Type, d)
	case ir.NameData:
		return e.varName(d.Sym)
	case ir.UnaryData:
		if e.tys.IsArray(x.Type) {
			return e.unsupported(id, "element-wise arithmetic")
		}
		operand := e.expr(d.Operand)
		switch d.Op {
		case ast.OpNot:
			return "(!" + operand + ")"
		case ast.OpPos:
			return operand
		}
		return e.narrow(x.Type, d.Op.Symbol()+operand)
	case ir.BinaryData:
		if e.tys.IsArray(x.Type) {
			return e.unsupported(id, "element-wise arithmetic")
		}
		return e.binary(x.Type, d)
	case ir.CompareData:
		l, r := e.expr(d.Left), e.expr(d.Right)
		if e.m.Expr(d.Left).Type == e.tys.Builtins().String {
			return fmt.Sprintf("(viper_str_cmp(%s, %s) %s 0)", l, r, d.Op.Symbol())
		}
		return fmt.Sprintf("(%s %s %s)", l, d.Op.Symbol(), r)
	case ir.BoolOpData:
		op := "&&"
		if d.Op == ast.BoolOr {
			op = "||"
		}
		return fmt.Sprintf("(%s %s %s)", e.expr(d.Left), op, e.expr(d.Right))
	case ir.CallData:
		args := make([]string, len(d.Args))
		for i, a := range d.Args {
			args[i] = e.expr(a)
		}
		return e.funcName(d.Callee) + "(" + strings.Join(args, ", ") + ")"
	case ir.CastData:
		v := e.expr(d.Value)
		if x.Type == e.tys.Builtins().Bool {
			return "(" + v + " != 0)"
		}
		return "((" + e.ctype(x.Type) + ")" + v + ")"
	case ir.IndexData:
		return e.expr(d.Value) + ".a[" + e.expr(d.Index) + "]"
	case ir.FieldData:
		vt := e.m.Expr(d.Value).Type
		info, ok := e.tys.ClassInfo(vt)
		if !ok || d.Field >= len(info.Fields) {
			return e.unsupported(id, "a field of "+e.tys.String(vt))
		}
		return e.expr(d.Value) + ".f_" + mangle(info.Fields[d.Field].Name)
	case ir.SectionData:
		return e.unsupported(id, "array sections")
	case ir.ArrayData:
		return e.unsupported(id, "array displays")
	case ir.CompData:
		return e.unsupported(id, "comprehensions")
	case ir.ConstructData:
		return e.unsupported(id, "constructor calls")
	}
	return e.unsupported(id, x.Kind.String()+" expressions")
}

func (e *emitter) constant(ty types.TypeID, d ir.ConstData) string {
	switch d.Kind {
	case ir.ConstInt:
		if d.Int == math.MinInt64 {
			return "INT64_MIN"
		}
		if ty == e.tys.Builtins().I64 {
			return "INT64_C(" + strconv.FormatInt(d.Int, 10) + ")"
		}
		if d.Int < 0 {
			return "(" + strconv.FormatInt(d.Int, 10) + ")"
		}
		return strconv.FormatInt(d.Int, 10)
	case ir.ConstFloat:
		return e.floatLit(ty, d.Float)
	case ir.ConstBool:
		if d.Bool {
			return "true"
		}
		return "false"
	case ir.ConstStr:
		return cQuote(d.Str)
	}
	return "0"
}

func (e *emitter) floatLit(ty types.TypeID, v float64) string {
	var s string
	switch {
	case math.IsNaN(v):
		s = "NAN"
	case math.IsInf(v, 1):
		s = "INFINITY"
	case math.IsInf(v, -1):
		s = "(-INFINITY)"
	default:
		s = strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		if v < 0 {
			s = "(" + s + ")"
		}
	}
	if ty == e.tys.Builtins().F32 {
		return "((float)" + s + ")"
	}
	return s
}

// narrow casts an arithmetic result back to ty, undoing C's integer
// promotion for i8 and i16.
func (e *emitter) narrow(ty types.TypeID, expr string) string {
	return "((" + e.ctype(ty) + ")(" + expr + "))"
}

func (e *emitter) binary(ty types.TypeID, d ir.BinaryData) string {
	lt := e.m.Expr(d.Left).Type
	l, r := e.expr(d.Left), e.expr(d.Right)
	isInt := e.tys.IsInt(lt)
	switch d.Op {
	case ast.OpAdd:
		if lt == e.tys.Builtins().String {
			return fmt.Sprintf("viper_str_concat(%s, %s)", l, r)
		}
	case ast.OpDiv:
		if isInt {
			return fmt.Sprintf("((double)%s / (double)%s)", l, r)
		}
	case ast.OpFloorDiv:
		if isInt {
			return e.narrow(ty, fmt.Sprintf("viper_ifloordiv(%s, %s)", l, r))
		}
		return e.narrow(ty, fmt.Sprintf("viper_ffloordiv(%s, %s)", l, r))
	case ast.OpMod:
		if isInt {
			return e.narrow(ty, fmt.Sprintf("viper_imod(%s, %s)", l, r))
		}
		return e.narrow(ty, fmt.Sprintf("viper_fmod(%s, %s)", l, r))
	case ast.OpPow:
		if isInt {
			return e.narrow(ty, fmt.Sprintf("viper_ipow(%s, %s)", l, r))
		}
		return e.narrow(ty, fmt.Sprintf("pow(%s, %s)", l, r))
	}
	if ty == e.tys.Builtins().Bool {
		return fmt.Sprintf("((bool)(%s %s %s))", l, d.Op.Symbol(), r)
	}
	return e.narrow(ty, fmt.Sprintf("%s %s %s", l, d.Op.Symbol(), r))
}
