package sema

import (
	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// call lowers a call expression: a user function, a class constructor, a
// conversion through a type name, or the len builtin.
func (l *lowerer) call(id ast.ExprID, hint types.TypeID, sp source.Span) ir.ExprID {
	d := l.b.Exprs.Call(id)
	for _, a := range d.Args {
		if a.Kind == ast.ArgStar || a.Kind == ast.ArgDoubleStar {
			l.errorf(diag.SemaUnsupported, a.Span, "argument unpacking is not supported")
			return l.errorExpr(sp)
		}
	}
	callee := l.b.Exprs.Get(d.Func)
	switch callee.Kind {
	case ast.ExprBad:
		return l.errorExpr(sp)
	case ast.ExprAttribute:
		attr := l.b.Exprs.Attribute(d.Func)
		if n := l.b.Exprs.Name(attr.Value); n != nil {
			if sym := l.res.Resolve(n.Name); sym.IsValid() && l.sym(sym).Kind == symbols.SymbolModule {
				l.errorf(diag.SemaUnsupported, sp, "calls into module %s are not supported", l.name(n.Name))
				return l.errorExpr(sp)
			}
		}
		l.errorf(diag.SemaNotCallable, callee.Span, "methods are not supported")
		return l.errorExpr(sp)
	case ast.ExprName:
	default:
		l.errorf(diag.SemaNotCallable, callee.Span, "%s is not callable", callee.Kind)
		return l.errorExpr(sp)
	}

	name := l.b.Exprs.Name(d.Func).Name
	if sym := l.res.Resolve(name); sym.IsValid() {
		switch s := l.sym(sym); s.Kind {
		case symbols.SymbolFunction:
			return l.callFunc(sym, d.Args, sp)
		case symbols.SymbolClass:
			return l.construct(s.Type, d.Args, sp)
		default:
			l.errorf(diag.SemaNotCallable, callee.Span, "%s %q is not callable", s.Kind, l.name(name))
			return l.errorExpr(sp)
		}
	}
	switch text := l.name(name); text {
	case "len":
		return l.length(d.Args, sp)
	case "print":
		l.errorf(diag.SemaUnsupported, sp, "print() can only be used as a statement")
		return l.errorExpr(sp)
	case "range":
		l.errorf(diag.SemaUnsupported, sp, "range() is only supported in for loops and comprehensions")
		return l.errorExpr(sp)
	default:
		if ty, ok := l.tys.Named(text); ok && ty != l.builtins().None {
			return l.conversion(ty, d.Args, sp)
		}
		l.errorf(diag.SemaUndefinedName, callee.Span, "name %q is not defined", text)
		return l.errorExpr(sp)
	}
}

// bindArgs matches call arguments to parameters by position and keyword.
// It returns, per parameter, the argument index or -1.
func (l *lowerer) bindArgs(what string, params []symbols.SymbolID, args []ast.CallArg, sp source.Span) ([]int, bool) {
	slots := make([]int, len(params))
	for i := range slots {
		slots[i] = -1
	}
	ok := true
	positional := 0
	for _, p := range params {
		if l.sym(p).Flags&symbols.SymbolFlagKwOnly == 0 {
			positional++
		}
	}
	pos := 0
	for i, a := range args {
		switch a.Kind {
		case ast.ArgPositional:
			if pos >= positional {
				l.errorf(diag.SemaArgCount, a.Span, "%s takes %d positional arguments but %d were given", what, positional, countPositional(args))
				return nil, false
			}
			slots[pos] = i
			pos++
		case ast.ArgKeyword:
			idx := -1
			for j, p := range params {
				if l.sym(p).Name == a.Name {
					idx = j
					break
				}
			}
			switch {
			case idx < 0:
				l.errorf(diag.SemaUnknownKeyword, a.Span, "%s got an unexpected keyword argument %q", what, l.name(a.Name))
				ok = false
			case l.sym(params[idx]).Flags&symbols.SymbolFlagPosOnly != 0:
				l.errorf(diag.SemaUnknownKeyword, a.Span, "%s got a positional-only argument passed as keyword: %q", what, l.name(a.Name))
				ok = false
			case slots[idx] >= 0:
				l.errorf(diag.SemaArgCount, a.Span, "%s got multiple values for argument %q", what, l.name(a.Name))
				ok = false
			default:
				slots[idx] = i
			}
		}
	}
	return slots, ok
}

func countPositional(args []ast.CallArg) int {
	n := 0
	for _, a := range args {
		if a.Kind == ast.ArgPositional {
			n++
		}
	}
	return n
}

func (l *lowerer) callFunc(sym symbols.SymbolID, args []ast.CallArg, sp source.Span) ir.ExprID {
	f := l.m.Func(sym)
	what := f.Name + "()"
	info, _ := l.tys.FnInfo(l.sym(sym).Type)
	if info == nil {
		// сигнатура ещё не разрешена: вызов в значении по умолчанию
		l.errorf(diag.SemaUnsupported, sp, "%s cannot be called here", what)
		return l.errorExpr(sp)
	}
	slots, ok := l.bindArgs(what, f.Params, args, sp)
	if slots == nil {
		return l.errorExpr(sp)
	}
	params := append([]types.TypeID(nil), info.Params...)
	result := info.Result
	vals := make([]ir.ExprID, len(f.Params))
	for i, p := range f.Params {
		if slots[i] >= 0 {
			a := args[slots[i]]
			vals[i] = l.coerce(l.expr(a.Value, params[i]), params[i], a.Span, "argument "+quote(l.tbl.Name(p)))
			continue
		}
		if i < len(f.Defaults) && f.Defaults[i].IsValid() {
			vals[i] = (&ir.Cloner{M: l.m}).Expr(f.Defaults[i])
			continue
		}
		l.errorf(diag.SemaArgCount, sp, "%s missing required argument %q", what, l.tbl.Name(p))
		ok = false
	}
	if !ok {
		return l.errorExpr(sp)
	}
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprCall, Type: result, Span: sp, Data: ir.CallData{Callee: sym, Args: vals}})
}

// construct lowers P(a, b) for a class P; fields bind like parameters.
func (l *lowerer) construct(ty types.TypeID, args []ast.CallArg, sp source.Span) ir.ExprID {
	cls := l.m.Class(ty)
	what := cls.Name + "()"
	slots, ok := l.bindArgs(what, cls.Fields, args, sp)
	if slots == nil {
		return l.errorExpr(sp)
	}
	vals := make([]ir.ExprID, len(cls.Fields))
	for i, fsym := range cls.Fields {
		fty := l.sym(fsym).Type
		if slots[i] < 0 {
			l.errorf(diag.SemaArgCount, sp, "%s missing value for field %q", what, l.tbl.Name(fsym))
			ok = false
			continue
		}
		a := args[slots[i]]
		vals[i] = l.coerce(l.expr(a.Value, fty), fty, a.Span, "field "+quote(l.tbl.Name(fsym)))
	}
	if !ok {
		return l.errorExpr(sp)
	}
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprConstruct, Type: ty, Span: sp, Data: ir.ConstructData{Args: vals}})
}

// conversion lowers T(x) for a primitive type name T.
func (l *lowerer) conversion(to types.TypeID, args []ast.CallArg, sp source.Span) ir.ExprID {
	if len(args) != 1 || args[0].Kind != ast.ArgPositional {
		l.errorf(diag.SemaArgCount, sp, "%s() takes exactly one positional argument", l.typeName(to))
		return l.errorExpr(sp)
	}
	v := l.expr(args[0].Value, to)
	from := l.typeOf(v)
	if from == to || types.IsInvalid(from) {
		return v
	}
	if !l.tys.CastAllowed(to, from) {
		l.errorf(diag.SemaBadCast, sp, "cannot convert %s to %s", l.typeName(from), l.typeName(to))
		return l.errorExpr(sp)
	}
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprCast, Type: to, Span: sp, Data: ir.CastData{Value: v}})
}

// length folds len(a) of a fixed array to an i32 constant.
func (l *lowerer) length(args []ast.CallArg, sp source.Span) ir.ExprID {
	if len(args) != 1 || args[0].Kind != ast.ArgPositional {
		l.errorf(diag.SemaArgCount, sp, "len() takes exactly one positional argument")
		return l.errorExpr(sp)
	}
	v := l.expr(args[0].Value, types.NoTypeID)
	ty := l.typeOf(v)
	switch {
	case types.IsInvalid(ty):
		return l.errorExpr(sp)
	case !l.tys.IsArray(ty):
		l.errorf(diag.SemaBadOperand, sp, "object of type %s has no len()", l.typeName(ty))
		return l.errorExpr(sp)
	}
	return l.m.ConstInt(l.builtins().I32, int64(l.tys.ArrayLen(ty)), sp)
}
