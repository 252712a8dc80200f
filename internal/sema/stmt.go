package sema

import (
	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/trace"
	"viper/internal/types"
)

// lowerModule lowers module statements into m.Body, then every function
// body. Module statements go first so globals they introduce are visible in
// functions.
func (l *lowerer) lowerModule(body []ast.StmtID) {
	l.fn = nil
	l.m.Body = l.block(body)
	for _, f := range l.m.Funcs {
		if l.ctx.Err() != nil {
			return
		}
		l.lowerFunc(f)
	}
}

func (l *lowerer) lowerFunc(f *ir.Func) {
	span := trace.Begin(trace.FromContext(l.ctx), trace.ScopeNode, "lower "+f.Name, trace.CurrentSpan(l.ctx).SpanID)
	defer span.End("")

	def := l.b.Stmts.FunctionDef(l.funcAST[f.Sym])
	l.fn = f
	l.loops = 0
	l.res.Enter(f.Scope)
	f.Body = l.block(def.Body)
	l.res.Leave()
	l.fn = nil
}

func (l *lowerer) block(body []ast.StmtID) []ir.StmtID {
	out := make([]ir.StmtID, 0, len(body))
	for _, id := range body {
		out = append(out, l.stmt(id)...)
	}
	return out
}

//nolint:gocyclo // one case per statement kind
func (l *lowerer) stmt(id ast.StmtID) []ir.StmtID {
	st := l.b.Stmts.Get(id)
	switch st.Kind {
	case ast.StmtBad, ast.StmtPass:
		return nil
	case ast.StmtExpr:
		return l.exprStmt(id, st)
	case ast.StmtAssign:
		d := l.b.Stmts.Assign(id)
		return l.assign(d.Target, d.Value, st.Span)
	case ast.StmtAnnAssign:
		return l.annAssign(id, st)
	case ast.StmtAugAssign:
		return l.augAssign(l.b.Stmts.AugAssign(id), st.Span)
	case ast.StmtIf:
		d := l.b.Stmts.If(id)
		if l.fn == nil && l.isMainGuard(d.Cond) {
			return l.block(d.Body)
		}
		cond := l.condition(d.Cond, "if condition")
		return l.one(ir.Stmt{Kind: ir.StmtIf, Span: st.Span, Data: ir.IfData{Cond: cond, Then: l.block(d.Body), Else: l.block(d.Orelse)}})
	case ast.StmtWhile:
		d := l.b.Stmts.While(id)
		cond := l.condition(d.Cond, "while condition")
		l.loops++
		body := l.block(d.Body)
		l.loops--
		return l.one(ir.Stmt{Kind: ir.StmtWhile, Span: st.Span, Data: ir.WhileData{Cond: cond, Body: body}})
	case ast.StmtFor:
		return l.forLoop(l.b.Stmts.For(id), st.Span)
	case ast.StmtReturn:
		return l.ret(l.b.Stmts.Return(id).Value, st.Span)
	case ast.StmtBreak, ast.StmtContinue:
		kind, word := ir.StmtBreak, "break"
		if st.Kind == ast.StmtContinue {
			kind, word = ir.StmtContinue, "continue"
		}
		if l.loops == 0 {
			l.errorf(diag.SemaBreakOutsideLoop, st.Span, "'%s' outside loop", word)
			return nil
		}
		return l.one(ir.Stmt{Kind: kind, Span: st.Span})
	case ast.StmtFunctionDef, ast.StmtClassDef, ast.StmtImport, ast.StmtImportFrom:
		if l.fn == nil && l.loops == 0 && l.topLevel(id) {
			return nil
		}
		l.errorf(diag.SemaUnsupported, st.Span, "nested %s statements are not supported", st.Kind)
		return nil
	}
	l.errorf(diag.SemaUnsupported, st.Span, "unsupported statement %s", st.Kind)
	return nil
}

func (l *lowerer) one(s ir.Stmt) []ir.StmtID {
	return []ir.StmtID{l.m.NewStmt(s)}
}

// topLevel reports whether id is a statement of the file body, which
// collect already declared.
func (l *lowerer) topLevel(id ast.StmtID) bool {
	return l.top[id]
}

// isMainGuard recognizes `if __name__ == "__main__":` at module level.
func (l *lowerer) isMainGuard(cond ast.ExprID) bool {
	cmp := l.b.Exprs.Compare(cond)
	if cmp == nil || len(cmp.Ops) != 1 || cmp.Ops[0] != ast.CmpEq {
		return false
	}
	n := l.b.Exprs.Name(cmp.Operands[0])
	c := l.b.Exprs.Const(cmp.Operands[1])
	return n != nil && c != nil && l.name(n.Name) == "__name__" && c.Kind == ast.ConstStr && c.Str == "__main__" &&
		!l.res.Resolve(n.Name).IsValid()
}

func (l *lowerer) exprStmt(id ast.StmtID, st *ast.Stmt) []ir.StmtID {
	value := l.b.Stmts.ExprStmt(id).Value
	if call := l.b.Exprs.Call(value); call != nil && l.isBuiltin(call.Func, "print") {
		return l.print(call.Args, st.Span)
	}
	if l.isDocstring(id) {
		return nil
	}
	v := l.expr(value, types.NoTypeID)
	switch e := l.m.Expr(v); e.Kind {
	case ir.ExprCall:
		return l.one(ir.Stmt{Kind: ir.StmtExpr, Span: st.Span, Data: ir.ExprStmtData{Value: v}})
	case ir.ExprError:
	default:
		l.warnf(diag.SemaUnusedValue, st.Span, "expression value is unused")
	}
	return nil
}

// print lowers print(*args, sep=..., end=...).
func (l *lowerer) print(args []ast.CallArg, sp source.Span) []ir.StmtID {
	var d ir.PrintData
	str := l.builtins().String
	for _, a := range args {
		switch a.Kind {
		case ast.ArgPositional:
			v := l.expr(a.Value, types.NoTypeID)
			if !l.printable(l.typeOf(v)) {
				l.errorf(diag.SemaBadOperand, a.Span, "cannot print a value of type %s", l.typeName(l.typeOf(v)))
				v = l.errorExpr(a.Span)
			}
			d.Args = append(d.Args, v)
		case ast.ArgKeyword:
			switch l.name(a.Name) {
			case "sep":
				d.Sep = l.coerce(l.expr(a.Value, str), str, a.Span, "print separator")
			case "end":
				d.End = l.coerce(l.expr(a.Value, str), str, a.Span, "print end")
			default:
				l.errorf(diag.SemaUnknownKeyword, a.Span, "print() got an unexpected keyword argument %q", l.name(a.Name))
			}
		default:
			l.errorf(diag.SemaUnsupported, a.Span, "argument unpacking is not supported")
		}
	}
	return l.one(ir.Stmt{Kind: ir.StmtPrint, Span: sp, Data: d})
}

func (l *lowerer) printable(ty types.TypeID) bool {
	if types.IsInvalid(ty) {
		return true
	}
	switch l.tys.Kind(ty) {
	case types.KindBool, types.KindInt, types.KindFloat, types.KindString:
		return true
	case types.KindArray:
		return l.tys.Kind(l.tys.Elem(ty)) != types.KindArray && l.printable(l.tys.Elem(ty)) && !l.tys.IsClass(l.tys.Elem(ty))
	}
	return false
}

// assign lowers `target = value`. Storing to an undeclared name declares
// it with the value's type; inside a function the new variable is local even
// when a global of that name exists.
func (l *lowerer) assign(target, value ast.ExprID, sp source.Span) []ir.StmtID {
	te := l.b.Exprs.Get(target)
	if n := l.b.Exprs.Name(target); n != nil {
		sym := l.lookupStore(n.Name)
		if !sym.IsValid() {
			v := l.expr(value, types.NoTypeID)
			ty := l.typeOf(v)
			if ty == l.builtins().None {
				l.errorf(diag.SemaTypeMismatch, sp, "cannot infer the type of %q from a None value", l.name(n.Name))
				ty = types.NoTypeID
			}
			l.warnShadow(n.Name, te.Span)
			sym = l.declareVar(n.Name, ty, te.Span)
			return l.store(l.m.NameRef(sym, l.res.Current(), te.Span), v, sp)
		}
		if k := l.sym(sym).Kind; k != symbols.SymbolVariable && k != symbols.SymbolParam {
			l.errorf(diag.SemaRedeclared, te.Span, "cannot assign to %s %q", k, l.name(n.Name))
			l.expr(value, types.NoTypeID)
			return nil
		}
		ty := l.sym(sym).Type
		v := l.coerce(l.expr(value, ty), ty, sp, "assignment")
		return l.store(l.m.NameRef(sym, l.res.Current(), te.Span), v, sp)
	}
	switch te.Kind {
	case ast.ExprSubscript, ast.ExprAttribute:
	case ast.ExprBad:
		return nil
	default:
		l.errorf(diag.SemaUnsupported, te.Span, "cannot assign to %s", te.Kind)
		return nil
	}
	t := l.expr(target, types.NoTypeID)
	ty := l.typeOf(t)
	v := l.coerce(l.expr(value, ty), ty, sp, "assignment")
	return l.store(t, v, sp)
}

func (l *lowerer) store(target, value ir.ExprID, sp source.Span) []ir.StmtID {
	if l.m.Expr(target).Kind == ir.ExprError {
		return nil
	}
	return []ir.StmtID{l.m.Assign(target, value, sp)}
}

// lookupStore finds the variable an assignment stores to: any visible name at
// module level, only locals inside a function.
func (l *lowerer) lookupStore(name source.StringID) symbols.SymbolID {
	if l.fn == nil {
		return l.res.Resolve(name)
	}
	if sym := l.tbl.LookupLocal(l.fn.Scope, name); sym.IsValid() {
		return sym
	}
	// функции и классы модуля нельзя перекрыть локальной переменной
	if sym := l.tbl.LookupLocal(l.m.Scope, name); sym.IsValid() {
		if k := l.sym(sym).Kind; k != symbols.SymbolVariable {
			return sym
		}
	}
	return symbols.NoSymbolID
}

func (l *lowerer) warnShadow(name source.StringID, sp source.Span) {
	if l.fn == nil {
		return
	}
	if g := l.tbl.LookupLocal(l.m.Scope, name); g.IsValid() {
		diag.ReportWarning(l.rep, diag.SemaShadowing, sp, "local "+quote(l.name(name))+" shadows a global variable").
			WithNote(l.sym(g).Span, "global declared here").
			Emit()
	}
}

func (l *lowerer) annAssign(id ast.StmtID, st *ast.Stmt) []ir.StmtID {
	d := l.b.Stmts.AnnAssign(id)
	n := l.b.Exprs.Name(d.Target)
	if n == nil {
		l.errorf(diag.SemaUnsupported, st.Span, "only names can be declared with an annotation")
		return nil
	}
	span := l.b.Exprs.Get(d.Target).Span
	var sym symbols.SymbolID
	switch {
	case l.top[id]:
		sym = l.globalAST[id]
		if !sym.IsValid() {
			// уже сообщили о повторном объявлении в collect
			return nil
		}
	default:
		ty := l.resolveType(d.Annotation)
		if ty == l.builtins().None {
			l.errorf(diag.SemaTypeMismatch, st.Span, "variables cannot have type None")
			ty = types.NoTypeID
		}
		if prev := l.tbl.LookupLocal(l.owningScope(), n.Name); prev.IsValid() {
			if pt := l.sym(prev).Type; pt != ty && !types.IsInvalid(pt) && !types.IsInvalid(ty) {
				diag.ReportError(l.rep, diag.SemaRedeclared, span, quote(l.name(n.Name))+" redeclared as "+l.typeName(ty)).
					WithNote(l.sym(prev).Span, "previously declared as "+l.typeName(pt)).
					Emit()
				return nil
			}
			sym = prev
		} else {
			l.warnShadow(n.Name, span)
			sym = l.declareVar(n.Name, ty, span)
		}
	}
	if !d.Value.IsValid() {
		return nil
	}
	ty := l.sym(sym).Type
	v := l.coerce(l.expr(d.Value, ty), ty, st.Span, "assignment")
	return l.store(l.m.NameRef(sym, l.res.Current(), span), v, st.Span)
}

// augAssign lowers `t op= v` to `t = t op v`.
func (l *lowerer) augAssign(d *ast.StmtAugAssignData, sp source.Span) []ir.StmtID {
	te := l.b.Exprs.Get(d.Target)
	switch te.Kind {
	case ast.ExprName, ast.ExprSubscript, ast.ExprAttribute:
	case ast.ExprBad:
		return nil
	default:
		l.errorf(diag.SemaUnsupported, te.Span, "cannot assign to %s", te.Kind)
		return nil
	}
	if n := l.b.Exprs.Name(d.Target); n != nil && !l.lookupStore(n.Name).IsValid() {
		l.errorf(diag.SemaUndefinedName, te.Span, "name %q is not defined", l.name(n.Name))
		return nil
	}
	target := l.expr(d.Target, types.NoTypeID)
	ty := l.typeOf(target)
	if types.IsInvalid(ty) {
		return nil
	}
	value := l.binary(d.Op, d.Target, d.Value, ty, sp)
	value = l.coerce(value, ty, sp, "augmented assignment")
	return l.store(target, value, sp)
}

func (l *lowerer) forLoop(d *ast.StmtForData, sp source.Span) []ir.StmtID {
	n := l.b.Exprs.Name(d.Target)
	if n == nil {
		l.errorf(diag.SemaUnsupported, l.b.Exprs.Get(d.Target).Span, "loop target must be a name")
		return nil
	}
	tspan := l.b.Exprs.Get(d.Target).Span
	existing := l.lookupStore(n.Name)
	if existing.IsValid() {
		if k := l.sym(existing).Kind; k != symbols.SymbolVariable && k != symbols.SymbolParam {
			l.errorf(diag.SemaRedeclared, tspan, "cannot assign to %s %q", k, l.name(n.Name))
			return nil
		}
	}
	data := ir.ForData{Scope: l.res.Current()}
	var varTy types.TypeID
	if call := l.b.Exprs.Call(d.Iter); call != nil && l.isBuiltin(call.Func, "range") {
		counter := types.NoTypeID
		if existing.IsValid() {
			counter = l.sym(existing).Type
		}
		rng, ok := l.rangeCall(d.Iter, counter)
		if !ok {
			return nil
		}
		data.Range = rng
		varTy = l.typeOf(rng.Stop)
	} else {
		iter := l.expr(d.Iter, types.NoTypeID)
		it := l.typeOf(iter)
		if types.IsInvalid(it) {
			return nil
		}
		if !l.tys.IsArray(it) {
			l.errorf(diag.SemaBadIterable, l.m.Expr(iter).Span, "cannot iterate over %s", l.typeName(it))
			return nil
		}
		data.Iter = iter
		varTy = l.tys.Elem(it)
	}
	if existing.IsValid() {
		if et := l.sym(existing).Type; et != varTy && !types.IsInvalid(et) && !types.IsInvalid(varTy) {
			l.errorf(diag.SemaTypeMismatch, tspan, "loop variable %q is %s, the loop yields %s", l.name(n.Name), l.typeName(et), l.typeName(varTy))
			return nil
		}
		data.Var = existing
	} else {
		l.warnShadow(n.Name, tspan)
		data.Var = l.declareVar(n.Name, varTy, tspan)
	}
	l.loops++
	data.Body = l.block(d.Body)
	l.loops--
	return l.one(ir.Stmt{Kind: ir.StmtFor, Span: sp, Data: data})
}

func (l *lowerer) ret(value ast.ExprID, sp source.Span) []ir.StmtID {
	if l.fn == nil {
		l.errorf(diag.SemaReturnOutsideFunc, sp, "'return' outside function")
		return nil
	}
	result := l.fn.Result
	none := l.builtins().None
	if !value.IsValid() {
		if result != none && !types.IsInvalid(result) {
			l.errorf(diag.SemaBadReturn, sp, "%s must return a %s value", l.fn.Name, l.typeName(result))
			return nil
		}
		return l.one(ir.Stmt{Kind: ir.StmtReturn, Span: sp, Data: ir.ReturnData{}})
	}
	v := l.expr(value, result)
	if result == none && l.typeOf(v) != none && !types.IsInvalid(l.typeOf(v)) {
		l.errorf(diag.SemaBadReturn, sp, "%s does not return a value", l.fn.Name)
		return nil
	}
	v = l.coerce(v, result, sp, "return value")
	return l.one(ir.Stmt{Kind: ir.StmtReturn, Span: sp, Data: ir.ReturnData{Value: v}})
}
