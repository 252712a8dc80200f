package sema

import (
	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// collect declares every top-level function, class, annotated global and
// import of the file. Classes go first so signatures and fields may name
// any of them.
func (l *lowerer) collect(body []ast.StmtID) {
	type pending struct {
		stmt ast.StmtID
		sym  symbols.SymbolID
	}
	var classes, funcs []pending
	for _, id := range body {
		st := l.b.Stmts.Get(id)
		switch st.Kind {
		case ast.StmtClassDef:
			if sym := l.declareClass(id, st); sym.IsValid() {
				classes = append(classes, pending{id, sym})
			}
		case ast.StmtFunctionDef:
			if sym := l.declareFunc(id, st); sym.IsValid() {
				funcs = append(funcs, pending{id, sym})
			}
		case ast.StmtImport:
			for _, a := range l.b.Stmts.Import(id).Names {
				l.declareImport(a)
			}
		case ast.StmtImportFrom:
			for _, a := range l.b.Stmts.ImportFrom(id).Names {
				l.declareImport(a)
			}
		}
	}
	for _, c := range classes {
		l.classFields(c.stmt, c.sym)
	}
	for _, f := range funcs {
		l.signature(f.stmt, f.sym)
	}
	for _, id := range body {
		if st := l.b.Stmts.Get(id); st.Kind == ast.StmtAnnAssign {
			l.declareGlobal(id, st)
		}
	}
}

// declareTop adds a module-level name, reporting a redeclaration instead of
// shadowing an earlier one.
func (l *lowerer) declareTop(sym symbols.Symbol) symbols.SymbolID {
	if prev := l.tbl.LookupLocal(l.m.Scope, sym.Name); prev.IsValid() {
		diag.ReportError(l.rep, diag.SemaRedeclared, sym.Span, "ambiguous reference: "+quote(l.name(sym.Name))+" is already declared").
			WithNote(l.sym(prev).Span, "previous declaration").
			Emit()
		return symbols.NoSymbolID
	}
	return l.tbl.Declare(l.m.Scope, sym)
}

func (l *lowerer) declareImport(a ast.Alias) {
	name := a.Name
	if a.AsName != source.NoStringID {
		name = a.AsName
	}
	if sym := l.declareTop(symbols.Symbol{Name: name, Kind: symbols.SymbolModule, Span: a.Span}); sym.IsValid() {
		l.m.Imports = append(l.m.Imports, sym)
	}
}

func (l *lowerer) declareClass(id ast.StmtID, st *ast.Stmt) symbols.SymbolID {
	def := l.b.Stmts.ClassDef(id)
	for _, dec := range def.Decorators {
		if name := l.decoratorName(dec); name != "dataclass" {
			l.errorf(diag.SemaUnsupported, l.b.Exprs.Get(dec).Span, "unsupported class decorator %q", name)
		}
	}
	name := l.name(def.Name)
	ty := l.tys.RegisterClass(name, def.NameSpan)
	sym := l.declareTop(symbols.Symbol{Name: def.Name, Kind: symbols.SymbolClass, Type: ty, Span: def.NameSpan})
	if !sym.IsValid() {
		return sym
	}
	scope := l.tbl.NewScope(symbols.ScopeClass, l.m.Scope, sym, st.Span)
	l.sym(sym).Owns = scope
	l.m.Classes = append(l.m.Classes, &ir.Class{Sym: sym, Name: name, Span: st.Span, Type: ty, Scope: scope})
	return sym
}

// classFields declares the annotated fields of a class body. Anything else
// in the body except docstrings and pass is rejected.
func (l *lowerer) classFields(id ast.StmtID, sym symbols.SymbolID) {
	def := l.b.Stmts.ClassDef(id)
	s := l.sym(sym)
	ty, scope := s.Type, s.Owns
	cls := l.m.Class(ty)
	var fields []types.Field
	for _, fid := range def.Body {
		st := l.b.Stmts.Get(fid)
		switch st.Kind {
		case ast.StmtBad, ast.StmtPass:
			continue
		case ast.StmtExpr:
			if l.isDocstring(fid) {
				continue
			}
		case ast.StmtAnnAssign:
			ann := l.b.Stmts.AnnAssign(fid)
			target := l.b.Exprs.Name(ann.Target)
			if target == nil {
				break
			}
			if ann.Value.IsValid() {
				l.errorf(diag.SemaUnsupported, st.Span, "field defaults are not supported")
			}
			fty := l.resolveType(ann.Annotation)
			if fty == ty {
				l.errorf(diag.SemaUnsupported, st.Span, "class %s cannot contain itself", cls.Name)
				fty = types.NoTypeID
			}
			span := l.b.Exprs.Get(ann.Target).Span
			if prev := l.tbl.LookupLocal(scope, target.Name); prev.IsValid() {
				l.errorf(diag.SemaRedeclared, span, "duplicate field %q", l.name(target.Name))
				continue
			}
			field := l.tbl.Declare(scope, symbols.Symbol{
				Name:  target.Name,
				Kind:  symbols.SymbolField,
				Type:  fty,
				Span:  span,
				Index: len(fields),
			})
			cls.Fields = append(cls.Fields, field)
			fields = append(fields, types.Field{Name: l.name(target.Name), Type: fty})
			continue
		case ast.StmtFunctionDef:
			l.errorf(diag.SemaUnsupported, st.Span, "methods are not supported")
			continue
		}
		l.errorf(diag.SemaUnsupported, st.Span, "class bodies may only declare annotated fields")
	}
	l.tys.SetClassFields(ty, fields)
}

func (l *lowerer) declareFunc(id ast.StmtID, st *ast.Stmt) symbols.SymbolID {
	def := l.b.Stmts.FunctionDef(id)
	var flags ir.FuncFlags
	var symFlags symbols.SymbolFlags
	for _, dec := range def.Decorators {
		switch name := l.decoratorName(dec); name {
		case "inline":
			flags |= ir.FuncInline
			symFlags |= symbols.SymbolFlagInline
		case "ccallable":
			flags |= ir.FuncCCallable
			symFlags |= symbols.SymbolFlagCCallable
		default:
			l.errorf(diag.SemaUnsupported, l.b.Exprs.Get(dec).Span, "unsupported decorator %q", name)
		}
	}
	sym := l.declareTop(symbols.Symbol{Name: def.Name, Kind: symbols.SymbolFunction, Span: def.NameSpan, Flags: symFlags})
	if !sym.IsValid() {
		return sym
	}
	scope := l.tbl.NewScope(symbols.ScopeFunction, l.m.Scope, sym, st.Span)
	l.sym(sym).Owns = scope
	f := &ir.Func{
		Sym:    sym,
		Name:   l.name(def.Name),
		Span:   st.Span,
		Scope:  scope,
		Result: l.builtins().None,
		Flags:  flags,
	}
	l.m.Funcs = append(l.m.Funcs, f)
	l.funcAST[sym] = id
	return sym
}

// signature resolves parameter and result types and declares the parameters
// in the function scope.
func (l *lowerer) signature(id ast.StmtID, sym symbols.SymbolID) {
	def := l.b.Stmts.FunctionDef(id)
	f := l.m.Func(sym)
	var params []types.TypeID
	var defaults []ir.ExprID
	hasDefault := false
	for _, p := range def.Params {
		switch p.Kind {
		case ast.ParamVarArgs:
			l.errorf(diag.SemaVariadicParam, p.Span, "variadic parameter *%s is not supported", l.name(p.Name))
			continue
		case ast.ParamKwArgs:
			l.errorf(diag.SemaVariadicParam, p.Span, "variadic parameter **%s is not supported", l.name(p.Name))
			continue
		}
		ty := types.NoTypeID
		if p.Annotation.IsValid() {
			ty = l.resolveType(p.Annotation)
		} else {
			l.errorf(diag.SemaMissingAnnotation, p.Span, "parameter %q needs a type annotation", l.name(p.Name))
		}
		var flags symbols.SymbolFlags
		switch p.Kind {
		case ast.ParamKwOnly:
			flags |= symbols.SymbolFlagKwOnly
		case ast.ParamPositionalOnly:
			flags |= symbols.SymbolFlagPosOnly
		}
		if prev := l.tbl.LookupLocal(f.Scope, p.Name); prev.IsValid() {
			l.errorf(diag.SemaRedeclared, p.Span, "duplicate parameter %q", l.name(p.Name))
			continue
		}
		param := l.tbl.Declare(f.Scope, symbols.Symbol{
			Name:  p.Name,
			Kind:  symbols.SymbolParam,
			Type:  ty,
			Span:  p.Span,
			Flags: flags,
			Index: len(f.Params),
		})
		f.Params = append(f.Params, param)
		params = append(params, ty)
		def := ir.NoExprID
		if p.Default.IsValid() {
			def = l.defaultValue(p.Default, ty)
			hasDefault = true
		}
		defaults = append(defaults, def)
	}
	if hasDefault {
		f.Defaults = defaults
	}
	if def.Returns.IsValid() {
		f.Result = l.resolveType(def.Returns)
	}
	l.sym(sym).Type = l.tys.RegisterFn(params, f.Result)
}

// defaultValue lowers a parameter default, which must be a literal.
func (l *lowerer) defaultValue(id ast.ExprID, ty types.TypeID) ir.ExprID {
	e := l.b.Exprs.Get(id)
	if e.Kind != ast.ExprConst && !l.isLiteral(id) {
		l.errorf(diag.SemaUnsupported, e.Span, "default values must be constants")
		return l.errorExpr(e.Span)
	}
	return l.coerce(l.expr(id, ty), ty, e.Span, "default value")
}

// declareGlobal handles `x: T [= e]` at module level; the value is lowered
// with the module statements.
func (l *lowerer) declareGlobal(id ast.StmtID, st *ast.Stmt) {
	ann := l.b.Stmts.AnnAssign(id)
	target := l.b.Exprs.Name(ann.Target)
	if target == nil {
		return
	}
	ty := l.resolveType(ann.Annotation)
	if ty == l.builtins().None {
		l.errorf(diag.SemaTypeMismatch, st.Span, "variables cannot have type None")
		ty = types.NoTypeID
	}
	sym := l.declareTop(symbols.Symbol{
		Name:  target.Name,
		Kind:  symbols.SymbolVariable,
		Type:  ty,
		Span:  l.b.Exprs.Get(ann.Target).Span,
		Flags: symbols.SymbolFlagGlobal,
	})
	if sym.IsValid() {
		l.m.Globals = append(l.m.Globals, sym)
		l.globalAST[id] = sym
	}
}

// decoratorName returns the decorator's final name: `inline`,
// `dataclasses.dataclass` -> "dataclass".
func (l *lowerer) decoratorName(id ast.ExprID) string {
	switch e := l.b.Exprs.Get(id); e.Kind {
	case ast.ExprName:
		return l.name(l.b.Exprs.Name(id).Name)
	case ast.ExprAttribute:
		return l.name(l.b.Exprs.Attribute(id).Attr)
	case ast.ExprCall:
		return l.decoratorName(l.b.Exprs.Call(id).Func) + "(...)"
	}
	return "?"
}

func (l *lowerer) isDocstring(id ast.StmtID) bool {
	st := l.b.Stmts.ExprStmt(id)
	if st == nil {
		return false
	}
	c := l.b.Exprs.Const(st.Value)
	return c != nil && c.Kind == ast.ConstStr
}

func quote(s string) string {
	return "\"" + s + "\""
}
