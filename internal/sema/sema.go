// Package sema lowers a parsed file into the typed, name-resolved IR.
//
// Lowering runs in two phases. Declaration collection walks the top level and
// declares every function, class, annotated global and import in the module
// scope, resolving signatures and field types, so bodies may refer to
// anything declared anywhere in the file. Body lowering then translates
// module statements and function bodies, resolving names through the scope
// chain and assigning types with the rules of package types.
//
// Errors never stop lowering: a failing expression becomes an ExprError typed
// Invalid, and the typing rules accept Invalid operands silently, so every
// user mistake is reported exactly once.
package sema

import (
	"context"
	"fmt"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/trace"
	"viper/internal/types"
)

// Options configure lowering of one file.
type Options struct {
	Reporter diag.Reporter
	// Strict allows only literal coercion; relaxed mode also widens integers
	// and converts int to float implicitly, materialized as ExprCast.
	Strict bool
	// SymtabOnly stops after declarations and parameters.
	SymtabOnly bool
	Name       string // module name, defaults to "main"
	Path       string
}

// Lower translates file into an IR module. The Result fails iff an error
// diagnostic was reported; the partial module is returned either way.
func Lower(ctx context.Context, file ast.FileID, builder *ast.Builder, opts Options) diag.Result[*ir.Module] {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "lower", trace.CurrentSpan(ctx).SpanID)

	if opts.Name == "" {
		opts.Name = "main"
	}
	counter := &diag.CountingReporter{Next: opts.Reporter}
	tys := types.NewInterner()
	tbl := symbols.NewTable(symbols.Hints{Scopes: 16, Symbols: 128}, builder.Strings)

	var root source.Span
	if f := builder.Files.Get(file); f != nil {
		root = f.Span
	}
	scope := tbl.NewScope(symbols.ScopeModule, symbols.NoScopeID, symbols.NoSymbolID, root)
	m := ir.NewModule(opts.Name, opts.Path, tys, tbl, scope)

	l := &lowerer{
		ctx:       ctx,
		b:         builder,
		m:         m,
		tys:       tys,
		tbl:       tbl,
		res:       symbols.NewResolver(tbl, scope),
		rep:       counter,
		opts:      opts,
		funcAST:   make(map[symbols.SymbolID]ast.StmtID),
		globalAST: make(map[ast.StmtID]symbols.SymbolID),
		top:       make(map[ast.StmtID]bool),
	}
	if f := builder.Files.Get(file); f != nil {
		for _, id := range f.Body {
			l.top[id] = true
		}
		l.collect(f.Body)
		if !opts.SymtabOnly {
			l.lowerModule(f.Body)
		}
	}
	span.End(fmt.Sprintf("funcs=%d errors=%d", len(m.Funcs), counter.Errors))
	return diag.FromCounter(counter, m)
}

type lowerer struct {
	ctx  context.Context
	b    *ast.Builder
	m    *ir.Module
	tys  *types.Interner
	tbl  *symbols.Table
	res  *symbols.Resolver
	rep  *diag.CountingReporter
	opts Options

	fn        *ir.Func // nil while lowering module statements
	loops     int
	funcAST   map[symbols.SymbolID]ast.StmtID
	globalAST map[ast.StmtID]symbols.SymbolID
	top       map[ast.StmtID]bool
}

func (l *lowerer) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(l.rep, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (l *lowerer) warnf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportWarning(l.rep, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (l *lowerer) name(id source.StringID) string {
	return l.b.Name(id)
}

func (l *lowerer) sym(id symbols.SymbolID) *symbols.Symbol {
	return l.tbl.Symbols.Get(id)
}

func (l *lowerer) typeName(id types.TypeID) string {
	return l.tys.String(id)
}

func (l *lowerer) builtins() types.Builtins {
	return l.tys.Builtins()
}

// errorExpr is the placeholder for an expression that failed to lower.
func (l *lowerer) errorExpr(sp source.Span) ir.ExprID {
	return l.m.NewExpr(ir.Expr{Kind: ir.ExprError, Type: types.NoTypeID, Span: sp})
}

// declareVar declares a variable in the current scope and records it as a
// local of the current function or as a module global.
func (l *lowerer) declareVar(name source.StringID, ty types.TypeID, sp source.Span) symbols.SymbolID {
	flags := symbols.SymbolFlags(0)
	if l.fn == nil {
		flags |= symbols.SymbolFlagGlobal
	}
	id := l.res.Declare(symbols.Symbol{Name: name, Kind: symbols.SymbolVariable, Type: ty, Span: sp, Flags: flags})
	if l.fn != nil {
		l.fn.Locals = append(l.fn.Locals, id)
	} else {
		l.m.Globals = append(l.m.Globals, id)
	}
	return id
}

// owningScope is the function scope (or module scope) statements declare into.
func (l *lowerer) owningScope() symbols.ScopeID {
	return l.m.ScopeOf(l.fn)
}
