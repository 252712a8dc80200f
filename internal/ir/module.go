package ir

import (
	"slices"

	"viper/internal/arena"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// Module represents the IR of one source file.
type Module struct {
	Name    string
	Path    string
	Types   *types.Interner
	Symbols *symbols.Table
	Scope   symbols.ScopeID // module scope

	Exprs *arena.Arena[Expr]
	Stmts *arena.Arena[Stmt]

	Funcs   []*Func
	Classes []*Class
	Globals []symbols.SymbolID // module-level variables
	Imports []symbols.SymbolID
	Body    []StmtID         // module-level statements, run first
	Entry   symbols.SymbolID // function called after Body, if any

	Applied []string // names of passes already run, in order
}

// NewModule creates an empty module with its own arenas.
func NewModule(name, path string, tys *types.Interner, syms *symbols.Table, scope symbols.ScopeID) *Module {
	return &Module{
		Name:    name,
		Path:    path,
		Types:   tys,
		Symbols: syms,
		Scope:   scope,
		Exprs:   arena.New[Expr](256),
		Stmts:   arena.New[Stmt](128),
	}
}

// NewExpr allocates an expression. Pointers from Expr() are invalidated by
// the next allocation.
func (m *Module) NewExpr(e Expr) ExprID {
	return ExprID(m.Exprs.Allocate(e))
}

// Expr returns the expression behind id or nil.
func (m *Module) Expr(id ExprID) *Expr {
	return m.Exprs.Get(uint32(id))
}

// NewStmt allocates a statement.
func (m *Module) NewStmt(s Stmt) StmtID {
	return StmtID(m.Stmts.Allocate(s))
}

// Stmt returns the statement behind id or nil.
func (m *Module) Stmt(id StmtID) *Stmt {
	return m.Stmts.Get(uint32(id))
}

// Func returns the function declared by sym.
func (m *Module) Func(sym symbols.SymbolID) *Func {
	for _, f := range m.Funcs {
		if f.Sym == sym {
			return f
		}
	}
	return nil
}

// FuncByName returns the function with the given source name.
func (m *Module) FuncByName(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Class returns the class whose type is ty.
func (m *Module) Class(ty types.TypeID) *Class {
	for _, c := range m.Classes {
		if c.Type == ty {
			return c
		}
	}
	return nil
}

// WasApplied reports whether pass name already ran on the module.
func (m *Module) WasApplied(name string) bool {
	return slices.Contains(m.Applied, name)
}

// Helpers used by lowering and by passes that synthesize code.

// ConstInt builds an integer constant of type ty.
func (m *Module) ConstInt(ty types.TypeID, v int64, sp source.Span) ExprID {
	return m.NewExpr(Expr{Kind: ExprConst, Type: ty, Span: sp, Data: ConstData{Kind: ConstInt, Int: v}})
}

// ConstStr builds a str constant.
func (m *Module) ConstStr(s string, sp source.Span) ExprID {
	return m.NewExpr(Expr{Kind: ExprConst, Type: m.Types.Builtins().String, Span: sp, Data: ConstData{Kind: ConstStr, Str: s}})
}

// NameRef builds a reference to sym occurring in scope.
func (m *Module) NameRef(sym symbols.SymbolID, scope symbols.ScopeID, sp source.Span) ExprID {
	s := m.Symbols.Symbols.Get(sym)
	return m.NewExpr(Expr{Kind: ExprName, Type: s.Type, Span: sp, Data: NameData{Sym: sym, Scope: scope}})
}

// Binary builds l op r typed ty.
func (m *Module) Binary(op BinaryOp, ty types.TypeID, l, r ExprID, sp source.Span) ExprID {
	return m.NewExpr(Expr{Kind: ExprBinary, Type: ty, Span: sp, Data: BinaryData{Op: op, Left: l, Right: r}})
}

// Compare builds a bool comparison.
func (m *Module) Compare(op CmpOp, l, r ExprID, sp source.Span) ExprID {
	return m.NewExpr(Expr{Kind: ExprCompare, Type: m.Types.Builtins().Bool, Span: sp, Data: CompareData{Op: op, Left: l, Right: r}})
}

// Index builds value[index] typed ty.
func (m *Module) Index(ty types.TypeID, value, index ExprID, sp source.Span) ExprID {
	return m.NewExpr(Expr{Kind: ExprIndex, Type: ty, Span: sp, Data: IndexData{Value: value, Index: index}})
}

// Assign builds target = value.
func (m *Module) Assign(target, value ExprID, sp source.Span) StmtID {
	return m.NewStmt(Stmt{Kind: StmtAssign, Span: sp, Data: AssignData{Target: target, Value: value}})
}

// DeclareLocal adds a fresh variable derived from base to f's scope, or a
// fresh module global when f is nil (code in Body).
func (m *Module) DeclareLocal(f *Func, base string, ty types.TypeID, sp source.Span) symbols.SymbolID {
	scope, flags := m.Scope, symbols.SymbolFlagGenerated|symbols.SymbolFlagGlobal
	if f != nil {
		scope, flags = f.Scope, symbols.SymbolFlagGenerated
	}
	sym := m.Symbols.Declare(scope, symbols.Symbol{
		Name:  m.Symbols.Fresh(scope, base),
		Kind:  symbols.SymbolVariable,
		Type:  ty,
		Span:  sp,
		Flags: flags,
	})
	if f != nil {
		f.Locals = append(f.Locals, sym)
	} else {
		m.Globals = append(m.Globals, sym)
	}
	return sym
}

// ScopeOf returns the scope statements of f run in (module scope for nil).
func (m *Module) ScopeOf(f *Func) symbols.ScopeID {
	if f == nil {
		return m.Scope
	}
	return f.Scope
}
