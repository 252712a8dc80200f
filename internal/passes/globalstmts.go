package passes

import (
	"context"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
)

// MainName is the function global_stmts moves module-level code into.
const MainName = "_viper_main"

// globalStmts moves the module-level statements into a generated function
// and makes it the module Entry. Module variables stay globals; only the
// code moves. Backends that cannot run top-level code need this pass.
type globalStmts struct{}

func (globalStmts) Name() string { return GlobalStmts }

func (globalStmts) Run(_ context.Context, m *ir.Module, _ diag.Reporter) error {
	if len(m.Body) == 0 {
		return nil
	}
	tbl := m.Symbols
	var sp source.Span
	if first := m.Stmt(m.Body[0]); first != nil {
		sp = first.Span
	}

	name := tbl.Strings.Intern(MainName)
	if tbl.LookupLocal(m.Scope, name).IsValid() {
		name = tbl.Fresh(m.Scope, MainName)
	}
	none := m.Types.Builtins().None
	sym := tbl.Declare(m.Scope, symbols.Symbol{
		Name:  name,
		Kind:  symbols.SymbolFunction,
		Type:  m.Types.RegisterFn(nil, none),
		Span:  sp,
		Flags: symbols.SymbolFlagGenerated,
	})
	scope := tbl.NewScope(symbols.ScopeFunction, m.Scope, sym, sp)
	tbl.Symbols.Get(sym).Owns = scope

	rehomeBlock(m, m.Body, m.Scope, scope)
	m.Funcs = append(m.Funcs, &ir.Func{
		Sym:    sym,
		Name:   tbl.Name(sym),
		Span:   sp,
		Scope:  scope,
		Result: none,
		Body:   m.Body,
		Flags:  ir.FuncGenerated,
	})
	m.Body = nil
	m.Entry = sym
	return nil
}
