package passes

import (
	"context"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/symbols"
)

// unusedFunctions removes functions that no entry point can reach. Roots are
// the functions called from module-level statements, the module Entry, and
// every @ccallable function. A module with no root at all is a library: all
// of its functions form its interface and nothing is removed. Removed
// functions have their scopes marked dead.
type unusedFunctions struct{}

func (unusedFunctions) Name() string { return UnusedFunctions }

func (unusedFunctions) Run(_ context.Context, m *ir.Module, _ diag.Reporter) error {
	live := Reachable(m)
	if live == nil {
		return nil
	}
	var dead []*ir.Func
	for _, f := range m.Funcs {
		if _, ok := live[f.Sym]; !ok {
			dead = append(dead, f)
		}
	}
	for _, f := range dead {
		m.RemoveFunc(f)
	}
	return nil
}

// Reachable returns the functions reachable from the module's roots, or nil
// when the module has no roots.
func Reachable(m *ir.Module) map[symbols.SymbolID]struct{} {
	var work []symbols.SymbolID
	addCalls := func(body []ir.StmtID) {
		ir.WalkBodyExprs(m, body, func(_ ir.ExprID, e *ir.Expr) bool {
			if d, ok := e.Data.(ir.CallData); ok {
				work = append(work, d.Callee)
			}
			return true
		})
	}
	addCalls(m.Body)
	if m.Entry.IsValid() {
		work = append(work, m.Entry)
	}
	for _, f := range m.Funcs {
		if f.Flags.HasFlag(ir.FuncCCallable) {
			work = append(work, f.Sym)
		}
	}
	if len(work) == 0 {
		return nil
	}
	live := make(map[symbols.SymbolID]struct{}, len(m.Funcs))
	for len(work) > 0 {
		sym := work[len(work)-1]
		work = work[:len(work)-1]
		if _, seen := live[sym]; seen {
			continue
		}
		live[sym] = struct{}{}
		if f := m.Func(sym); f != nil {
			addCalls(f.Body)
		}
	}
	return live
}
