package ir

import (
	"slices"

	"viper/internal/symbols"
)

// Cloner deep-copies IR trees inside one module.
//
// Name references to symbols in Subst are redirected to the mapped symbol.
// When Scope is valid every copied name reference and loop is re-homed into
// it; callers cloning a function body into another function set it to the
// destination scope.
type Cloner struct {
	M     *Module
	Subst map[symbols.SymbolID]symbols.SymbolID
	Scope symbols.ScopeID
}

func (c *Cloner) sym(id symbols.SymbolID) symbols.SymbolID {
	if to, ok := c.Subst[id]; ok {
		return to
	}
	return id
}

func (c *Cloner) scope(id symbols.ScopeID) symbols.ScopeID {
	if c.Scope.IsValid() {
		return c.Scope
	}
	return id
}

// Expr copies the tree rooted at id and returns the new root.
func (c *Cloner) Expr(id ExprID) ExprID {
	if !id.IsValid() {
		return id
	}
	orig := *c.M.Expr(id)
	switch d := orig.Data.(type) {
	case NameData:
		orig.Data = NameData{Sym: c.sym(d.Sym), Scope: c.scope(d.Scope)}
	case UnaryData:
		d.Operand = c.Expr(d.Operand)
		orig.Data = d
	case BinaryData:
		d.Left, d.Right = c.Expr(d.Left), c.Expr(d.Right)
		orig.Data = d
	case CompareData:
		d.Left, d.Right = c.Expr(d.Left), c.Expr(d.Right)
		orig.Data = d
	case BoolOpData:
		d.Left, d.Right = c.Expr(d.Left), c.Expr(d.Right)
		orig.Data = d
	case CallData:
		d.Callee = c.sym(d.Callee)
		d.Args = c.exprs(d.Args)
		orig.Data = d
	case CastData:
		d.Value = c.Expr(d.Value)
		orig.Data = d
	case IndexData:
		d.Value, d.Index = c.Expr(d.Value), c.Expr(d.Index)
		orig.Data = d
	case SectionData:
		d.Value = c.Expr(d.Value)
		orig.Data = d
	case FieldData:
		d.Value = c.Expr(d.Value)
		orig.Data = d
	case ArrayData:
		d.Elems = c.exprs(d.Elems)
		orig.Data = d
	case CompData:
		// the comprehension keeps its own scope; only the counter is remapped
		d.Var = c.sym(d.Var)
		d.Range = c.rng(d.Range)
		d.Elt = c.Expr(d.Elt)
		orig.Data = d
	case ConstructData:
		d.Args = c.exprs(d.Args)
		orig.Data = d
	}
	return c.M.NewExpr(orig)
}

func (c *Cloner) exprs(ids []ExprID) []ExprID {
	if ids == nil {
		return nil
	}
	out := make([]ExprID, len(ids))
	for i, id := range ids {
		out[i] = c.Expr(id)
	}
	return out
}

func (c *Cloner) rng(r Range) Range {
	return Range{Start: c.Expr(r.Start), Stop: c.Expr(r.Stop), Step: c.Expr(r.Step)}
}

// Stmt copies a statement with its nested blocks.
func (c *Cloner) Stmt(id StmtID) StmtID {
	orig := *c.M.Stmt(id)
	switch d := orig.Data.(type) {
	case AssignData:
		d.Target, d.Value = c.Expr(d.Target), c.Expr(d.Value)
		orig.Data = d
	case ExprStmtData:
		d.Value = c.Expr(d.Value)
		orig.Data = d
	case IfData:
		d.Cond = c.Expr(d.Cond)
		d.Then, d.Else = c.Block(d.Then), c.Block(d.Else)
		orig.Data = d
	case WhileData:
		d.Cond = c.Expr(d.Cond)
		d.Body = c.Block(d.Body)
		orig.Data = d
	case ForData:
		d.Var = c.sym(d.Var)
		d.Scope = c.scope(d.Scope)
		d.Range = c.rng(d.Range)
		d.Iter = c.Expr(d.Iter)
		d.Body = c.Block(d.Body)
		orig.Data = d
	case ReturnData:
		d.Value = c.Expr(d.Value)
		orig.Data = d
	case PrintData:
		d.Args = c.exprs(d.Args)
		d.Sep, d.End = c.Expr(d.Sep), c.Expr(d.End)
		orig.Data = d
	}
	return c.M.NewStmt(orig)
}

// Block copies a statement list.
func (c *Cloner) Block(ids []StmtID) []StmtID {
	if ids == nil {
		return nil
	}
	out := make([]StmtID, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.Stmt(id))
	}
	return out
}

// ContainsExpr reports whether any expression under body satisfies pred.
func ContainsExpr(m *Module, body []StmtID, pred func(*Expr) bool) bool {
	found := false
	WalkBodyExprs(m, body, func(_ ExprID, e *Expr) bool {
		if pred(e) {
			found = true
		}
		return !found
	})
	return found
}

// ContainsStmt reports whether any statement under body satisfies pred.
func ContainsStmt(m *Module, body []StmtID, pred func(*Stmt) bool) bool {
	found := false
	WalkStmts(m, body, func(_ StmtID, s *Stmt) bool {
		if pred(s) {
			found = true
		}
		return !found
	})
	return found
}

// RemoveFunc drops f from the module and marks its scope dead.
func (m *Module) RemoveFunc(f *Func) {
	m.Funcs = slices.DeleteFunc(m.Funcs, func(x *Func) bool { return x == f })
	m.Symbols.MarkDead(f.Scope)
}
