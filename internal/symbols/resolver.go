package symbols

import "viper/internal/source"

// Resolver drives scope management during lowering: a stack of open scopes
// with declaration into and lookup from the innermost one.
type Resolver struct {
	table *Table
	stack []ScopeID
}

// NewResolver creates a resolver whose current scope is root.
func NewResolver(table *Table, root ScopeID) *Resolver {
	r := &Resolver{table: table, stack: make([]ScopeID, 0, 8)}
	if root.IsValid() {
		r.stack = append(r.stack, root)
	}
	return r
}

// Current returns the innermost open scope.
func (r *Resolver) Current() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Enter pushes an existing scope.
func (r *Resolver) Enter(scope ScopeID) {
	r.stack = append(r.stack, scope)
}

// Push creates a child scope of the current one and enters it.
func (r *Resolver) Push(kind ScopeKind, owner SymbolID, span source.Span) ScopeID {
	id := r.table.NewScope(kind, r.Current(), owner, span)
	r.Enter(id)
	return id
}

// Leave pops the innermost scope.
func (r *Resolver) Leave() {
	if len(r.stack) > 0 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// Declare adds sym to the current scope.
func (r *Resolver) Declare(sym Symbol) SymbolID {
	return r.table.Declare(r.Current(), sym)
}

// Resolve looks name up from the current scope outwards.
func (r *Resolver) Resolve(name source.StringID) SymbolID {
	return r.table.Lookup(r.Current(), name)
}

// Local looks name up in the current scope only.
func (r *Resolver) Local(name source.StringID) SymbolID {
	return r.table.LookupLocal(r.Current(), name)
}

// Enclosing returns the nearest open scope of the given kind.
func (r *Resolver) Enclosing(kind ScopeKind) ScopeID {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if sc := r.table.Scopes.Get(r.stack[i]); sc != nil && sc.Kind == kind {
			return r.stack[i]
		}
	}
	return NoScopeID
}
