package symbols

import (
	"fmt"
	"slices"
	"strconv"

	"fortio.org/safecast"

	"viper/internal/source"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates symbol-related arenas and shared resources.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
	fresh   map[string]int
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Strings: strings,
		fresh:   make(map[string]int),
	}
}

// NewScope allocates a scope under parent.
func (t *Table) NewScope(kind ScopeKind, parent ScopeID, owner SymbolID, span source.Span) ScopeID {
	return t.Scopes.New(kind, parent, owner, span)
}

// Declare adds sym to scope. Shadowing inside one scope is allowed here;
// callers that forbid redeclaration check LookupLocal first.
func (t *Table) Declare(scope ScopeID, sym Symbol) SymbolID {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		panic(fmt.Sprintf("symbols: declare into invalid scope %d", scope))
	}
	sym.Scope = scope
	id := t.Symbols.New(&sym)
	sc.Symbols = append(sc.Symbols, id)
	sc.NameIndex[sym.Name] = append(sc.NameIndex[sym.Name], id)
	return id
}

// LookupLocal returns the latest symbol named name declared directly in scope.
func (t *Table) LookupLocal(scope ScopeID, name source.StringID) SymbolID {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return NoSymbolID
	}
	bucket := sc.NameIndex[name]
	if len(bucket) == 0 {
		return NoSymbolID
	}
	return bucket[len(bucket)-1]
}

// Lookup walks the scope chain innermost to outermost; first match wins.
func (t *Table) Lookup(scope ScopeID, name source.StringID) SymbolID {
	for id := scope; id.IsValid(); {
		if sym := t.LookupLocal(id, name); sym.IsValid() {
			return sym
		}
		id = t.Scopes.Get(id).Parent
	}
	return NoSymbolID
}

// OnChain reports whether target is from itself or one of its ancestors.
func (t *Table) OnChain(from, target ScopeID) bool {
	for id := from; id.IsValid(); id = t.Scopes.Get(id).Parent {
		if id == target {
			return true
		}
	}
	return false
}

// Name returns the text of a symbol name.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	s, _ := t.Strings.Lookup(sym.Name)
	return s
}

// MarkDead marks scope and all its descendants dead. Used when a pass deletes
// the IR node that owns the scope.
func (t *Table) MarkDead(scope ScopeID) {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return
	}
	sc.Dead = true
	for _, child := range sc.Children {
		t.MarkDead(child)
	}
}

// IsDead reports whether scope is dead.
func (t *Table) IsDead(scope ScopeID) bool {
	sc := t.Scopes.Get(scope)
	return sc != nil && sc.Dead
}

// Fresh returns a name derived from base that no symbol visible from scope
// uses yet, e.g. i__1.
func (t *Table) Fresh(scope ScopeID, base string) source.StringID {
	for {
		t.fresh[base]++
		name := t.Strings.Intern(base + "__" + strconv.Itoa(t.fresh[base]))
		if !t.Lookup(scope, name).IsValid() {
			return name
		}
	}
}

// Move re-homes a symbol into another scope. Passes use it when they dissolve
// a scope into its parent.
func (t *Table) Move(id SymbolID, to ScopeID) {
	sym := t.Symbols.Get(id)
	dst := t.Scopes.Get(to)
	if sym == nil || dst == nil || sym.Scope == to {
		return
	}
	if src := t.Scopes.Get(sym.Scope); src != nil {
		src.Symbols = slices.DeleteFunc(src.Symbols, func(x SymbolID) bool { return x == id })
		bucket := slices.DeleteFunc(src.NameIndex[sym.Name], func(x SymbolID) bool { return x == id })
		if len(bucket) == 0 {
			delete(src.NameIndex, sym.Name)
		} else {
			src.NameIndex[sym.Name] = bucket
		}
	}
	sym.Scope = to
	dst.Symbols = append(dst.Symbols, id)
	dst.NameIndex[sym.Name] = append(dst.NameIndex[sym.Name], id)
}

// Reparent hangs scope under parent, fixing both child lists.
func (t *Table) Reparent(scope, parent ScopeID) {
	sc := t.Scopes.Get(scope)
	dst := t.Scopes.Get(parent)
	if sc == nil || dst == nil || sc.Parent == parent {
		return
	}
	if old := t.Scopes.Get(sc.Parent); old != nil {
		old.Children = slices.DeleteFunc(old.Children, func(x ScopeID) bool { return x == scope })
	}
	sc.Parent = parent
	dst.Children = append(dst.Children, scope)
}

// Rename gives a symbol a new name, keeping its scope's name index in sync.
func (t *Table) Rename(id SymbolID, name source.StringID) {
	sym := t.Symbols.Get(id)
	if sym == nil || sym.Name == name {
		return
	}
	if sc := t.Scopes.Get(sym.Scope); sc != nil {
		bucket := slices.DeleteFunc(sc.NameIndex[sym.Name], func(x SymbolID) bool { return x == id })
		if len(bucket) == 0 {
			delete(sc.NameIndex, sym.Name)
		} else {
			sc.NameIndex[sym.Name] = bucket
		}
		sc.NameIndex[name] = append(sc.NameIndex[name], id)
	}
	sym.Name = name
}
