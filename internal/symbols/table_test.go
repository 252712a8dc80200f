package symbols

import (
	"testing"

	"viper/internal/source"
)

func newTestTable() (*Table, ScopeID) {
	tbl := NewTable(Hints{}, nil)
	root := tbl.NewScope(ScopeModule, NoScopeID, NoSymbolID, source.Span{})
	return tbl, root
}

func TestLookupWalksScopeChain(t *testing.T) {
	tbl, root := newTestTable()
	x := tbl.Strings.Intern("x")
	outer := tbl.Declare(root, Symbol{Name: x, Kind: SymbolVariable})
	fn := tbl.NewScope(ScopeFunction, root, NoSymbolID, source.Span{})
	if got := tbl.Lookup(fn, x); got != outer {
		t.Fatalf("expected outer symbol, got %d", got)
	}
	inner := tbl.Declare(fn, Symbol{Name: x, Kind: SymbolVariable})
	if got := tbl.Lookup(fn, x); got != inner {
		t.Fatalf("inner declaration must win, got %d", got)
	}
	if got := tbl.Lookup(root, x); got != outer {
		t.Fatalf("parent must not see child symbols")
	}
	if tbl.Lookup(fn, tbl.Strings.Intern("y")).IsValid() {
		t.Fatalf("undeclared name resolved")
	}
	if !tbl.OnChain(fn, root) || tbl.OnChain(root, fn) {
		t.Fatalf("OnChain is wrong")
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestMarkDeadIsRecursive(t *testing.T) {
	tbl, root := newTestTable()
	fn := tbl.NewScope(ScopeFunction, root, NoSymbolID, source.Span{})
	comp := tbl.NewScope(ScopeComprehension, fn, NoSymbolID, source.Span{})
	tbl.MarkDead(fn)
	if !tbl.IsDead(fn) || !tbl.IsDead(comp) || tbl.IsDead(root) {
		t.Fatalf("dead flags wrong")
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	tbl.Scopes.Get(comp).Dead = false
	if err := tbl.Validate(); err == nil {
		t.Fatalf("live scope under dead parent must be reported")
	}
}

func TestFreshAndMove(t *testing.T) {
	tbl, root := newTestTable()
	fn := tbl.NewScope(ScopeFunction, root, NoSymbolID, source.Span{})
	comp := tbl.NewScope(ScopeComprehension, fn, NoSymbolID, source.Span{})
	tbl.Declare(fn, Symbol{Name: tbl.Strings.Intern("i__1"), Kind: SymbolVariable})

	name := tbl.Fresh(fn, "i")
	if got := tbl.Strings.MustLookup(name); got != "i__2" {
		t.Fatalf("Fresh skipped an existing name badly: %s", got)
	}

	id := tbl.Declare(comp, Symbol{Name: tbl.Strings.Intern("i"), Kind: SymbolVariable})
	tbl.Move(id, fn)
	if tbl.Symbols.Get(id).Scope != fn {
		t.Fatalf("symbol not re-homed")
	}
	if tbl.LookupLocal(comp, tbl.Strings.Intern("i")).IsValid() {
		t.Fatalf("symbol still visible in old scope")
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestResolverStack(t *testing.T) {
	tbl, root := newTestTable()
	r := NewResolver(tbl, root)
	a := tbl.Strings.Intern("a")
	outer := r.Declare(Symbol{Name: a, Kind: SymbolVariable})
	fn := r.Push(ScopeFunction, NoSymbolID, source.Span{})
	if r.Current() != fn || r.Resolve(a) != outer || r.Local(a).IsValid() {
		t.Fatalf("resolver did not enter function scope")
	}
	if r.Enclosing(ScopeModule) != root {
		t.Fatalf("Enclosing(module) wrong")
	}
	r.Leave()
	if r.Current() != root {
		t.Fatalf("Leave did not pop")
	}
}

func TestReparentAndRename(t *testing.T) {
	tbl, root := newTestTable()
	fn := tbl.NewScope(ScopeFunction, root, NoSymbolID, source.Span{})
	comp := tbl.NewScope(ScopeComprehension, root, NoSymbolID, source.Span{})
	i := tbl.Declare(comp, Symbol{Name: tbl.Strings.Intern("i"), Kind: SymbolVariable})
	tbl.Reparent(comp, fn)
	if tbl.Scopes.Get(comp).Parent != fn || len(tbl.Scopes.Get(root).Children) != 1 {
		t.Fatalf("reparent did not move the child link")
	}
	renamed := tbl.Strings.Intern("i__9")
	tbl.Rename(i, renamed)
	if tbl.LookupLocal(comp, renamed) != i || tbl.LookupLocal(comp, tbl.Strings.Intern("i")).IsValid() {
		t.Fatalf("name index not updated")
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
