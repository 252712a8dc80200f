package symbols

import (
	"iter"

	"viper/internal/arena"
	"viper/internal/source"
)

// Scopes is the scope arena. Handles are arena handles, so NoScopeID (0)
// never addresses a scope.
type Scopes struct {
	a *arena.Arena[Scope]
}

func NewScopes(capacity uint32) *Scopes {
	return &Scopes{a: arena.New[Scope](uint(max(capacity, 32)))}
}

// New allocates a scope and appends it to parent's children.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, owner SymbolID, span source.Span) ScopeID {
	id := ScopeID(s.a.Allocate(Scope{
		Kind:      kind,
		Parent:    parent,
		Owner:     owner,
		Span:      span,
		NameIndex: make(map[source.StringID][]SymbolID),
	}))
	if p := s.Get(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	return id
}

// Get returns nil for NoScopeID and unknown handles.
func (s *Scopes) Get(id ScopeID) *Scope { return s.a.Get(uint32(id)) }

func (s *Scopes) Len() int { return int(s.a.Len()) }

// All yields every scope in allocation order.
func (s *Scopes) All() iter.Seq2[ScopeID, *Scope] {
	return func(yield func(ScopeID, *Scope) bool) {
		for i := uint32(1); i <= s.a.Len(); i++ {
			if !yield(ScopeID(i), s.a.Get(i)) {
				return
			}
		}
	}
}

// Symbols is the symbol arena.
type Symbols struct {
	a *arena.Arena[Symbol]
}

func NewSymbols(capacity uint32) *Symbols {
	return &Symbols{a: arena.New[Symbol](uint(max(capacity, 64)))}
}

// New copies sym into the arena.
func (s *Symbols) New(sym *Symbol) SymbolID {
	if sym == nil {
		panic("symbols.New: nil symbol")
	}
	return SymbolID(s.a.Allocate(*sym))
}

func (s *Symbols) Get(id SymbolID) *Symbol { return s.a.Get(uint32(id)) }

func (s *Symbols) Len() int { return int(s.a.Len()) }

// All yields every symbol in declaration order.
func (s *Symbols) All() iter.Seq2[SymbolID, *Symbol] {
	return func(yield func(SymbolID, *Symbol) bool) {
		for i := uint32(1); i <= s.a.Len(); i++ {
			if !yield(SymbolID(i), s.a.Get(i)) {
				return
			}
		}
	}
}
