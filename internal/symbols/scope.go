package symbols

import (
	"viper/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeModule
	ScopeFunction
	ScopeClass
	ScopeComprehension
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	case ScopeComprehension:
		return "comprehension"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with a parent-child hierarchy.
// Owner is the function or class symbol that introduced the scope.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     SymbolID
	Span      source.Span
	NameIndex map[source.StringID][]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
	Dead      bool // владелец удалён проходом
}
