package symbols

import (
	"viper/internal/source"
	"viper/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolVariable
	SymbolParam
	SymbolFunction
	SymbolModule
	SymbolClass
	SymbolField
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolParam:
		return "param"
	case SymbolFunction:
		return "function"
	case SymbolModule:
		return "module"
	case SymbolClass:
		return "class"
	case SymbolField:
		return "field"
	default:
		return "invalid"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	SymbolFlagGlobal    SymbolFlags = 1 << iota // переменная уровня модуля
	SymbolFlagInline                            // @inline
	SymbolFlagCCallable                         // @ccallable, экспортируется
	SymbolFlagBuiltin                           // print/len/range and type names
	SymbolFlagGenerated                         // introduced by a pass
	SymbolFlagKwOnly                            // keyword-only parameter
	SymbolFlagPosOnly                           // positional-only parameter
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	if f&SymbolFlagGlobal != 0 {
		labels = append(labels, "global")
	}
	if f&SymbolFlagInline != 0 {
		labels = append(labels, "inline")
	}
	if f&SymbolFlagCCallable != 0 {
		labels = append(labels, "ccallable")
	}
	if f&SymbolFlagBuiltin != 0 {
		labels = append(labels, "builtin")
	}
	if f&SymbolFlagGenerated != 0 {
		labels = append(labels, "generated")
	}
	if f&SymbolFlagKwOnly != 0 {
		labels = append(labels, "kwonly")
	}
	if f&SymbolFlagPosOnly != 0 {
		labels = append(labels, "posonly")
	}
	return labels
}

// Symbol describes a named entity available in a scope.
type Symbol struct {
	Name  source.StringID
	Kind  SymbolKind
	Type  types.TypeID // for functions, the fn type
	Scope ScopeID      // where it is declared
	Owns  ScopeID      // scope introduced by a function or class symbol
	Span  source.Span
	Flags SymbolFlags
	Index int // parameter or field position
}
