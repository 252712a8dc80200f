package ir

import (
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// FuncFlags represents function attributes as a bitmask.
type FuncFlags uint8

const (
	FuncInline    FuncFlags = 1 << iota // @inline
	FuncCCallable                       // @ccallable, exported
	FuncGenerated                       // created by a pass
)

// HasFlag returns true if the given flag is set.
func (f FuncFlags) HasFlag(flag FuncFlags) bool {
	return f&flag != 0
}

// String returns the decorators spelled as in source.
func (f FuncFlags) String() string {
	s := ""
	if f.HasFlag(FuncInline) {
		s += "@inline "
	}
	if f.HasFlag(FuncCCallable) {
		s += "@ccallable "
	}
	if f.HasFlag(FuncGenerated) {
		s += "@generated "
	}
	return s
}

// Func represents an IR function.
type Func struct {
	Sym      symbols.SymbolID
	Name     string
	Span     source.Span
	Scope    symbols.ScopeID    // function scope, owned by Sym
	Params   []symbols.SymbolID // in declaration order
	Defaults []ExprID           // per parameter, NoExprID when absent
	Result   types.TypeID       // None type when nothing is returned
	Locals   []symbols.SymbolID // every variable the body stores to, params excluded
	Body     []StmtID
	Flags    FuncFlags
}

// Class represents a dataclass-like class: named, typed fields only.
type Class struct {
	Sym    symbols.SymbolID
	Name   string
	Span   source.Span
	Type   types.TypeID
	Scope  symbols.ScopeID
	Fields []symbols.SymbolID
}
