// Package ir is the typed, name-resolved intermediate representation of one
// viper module.
//
// IR nodes live in arenas owned by the Module and are addressed by handles.
// Every expression carries its resolved types.TypeID and every name reference
// carries a symbols.SymbolID plus the scope it occurs in. Passes rewrite the
// IR in place; Verify checks the structural invariants after each of them.
package ir

// ExprID identifies an expression in the module arena.
type ExprID uint32

// StmtID identifies a statement in the module arena.
type StmtID uint32

const (
	NoExprID ExprID = 0
	NoStmtID StmtID = 0
)

func (id ExprID) IsValid() bool { return id != NoExprID }
func (id StmtID) IsValid() bool { return id != NoStmtID }
