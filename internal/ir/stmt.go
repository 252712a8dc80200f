package ir

import (
	"viper/internal/source"
	"viper/internal/symbols"
)

// StmtKind enumerates IR statement kinds.
type StmtKind uint8

const (
	// StmtAssign stores Value into Target (a Name, Index, Field or Section).
	StmtAssign StmtKind = iota
	StmtExpr
	StmtIf
	StmtWhile
	// StmtFor is a counted loop over a range or an array; loop_lowering
	// turns it into init/while/increment.
	StmtFor
	StmtReturn
	StmtBreak
	StmtContinue
	StmtPrint
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtAssign:
		return "Assign"
	case StmtExpr:
		return "ExprStmt"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtFor:
		return "For"
	case StmtReturn:
		return "Return"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtPrint:
		return "Print"
	default:
		return "Unknown"
	}
}

// Stmt represents an IR statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData // Kind-specific payload; nil for break/continue
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

type AssignData struct {
	Target ExprID
	Value  ExprID
}

func (AssignData) stmtData() {}

type ExprStmtData struct {
	Value ExprID
}

func (ExprStmtData) stmtData() {}

type IfData struct {
	Cond ExprID
	Then []StmtID
	Else []StmtID
}

func (IfData) stmtData() {}

type WhileData struct {
	Cond ExprID
	Body []StmtID
}

func (WhileData) stmtData() {}

// ForData: either Range is set (counter loop) or Iter names an array whose
// elements are bound to Var in turn.
type ForData struct {
	Var   symbols.SymbolID
	Scope symbols.ScopeID // scope of the Var reference
	Range Range
	Iter  ExprID
	Body  []StmtID
}

func (ForData) stmtData() {}

type ReturnData struct {
	Value ExprID // NoExprID for a bare return
}

func (ReturnData) stmtData() {}

// PrintData is print(*Args, sep=Sep, end=End); Sep and End are str
// expressions or NoExprID for the defaults " " and "\n".
type PrintData struct {
	Args []ExprID
	Sep  ExprID
	End  ExprID
}

func (PrintData) stmtData() {}
