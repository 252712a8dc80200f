package ast

import (
	"viper/internal/source"
)

type StmtKind uint8

const (
	// StmtBad is a recovery placeholder produced after a syntax error.
	StmtBad StmtKind = iota
	StmtExpr
	StmtAssign
	StmtAnnAssign
	StmtAugAssign
	StmtIf
	StmtWhile
	StmtFor
	StmtReturn
	StmtPass
	StmtBreak
	StmtContinue
	StmtFunctionDef
	StmtClassDef
	StmtImport
	StmtImportFrom
)

var stmtKindNames = [...]string{"Bad", "Expr", "Assign", "AnnAssign", "AugAssign", "If", "While", "For", "Return", "Pass", "Break", "Continue", "FunctionDef", "ClassDef", "Import", "ImportFrom"}

func (k StmtKind) String() string { return stmtKindNames[k] }

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type StmtExprData struct {
	Value ExprID
}

type StmtAssignData struct {
	Target ExprID
	Value  ExprID
}

type StmtAnnAssignData struct {
	Target     ExprID
	Annotation ExprID
	Value      ExprID // NoExprID for a bare declaration
}

type StmtAugAssignData struct {
	Target ExprID
	Op     BinaryOp
	Value  ExprID
}

// StmtIfData also represents elif chains: an elif is a nested If in Orelse.
type StmtIfData struct {
	Cond   ExprID
	Body   []StmtID
	Orelse []StmtID
}

type StmtWhileData struct {
	Cond ExprID
	Body []StmtID
}

type StmtForData struct {
	Target ExprID
	Iter   ExprID
	Body   []StmtID
}

type StmtReturnData struct {
	Value ExprID // NoExprID for a bare return
}

// ParamKind follows Python's parameter categories.
type ParamKind uint8

const (
	ParamPositional ParamKind = iota
	ParamPositionalOnly
	ParamVarArgs // *args
	ParamKwOnly
	ParamKwArgs // **kw
)

var paramKindNames = [...]string{"arg", "posonlyarg", "vararg", "kwonlyarg", "kwarg"}

func (k ParamKind) String() string { return paramKindNames[k] }

type Param struct {
	Kind       ParamKind
	Name       source.StringID
	Annotation ExprID
	Default    ExprID // NoExprID when absent
	Span       source.Span
}

type StmtFunctionDefData struct {
	Name       source.StringID
	NameSpan   source.Span
	Params     []Param
	Returns    ExprID
	Body       []StmtID
	Decorators []ExprID
}

type StmtClassDefData struct {
	Name       source.StringID
	NameSpan   source.Span
	Body       []StmtID
	Decorators []ExprID
}

// Alias is one name of an import list.
type Alias struct {
	Name   source.StringID
	AsName source.StringID
	Span   source.Span
}

type StmtImportData struct {
	Names []Alias
}

type StmtImportFromData struct {
	Module source.StringID
	Names  []Alias
}
