package ast

import (
	"viper/internal/source"
)

// ExprKind enumerates the different kinds of expressions.
type ExprKind uint8

const (
	// ExprBad is a recovery placeholder produced after a syntax error.
	// Lowering skips it silently.
	ExprBad ExprKind = iota
	ExprName
	ExprConst
	ExprBinary
	ExprBoolOp
	ExprUnary
	ExprCompare
	ExprCall
	ExprAttribute
	ExprSubscript
	ExprSlice
	ExprList
	ExprListComp
)

var exprKindNames = [...]string{"Bad", "Name", "Constant", "BinOp", "BoolOp", "UnaryOp", "Compare", "Call", "Attribute", "Subscript", "Slice", "List", "ListComp"}

func (k ExprKind) String() string { return exprKindNames[k] }

// Expr represents an expression node in the AST.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// ConstKind says which literal an ExprConst holds.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstStr
	ConstTrue
	ConstFalse
	ConstNone
)

type ExprNameData struct {
	Name source.StringID
}

// ExprConstData keeps the raw token text; numbers are decoded by lowering.
type ExprConstData struct {
	Kind ConstKind
	Raw  string
	Str  string // decoded value for ConstStr
}

type ExprBinaryData struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
}

type ExprBoolOpData struct {
	Op    BoolOp
	Left  ExprID
	Right ExprID
}

type ExprUnaryData struct {
	Op      UnaryOp
	Operand ExprID
}

// ExprCompareData is a comparison chain: Operands[i] Ops[i] Operands[i+1].
type ExprCompareData struct {
	Ops      []CmpOp
	Operands []ExprID
}

// ArgKind distinguishes call argument forms.
type ArgKind uint8

const (
	ArgPositional ArgKind = iota
	ArgKeyword
	ArgStar       // *x
	ArgDoubleStar // **x
)

type CallArg struct {
	Kind  ArgKind
	Name  source.StringID // for ArgKeyword
	Value ExprID
	Span  source.Span
}

type ExprCallData struct {
	Func ExprID
	Args []CallArg
}

type ExprAttributeData struct {
	Value    ExprID
	Attr     source.StringID
	AttrSpan source.Span
}

type ExprSubscriptData struct {
	Value ExprID
	Index ExprID // may be an ExprSlice
}

// ExprSliceData holds lo:hi:step; absent parts are NoExprID.
type ExprSliceData struct {
	Lower ExprID
	Upper ExprID
	Step  ExprID
}

type ExprListData struct {
	Elts []ExprID
}

// ExprListCompData is [Elt for Target in Iter].
type ExprListCompData struct {
	Elt    ExprID
	Target ExprID
	Iter   ExprID
}
