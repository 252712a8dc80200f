package ir

import (
	"viper/internal/ast"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// Operator enums are shared with the AST.
type (
	BinaryOp = ast.BinaryOp
	UnaryOp  = ast.UnaryOp
	CmpOp    = ast.CmpOp
	BoolOp   = ast.BoolOp
)

// ExprKind enumerates IR expression kinds.
type ExprKind uint8

const (
	// ExprError is the placeholder for an expression that failed to lower.
	// It is typed Invalid and never reaches a backend.
	ExprError ExprKind = iota
	ExprConst
	ExprName
	ExprUnary
	ExprBinary
	ExprCompare
	ExprBoolOp
	ExprCall
	ExprCast
	ExprIndex
	ExprSection // a[lo:hi:step], an array-valued view
	ExprField
	ExprArray     // [a, b, c]
	ExprComp      // [e for i in range(...)]
	ExprConstruct // P(a, b)
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprError:
		return "Error"
	case ExprConst:
		return "Const"
	case ExprName:
		return "Name"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprCompare:
		return "Compare"
	case ExprBoolOp:
		return "BoolOp"
	case ExprCall:
		return "Call"
	case ExprCast:
		return "Cast"
	case ExprIndex:
		return "Index"
	case ExprSection:
		return "Section"
	case ExprField:
		return "Field"
	case ExprArray:
		return "Array"
	case ExprComp:
		return "Comp"
	case ExprConstruct:
		return "Construct"
	default:
		return "Unknown"
	}
}

// Expr represents an IR expression with type information.
type Expr struct {
	Kind ExprKind
	Type types.TypeID
	Span source.Span
	Data ExprData // Kind-specific payload
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// ConstKind enumerates literal value kinds.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstStr
	ConstNone
)

// ConstData holds data for ExprConst.
type ConstData struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

func (ConstData) exprData() {}

// NameData holds data for ExprName. Scope is the scope the reference occurs in.
type NameData struct {
	Sym   symbols.SymbolID
	Scope symbols.ScopeID
}

func (NameData) exprData() {}

type UnaryData struct {
	Op      ast.UnaryOp
	Operand ExprID
}

func (UnaryData) exprData() {}

type BinaryData struct {
	Op    ast.BinaryOp
	Left  ExprID
	Right ExprID
}

func (BinaryData) exprData() {}

// CompareData is a single comparison; chains are lowered to `and`.
type CompareData struct {
	Op    ast.CmpOp
	Left  ExprID
	Right ExprID
}

func (CompareData) exprData() {}

type BoolOpData struct {
	Op    ast.BoolOp
	Left  ExprID
	Right ExprID
}

func (BoolOpData) exprData() {}

// CallData holds data for ExprCall. Args are in parameter order, defaults
// already filled in.
type CallData struct {
	Callee symbols.SymbolID
	Args   []ExprID
}

func (CallData) exprData() {}

// CastData converts Value to the expression's own Type.
type CastData struct {
	Value ExprID
}

func (CastData) exprData() {}

type IndexData struct {
	Value ExprID
	Index ExprID
}

func (IndexData) exprData() {}

// SectionData holds a[lo:hi:step]. Bounds are constant and normalized by
// lowering; the expression type is an array of the selected length.
type SectionData struct {
	Value ExprID
	Lower int64
	Upper int64
	Step  int64
}

func (SectionData) exprData() {}

// FieldData reads field number Field of a class value.
type FieldData struct {
	Value ExprID
	Field int
}

func (FieldData) exprData() {}

type ArrayData struct {
	Elems []ExprID
}

func (ArrayData) exprData() {}

// Range is the counter triple of `range(start, stop, step)`.
type Range struct {
	Start ExprID
	Stop  ExprID
	Step  ExprID
}

// CompData is [Elt for Var in range(...)]. Scope is the comprehension scope
// declaring Var.
type CompData struct {
	Elt   ExprID
	Var   symbols.SymbolID
	Scope symbols.ScopeID
	Range Range
}

func (CompData) exprData() {}

// ConstructData builds a class value from field values in declaration order.
type ConstructData struct {
	Args []ExprID
}

func (ConstructData) exprData() {}
