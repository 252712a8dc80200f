package types

import "viper/internal/ast"

// FamilyMask describes broad categories of types an operator accepts.
type FamilyMask uint32

const (
	FamilyNone FamilyMask = 0
	FamilyBool FamilyMask = 1 << iota
	FamilyInt
	FamilyFloat
	FamilyString
	FamilyArray
)

const FamilyNumeric = FamilyInt | FamilyFloat

// BinaryResult describes how to derive the result type for an operator.
type BinaryResult uint8

const (
	BinaryResultUnknown BinaryResult = iota
	BinaryResultSame                 // тип операндов
	BinaryResultFloat                // int/int даёт f64
)

// BinarySpec lists operand families and expected result for an operation.
// Both operands must have the same type after coercion.
type BinarySpec struct {
	Operands FamilyMask
	Result   BinaryResult
}

var binarySpecs = map[ast.BinaryOp][]BinarySpec{
	ast.OpAdd:      {{FamilyNumeric | FamilyString, BinaryResultSame}},
	ast.OpSub:      {{FamilyNumeric, BinaryResultSame}},
	ast.OpMul:      {{FamilyNumeric, BinaryResultSame}},
	ast.OpDiv:      {{FamilyFloat, BinaryResultSame}, {FamilyInt, BinaryResultFloat}},
	ast.OpFloorDiv: {{FamilyNumeric, BinaryResultSame}},
	ast.OpMod:      {{FamilyNumeric, BinaryResultSame}},
	ast.OpPow:      {{FamilyNumeric, BinaryResultSame}},
	ast.OpBitAnd:   {{FamilyInt | FamilyBool, BinaryResultSame}},
	ast.OpBitOr:    {{FamilyInt | FamilyBool, BinaryResultSame}},
	ast.OpBitXor:   {{FamilyInt | FamilyBool, BinaryResultSame}},
	ast.OpShl:      {{FamilyInt, BinaryResultSame}},
	ast.OpShr:      {{FamilyInt, BinaryResultSame}},
}

// BinarySpecs returns the operand specs of op.
func BinarySpecs(op ast.BinaryOp) []BinarySpec {
	return binarySpecs[op]
}

// UnarySpec lists the accepted operand families; the result is the operand
// type except for `not`, which always yields bool.
type UnarySpec struct {
	Operand FamilyMask
	Bool    bool
}

var unarySpecs = map[ast.UnaryOp]UnarySpec{
	ast.OpNeg:    {Operand: FamilyNumeric},
	ast.OpPos:    {Operand: FamilyNumeric},
	ast.OpInvert: {Operand: FamilyInt},
	ast.OpNot:    {Operand: FamilyBool, Bool: true},
}

// UnarySpecFor returns the operand spec of op.
func UnarySpecFor(op ast.UnaryOp) (UnarySpec, bool) {
	s, ok := unarySpecs[op]
	return s, ok
}

// Family classifies a type for the operator tables.
func (in *Interner) Family(id TypeID) FamilyMask {
	switch in.Kind(id) {
	case KindBool:
		return FamilyBool
	case KindInt:
		return FamilyInt
	case KindFloat:
		return FamilyFloat
	case KindString:
		return FamilyString
	case KindArray:
		return FamilyArray
	}
	return FamilyNone
}
