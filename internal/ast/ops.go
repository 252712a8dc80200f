package ast

import "viper/internal/token"

// BinaryOp enumerates arithmetic and bitwise operators.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

var binaryNames = [...]string{"Add", "Sub", "Mult", "Div", "FloorDiv", "Mod", "Pow", "BitAnd", "BitOr", "BitXor", "LShift", "RShift"}
var binarySymbols = [...]string{"+", "-", "*", "/", "//", "%", "**", "&", "|", "^", "<<", ">>"}

func (op BinaryOp) String() string { return binaryNames[op] }

// Symbol returns the source spelling of the operator.
func (op BinaryOp) Symbol() string { return binarySymbols[op] }

// BinaryOpFromToken maps an operator token; ok is false for non-binary tokens.
func BinaryOpFromToken(k token.Kind) (BinaryOp, bool) {
	switch k {
	case token.Plus:
		return OpAdd, true
	case token.Minus:
		return OpSub, true
	case token.Star:
		return OpMul, true
	case token.Slash:
		return OpDiv, true
	case token.SlashSlash:
		return OpFloorDiv, true
	case token.Percent:
		return OpMod, true
	case token.StarStar:
		return OpPow, true
	case token.Amp:
		return OpBitAnd, true
	case token.Pipe:
		return OpBitOr, true
	case token.Caret:
		return OpBitXor, true
	case token.Shl:
		return OpShl, true
	case token.Shr:
		return OpShr, true
	}
	return 0, false
}

// UnaryOp enumerates prefix operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpPos
	OpInvert
	OpNot
)

var unaryNames = [...]string{"USub", "UAdd", "Invert", "Not"}
var unarySymbols = [...]string{"-", "+", "~", "not "}

func (op UnaryOp) String() string { return unaryNames[op] }
func (op UnaryOp) Symbol() string { return unarySymbols[op] }

// CmpOp enumerates comparison operators.
type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNotEq
	CmpLt
	CmpLtE
	CmpGt
	CmpGtE
)

var cmpNames = [...]string{"Eq", "NotEq", "Lt", "LtE", "Gt", "GtE"}
var cmpSymbols = [...]string{"==", "!=", "<", "<=", ">", ">="}

func (op CmpOp) String() string { return cmpNames[op] }
func (op CmpOp) Symbol() string { return cmpSymbols[op] }

// CmpOpFromToken maps a comparison token.
func CmpOpFromToken(k token.Kind) (CmpOp, bool) {
	switch k {
	case token.EqEq:
		return CmpEq, true
	case token.BangEq:
		return CmpNotEq, true
	case token.Lt:
		return CmpLt, true
	case token.LtEq:
		return CmpLtE, true
	case token.Gt:
		return CmpGt, true
	case token.GtEq:
		return CmpGtE, true
	}
	return 0, false
}

// BoolOp is a short-circuit operator.
type BoolOp uint8

const (
	BoolAnd BoolOp = iota
	BoolOr
)

func (op BoolOp) String() string {
	if op == BoolAnd {
		return "And"
	}
	return "Or"
}
