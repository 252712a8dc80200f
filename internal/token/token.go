package token

import (
	"viper/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a numeric, boolean, None or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, KwTrue, KwFalse, KwNone:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	return t.Kind.Class() == ClassKeyword
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsAugAssign reports whether the token is a compound assignment operator.
func (t Token) IsAugAssign() bool {
	switch t.Kind {
	case PlusAssign, MinusAssign, StarAssign, SlashAssign, FloorAssign, PercentAssign:
		return true
	default:
		return false
	}
}

// AugOperator maps a compound assignment to its binary operator kind.
func AugOperator(k Kind) Kind {
	switch k {
	case PlusAssign:
		return Plus
	case MinusAssign:
		return Minus
	case StarAssign:
		return Star
	case SlashAssign:
		return Slash
	case FloorAssign:
		return SlashSlash
	case PercentAssign:
		return Percent
	}
	return Invalid
}
