package parser

import "viper/internal/token"

// Приоритеты бинарных операторов, от слабого к сильному.
// Comparisons, not/and/or and ** are handled by dedicated functions.
const (
	precNone = iota
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
)

func binaryPrec(k token.Kind) int {
	switch k {
	case token.Pipe:
		return precBitOr
	case token.Caret:
		return precBitXor
	case token.Amp:
		return precBitAnd
	case token.Shl, token.Shr:
		return precShift
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.SlashSlash, token.Percent:
		return precMultiplicative
	default:
		return precNone
	}
}
