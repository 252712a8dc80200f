package lexer

import (
	"viper/internal/diag"
	"viper/internal/token"
)

// Поддержка: 0, 123, 1_000, 0b..., 0o..., 0x..., 1.0, .5, 1., 1e-3, 1.0e+10.
// A run of identifier characters glued to a number makes the whole run malformed.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit
	digits := func(ok func(byte) bool) int {
		n := 0
		for !lx.cursor.EOF() && (ok(lx.cursor.Peek()) || lx.cursor.Peek() == '_') {
			lx.cursor.Bump()
			n++
		}
		return n
	}

	if lx.cursor.Peek() == '0' {
		var base func(byte) bool
		switch lx.cursor.PeekAt(1) {
		case 'b', 'B':
			base = func(b byte) bool { return b == '0' || b == '1' }
		case 'o', 'O':
			base = func(b byte) bool { return b >= '0' && b <= '7' }
		case 'x', 'X':
			base = isHex
		}
		if base != nil {
			lx.cursor.Off += 2
			if digits(base) == 0 {
				return lx.badNumber(start, "missing digits after base prefix")
			}
			return lx.finishNumber(start, kind)
		}
	}

	digits(isDec)
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		kind = token.FloatLit
		digits(isDec)
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		kind = token.FloatLit
		lx.cursor.Bump()
		if b := lx.cursor.Peek(); b == '+' || b == '-' {
			lx.cursor.Bump()
		}
		if digits(isDec) == 0 {
			return lx.badNumber(start, "expected digit after exponent")
		}
	}
	return lx.finishNumber(start, kind)
}

func (lx *Lexer) finishNumber(start Mark, kind token.Kind) token.Token {
	if isIdentContinueByte(lx.cursor.Peek()) {
		return lx.badNumber(start, "invalid character in number literal")
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}

// badNumber consumes the rest of the glued identifier run and reports it as
// one malformed literal.
func (lx *Lexer) badNumber(start Mark, msg string) token.Token {
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexBadNumber, sp, msg)
	return token.Token{Kind: token.IntLit, Span: sp, Text: lx.text(sp)}
}
