package lexer

import (
	"viper/internal/token"
)

// Жадность: сначала 3-символьные, затем 2-символьные, затем 1-символьные.
// Brackets update the nesting depth that suppresses layout tokens.
func (lx *Lexer) scanOperatorOrPunct() (token.Token, bool) {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) (token.Token, bool) {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}, true
	}

	switch {
	case lx.cursor.Accept('/', '/', '='):
		return emit(token.FloorAssign)
	case lx.cursor.Accept('*', '*'):
		return emit(token.StarStar)
	case lx.cursor.Accept('/', '/'):
		return emit(token.SlashSlash)
	case lx.cursor.Accept('-', '>'):
		return emit(token.Arrow)
	case lx.cursor.Accept('=', '='):
		return emit(token.EqEq)
	case lx.cursor.Accept('!', '='):
		return emit(token.BangEq)
	case lx.cursor.Accept('<', '='):
		return emit(token.LtEq)
	case lx.cursor.Accept('>', '='):
		return emit(token.GtEq)
	case lx.cursor.Accept('<', '<'):
		return emit(token.Shl)
	case lx.cursor.Accept('>', '>'):
		return emit(token.Shr)
	case lx.cursor.Accept('+', '='):
		return emit(token.PlusAssign)
	case lx.cursor.Accept('-', '='):
		return emit(token.MinusAssign)
	case lx.cursor.Accept('*', '='):
		return emit(token.StarAssign)
	case lx.cursor.Accept('/', '='):
		return emit(token.SlashAssign)
	case lx.cursor.Accept('%', '='):
		return emit(token.PercentAssign)
	}

	switch lx.cursor.Peek() {
	case '+':
		lx.cursor.Bump()
		return emit(token.Plus)
	case '-':
		lx.cursor.Bump()
		return emit(token.Minus)
	case '*':
		lx.cursor.Bump()
		return emit(token.Star)
	case '/':
		lx.cursor.Bump()
		return emit(token.Slash)
	case '%':
		lx.cursor.Bump()
		return emit(token.Percent)
	case '@':
		lx.cursor.Bump()
		return emit(token.At)
	case '&':
		lx.cursor.Bump()
		return emit(token.Amp)
	case '|':
		lx.cursor.Bump()
		return emit(token.Pipe)
	case '^':
		lx.cursor.Bump()
		return emit(token.Caret)
	case '~':
		lx.cursor.Bump()
		return emit(token.Tilde)
	case '<':
		lx.cursor.Bump()
		return emit(token.Lt)
	case '>':
		lx.cursor.Bump()
		return emit(token.Gt)
	case '=':
		lx.cursor.Bump()
		return emit(token.Assign)
	case ',':
		lx.cursor.Bump()
		return emit(token.Comma)
	case ':':
		lx.cursor.Bump()
		return emit(token.Colon)
	case '.':
		lx.cursor.Bump()
		return emit(token.Dot)
	case ';':
		lx.cursor.Bump()
		return emit(token.Semicolon)
	case '(':
		lx.cursor.Bump()
		lx.depth++
		return emit(token.LParen)
	case '[':
		lx.cursor.Bump()
		lx.depth++
		return emit(token.LBracket)
	case '{':
		lx.cursor.Bump()
		lx.depth++
		return emit(token.LBrace)
	case ')':
		lx.cursor.Bump()
		lx.closeBracket()
		return emit(token.RParen)
	case ']':
		lx.cursor.Bump()
		lx.closeBracket()
		return emit(token.RBracket)
	case '}':
		lx.cursor.Bump()
		lx.closeBracket()
		return emit(token.RBrace)
	}
	return token.Token{}, false
}

// closeBracket never lets depth go negative; the parser reports the stray bracket.
func (lx *Lexer) closeBracket() {
	if lx.depth > 0 {
		lx.depth--
	}
}
