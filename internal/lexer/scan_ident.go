package lexer

import (
	"golang.org/x/text/unicode/norm"

	"viper/internal/token"
)

// scanIdentOrKeyword scans an identifier and checks it against the keyword table.
// Non-ASCII identifiers are NFKC-normalized, so visually equal names resolve to
// the same symbol.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	ascii := true
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b < utf8Self {
			if !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r, _ := lx.cursor.PeekRune()
		if !isIdentContinueRune(r) {
			break
		}
		ascii = false
		lx.cursor.BumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	if !ascii {
		text = norm.NFKC.String(text)
	}
	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}
