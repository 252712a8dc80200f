package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"viper/internal/diag"
	"viper/internal/token"
)

// scanString scans '...', "..." and their triple-quoted forms.
// Token.Text keeps the quotes; Unquote produces the value.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	q := lx.cursor.Peek()
	triple := lx.cursor.PeekAt(1) == q && lx.cursor.PeekAt(2) == q
	if triple {
		lx.cursor.Off += 3
	} else {
		lx.cursor.Bump()
	}

	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case b == '\\':
			escStart := lx.cursor.Mark()
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				continue
			}
			e := lx.cursor.Bump()
			if !strings.ContainsRune("\n\\'\"abfnrtv0x", rune(e)) {
				lx.warnLex(diag.LexBadEscape, lx.cursor.SpanFrom(escStart), fmt.Sprintf("invalid escape sequence '\\%c'", e))
			}
		case b == q && !triple:
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		case b == q && triple && lx.cursor.Accept(q, q, q):
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		case b == '\n' && !triple:
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		default:
			lx.cursor.Bump()
		}
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
}

// Unquote decodes the text of a well-formed StringLit token.
func Unquote(text string) (string, error) {
	var body string
	switch {
	case len(text) >= 6 && (strings.HasPrefix(text, `"""`) || strings.HasPrefix(text, `'''`)):
		body = text[3 : len(text)-3]
	case len(text) >= 2:
		body = text[1 : len(text)-1]
	default:
		return "", fmt.Errorf("malformed string literal %s", text)
	}
	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch e := body[i]; e {
		case '\n':
			// продолжение строки
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'x':
			if i+2 < len(body) {
				if v, err := strconv.ParseUint(body[i+1:i+3], 16, 8); err == nil {
					sb.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			return "", fmt.Errorf("invalid \\x escape in %s", text)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String(), nil
}
