// Package lexer turns viper source text into tokens, including the Python
// layout tokens NEWLINE, INDENT and DEDENT.
//
// The lexer never panics on malformed input: it reports a LexError through
// Options.Reporter and keeps going, so inspection modes still get partial output.
package lexer

import (
	"strconv"

	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/token"
)

type Lexer struct {
	file    *source.File
	cursor  Cursor
	opts    Options
	look    *token.Token  // 1 элементный буфер для токена
	pending []token.Token // очередь DEDENT/NEWLINE, выдаётся раньше сканирования

	indents     []uint32 // стек отступов, indents[0] == 0
	atLineStart bool
	depth       int        // bracket nesting; layout is suppressed inside brackets
	last        token.Kind // last emitted kind
	done        bool
	errors      int
}

func New(file *source.File, opts Options) *Lexer {
	if opts.TabSize == 0 {
		opts.TabSize = 8
	}
	return &Lexer{
		file:        file,
		cursor:      NewCursor(file),
		opts:        opts,
		indents:     []uint32{0},
		atLineStart: true,
		last:        token.Newline,
	}
}

// Tokenize scans the whole file. The token slice always ends with EOF and is
// returned even when the Result failed.
func Tokenize(file *source.File, bag *diag.Bag) diag.Result[[]token.Token] {
	lx := New(file, Options{Reporter: diag.BagReporter{Bag: bag}})
	toks := make([]token.Token, 0, len(file.Content)/3+1)
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	if lx.errors > 0 {
		return diag.Fail(bag, toks)
	}
	return diag.Ok(toks)
}

// Errors returns how many LexErrors were reported so far.
func (lx *Lexer) Errors() int { return lx.errors }

// Next возвращает следующий значимый токен. После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	tok := lx.next()
	lx.last = tok.Kind
	return tok
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) next() token.Token {
	for {
		if len(lx.pending) > 0 {
			tok := lx.pending[0]
			lx.pending = lx.pending[1:]
			return tok
		}
		if lx.done {
			return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
		}
		if lx.atLineStart && lx.depth == 0 {
			lx.atLineStart = false
			if lx.scanIndentation() {
				continue
			}
		}

		lx.skipBlanks()

		if lx.cursor.EOF() {
			lx.finish()
			continue
		}

		ch := lx.cursor.Peek()
		switch {
		case ch == '\n':
			start := lx.cursor.Mark()
			lx.cursor.Bump()
			if lx.depth > 0 {
				continue // неявное продолжение строки внутри скобок
			}
			lx.atLineStart = true
			return token.Token{Kind: token.Newline, Span: lx.cursor.SpanFrom(start), Text: "\n"}
		case isIdentStartByte(ch):
			return lx.scanIdentOrKeyword()
		case ch >= utf8Self:
			r, _ := lx.cursor.PeekRune()
			if isIdentStartRune(r) {
				return lx.scanIdentOrKeyword()
			}
			lx.skipUnknown()
		case isDec(ch), ch == '.' && isDec(lx.cursor.PeekAt(1)):
			return lx.scanNumber()
		case ch == '"' || ch == '\'':
			return lx.scanString()
		default:
			if tok, ok := lx.scanOperatorOrPunct(); ok {
				return tok
			}
			lx.skipUnknown()
		}
	}
}

// skipUnknown reports the current rune as unrecognized and steps over it.
func (lx *Lexer) skipUnknown() {
	start := lx.cursor.Mark()
	r, _ := lx.cursor.PeekRune()
	lx.cursor.BumpRune()
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnknownChar, sp, "unrecognized character "+quoteRune(r))
}

// skipBlanks skips spaces, tabs, comments and backslash continuations.
func (lx *Lexer) skipBlanks() {
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\f', '\r':
			lx.cursor.Bump()
		case '#':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		case '\\':
			if lx.cursor.PeekAt(1) != '\n' {
				return
			}
			lx.cursor.Off += 2
		default:
			return
		}
	}
}

// scanIndentation measures the indentation of a new logical line and queues
// INDENT/DEDENT tokens. It returns true when tokens were queued or a blank line
// was consumed, so the caller restarts.
func (lx *Lexer) scanIndentation() bool {
	for {
		lineStart := lx.cursor.Mark()
		var col uint32
		sawTab, sawSpace := false, false
		for !lx.cursor.EOF() {
			b := lx.cursor.Peek()
			if b == ' ' {
				col++
				sawSpace = true
			} else if b == '\t' {
				col = (col/lx.opts.TabSize + 1) * lx.opts.TabSize
				sawTab = true
			} else if b == '\f' || b == '\r' {
				// не влияет на отступ
			} else {
				break
			}
			lx.cursor.Bump()
		}
		// пустые строки и строки-комментарии не участвуют в разметке
		b := lx.cursor.Peek()
		if lx.cursor.EOF() || b == '\n' || b == '#' {
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			if lx.cursor.EOF() {
				return false
			}
			lx.cursor.Bump()
			continue
		}
		if sawTab && sawSpace {
			lx.warnLex(diag.LexTabsAndSpaces, lx.cursor.SpanFrom(lineStart), "indentation mixes tabs and spaces")
		}

		at := lx.emptySpan()
		top := lx.indents[len(lx.indents)-1]
		switch {
		case col > top:
			lx.indents = append(lx.indents, col)
			lx.pending = append(lx.pending, token.Token{Kind: token.Indent, Span: at})
		case col < top:
			for len(lx.indents) > 1 && lx.indents[len(lx.indents)-1] > col {
				lx.indents = lx.indents[:len(lx.indents)-1]
				lx.pending = append(lx.pending, token.Token{Kind: token.Dedent, Span: at})
			}
			if lx.indents[len(lx.indents)-1] != col {
				lx.errLex(diag.LexBadIndent, lx.cursor.SpanFrom(lineStart), "unindent does not match any outer indentation level")
			}
		}
		return len(lx.pending) > 0
	}
}

// finish queues the closing NEWLINE, remaining DEDENTs and EOF.
func (lx *Lexer) finish() {
	at := lx.emptySpan()
	if lx.last != token.Newline && lx.last != token.Dedent && lx.last != token.Indent {
		lx.pending = append(lx.pending, token.Token{Kind: token.Newline, Span: at})
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.pending = append(lx.pending, token.Token{Kind: token.Dedent, Span: at})
	}
	lx.pending = append(lx.pending, token.Token{Kind: token.EOF, Span: at})
	lx.done = true
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

func quoteRune(r rune) string {
	return strconv.QuoteRune(r)
}

// File returns the file being scanned.
func (lx *Lexer) File() *source.File { return lx.file }

// EmptySpan is a zero-width span at the current scan position.
func (lx *Lexer) EmptySpan() source.Span { return lx.emptySpan() }
