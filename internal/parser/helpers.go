package parser

import (
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/token"
)

// advance: съедает следующий токен и обновляет lastSpan.
// Layout tokens do not move lastSpan, so node spans end at real text.
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	switch tok.Kind {
	case token.EOF, token.Invalid, token.Newline, token.Indent, token.Dedent:
	default:
		p.lastSpan = tok.Span
	}
	return tok
}

// getDiagnosticSpan: возвращает лучший span для диагностики.
// Layout tokens have no width, so errors at them point just past the last
// consumed token.
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.lx.Peek()
	switch peek.Kind {
	case token.EOF, token.Indent, token.Dedent:
		if p.lastSpan.End > 0 {
			return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
		}
	}
	return peek.Span
}

// expect: ожидаем конкретный токен. Если нет: репортим и возвращаем (invalid,false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	diagSpan := p.getDiagnosticSpan()
	p.report(code, diag.SevError, diagSpan, msg+", got "+describe(p.lx.Peek()))
	return token.Token{Kind: token.Invalid, Span: diagSpan, Text: p.lx.Peek().Text}, false
}

// eat съедает токен k, если он следующий.
func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// репортует ошибку и передает текущий спан
func (p *Parser) err(code diag.Code, msg string) {
	p.errAt(code, p.getDiagnosticSpan(), msg)
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) {
	p.report(code, diag.SevError, sp, msg)
}

// report marks the current statement as broken for errors; only the first
// error of a statement reaches the reporter, the rest would be cascades.
func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	if sev == diag.SevError {
		if p.stmtErr {
			return
		}
		p.stmtErr = true
		p.opts.CurrentErrors++
	}
	if p.opts.Enough() {
		if !p.capped && sev == diag.SevError && p.opts.CurrentErrors == p.opts.MaxErrors {
			p.capped = true
			p.opts.Reporter.Report(diag.SynTooManyErrors, diag.SevError, sp, "too many syntax errors, further errors are suppressed", nil)
		}
		return
	}
	p.opts.Reporter.Report(code, sev, sp, msg, nil)
}

// syncLine пропускает токены до конца логической строки. The NEWLINE is
// consumed; DEDENT and EOF are left for the enclosing block. A block opened
// by the broken line is skipped as a whole.
func (p *Parser) syncLine() {
	for {
		switch p.lx.Peek().Kind {
		case token.EOF, token.Dedent:
			return
		case token.Newline:
			p.advance()
			if p.at(token.Indent) {
				p.skipBlock()
			}
			return
		case token.Indent:
			p.skipBlock()
			return
		default:
			p.advance()
		}
	}
}

// skipBlock съедает INDENT и всё до парного DEDENT.
func (p *Parser) skipBlock() {
	if !p.eat(token.Indent) {
		return
	}
	depth := 1
	for depth > 0 {
		switch p.advance().Kind {
		case token.Indent:
			depth++
		case token.Dedent:
			depth--
		case token.EOF:
			return
		}
	}
}

// spanFrom covers start up to the last consumed token.
func (p *Parser) spanFrom(start source.Span) source.Span {
	if p.lastSpan.End < start.Start {
		return start
	}
	return start.Cover(p.lastSpan)
}
