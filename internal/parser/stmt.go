package parser

import (
	"strings"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/token"
)

// parseStatement разбирает один оператор (или строку простых операторов через ';').
func (p *Parser) parseStatement() []ast.StmtID {
	p.stmtErr = false
	switch p.lx.Peek().Kind {
	case token.At:
		return []ast.StmtID{p.parseDecorated()}
	case token.KwDef:
		return []ast.StmtID{p.parseFunctionDef(p.lx.Peek().Span, nil)}
	case token.KwClass:
		return []ast.StmtID{p.parseClassDef(p.lx.Peek().Span, nil)}
	case token.KwIf:
		return []ast.StmtID{p.parseIf()}
	case token.KwWhile:
		return []ast.StmtID{p.parseWhile()}
	case token.KwFor:
		return []ast.StmtID{p.parseFor()}
	default:
		return p.parseSimpleLine()
	}
}

// bad finishes a broken statement: the rest of its line is skipped.
func (p *Parser) bad(start source.Span) ast.StmtID {
	sp := p.spanFrom(start)
	p.syncLine()
	return p.arenas.Stmts.NewBad(sp)
}

// parseBlock: тело составного оператора после ':'.
// Either an indented block or simple statements on the same line.
func (p *Parser) parseBlock() []ast.StmtID {
	if !p.at(token.Newline) {
		return p.parseSimpleLine()
	}
	p.advance()
	if !p.at(token.Indent) {
		p.stmtErr = false
		p.err(diag.SynExpectIndent, "expected an indented block")
		return nil
	}
	p.advance()
	var body []ast.StmtID
	for !p.atOr(token.Dedent, token.EOF) {
		if p.eat(token.Newline) {
			continue
		}
		body = append(body, p.parseStatement()...)
	}
	p.eat(token.Dedent)
	return body
}

func (p *Parser) parseSimpleLine() []ast.StmtID {
	var out []ast.StmtID
	for {
		p.stmtErr = false
		start := p.lx.Peek().Span
		id := p.parseSimpleStatement()
		if p.stmtErr {
			return append(out, p.bad(start))
		}
		out = append(out, id)
		if !p.eat(token.Semicolon) || p.atOr(token.Newline, token.EOF) {
			break
		}
	}
	if p.at(token.EOF) {
		return out
	}
	if p.at(token.Newline) {
		p.advance()
		return out
	}
	start := p.lx.Peek().Span
	p.err(diag.SynExpectNewline, "expected end of line, got "+describe(p.lx.Peek()))
	return append(out, p.bad(start))
}

func (p *Parser) parseSimpleStatement() ast.StmtID {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwPass:
		p.advance()
		return p.arenas.Stmts.NewPass(tok.Span)
	case token.KwBreak:
		p.advance()
		return p.arenas.Stmts.NewBreak(tok.Span)
	case token.KwContinue:
		p.advance()
		return p.arenas.Stmts.NewContinue(tok.Span)
	case token.KwReturn:
		p.advance()
		value := ast.NoExprID
		if !p.atOr(token.Newline, token.Semicolon, token.EOF, token.Dedent) {
			value = p.parseExpr()
		}
		return p.arenas.Stmts.NewReturn(p.spanFrom(tok.Span), value)
	case token.KwImport:
		return p.parseImport()
	case token.KwFrom:
		return p.parseImportFrom()
	case token.KwGlobal, token.KwLambda, token.KwElif, token.KwElse:
		p.err(diag.SynUnexpectedToken, "unexpected "+describe(tok))
		return ast.NoStmtID
	default:
		return p.parseExprStatement()
	}
}

// parseExprStatement covers expression statements and all assignment forms.
func (p *Parser) parseExprStatement() ast.StmtID {
	start := p.lx.Peek().Span
	target := p.parseExpr()
	if p.stmtErr {
		return ast.NoStmtID
	}
	tok := p.lx.Peek()
	switch {
	case tok.Kind == token.Colon:
		p.advance()
		p.checkTarget(target)
		ann := p.parseExpr()
		value := ast.NoExprID
		if p.eat(token.Assign) {
			value = p.parseExpr()
		}
		return p.arenas.Stmts.NewAnnAssign(p.spanFrom(start), target, ann, value)
	case tok.Kind == token.Assign:
		p.advance()
		p.checkTarget(target)
		value := p.parseExpr()
		if p.at(token.Assign) {
			p.err(diag.SynBadAssignTarget, "chained assignment is not supported")
		}
		return p.arenas.Stmts.NewAssign(p.spanFrom(start), target, value)
	case tok.IsAugAssign():
		p.advance()
		p.checkTarget(target)
		op, _ := ast.BinaryOpFromToken(token.AugOperator(tok.Kind))
		value := p.parseExpr()
		return p.arenas.Stmts.NewAugAssign(p.spanFrom(start), target, op, value)
	}
	return p.arenas.Stmts.NewExpr(p.spanFrom(start), target)
}

// checkTarget: присваивать можно только имени, атрибуту или элементу.
func (p *Parser) checkTarget(target ast.ExprID) {
	e := p.arenas.Exprs.Get(target)
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprName, ast.ExprAttribute, ast.ExprSubscript, ast.ExprBad:
		return
	}
	p.errAt(diag.SynBadAssignTarget, e.Span, "cannot assign to "+strings.ToLower(e.Kind.String())+" expression")
}

func (p *Parser) parseDecorated() ast.StmtID {
	start := p.lx.Peek().Span
	var decorators []ast.ExprID
	for p.at(token.At) {
		p.advance()
		decorators = append(decorators, p.parseExpr())
		if p.stmtErr {
			return p.bad(start)
		}
		if _, ok := p.expect(token.Newline, diag.SynExpectNewline, "expected end of line after decorator"); !ok {
			return p.bad(start)
		}
	}
	switch p.lx.Peek().Kind {
	case token.KwDef:
		return p.parseFunctionDef(start, decorators)
	case token.KwClass:
		return p.parseClassDef(start, decorators)
	}
	p.err(diag.SynDecoratorTarget, "expected 'def' or 'class' after decorator")
	return p.bad(start)
}

func (p *Parser) parseFunctionDef(start source.Span, decorators []ast.ExprID) ast.StmtID {
	p.advance() // def
	name, nameSpan, ok := p.parseIdent()
	if !ok {
		return p.bad(start)
	}
	params := p.parseParams()
	returns := ast.NoExprID
	if !p.stmtErr && p.eat(token.Arrow) {
		returns = p.parseExpr()
	}
	if !p.stmtErr {
		p.expect(token.Colon, diag.SynExpectColon, "expected ':' after function signature")
	}
	if p.stmtErr {
		return p.bad(start)
	}
	header := p.spanFrom(start)
	body := p.parseBlock()
	return p.arenas.Stmts.NewFunctionDef(p.spanFrom(header), ast.StmtFunctionDefData{
		Name:       name,
		NameSpan:   nameSpan,
		Params:     params,
		Returns:    returns,
		Body:       body,
		Decorators: decorators,
	})
}

func (p *Parser) parseClassDef(start source.Span, decorators []ast.ExprID) ast.StmtID {
	p.advance() // class
	name, nameSpan, ok := p.parseIdent()
	if !ok {
		return p.bad(start)
	}
	if p.eat(token.LParen) {
		if !p.at(token.RParen) {
			p.err(diag.SynUnexpectedToken, "base classes are not supported")
			return p.bad(start)
		}
		p.advance()
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' after class name"); !ok {
		return p.bad(start)
	}
	header := p.spanFrom(start)
	body := p.parseBlock()
	return p.arenas.Stmts.NewClassDef(p.spanFrom(header), ast.StmtClassDefData{
		Name:       name,
		NameSpan:   nameSpan,
		Body:       body,
		Decorators: decorators,
	})
}

// parseIf разбирает if/elif/else; elif становится вложенным If в Orelse.
func (p *Parser) parseIf() ast.StmtID {
	start := p.advance().Span // if / elif
	cond := p.parseExpr()
	if !p.stmtErr {
		p.expect(token.Colon, diag.SynExpectColon, "expected ':' after condition")
	}
	if p.stmtErr {
		return p.bad(start)
	}
	data := ast.StmtIfData{Cond: cond, Body: p.parseBlock()}
	p.stmtErr = false
	switch p.lx.Peek().Kind {
	case token.KwElif:
		data.Orelse = []ast.StmtID{p.parseIf()}
	case token.KwElse:
		elseTok := p.advance()
		if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' after else"); !ok {
			data.Orelse = []ast.StmtID{p.bad(elseTok.Span)}
		} else {
			data.Orelse = p.parseBlock()
		}
	}
	return p.arenas.Stmts.NewIf(p.spanFrom(start), data)
}

func (p *Parser) parseWhile() ast.StmtID {
	start := p.advance().Span
	cond := p.parseExpr()
	if !p.stmtErr {
		p.expect(token.Colon, diag.SynExpectColon, "expected ':' after condition")
	}
	if p.stmtErr {
		return p.bad(start)
	}
	body := p.parseBlock()
	return p.arenas.Stmts.NewWhile(p.spanFrom(start), cond, body)
}

func (p *Parser) parseFor() ast.StmtID {
	start := p.advance().Span
	name, nameSpan, ok := p.parseIdent()
	if !ok {
		return p.bad(start)
	}
	target := p.arenas.Exprs.NewName(nameSpan, name)
	if _, ok := p.expect(token.KwIn, diag.SynExpectIn, "expected 'in'"); !ok {
		return p.bad(start)
	}
	iter := p.parseExpr()
	if !p.stmtErr {
		p.expect(token.Colon, diag.SynExpectColon, "expected ':' after for clause")
	}
	if p.stmtErr {
		return p.bad(start)
	}
	body := p.parseBlock()
	return p.arenas.Stmts.NewFor(p.spanFrom(start), ast.StmtForData{Target: target, Iter: iter, Body: body})
}

// parseDottedName: `a.b.c` как одна интернированная строка.
func (p *Parser) parseDottedName() (source.StringID, bool) {
	id, _, ok := p.parseIdent()
	if !ok {
		return source.NoStringID, false
	}
	if !p.at(token.Dot) {
		return id, true
	}
	parts := []string{p.arenas.Name(id)}
	for p.eat(token.Dot) {
		next, _, ok := p.parseIdent()
		if !ok {
			return source.NoStringID, false
		}
		parts = append(parts, p.arenas.Name(next))
	}
	return p.arenas.Strings.Intern(strings.Join(parts, ".")), true
}

func (p *Parser) parseAlias(dotted bool) (ast.Alias, bool) {
	start := p.lx.Peek().Span
	var alias ast.Alias
	var ok bool
	if dotted {
		alias.Name, ok = p.parseDottedName()
	} else {
		alias.Name, _, ok = p.parseIdent()
	}
	if !ok {
		return alias, false
	}
	if p.eat(token.KwAs) {
		if alias.AsName, _, ok = p.parseIdent(); !ok {
			return alias, false
		}
	}
	alias.Span = p.spanFrom(start)
	return alias, true
}

func (p *Parser) parseImport() ast.StmtID {
	start := p.advance().Span
	var names []ast.Alias
	for {
		alias, ok := p.parseAlias(true)
		if !ok {
			return ast.NoStmtID
		}
		names = append(names, alias)
		if !p.eat(token.Comma) {
			break
		}
	}
	return p.arenas.Stmts.NewImport(p.spanFrom(start), names)
}

func (p *Parser) parseImportFrom() ast.StmtID {
	start := p.advance().Span
	module, ok := p.parseDottedName()
	if !ok {
		return ast.NoStmtID
	}
	if _, ok := p.expect(token.KwImport, diag.SynUnexpectedToken, "expected 'import'"); !ok {
		return ast.NoStmtID
	}
	paren := p.eat(token.LParen)
	var names []ast.Alias
	for {
		alias, ok := p.parseAlias(false)
		if !ok {
			return ast.NoStmtID
		}
		names = append(names, alias)
		if !p.eat(token.Comma) || (paren && p.at(token.RParen)) {
			break
		}
	}
	if paren {
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			return ast.NoStmtID
		}
	}
	return p.arenas.Stmts.NewImportFrom(p.spanFrom(start), module, names)
}
