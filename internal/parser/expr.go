package parser

import (
	"strings"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/lexer"
	"viper/internal/source"
	"viper/internal/token"
)

func (p *Parser) exprSpan(id ast.ExprID) source.Span {
	if e := p.arenas.Exprs.Get(id); e != nil {
		return e.Span
	}
	return p.lastSpan
}

func (p *Parser) cover(a, b ast.ExprID) source.Span {
	return p.exprSpan(a).Cover(p.exprSpan(b))
}

// parseExpr: вход в разбор выражения (самый низкий приоритет: or).
func (p *Parser) parseExpr() ast.ExprID {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.ExprID {
	left := p.parseAnd()
	for p.at(token.KwOr) && !p.stmtErr {
		p.advance()
		right := p.parseAnd()
		left = p.arenas.Exprs.NewBoolOp(p.cover(left, right), ast.BoolOr, left, right)
	}
	return left
}

func (p *Parser) parseAnd() ast.ExprID {
	left := p.parseNot()
	for p.at(token.KwAnd) && !p.stmtErr {
		p.advance()
		right := p.parseNot()
		left = p.arenas.Exprs.NewBoolOp(p.cover(left, right), ast.BoolAnd, left, right)
	}
	return left
}

func (p *Parser) parseNot() ast.ExprID {
	if p.at(token.KwNot) {
		start := p.advance().Span
		operand := p.parseNot()
		return p.arenas.Exprs.NewUnary(start.Cover(p.exprSpan(operand)), ast.OpNot, operand)
	}
	return p.parseComparison()
}

// parseComparison собирает цепочку a < b < c в один узел Compare.
func (p *Parser) parseComparison() ast.ExprID {
	first := p.parseBinary(precBitOr)
	var ops []ast.CmpOp
	operands := []ast.ExprID{first}
	for !p.stmtErr {
		op, ok := ast.CmpOpFromToken(p.lx.Peek().Kind)
		if !ok {
			break
		}
		p.advance()
		ops = append(ops, op)
		operands = append(operands, p.parseBinary(precBitOr))
	}
	if len(ops) == 0 {
		return first
	}
	return p.arenas.Exprs.NewCompare(p.cover(first, operands[len(operands)-1]), ops, operands)
}

// parseBinary: precedence climbing по таблице binaryPrec; все уровни левоассоциативны.
func (p *Parser) parseBinary(minPrec int) ast.ExprID {
	left := p.parseUnary()
	for !p.stmtErr {
		kind := p.lx.Peek().Kind
		prec := binaryPrec(kind)
		if prec == precNone || prec < minPrec {
			break
		}
		op, _ := ast.BinaryOpFromToken(kind)
		p.advance()
		right := p.parseBinary(prec + 1)
		left = p.arenas.Exprs.NewBinary(p.cover(left, right), op, left, right)
	}
	return left
}

func (p *Parser) parseUnary() ast.ExprID {
	var op ast.UnaryOp
	switch p.lx.Peek().Kind {
	case token.Minus:
		op = ast.OpNeg
	case token.Plus:
		op = ast.OpPos
	case token.Tilde:
		op = ast.OpInvert
	default:
		return p.parsePower()
	}
	start := p.advance().Span
	operand := p.parseUnary()
	return p.arenas.Exprs.NewUnary(start.Cover(p.exprSpan(operand)), op, operand)
}

// parsePower: `**` правоассоциативен и сильнее унарного минуса слева (-2**2 == -(2**2)).
func (p *Parser) parsePower() ast.ExprID {
	base := p.parsePostfix()
	if p.at(token.StarStar) && !p.stmtErr {
		p.advance()
		exp := p.parseUnary()
		return p.arenas.Exprs.NewBinary(p.cover(base, exp), ast.OpPow, base, exp)
	}
	return base
}

func (p *Parser) parsePostfix() ast.ExprID {
	expr := p.parseAtom()
	for !p.stmtErr {
		switch p.lx.Peek().Kind {
		case token.LParen:
			p.advance()
			args := p.parseCallArgs()
			p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close the call")
			expr = p.arenas.Exprs.NewCall(p.spanFrom(p.exprSpan(expr)), expr, args)
		case token.LBracket:
			p.advance()
			index := p.parseSubscriptIndex()
			p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']'")
			expr = p.arenas.Exprs.NewSubscript(p.spanFrom(p.exprSpan(expr)), expr, index)
		case token.Dot:
			p.advance()
			attr, attrSpan, _ := p.parseIdent()
			expr = p.arenas.Exprs.NewAttribute(p.exprSpan(expr).Cover(attrSpan), expr, attr, attrSpan)
		default:
			return expr
		}
	}
	return expr
}

func (p *Parser) parseCallArgs() []ast.CallArg {
	var args []ast.CallArg
	sawKeyword := false
	for !p.at(token.RParen) && !p.stmtErr {
		start := p.lx.Peek().Span
		var arg ast.CallArg
		switch {
		case p.eat(token.Star):
			arg = ast.CallArg{Kind: ast.ArgStar, Value: p.parseExpr()}
		case p.eat(token.StarStar):
			arg = ast.CallArg{Kind: ast.ArgDoubleStar, Value: p.parseExpr()}
			sawKeyword = true
		default:
			value := p.parseExpr()
			if name := p.arenas.Exprs.Name(value); name != nil && p.at(token.Assign) {
				p.advance()
				arg = ast.CallArg{Kind: ast.ArgKeyword, Name: name.Name, Value: p.parseExpr()}
				sawKeyword = true
			} else {
				arg = ast.CallArg{Kind: ast.ArgPositional, Value: value}
				if sawKeyword {
					p.errAt(diag.SynPositionalAfterKw, p.exprSpan(value), "positional argument follows keyword argument")
				}
			}
		}
		arg.Span = p.spanFrom(start)
		args = append(args, arg)
		if !p.eat(token.Comma) {
			break
		}
	}
	return args
}

// parseSubscriptIndex: либо обычный индекс, либо срез lo:hi:step.
func (p *Parser) parseSubscriptIndex() ast.ExprID {
	start := p.lx.Peek().Span
	lower := ast.NoExprID
	if !p.at(token.Colon) {
		lower = p.parseExpr()
		if !p.at(token.Colon) {
			if p.at(token.Comma) {
				p.err(diag.SynUnexpectedToken, "multi-dimensional subscripts are not supported")
			}
			return lower
		}
	}
	p.advance() // ':'
	upper, step := ast.NoExprID, ast.NoExprID
	if !p.atOr(token.Colon, token.RBracket) {
		upper = p.parseExpr()
	}
	if p.eat(token.Colon) && !p.at(token.RBracket) {
		step = p.parseExpr()
	}
	return p.arenas.Exprs.NewSlice(p.spanFrom(start), lower, upper, step)
}

func (p *Parser) parseAtom() ast.ExprID {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.arenas.Exprs.NewName(tok.Span, p.arenas.Strings.Intern(tok.Text))
	case token.IntLit:
		p.advance()
		return p.arenas.Exprs.NewConst(tok.Span, ast.ExprConstData{Kind: ast.ConstInt, Raw: tok.Text})
	case token.FloatLit:
		p.advance()
		return p.arenas.Exprs.NewConst(tok.Span, ast.ExprConstData{Kind: ast.ConstFloat, Raw: tok.Text})
	case token.StringLit:
		return p.parseStrings()
	case token.KwTrue:
		p.advance()
		return p.arenas.Exprs.NewConst(tok.Span, ast.ExprConstData{Kind: ast.ConstTrue, Raw: tok.Text})
	case token.KwFalse:
		p.advance()
		return p.arenas.Exprs.NewConst(tok.Span, ast.ExprConstData{Kind: ast.ConstFalse, Raw: tok.Text})
	case token.KwNone:
		p.advance()
		return p.arenas.Exprs.NewConst(tok.Span, ast.ExprConstData{Kind: ast.ConstNone, Raw: tok.Text})
	case token.LParen:
		p.advance()
		if p.at(token.RParen) {
			p.err(diag.SynExpectExpression, "tuples are not supported")
			return p.arenas.Exprs.NewBad(tok.Span)
		}
		inner := p.parseExpr()
		if p.at(token.Comma) {
			p.err(diag.SynUnexpectedToken, "tuples are not supported")
		}
		p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'")
		return inner
	case token.LBracket:
		return p.parseListDisplay()
	}
	p.err(diag.SynExpectExpression, "expected expression, got "+describe(tok))
	return p.arenas.Exprs.NewBad(p.getDiagnosticSpan())
}

// parseStrings склеивает соседние строковые литералы: "a" "b" == "ab".
func (p *Parser) parseStrings() ast.ExprID {
	start := p.lx.Peek().Span
	var raw []string
	var sb strings.Builder
	for p.at(token.StringLit) {
		tok := p.advance()
		raw = append(raw, tok.Text)
		s, err := lexer.Unquote(tok.Text)
		if err != nil {
			// лексер уже сообщил о проблеме с литералом
			continue
		}
		sb.WriteString(s)
	}
	return p.arenas.Exprs.NewConst(p.spanFrom(start), ast.ExprConstData{
		Kind: ast.ConstStr,
		Raw:  strings.Join(raw, " "),
		Str:  sb.String(),
	})
}

// parseListDisplay: [], [a, b, c] или [e for x in it].
func (p *Parser) parseListDisplay() ast.ExprID {
	start := p.advance().Span // '['
	if p.eat(token.RBracket) {
		return p.arenas.Exprs.NewList(p.spanFrom(start), nil)
	}
	first := p.parseExpr()
	if p.at(token.KwFor) && !p.stmtErr {
		p.advance()
		name, nameSpan, ok := p.parseIdent()
		if !ok {
			return p.arenas.Exprs.NewBad(p.spanFrom(start))
		}
		target := p.arenas.Exprs.NewName(nameSpan, name)
		if _, ok := p.expect(token.KwIn, diag.SynExpectIn, "expected 'in'"); !ok {
			return p.arenas.Exprs.NewBad(p.spanFrom(start))
		}
		iter := p.parseOr()
		if p.at(token.KwIf) || p.at(token.KwFor) {
			p.err(diag.SynUnexpectedToken, "only a single 'for' clause without filters is supported")
		}
		p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']'")
		return p.arenas.Exprs.NewListComp(p.spanFrom(start), first, target, iter)
	}
	elts := []ast.ExprID{first}
	for p.eat(token.Comma) && !p.at(token.RBracket) && !p.stmtErr {
		elts = append(elts, p.parseExpr())
	}
	p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']'")
	return p.arenas.Exprs.NewList(p.spanFrom(start), elts)
}
