package parser

import (
	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/source"
	"viper/internal/token"
)

// parseParams разбирает список параметров в скобках.
// Supports `/` (positional-only marker), `*`, `*args`, keyword-only names and
// `**kw`, each with an optional annotation; plain parameters may have defaults.
func (p *Parser) parseParams() []ast.Param {
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after function name"); !ok {
		return nil
	}
	var params []ast.Param
	seen := make(map[source.StringID]struct{})
	var sawSlash, sawStar, sawKwArgs, sawDefault bool
	bareStar := -1 // индекс позиции голой '*', если была

	for !p.at(token.RParen) && !p.stmtErr {
		start := p.lx.Peek().Span
		switch {
		case p.eat(token.Slash):
			if sawSlash || sawStar || len(params) == 0 {
				p.errAt(diag.SynBadParamOrder, start, "'/' must follow at least one positional parameter and precede '*'")
				break
			}
			sawSlash = true
			for i := range params {
				params[i].Kind = ast.ParamPositionalOnly
			}
		case p.eat(token.Star):
			if sawStar || sawKwArgs {
				p.errAt(diag.SynBadParamOrder, start, "'*' may appear only once, before '**'")
				break
			}
			sawStar = true
			if !p.at(token.Ident) {
				bareStar = len(params)
				break
			}
			param, ok := p.parseParam(start, ast.ParamVarArgs)
			if !ok {
				break
			}
			params = append(params, param)
		case p.eat(token.StarStar):
			if sawKwArgs {
				p.errAt(diag.SynBadParamOrder, start, "'**' may appear only once")
				break
			}
			sawKwArgs = true
			param, ok := p.parseParam(start, ast.ParamKwArgs)
			if !ok {
				break
			}
			params = append(params, param)
		default:
			if sawKwArgs {
				p.err(diag.SynBadParamOrder, "parameter after '**' parameter")
				break
			}
			kind := ast.ParamPositional
			if sawStar {
				kind = ast.ParamKwOnly
			}
			param, ok := p.parseParam(start, kind)
			if !ok {
				break
			}
			if kind != ast.ParamKwOnly {
				if param.Default.IsValid() {
					sawDefault = true
				} else if sawDefault {
					p.errAt(diag.SynBadParamOrder, param.Span, "parameter without a default follows parameter with a default")
				}
			}
			params = append(params, param)
		}
		if n := len(params); n > 0 && params[n-1].Span.Start >= start.Start {
			name := params[n-1].Name
			if _, dup := seen[name]; dup {
				p.errAt(diag.SynDuplicateParam, params[n-1].Span, "duplicate parameter '"+p.arenas.Name(name)+"'")
			}
			seen[name] = struct{}{}
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	if bareStar >= 0 && bareStar == len(params) && !p.stmtErr {
		p.err(diag.SynBadParamOrder, "named parameters must follow bare '*'")
	}
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close the parameter list")
	return params
}

func (p *Parser) parseParam(start source.Span, kind ast.ParamKind) (ast.Param, bool) {
	name, _, ok := p.parseIdent()
	if !ok {
		return ast.Param{}, false
	}
	param := ast.Param{Kind: kind, Name: name, Annotation: ast.NoExprID, Default: ast.NoExprID}
	if p.eat(token.Colon) {
		param.Annotation = p.parseExpr()
	}
	if p.at(token.Assign) {
		if kind == ast.ParamVarArgs || kind == ast.ParamKwArgs {
			p.err(diag.SynBadParamOrder, "variadic parameters cannot have a default")
			return param, false
		}
		p.advance()
		param.Default = p.parseExpr()
	}
	param.Span = p.spanFrom(start)
	return param, true
}
