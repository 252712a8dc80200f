// Package parser builds the AST of one viper source file.
//
// The parser is a recursive descent over the lexer's token stream with
// precedence climbing for binary operators. A syntax error is reported once at
// the offending token; the parser then resynchronizes at the next NEWLINE or
// DEDENT and leaves a StmtBad/ExprBad placeholder in the tree.
package parser

import (
	"context"
	"slices"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/lexer"
	"viper/internal/source"
	"viper/internal/token"
	"viper/internal/trace"
)

const defaultMaxErrors = 64

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// Result is the parsed file plus the number of syntax errors reported.
type Result struct {
	File   ast.FileID
	Errors uint
}

// OK reports whether the file parsed without syntax errors.
func (r Result) OK() bool { return r.Errors == 0 }

// Parser: состояние парсера на один файл
type Parser struct {
	ctx      context.Context
	lx       *lexer.Lexer
	arenas   *ast.Builder
	file     ast.FileID
	fs       *source.FileSet
	opts     Options
	lastSpan source.Span // span последнего съеденного токена
	stmtErr  bool        // ошибка внутри текущего оператора, нужен resync
	capped   bool
}

// ParseFile: входная точка для разбора одного файла.
// The lexer must be freshly created over the file to parse.
func ParseFile(
	ctx context.Context,
	fs *source.FileSet,
	lx *lexer.Lexer,
	arenas *ast.Builder,
	opts Options,
) Result {
	if opts.MaxErrors == 0 {
		opts.MaxErrors = defaultMaxErrors
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")

	p := Parser{
		ctx:      ctx,
		lx:       lx,
		arenas:   arenas,
		file:     arenas.NewFile(lx.EmptySpan()),
		fs:       fs,
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}
	p.parseFileBody()
	return Result{File: p.file, Errors: p.opts.CurrentErrors}
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

// parseFileBody: основной цикл верхнего уровня.
func (p *Parser) parseFileBody() {
	start := p.lx.Peek().Span
	for !p.at(token.EOF) {
		switch p.lx.Peek().Kind {
		case token.Newline:
			p.advance()
			continue
		case token.Indent:
			// лишний отступ на верхнем уровне: одна ошибка и весь блок пропускаем
			p.err(diag.SynUnexpectedToken, "unexpected indent")
			p.skipBlock()
			continue
		case token.Dedent:
			p.advance()
			continue
		}
		for _, id := range p.parseStatement() {
			p.arenas.PushStmt(p.file, id)
		}
	}
	f := p.arenas.Files.Get(p.file)
	f.Span = start.Cover(p.lx.Peek().Span)
}

// parseIdent: ожидает Ident и интернирует его.
func (p *Parser) parseIdent() (source.StringID, source.Span, bool) {
	if p.at(token.Ident) {
		tok := p.advance()
		return p.arenas.Strings.Intern(tok.Text), tok.Span, true
	}
	p.err(diag.SynExpectIdentifier, "expected identifier, got "+describe(p.lx.Peek()))
	return source.NoStringID, p.getDiagnosticSpan(), false
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Newline:
		return "end of line"
	case token.Indent:
		return "indent"
	case token.Dedent:
		return "dedent"
	}
	return "\"" + tok.Text + "\""
}
