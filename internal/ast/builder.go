// Package ast holds the syntax tree produced by the parser.
//
// Nodes are tagged headers (Kind, Span, Payload) stored in arenas owned by a
// Builder; payloads live in per-kind arenas. All cross references are handles,
// so the Builder can be dropped as a whole once lowering is done.
package ast

import (
	"viper/internal/source"
)

type Hints struct{ Files, Stmts, Exprs uint }

// Builder owns every AST arena of one compilation unit.
type Builder struct {
	Files   *Files
	Stmts   *Stmts
	Exprs   *Exprs
	Strings *source.Interner
}

// NewBuilder creates a builder; a nil interner gets a fresh one.
func NewBuilder(hints Hints, strings *source.Interner) *Builder {
	if hints.Files == 0 {
		hints.Files = 1 << 2
	}
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 9
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Builder{
		Files:   NewFiles(hints.Files),
		Stmts:   NewStmts(hints.Stmts),
		Exprs:   NewExprs(hints.Exprs),
		Strings: strings,
	}
}

func (b *Builder) NewFile(sp source.Span) FileID {
	return b.Files.New(sp)
}

// PushStmt appends a top-level statement to file.
func (b *Builder) PushStmt(file FileID, stmt StmtID) {
	f := b.Files.Get(file)
	f.Body = append(f.Body, stmt)
}

// Name returns the text of an interned identifier.
func (b *Builder) Name(id source.StringID) string {
	s, _ := b.Strings.Lookup(id)
	return s
}
