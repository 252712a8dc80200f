package ast

import (
	"viper/internal/arena"
	"viper/internal/source"
)

// Stmts manages allocation of statements.
type Stmts struct {
	Arena       *arena.Arena[Stmt]
	Exprs       *arena.Arena[StmtExprData]
	Assigns     *arena.Arena[StmtAssignData]
	AnnAssigns  *arena.Arena[StmtAnnAssignData]
	AugAssigns  *arena.Arena[StmtAugAssignData]
	Ifs         *arena.Arena[StmtIfData]
	Whiles      *arena.Arena[StmtWhileData]
	Fors        *arena.Arena[StmtForData]
	Returns     *arena.Arena[StmtReturnData]
	Funcs       *arena.Arena[StmtFunctionDefData]
	Classes     *arena.Arena[StmtClassDefData]
	Imports     *arena.Arena[StmtImportData]
	ImportFroms *arena.Arena[StmtImportFromData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/4 + 1
	return &Stmts{
		Arena:       arena.New[Stmt](capHint),
		Exprs:       arena.New[StmtExprData](small),
		Assigns:     arena.New[StmtAssignData](small),
		AnnAssigns:  arena.New[StmtAnnAssignData](small),
		AugAssigns:  arena.New[StmtAugAssignData](small),
		Ifs:         arena.New[StmtIfData](small),
		Whiles:      arena.New[StmtWhileData](small),
		Fors:        arena.New[StmtForData](small),
		Returns:     arena.New[StmtReturnData](small),
		Funcs:       arena.New[StmtFunctionDefData](small),
		Classes:     arena.New[StmtClassDefData](small),
		Imports:     arena.New[StmtImportData](small),
		ImportFroms: arena.New[StmtImportFromData](small),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: span, Payload: PayloadID(payload)}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

// Len counts allocated statements.
func (s *Stmts) Len() uint32 { return s.Arena.Len() }

func (s *Stmts) NewBad(span source.Span) StmtID      { return s.new(StmtBad, span, 0) }
func (s *Stmts) NewPass(span source.Span) StmtID     { return s.new(StmtPass, span, 0) }
func (s *Stmts) NewBreak(span source.Span) StmtID    { return s.new(StmtBreak, span, 0) }
func (s *Stmts) NewContinue(span source.Span) StmtID { return s.new(StmtContinue, span, 0) }

func (s *Stmts) NewExpr(span source.Span, value ExprID) StmtID {
	return s.new(StmtExpr, span, s.Exprs.Allocate(StmtExprData{Value: value}))
}

func (s *Stmts) NewAssign(span source.Span, target, value ExprID) StmtID {
	return s.new(StmtAssign, span, s.Assigns.Allocate(StmtAssignData{Target: target, Value: value}))
}

func (s *Stmts) NewAnnAssign(span source.Span, target, annotation, value ExprID) StmtID {
	return s.new(StmtAnnAssign, span, s.AnnAssigns.Allocate(StmtAnnAssignData{Target: target, Annotation: annotation, Value: value}))
}

func (s *Stmts) NewAugAssign(span source.Span, target ExprID, op BinaryOp, value ExprID) StmtID {
	return s.new(StmtAugAssign, span, s.AugAssigns.Allocate(StmtAugAssignData{Target: target, Op: op, Value: value}))
}

func (s *Stmts) NewIf(span source.Span, data StmtIfData) StmtID {
	return s.new(StmtIf, span, s.Ifs.Allocate(data))
}

func (s *Stmts) NewWhile(span source.Span, cond ExprID, body []StmtID) StmtID {
	return s.new(StmtWhile, span, s.Whiles.Allocate(StmtWhileData{Cond: cond, Body: body}))
}

func (s *Stmts) NewFor(span source.Span, data StmtForData) StmtID {
	return s.new(StmtFor, span, s.Fors.Allocate(data))
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	return s.new(StmtReturn, span, s.Returns.Allocate(StmtReturnData{Value: value}))
}

func (s *Stmts) NewFunctionDef(span source.Span, data StmtFunctionDefData) StmtID {
	return s.new(StmtFunctionDef, span, s.Funcs.Allocate(data))
}

func (s *Stmts) NewClassDef(span source.Span, data StmtClassDefData) StmtID {
	return s.new(StmtClassDef, span, s.Classes.Allocate(data))
}

func (s *Stmts) NewImport(span source.Span, names []Alias) StmtID {
	return s.new(StmtImport, span, s.Imports.Allocate(StmtImportData{Names: names}))
}

func (s *Stmts) NewImportFrom(span source.Span, module source.StringID, names []Alias) StmtID {
	return s.new(StmtImportFrom, span, s.ImportFroms.Allocate(StmtImportFromData{Module: module, Names: names}))
}

func (s *Stmts) ExprStmt(id StmtID) *StmtExprData {
	if x := s.Get(id); x != nil && x.Kind == StmtExpr {
		return s.Exprs.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) Assign(id StmtID) *StmtAssignData {
	if x := s.Get(id); x != nil && x.Kind == StmtAssign {
		return s.Assigns.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) AnnAssign(id StmtID) *StmtAnnAssignData {
	if x := s.Get(id); x != nil && x.Kind == StmtAnnAssign {
		return s.AnnAssigns.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) AugAssign(id StmtID) *StmtAugAssignData {
	if x := s.Get(id); x != nil && x.Kind == StmtAugAssign {
		return s.AugAssigns.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) If(id StmtID) *StmtIfData {
	if x := s.Get(id); x != nil && x.Kind == StmtIf {
		return s.Ifs.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) While(id StmtID) *StmtWhileData {
	if x := s.Get(id); x != nil && x.Kind == StmtWhile {
		return s.Whiles.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) For(id StmtID) *StmtForData {
	if x := s.Get(id); x != nil && x.Kind == StmtFor {
		return s.Fors.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) Return(id StmtID) *StmtReturnData {
	if x := s.Get(id); x != nil && x.Kind == StmtReturn {
		return s.Returns.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) FunctionDef(id StmtID) *StmtFunctionDefData {
	if x := s.Get(id); x != nil && x.Kind == StmtFunctionDef {
		return s.Funcs.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) ClassDef(id StmtID) *StmtClassDefData {
	if x := s.Get(id); x != nil && x.Kind == StmtClassDef {
		return s.Classes.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) Import(id StmtID) *StmtImportData {
	if x := s.Get(id); x != nil && x.Kind == StmtImport {
		return s.Imports.Get(uint32(x.Payload))
	}
	return nil
}

func (s *Stmts) ImportFrom(id StmtID) *StmtImportFromData {
	if x := s.Get(id); x != nil && x.Kind == StmtImportFrom {
		return s.ImportFroms.Get(uint32(x.Payload))
	}
	return nil
}
