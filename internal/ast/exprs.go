package ast

import (
	"viper/internal/arena"
	"viper/internal/source"
)

// Exprs manages allocation of expressions: one arena for the tagged headers
// plus one per payload kind.
type Exprs struct {
	Arena      *arena.Arena[Expr]
	Names      *arena.Arena[ExprNameData]
	Consts     *arena.Arena[ExprConstData]
	Binaries   *arena.Arena[ExprBinaryData]
	BoolOps    *arena.Arena[ExprBoolOpData]
	Unaries    *arena.Arena[ExprUnaryData]
	Compares   *arena.Arena[ExprCompareData]
	Calls      *arena.Arena[ExprCallData]
	Attributes *arena.Arena[ExprAttributeData]
	Subscripts *arena.Arena[ExprSubscriptData]
	Slices     *arena.Arena[ExprSliceData]
	Lists      *arena.Arena[ExprListData]
	ListComps  *arena.Arena[ExprListCompData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/4 + 1
	return &Exprs{
		Arena:      arena.New[Expr](capHint),
		Names:      arena.New[ExprNameData](capHint),
		Consts:     arena.New[ExprConstData](capHint),
		Binaries:   arena.New[ExprBinaryData](small),
		BoolOps:    arena.New[ExprBoolOpData](small),
		Unaries:    arena.New[ExprUnaryData](small),
		Compares:   arena.New[ExprCompareData](small),
		Calls:      arena.New[ExprCallData](small),
		Attributes: arena.New[ExprAttributeData](small),
		Subscripts: arena.New[ExprSubscriptData](small),
		Slices:     arena.New[ExprSliceData](small),
		Lists:      arena.New[ExprListData](small),
		ListComps:  arena.New[ExprListCompData](small),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{Kind: kind, Span: span, Payload: PayloadID(payload)}))
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// Len returns the number of allocated expressions.
func (e *Exprs) Len() uint32 { return e.Arena.Len() }

func (e *Exprs) NewBad(span source.Span) ExprID {
	return e.new(ExprBad, span, 0)
}

func (e *Exprs) NewName(span source.Span, name source.StringID) ExprID {
	return e.new(ExprName, span, e.Names.Allocate(ExprNameData{Name: name}))
}

func (e *Exprs) NewConst(span source.Span, data ExprConstData) ExprID {
	return e.new(ExprConst, span, e.Consts.Allocate(data))
}

func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) NewBoolOp(span source.Span, op BoolOp, left, right ExprID) ExprID {
	return e.new(ExprBoolOp, span, e.BoolOps.Allocate(ExprBoolOpData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) NewUnary(span source.Span, op UnaryOp, operand ExprID) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand}))
}

func (e *Exprs) NewCompare(span source.Span, ops []CmpOp, operands []ExprID) ExprID {
	return e.new(ExprCompare, span, e.Compares.Allocate(ExprCompareData{Ops: ops, Operands: operands}))
}

func (e *Exprs) NewCall(span source.Span, fn ExprID, args []CallArg) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(ExprCallData{Func: fn, Args: args}))
}

func (e *Exprs) NewAttribute(span source.Span, value ExprID, attr source.StringID, attrSpan source.Span) ExprID {
	return e.new(ExprAttribute, span, e.Attributes.Allocate(ExprAttributeData{Value: value, Attr: attr, AttrSpan: attrSpan}))
}

func (e *Exprs) NewSubscript(span source.Span, value, index ExprID) ExprID {
	return e.new(ExprSubscript, span, e.Subscripts.Allocate(ExprSubscriptData{Value: value, Index: index}))
}

func (e *Exprs) NewSlice(span source.Span, lower, upper, step ExprID) ExprID {
	return e.new(ExprSlice, span, e.Slices.Allocate(ExprSliceData{Lower: lower, Upper: upper, Step: step}))
}

func (e *Exprs) NewList(span source.Span, elts []ExprID) ExprID {
	return e.new(ExprList, span, e.Lists.Allocate(ExprListData{Elts: elts}))
}

func (e *Exprs) NewListComp(span source.Span, elt, target, iter ExprID) ExprID {
	return e.new(ExprListComp, span, e.ListComps.Allocate(ExprListCompData{Elt: elt, Target: target, Iter: iter}))
}

// Payload accessors return nil when id has a different kind.

func (e *Exprs) Name(id ExprID) *ExprNameData {
	if x := e.Get(id); x != nil && x.Kind == ExprName {
		return e.Names.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) Const(id ExprID) *ExprConstData {
	if x := e.Get(id); x != nil && x.Kind == ExprConst {
		return e.Consts.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) Binary(id ExprID) *ExprBinaryData {
	if x := e.Get(id); x != nil && x.Kind == ExprBinary {
		return e.Binaries.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) BoolOpOf(id ExprID) *ExprBoolOpData {
	if x := e.Get(id); x != nil && x.Kind == ExprBoolOp {
		return e.BoolOps.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) Unary(id ExprID) *ExprUnaryData {
	if x := e.Get(id); x != nil && x.Kind == ExprUnary {
		return e.Unaries.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) Compare(id ExprID) *ExprCompareData {
	if x := e.Get(id); x != nil && x.Kind == ExprCompare {
		return e.Compares.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) Call(id ExprID) *ExprCallData {
	if x := e.Get(id); x != nil && x.Kind == ExprCall {
		return e.Calls.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) Attribute(id ExprID) *ExprAttributeData {
	if x := e.Get(id); x != nil && x.Kind == ExprAttribute {
		return e.Attributes.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) Subscript(id ExprID) *ExprSubscriptData {
	if x := e.Get(id); x != nil && x.Kind == ExprSubscript {
		return e.Subscripts.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) Slice(id ExprID) *ExprSliceData {
	if x := e.Get(id); x != nil && x.Kind == ExprSlice {
		return e.Slices.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) List(id ExprID) *ExprListData {
	if x := e.Get(id); x != nil && x.Kind == ExprList {
		return e.Lists.Get(uint32(x.Payload))
	}
	return nil
}

func (e *Exprs) ListComp(id ExprID) *ExprListCompData {
	if x := e.Get(id); x != nil && x.Kind == ExprListComp {
		return e.ListComps.Get(uint32(x.Payload))
	}
	return nil
}
