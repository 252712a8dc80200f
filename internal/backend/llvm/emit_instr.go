package llvm

import (
	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/types"
)

//nolint:gocyclo // one case per expression kind
func (fe *funcEmitter) expr(id ir.ExprID) value.Value {
	e := fe.emitter
	x := *e.m.Expr(id)
	ty := e.llType(x.Type)
	switch d := x.Data.(type) {
	case ir.ConstData:
		return fe.constant(ty, d)
	case ir.NameData, ir.IndexData, ir.FieldData:
		return fe.cur.NewLoad(ty, fe.addr(id))
	case ir.UnaryData:
		if e.tys.IsArray(x.Type) {
			return fe.unsupported(id, ty, "element-wise arithmetic")
		}
		return fe.unary(d, ty)
	case ir.BinaryData:
		if e.tys.IsArray(x.Type) {
			return fe.unsupported(id, ty, "element-wise arithmetic")
		}
		return fe.binary(d, x.Type, ty)
	case ir.CompareData:
		return fe.compare(d)
	case ir.BoolOpData:
		return fe.boolOp(d)
	case ir.CallData:
		callee := e.funcs[d.Callee]
		if callee == nil {
			return fe.unsupported(id, ty, "call of an undefined function")
		}
		args := make([]value.Value, len(d.Args))
		for i, a := range d.Args {
			args[i] = fe.expr(a)
		}
		return fe.cur.NewCall(callee, args...)
	case ir.CastData:
		return fe.cast(fe.expr(d.Value), e.m.Expr(d.Value).Type, x.Type)
	case ir.SectionData:
		return fe.unsupported(id, ty, "array sections")
	case ir.ArrayData:
		return fe.unsupported(id, ty, "array displays")
	case ir.CompData:
		return fe.unsupported(id, ty, "comprehensions")
	case ir.ConstructData:
		return fe.unsupported(id, ty, "constructor calls")
	}
	return fe.unsupported(id, ty, x.Kind.String()+" expressions")
}

func (fe *funcEmitter) unsupported(id ir.ExprID, ty lltypes.Type, what string) value.Value {
	fe.emitter.report(diag.GenUnsupported, id, "cannot generate "+what)
	if ty.Equal(lltypes.Void) {
		return constant.NewInt(lltypes.I32, 0)
	}
	return fe.emitter.zeroValue(ty)
}

// addr computes a pointer to a storage path. Other expressions are
// evaluated and spilled to a stack slot.
func (fe *funcEmitter) addr(id ir.ExprID) value.Value {
	e := fe.emitter
	x := *e.m.Expr(id)
	zero := constant.NewInt(lltypes.I32, 0)
	switch d := x.Data.(type) {
	case ir.NameData:
		if slot, ok := fe.locals[d.Sym]; ok {
			return slot
		}
		if g, ok := e.globals[d.Sym]; ok {
			return g
		}
		e.report(diag.GenUnsupported, id, "variable "+e.tbl.Name(d.Sym)+" has no storage")
		return fe.entry.NewAlloca(e.llType(x.Type))
	case ir.IndexData:
		base := fe.addr(d.Value)
		idx := fe.expr(d.Index)
		return fe.cur.NewGetElementPtr(e.llType(e.m.Expr(d.Value).Type), base, zero, idx)
	case ir.FieldData:
		base := fe.addr(d.Value)
		field := constant.NewInt(lltypes.I32, int64(d.Field))
		return fe.cur.NewGetElementPtr(e.llType(e.m.Expr(d.Value).Type), base, zero, field)
	}
	return fe.spill(fe.expr(id))
}

func (fe *funcEmitter) constant(ty lltypes.Type, d ir.ConstData) value.Value {
	e := fe.emitter
	switch d.Kind {
	case ir.ConstInt:
		if it, ok := ty.(*lltypes.IntType); ok {
			return constant.NewInt(it, d.Int)
		}
	case ir.ConstFloat:
		if ft, ok := ty.(*lltypes.FloatType); ok {
			return constant.NewFloat(ft, d.Float)
		}
	case ir.ConstBool:
		return constant.NewBool(d.Bool)
	case ir.ConstStr:
		return e.str(d.Str)
	}
	if ty.Equal(lltypes.Void) {
		return constant.NewInt(lltypes.I32, 0)
	}
	return e.zeroValue(ty)
}

func (fe *funcEmitter) unary(d ir.UnaryData, ty lltypes.Type) value.Value {
	v := fe.expr(d.Operand)
	switch d.Op {
	case ast.OpPos:
		return v
	case ast.OpNeg:
		if it, ok := ty.(*lltypes.IntType); ok {
			return fe.cur.NewSub(constant.NewInt(it, 0), v)
		}
		return fe.cur.NewFNeg(v)
	case ast.OpInvert:
		return fe.cur.NewXor(v, constant.NewInt(ty.(*lltypes.IntType), -1))
	}
	return fe.cur.NewXor(v, constant.True)
}

//nolint:gocyclo // dispatch over operator and operand family
func (fe *funcEmitter) binary(d ir.BinaryData, resTy types.TypeID, ty lltypes.Type) value.Value {
	e := fe.emitter
	operandTy := e.m.Expr(d.Left).Type
	l, r := fe.expr(d.Left), fe.expr(d.Right)
	b := fe.cur

	if operandTy == e.tys.Builtins().String {
		return b.NewCall(e.runtime("viper_str_concat"), l, r)
	}
	if e.tys.IsFloat(operandTy) {
		switch d.Op {
		case ast.OpAdd:
			return b.NewFAdd(l, r)
		case ast.OpSub:
			return b.NewFSub(l, r)
		case ast.OpMul:
			return b.NewFMul(l, r)
		case ast.OpDiv:
			return b.NewFDiv(l, r)
		case ast.OpFloorDiv:
			return fe.fromDouble(b.NewCall(e.runtime("viper_ffloordiv"), fe.toDouble(l), fe.toDouble(r)), ty)
		case ast.OpMod:
			return fe.fromDouble(b.NewCall(e.runtime("viper_fmod"), fe.toDouble(l), fe.toDouble(r)), ty)
		case ast.OpPow:
			return fe.fromDouble(b.NewCall(e.runtime("pow"), fe.toDouble(l), fe.toDouble(r)), ty)
		}
	}
	switch d.Op {
	case ast.OpAdd:
		return b.NewAdd(l, r)
	case ast.OpSub:
		return b.NewSub(l, r)
	case ast.OpMul:
		return b.NewMul(l, r)
	case ast.OpDiv:
		// int / int is a float
		ft := e.llType(resTy).(*lltypes.FloatType)
		return b.NewFDiv(b.NewSIToFP(l, ft), b.NewSIToFP(r, ft))
	case ast.OpFloorDiv:
		return fe.fromI64(b.NewCall(e.runtime("viper_ifloordiv"), fe.toI64(l), fe.toI64(r)), ty)
	case ast.OpMod:
		return fe.fromI64(b.NewCall(e.runtime("viper_imod"), fe.toI64(l), fe.toI64(r)), ty)
	case ast.OpPow:
		return fe.fromI64(b.NewCall(e.runtime("viper_ipow"), fe.toI64(l), fe.toI64(r)), ty)
	case ast.OpBitAnd:
		return b.NewAnd(l, r)
	case ast.OpBitOr:
		return b.NewOr(l, r)
	case ast.OpBitXor:
		return b.NewXor(l, r)
	case ast.OpShl:
		return b.NewShl(l, r)
	case ast.OpShr:
		return b.NewAShr(l, r)
	}
	return fe.emitter.zeroValue(ty)
}

var (
	intPreds = map[ast.CmpOp]enum.IPred{
		ast.CmpEq: enum.IPredEQ, ast.CmpNotEq: enum.IPredNE,
		ast.CmpLt: enum.IPredSLT, ast.CmpLtE: enum.IPredSLE,
		ast.CmpGt: enum.IPredSGT, ast.CmpGtE: enum.IPredSGE,
	}
	floatPreds = map[ast.CmpOp]enum.FPred{
		ast.CmpEq: enum.FPredOEQ, ast.CmpNotEq: enum.FPredUNE,
		ast.CmpLt: enum.FPredOLT, ast.CmpLtE: enum.FPredOLE,
		ast.CmpGt: enum.FPredOGT, ast.CmpGtE: enum.FPredOGE,
	}
)

func (fe *funcEmitter) compare(d ir.CompareData) value.Value {
	e := fe.emitter
	ty := e.m.Expr(d.Left).Type
	l, r := fe.expr(d.Left), fe.expr(d.Right)
	switch {
	case ty == e.tys.Builtins().String:
		c := fe.cur.NewCall(e.runtime("viper_str_cmp"), l, r)
		return fe.cur.NewICmp(intPreds[d.Op], c, constant.NewInt(lltypes.I32, 0))
	case e.tys.IsFloat(ty):
		return fe.cur.NewFCmp(floatPreds[d.Op], l, r)
	}
	return fe.cur.NewICmp(intPreds[d.Op], l, r)
}

// boolOp short-circuits through a phi.
func (fe *funcEmitter) boolOp(d ir.BoolOpData) value.Value {
	l := fe.expr(d.Left)
	from := fe.cur
	rhs := fe.newBlock("bool.rhs")
	done := fe.newBlock("bool.end")
	if d.Op == ast.BoolAnd {
		fe.cur.NewCondBr(l, rhs, done)
	} else {
		fe.cur.NewCondBr(l, done, rhs)
	}
	fe.cur = rhs
	r := fe.expr(d.Right)
	rhsEnd := fe.cur
	fe.cur.NewBr(done)
	fe.cur = done
	return done.NewPhi(llir.NewIncoming(l, from), llir.NewIncoming(r, rhsEnd))
}

//nolint:gocyclo // every scalar conversion pair
func (fe *funcEmitter) cast(v value.Value, from, to types.TypeID) value.Value {
	e := fe.emitter
	if from == to {
		return v
	}
	b := e.tys.Builtins()
	dst := e.llType(to)
	switch {
	case to == b.Bool && from == b.Bool:
		return v
	case to == b.Bool && e.tys.IsFloat(from):
		return fe.cur.NewFCmp(enum.FPredUNE, v, constant.NewFloat(v.Type().(*lltypes.FloatType), 0))
	case to == b.Bool:
		return fe.cur.NewICmp(enum.IPredNE, v, constant.NewInt(v.Type().(*lltypes.IntType), 0))
	case from == b.Bool && e.tys.IsFloat(to):
		return fe.cur.NewUIToFP(v, dst)
	case from == b.Bool:
		return fe.cur.NewZExt(v, dst)
	case e.tys.IsInt(from) && e.tys.IsInt(to):
		fw := v.Type().(*lltypes.IntType).BitSize
		tw := dst.(*lltypes.IntType).BitSize
		if fw < tw {
			return fe.cur.NewSExt(v, dst)
		}
		return fe.cur.NewTrunc(v, dst)
	case e.tys.IsInt(from) && e.tys.IsFloat(to):
		return fe.cur.NewSIToFP(v, dst)
	case e.tys.IsFloat(from) && e.tys.IsInt(to):
		return fe.cur.NewFPToSI(v, dst)
	case e.tys.IsFloat(from) && e.tys.IsFloat(to):
		if dst.Equal(lltypes.Double) {
			return fe.cur.NewFPExt(v, dst)
		}
		return fe.cur.NewFPTrunc(v, dst)
	}
	return v
}
