package llvm

import (
	"fmt"

	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"viper/internal/diag"
	"viper/internal/ir"
)

func (fe *funcEmitter) block(body []ir.StmtID) {
	for _, id := range body {
		fe.stmt(id)
	}
}

// detach continues emission in a fresh block nobody branches to, after a
// terminator in the middle of a statement list.
func (fe *funcEmitter) detach() {
	fe.cur = fe.newBlock("dead")
}

func (fe *funcEmitter) stmt(id ir.StmtID) {
	e := fe.emitter
	s := e.m.Stmt(id)
	switch d := s.Data.(type) {
	case ir.AssignData:
		ptr := fe.addr(d.Target)
		fe.cur.NewStore(fe.expr(d.Value), ptr)
	case ir.ExprStmtData:
		fe.expr(d.Value)
	case ir.IfData:
		fe.ifStmt(d)
	case ir.WhileData:
		fe.whileStmt(d)
	case ir.ReturnData:
		if !d.Value.IsValid() || e.m.Expr(d.Value).Type == e.tys.Builtins().None {
			if fe.fn == nil || fe.fn.Result == e.tys.Builtins().None {
				fe.cur.NewRet(nil)
			} else {
				fe.cur.NewRet(e.zeroValue(e.llType(fe.fn.Result)))
			}
		} else {
			fe.cur.NewRet(fe.expr(d.Value))
		}
		fe.detach()
	case ir.PrintData:
		fe.print(d)
	default:
		switch s.Kind {
		case ir.StmtBreak, ir.StmtContinue:
			if len(fe.loops) == 0 {
				diag.ReportError(e.rep, diag.GenUnsupported, s.Span, "LLVM backend: break outside a loop").Emit()
				return
			}
			top := fe.loops[len(fe.loops)-1]
			if s.Kind == ir.StmtBreak {
				fe.cur.NewBr(top.exit)
			} else {
				fe.cur.NewBr(top.cond)
			}
			fe.detach()
		default:
			diag.ReportError(e.rep, diag.GenUnsupported, s.Span,
				fmt.Sprintf("LLVM backend cannot generate %s statements", s.Kind)).Emit()
		}
	}
}

func (fe *funcEmitter) ifStmt(d ir.IfData) {
	cond := fe.expr(d.Cond)
	then := fe.newBlock("if.then")
	done := fe.newBlock("if.end")
	els := done
	if len(d.Else) > 0 {
		els = fe.newBlock("if.else")
	}
	fe.cur.NewCondBr(cond, then, els)

	fe.cur = then
	fe.block(d.Then)
	if fe.cur.Term == nil {
		fe.cur.NewBr(done)
	}
	if len(d.Else) > 0 {
		fe.cur = els
		fe.block(d.Else)
		if fe.cur.Term == nil {
			fe.cur.NewBr(done)
		}
	}
	fe.cur = done
}

func (fe *funcEmitter) whileStmt(d ir.WhileData) {
	cond := fe.newBlock("while.cond")
	body := fe.newBlock("while.body")
	exit := fe.newBlock("while.end")
	fe.cur.NewBr(cond)

	fe.cur = cond
	fe.cur.NewCondBr(fe.expr(d.Cond), body, exit)

	fe.loops = append(fe.loops, loopTargets{cond: cond, exit: exit})
	fe.cur = body
	fe.block(d.Body)
	if fe.cur.Term == nil {
		fe.cur.NewBr(cond)
	}
	fe.loops = fe.loops[:len(fe.loops)-1]
	fe.cur = exit
}

// print evaluates every argument first, then writes them separated by sep
// and followed by end.
func (fe *funcEmitter) print(d ir.PrintData) {
	e := fe.emitter
	b := e.tys.Builtins()
	vals := make([]value.Value, len(d.Args))
	for i, a := range d.Args {
		vals[i] = fe.expr(a)
	}
	var sep, end value.Value = e.str(" "), e.str("\n")
	if d.Sep.IsValid() {
		sep = fe.expr(d.Sep)
	}
	if d.End.IsValid() {
		end = fe.expr(d.End)
	}
	for i, a := range d.Args {
		if i > 0 {
			fe.cur.NewCall(e.runtime("viper_print_str"), sep)
		}
		ty := e.m.Expr(a).Type
		v := vals[i]
		switch {
		case ty == b.Bool:
			fe.cur.NewCall(e.runtime("viper_print_bool"), fe.cur.NewZExt(v, lltypes.I32))
		case ty == b.String:
			fe.cur.NewCall(e.runtime("viper_print_str"), v)
		case e.tys.IsInt(ty):
			fe.cur.NewCall(e.runtime("viper_print_i64"), fe.toI64(v))
		case e.tys.IsFloat(ty):
			fe.cur.NewCall(e.runtime("viper_print_f64"), fe.toDouble(v))
		default:
			e.report(diag.GenBadType, a, "cannot print "+e.tys.String(ty))
		}
	}
	fe.cur.NewCall(e.runtime("viper_print_str"), end)
}

func (fe *funcEmitter) toI64(v value.Value) value.Value {
	it, ok := v.Type().(*lltypes.IntType)
	if !ok || it.BitSize == 64 {
		return v
	}
	return fe.cur.NewSExt(v, lltypes.I64)
}

func (fe *funcEmitter) fromI64(v value.Value, to lltypes.Type) value.Value {
	it, ok := to.(*lltypes.IntType)
	if !ok || it.BitSize == 64 {
		return v
	}
	return fe.cur.NewTrunc(v, it)
}

func (fe *funcEmitter) toDouble(v value.Value) value.Value {
	if v.Type().Equal(lltypes.Float) {
		return fe.cur.NewFPExt(v, lltypes.Double)
	}
	return v
}

func (fe *funcEmitter) fromDouble(v value.Value, to lltypes.Type) value.Value {
	if to.Equal(lltypes.Float) {
		return fe.cur.NewFPTrunc(v, lltypes.Float)
	}
	return v
}

// spill stores an rvalue aggregate so it can be addressed.
func (fe *funcEmitter) spill(v value.Value) value.Value {
	slot := fe.entry.NewAlloca(v.Type())
	fe.cur.NewStore(v, slot)
	return slot
}
