package x86

import (
	"fmt"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/types"
)

func (e *emitter) block(body []ir.StmtID) {
	for _, id := range body {
		e.stmt(id)
	}
}

//nolint:gocyclo // one case per statement kind
func (e *emitter) stmt(id ir.StmtID) {
	s := *e.m.Stmt(id)
	switch d := s.Data.(type) {
	case ir.AssignData:
		n, ok := e.m.Expr(d.Target).Data.(ir.NameData)
		if !ok {
			e.fail(diag.GenUnsupported, s.Span, "x86 backend cannot generate stores into elements or fields")
			return
		}
		e.expr(d.Value)
		e.ins("mov %%rax, %s", e.operand(n.Sym))
	case ir.ExprStmtData:
		e.expr(d.Value)
	case ir.IfData:
		els := e.label("else")
		done := e.label("endif")
		e.expr(d.Cond)
		e.ins("test %%rax, %%rax")
		e.ins("je %s", els)
		e.block(d.Then)
		e.ins("jmp %s", done)
		e.place(els)
		e.block(d.Else)
		e.place(done)
	case ir.WhileData:
		cond := e.label("while")
		exit := e.label("endwhile")
		e.place(cond)
		e.expr(d.Cond)
		e.ins("test %%rax, %%rax")
		e.ins("je %s", exit)
		e.loops = append(e.loops, loopLabels{cond: cond, exit: exit})
		e.block(d.Body)
		e.loops = e.loops[:len(e.loops)-1]
		e.ins("jmp %s", cond)
		e.place(exit)
	case ir.ReturnData:
		if d.Value.IsValid() && e.m.Expr(d.Value).Type != e.tys.Builtins().None {
			e.expr(d.Value)
		} else {
			e.ins("xor %%eax, %%eax")
		}
		e.ins("jmp %s", e.retLbl)
	case ir.PrintData:
		e.print(d)
	default:
		switch s.Kind {
		case ir.StmtBreak, ir.StmtContinue:
			if len(e.loops) == 0 {
				e.fail(diag.GenUnsupported, s.Span, "x86 backend: "+s.Kind.String()+" outside a loop")
				return
			}
			top := e.loops[len(e.loops)-1]
			if s.Kind == ir.StmtBreak {
				e.ins("jmp %s", top.exit)
			} else {
				e.ins("jmp %s", top.cond)
			}
		default:
			e.fail(diag.GenUnsupported, s.Span,
				fmt.Sprintf("x86 backend cannot generate %s statements", s.Kind))
		}
	}
}

// strConst returns the label of a string constant, or "" when id is not one.
func (e *emitter) strConst(id ir.ExprID) string {
	c, ok := e.m.Expr(id).Data.(ir.ConstData)
	if !ok || c.Kind != ir.ConstStr {
		return ""
	}
	return e.str(c.Str)
}

// print evaluates every argument into a frame slot first, then writes them.
func (e *emitter) print(d ir.PrintData) {
	b := e.tys.Builtins()
	slots := make([]int, len(d.Args))
	for i, a := range d.Args {
		if e.strConst(a) != "" {
			continue
		}
		ty := e.m.Expr(a).Type
		if !e.scalar(ty) {
			e.fail(diag.GenBadType, e.m.Expr(a).Span,
				"x86 backend can print only integers, bools and string constants, not "+e.tys.String(ty))
			continue
		}
		e.expr(a)
		slots[i] = e.temp()
		e.ins("mov %%rax, %d(%%rbp)", slots[i])
	}
	sep, end := e.str(" "), e.str("\n")
	if d.Sep.IsValid() {
		if sep = e.strConst(d.Sep); sep == "" {
			e.unsupported(d.Sep, "a computed sep")
			return
		}
	}
	if d.End.IsValid() {
		if end = e.strConst(d.End); end == "" {
			e.unsupported(d.End, "a computed end")
			return
		}
	}
	for i, a := range d.Args {
		if i > 0 {
			e.ins("lea %s(%%rip), %%rdi", sep)
			e.call("viper_print_str")
		}
		if l := e.strConst(a); l != "" {
			e.ins("lea %s(%%rip), %%rdi", l)
			e.call("viper_print_str")
			continue
		}
		if slots[i] == 0 {
			continue
		}
		e.ins("mov %d(%%rbp), %%rdi", slots[i])
		if e.m.Expr(a).Type == b.Bool {
			e.call("viper_print_bool")
		} else {
			e.call("viper_print_i64")
		}
	}
	e.ins("lea %s(%%rip), %%rdi", end)
	e.call("viper_print_str")
}

// fail reports a backend error once per code and span; lowered statements
// often share the span of the source line they came from.
func (e *emitter) fail(code diag.Code, sp source.Span, msg string) {
	k := failKey{code, sp}
	if e.failed[k] {
		return
	}
	e.failed[k] = true
	diag.ReportError(e.rep, code, sp, msg).Emit()
}

func (e *emitter) unsupported(id ir.ExprID, what string) {
	e.fail(diag.GenUnsupported, e.m.Expr(id).Span, "x86 backend cannot generate "+what)
	e.ins("xor %%eax, %%eax")
}

// expr leaves the value of id in %rax.
//
//nolint:gocyclo // one case per expression kind
func (e *emitter) expr(id ir.ExprID) {
	x := *e.m.Expr(id)
	if x.Type != e.tys.Builtins().None && !e.scalar(x.Type) {
		e.fail(diag.GenBadType, x.Span,
			"x86 backend supports only integers and bools, not "+e.tys.String(x.Type))
		e.ins("xor %%eax, %%eax")
		return
	}
	switch d := x.Data.(type) {
	case ir.ConstData:
		v := d.Int
		if d.Kind == ir.ConstBool && d.Bool {
			v = 1
		} else if d.Kind != ir.ConstInt {
			v = 0
		}
		if v >= -1<<31 && v < 1<<31 {
			e.ins("mov $%d, %%rax", v)
		} else {
			e.ins("movabs $%d, %%rax", v)
		}
	case ir.NameData:
		e.ins("mov %s, %%rax", e.operand(d.Sym))
	case ir.UnaryData:
		e.expr(d.Operand)
		switch d.Op {
		case ast.OpNeg:
			e.ins("neg %%rax")
		case ast.OpInvert:
			e.ins("not %%rax")
		case ast.OpNot:
			e.ins("xor $1, %%rax")
		}
		e.narrow(x.Type)
	case ir.BinaryData:
		e.binary(d, x.Type, id)
	case ir.CompareData:
		e.operands(d.Left, d.Right)
		e.ins("cmp %%rcx, %%rax")
		e.ins("%s %%al", setcc[d.Op])
		e.ins("movzbq %%al, %%rax")
	case ir.BoolOpData:
		done := e.label("bool")
		e.expr(d.Left)
		e.ins("test %%rax, %%rax")
		if d.Op == ast.BoolAnd {
			e.ins("je %s", done)
		} else {
			e.ins("jne %s", done)
		}
		e.expr(d.Right)
		e.place(done)
	case ir.CallData:
		if len(d.Args) > len(argRegs) {
			e.fail(diag.GenTooManyArgs, x.Span,
				fmt.Sprintf("x86 backend passes at most %d arguments", len(argRegs)))
			e.ins("xor %%eax, %%eax")
			return
		}
		for _, a := range d.Args {
			e.expr(a)
			e.push()
		}
		for i := len(d.Args) - 1; i >= 0; i-- {
			e.pop(argRegs[i])
		}
		e.call(e.funcName(d.Callee))
		e.narrow(x.Type)
	case ir.CastData:
		from := e.m.Expr(d.Value).Type
		e.expr(d.Value)
		switch {
		case x.Type == e.tys.Builtins().Bool && from != x.Type:
			e.ins("test %%rax, %%rax")
			e.ins("setne %%al")
			e.ins("movzbq %%al, %%rax")
		default:
			e.narrow(x.Type)
		}
	default:
		e.unsupported(id, x.Kind.String()+" expressions")
	}
}

var setcc = map[ast.CmpOp]string{
	ast.CmpEq: "sete", ast.CmpNotEq: "setne",
	ast.CmpLt: "setl", ast.CmpLtE: "setle",
	ast.CmpGt: "setg", ast.CmpGtE: "setge",
}

// operands leaves the left value in %rax and the right one in %rcx.
func (e *emitter) operands(left, right ir.ExprID) {
	e.expr(left)
	e.push()
	e.expr(right)
	e.ins("mov %%rax, %%rcx")
	e.pop("%rax")
}

func (e *emitter) binary(d ir.BinaryData, ty types.TypeID, id ir.ExprID) {
	if d.Op == ast.OpDiv {
		e.unsupported(id, "true division")
		return
	}
	e.operands(d.Left, d.Right)
	switch d.Op {
	case ast.OpAdd:
		e.ins("add %%rcx, %%rax")
	case ast.OpSub:
		e.ins("sub %%rcx, %%rax")
	case ast.OpMul:
		e.ins("imul %%rcx, %%rax")
	case ast.OpBitAnd:
		e.ins("and %%rcx, %%rax")
	case ast.OpBitOr:
		e.ins("or %%rcx, %%rax")
	case ast.OpBitXor:
		e.ins("xor %%rcx, %%rax")
	case ast.OpShl:
		e.ins("shl %%cl, %%rax")
	case ast.OpShr:
		e.ins("sar %%cl, %%rax")
	case ast.OpFloorDiv, ast.OpMod, ast.OpPow:
		e.ins("mov %%rax, %%rdi")
		e.ins("mov %%rcx, %%rsi")
		e.call(map[ast.BinaryOp]string{
			ast.OpFloorDiv: "viper_ifloordiv",
			ast.OpMod:      "viper_imod",
			ast.OpPow:      "viper_ipow",
		}[d.Op])
	}
	e.narrow(ty)
}
